package entity

import (
	"strings"
	"time"
)

// Operation is one of the three crawl modes offered by the panel.
type Operation string

const (
	OperationSearch  Operation = "search"
	OperationDetail  Operation = "detail"
	OperationCreator Operation = "creator"
)

// Operations lists the crawl modes in display order.
var Operations = []Operation{OperationSearch, OperationDetail, OperationCreator}

func (o Operation) Valid() bool {
	switch o {
	case OperationSearch, OperationDetail, OperationCreator:
		return true
	}
	return false
}

// Endpoint is the crawler API path for the operation; async runs get an /async suffix.
func (o Operation) Endpoint(async bool) string {
	if async {
		return "/" + string(o) + "/async"
	}
	return "/" + string(o)
}

// TargetField is the request field holding the operation's primary input.
func (o Operation) TargetField() string {
	switch o {
	case OperationDetail:
		return "note_ids"
	case OperationCreator:
		return "creator_ids"
	default:
		return "keywords"
	}
}

// FormState is the editable content of a form page. Target holds the
// keywords, note IDs or creator IDs depending on the operation.
type FormState struct {
	Platform       string         `json:"platform"`
	Target         string         `json:"target"`
	StartPage      int            `json:"start_page"`
	LoginType      LoginType      `json:"login_type"`
	SaveDataOption SaveDataOption `json:"save_data_option"`
	GetComment     bool           `json:"get_comment"`
	GetSubComment  bool           `json:"get_sub_comment"`
	Cookies        string         `json:"cookies"`
}

// NewFormState returns the defaults a freshly opened page starts with.
func NewFormState(platform string) FormState {
	return FormState{
		Platform:       platform,
		StartPage:      1,
		LoginType:      LoginTypeQRCode,
		SaveDataOption: SaveDataJSON,
		GetComment:     true,
		GetSubComment:  false,
	}
}

// Sanitize replaces out-of-range values with their defaults.
func (f *FormState) Sanitize() {
	f.Platform = strings.TrimSpace(f.Platform)
	if f.StartPage < 1 {
		f.StartPage = 1
	}
	if !f.LoginType.Valid() {
		f.LoginType = LoginTypeQRCode
	}
	if !f.SaveDataOption.Valid() {
		f.SaveDataOption = SaveDataJSON
	}
}

// CookiesVisible reports whether the cookie textbox belongs on the page.
func (f FormState) CookiesVisible() bool {
	return f.LoginType == LoginTypeCookie
}

func (f FormState) base() BaseRequest {
	b := BaseRequest{
		Platform:       f.Platform,
		LoginType:      f.LoginType,
		SaveDataOption: f.SaveDataOption,
		Cookies:        f.Cookies,
	}
	b.Normalize()
	return b
}

func (f FormState) SearchRequest() SearchRequest {
	return SearchRequest{
		BaseRequest:   f.base(),
		Keywords:      f.Target,
		StartPage:     f.StartPage,
		GetComment:    f.GetComment,
		GetSubComment: f.GetSubComment,
	}
}

func (f FormState) DetailRequest() DetailRequest {
	return DetailRequest{
		BaseRequest:   f.base(),
		NoteIDs:       f.Target,
		GetComment:    f.GetComment,
		GetSubComment: f.GetSubComment,
	}
}

func (f FormState) CreatorRequest() CreatorRequest {
	return CreatorRequest{
		BaseRequest:   f.base(),
		CreatorIDs:    f.Target,
		GetComment:    f.GetComment,
		GetSubComment: f.GetSubComment,
	}
}

// PageState is everything a form page keeps between requests of one session.
type PageState struct {
	Operation Operation    `json:"operation"`
	Form      FormState    `json:"form"`
	Loading   bool         `json:"loading"`
	IsAsync   bool         `json:"is_async"`
	Result    *APIResponse `json:"result,omitempty"`
	Notice    string       `json:"notice,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewPageState opens a page for op seeded with the chosen platform.
func NewPageState(op Operation, platform string) *PageState {
	return &PageState{
		Operation: op,
		Form:      NewFormState(platform),
		UpdatedAt: time.Now(),
	}
}
