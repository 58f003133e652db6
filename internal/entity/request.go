package entity

// LoginType is how the crawler authenticates against the target platform.
type LoginType string

const (
	LoginTypeQRCode LoginType = "qrcode"
	LoginTypePhone  LoginType = "phone"
	LoginTypeCookie LoginType = "cookie"
)

// LoginTypes lists the accepted values in display order.
var LoginTypes = []LoginType{LoginTypeQRCode, LoginTypePhone, LoginTypeCookie}

func (t LoginType) Valid() bool {
	switch t {
	case LoginTypeQRCode, LoginTypePhone, LoginTypeCookie:
		return true
	}
	return false
}

// SaveDataOption is the persistence format the crawler writes results in.
type SaveDataOption string

const (
	SaveDataCSV    SaveDataOption = "csv"
	SaveDataDB     SaveDataOption = "db"
	SaveDataJSON   SaveDataOption = "json"
	SaveDataSQLite SaveDataOption = "sqlite"
)

// SaveDataOptions lists the accepted values in display order.
var SaveDataOptions = []SaveDataOption{SaveDataJSON, SaveDataCSV, SaveDataSQLite, SaveDataDB}

func (o SaveDataOption) Valid() bool {
	switch o {
	case SaveDataCSV, SaveDataDB, SaveDataJSON, SaveDataSQLite:
		return true
	}
	return false
}

// BaseRequest carries the fields shared by every crawl request.
type BaseRequest struct {
	Platform       string         `json:"platform"`
	LoginType      LoginType      `json:"login_type,omitempty"`
	SaveDataOption SaveDataOption `json:"save_data_option,omitempty"`
	Cookies        string         `json:"cookies,omitempty"`
}

// Normalize drops the cookie text unless cookie login was chosen.
func (b *BaseRequest) Normalize() {
	if b.LoginType != LoginTypeCookie {
		b.Cookies = ""
	}
}

// SearchRequest is the body of POST /search and /search/async.
type SearchRequest struct {
	BaseRequest
	Keywords      string `json:"keywords"`
	StartPage     int    `json:"start_page"`
	GetComment    bool   `json:"get_comment"`
	GetSubComment bool   `json:"get_sub_comment"`
}

// DetailRequest is the body of POST /detail and /detail/async.
// NoteIDs is a comma separated list of post/video IDs.
type DetailRequest struct {
	BaseRequest
	NoteIDs       string `json:"note_ids"`
	GetComment    bool   `json:"get_comment"`
	GetSubComment bool   `json:"get_sub_comment"`
}

// CreatorRequest is the body of POST /creator and /creator/async.
// CreatorIDs is a comma separated list of creator IDs.
type CreatorRequest struct {
	BaseRequest
	CreatorIDs    string `json:"creator_ids"`
	GetComment    bool   `json:"get_comment"`
	GetSubComment bool   `json:"get_sub_comment"`
}

// QuickSearchOptions are the query parameters of GET /search/{platform}.
// Zero values fall back to qrcode login, page 1 and comments on.
type QuickSearchOptions struct {
	LoginType  LoginType
	StartPage  int
	GetComment *bool
}
