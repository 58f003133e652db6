package request

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/user/crawler-panel/internal/entity"
)

// SubmitForm is a parsed form page submission.
type SubmitForm struct {
	Form  entity.FormState
	Async bool
}

// ParseSubmitForm reads a form page POST. The primary field is named after
// the request field of op (keywords, note_ids or creator_ids).
func ParseSubmitForm(r *http.Request, op entity.Operation) (SubmitForm, error) {
	if err := r.ParseForm(); err != nil {
		return SubmitForm{}, fmt.Errorf("parse form: %w", err)
	}
	f := r.PostForm

	form := entity.FormState{
		Platform:       f.Get("platform"),
		Target:         f.Get(op.TargetField()),
		StartPage:      parseStartPage(f.Get("start_page")),
		LoginType:      entity.LoginType(f.Get("login_type")),
		SaveDataOption: entity.SaveDataOption(f.Get("save_data_option")),
		GetComment:     checked(f.Get("get_comment")),
		GetSubComment:  checked(f.Get("get_sub_comment")),
		Cookies:        f.Get("cookies"),
	}

	// The clicked button and the hidden field set by the page script both
	// carry "mode"; either one saying async is enough.
	async := false
	for _, m := range f["mode"] {
		if m == "async" {
			async = true
		}
	}
	return SubmitForm{Form: form, Async: async}, nil
}

func parseStartPage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func checked(s string) bool {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
