package mediacrawler

import (
	"fmt"
	"strings"

	"github.com/user/crawler-panel/pkg/jsonutil"
)

// APIError is a non-2xx answer from the crawler API.
type APIError struct {
	StatusCode int
	// Detail is the server supplied explanation, empty if the body had none.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// parseDetail extracts the "detail" field of an error body. FastAPI sends a
// string for HTTPException and a list of {loc, msg, type} for validation errors.
func parseDetail(body []byte) string {
	var payload struct {
		Detail interface{} `json:"detail"`
	}
	if err := jsonutil.Unmarshal(body, &payload); err != nil {
		return ""
	}

	switch d := payload.Detail.(type) {
	case nil:
		return ""
	case string:
		return d
	case []interface{}:
		var msgs []string
		for _, item := range d {
			if m, ok := item.(map[string]interface{}); ok {
				if msg, ok := m["msg"].(string); ok && msg != "" {
					msgs = append(msgs, msg)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	s, err := jsonutil.MarshalString(payload.Detail)
	if err != nil {
		return ""
	}
	return s
}
