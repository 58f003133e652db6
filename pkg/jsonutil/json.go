package jsonutil

import (
	"github.com/bytedance/sonic"
)

// API is the frozen sonic configuration shared by the panel.
var API = sonic.Config{
	UseNumber:   true,
	EscapeHTML:  true,
	SortMapKeys: false,
}.Froze()

func Marshal(v interface{}) ([]byte, error) {
	return API.Marshal(v)
}

func Unmarshal(data []byte, v interface{}) error {
	return API.Unmarshal(data, v)
}

// MarshalString serializes v and returns the JSON text.
func MarshalString(v interface{}) (string, error) {
	b, err := API.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return API.MarshalIndent(v, prefix, indent)
}
