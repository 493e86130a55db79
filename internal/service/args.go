package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"zotero-bridge/internal/model"
)

// args holds the decoded arguments of one tool call.
type args map[string]any

// parseArgs decodes raw into args and checks it against schema: unknown
// names are rejected and required names must be present.
func parseArgs(raw json.RawMessage, schema Schema) (args, error) {
	a := args{}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&a); err != nil {
			return nil, &ValidationError{Field: "arguments", Message: "must be a JSON object"}
		}
	}

	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if _, ok := schema.Properties[name]; !ok {
			return nil, &ValidationError{Field: name, Message: "unknown argument"}
		}
	}

	for _, name := range schema.Required {
		switch v := a[name].(type) {
		case nil:
			return nil, &ValidationError{Field: name, Message: "is required"}
		case string:
			if strings.TrimSpace(v) == "" {
				return nil, &ValidationError{Field: name, Message: "is required"}
			}
		case []any:
			if len(v) == 0 {
				return nil, &ValidationError{Field: name, Message: "is required"}
			}
		}
	}

	return a, nil
}

func (a args) str(name string) (string, error) {
	switch v := a[name].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		return "", &ValidationError{Field: name, Message: "must be a string"}
	}
}

// integer accepts JSON numbers and numeric strings.
func (a args) integer(name string, def int) (int, error) {
	var s string
	switch v := a[name].(type) {
	case nil:
		return def, nil
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	default:
		return 0, &ValidationError{Field: name, Message: "must be an integer"}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

// intRange is integer with inclusive bounds.
func (a args) intRange(name string, def, lo, hi int) (int, error) {
	n, err := a.integer(name, def)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, &ValidationError{Field: name, Message: "must be between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi)}
	}
	return n, nil
}

func (a args) boolean(name string, def bool) (bool, error) {
	switch v := a[name].(type) {
	case nil:
		return def, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, &ValidationError{Field: name, Message: "must be a boolean"}
		}
		return b, nil
	default:
		return false, &ValidationError{Field: name, Message: "must be a boolean"}
	}
}

// list accepts an array of strings or a comma-separated string.
func (a args) list(name string) ([]string, error) {
	switch v := a[name].(type) {
	case nil:
		return nil, nil
	case string:
		return model.SplitList(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, &ValidationError{Field: name, Message: "must be a list of strings"}
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	default:
		return nil, &ValidationError{Field: name, Message: "must be a list of strings"}
	}
}

// key reads an object key. An empty value is accepted only when the
// argument is optional.
func (a args) key(name string) (string, error) {
	s, err := a.str(name)
	if err != nil || s == "" {
		return s, err
	}
	if msg := checkKey(s); msg != "" {
		return "", &ValidationError{Field: name, Message: msg}
	}
	return s, nil
}

// maxKeyLength bounds object keys. Zotero keys are 8 characters; anything
// else is passed through and simply not found.
const maxKeyLength = 64

// checkKey returns why s cannot be used as an object key, or "".
// Keys end up in URL paths and comma-separated query values.
func checkKey(s string) string {
	switch {
	case utf8.RuneCountInString(s) > maxKeyLength:
		return fmt.Sprintf("must be at most %d characters", maxKeyLength)
	case strings.ContainsAny(s, "/?#%\\,"), strings.IndexFunc(s, unicode.IsSpace) >= 0:
		return "must not contain spaces or any of / ? # % \\ ,"
	}
	return ""
}

func (a args) enum(name, def string, allowed []string) (string, error) {
	s, err := a.str(name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return def, nil
	}
	if !slices.Contains(allowed, s) {
		return "", &ValidationError{Field: name, Message: "must be one of " + strings.Join(allowed, ", ")}
	}
	return s, nil
}
