package service

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	schema := Schema{
		Type: "object",
		Properties: map[string]Property{
			"item_key": {Type: "string"},
			"tags":     {Type: "array"},
			"limit":    {Type: "integer"},
		},
		Required: []string{"item_key"},
	}

	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{name: "valid", raw: `{"item_key": "ABCD2345", "limit": 5}`},
		{name: "missing required", raw: `{"limit": 5}`, wantField: "item_key"},
		{name: "blank required", raw: `{"item_key": "  "}`, wantField: "item_key"},
		{name: "unknown argument", raw: `{"item_key": "ABCD2345", "zzz": 1, "aaa": 2}`, wantField: "aaa"},
		{name: "not an object", raw: `[1, 2]`, wantField: "arguments"},
		{name: "null is empty", raw: `null`, wantField: "item_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(json.RawMessage(tt.raw), schema)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("parseArgs() error = %v", err)
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("parseArgs() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func decodeArgs(t *testing.T, raw string) args {
	t.Helper()
	a, err := parseArgs(json.RawMessage(raw), Schema{Properties: map[string]Property{
		"n": {}, "b": {}, "s": {}, "l": {}, "k": {},
	}})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	return a
}

func TestArgs_Integer(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: `{}`, want: 9},
		{raw: `{"n": 3}`, want: 3},
		{raw: `{"n": "12"}`, want: 12},
		{raw: `{"n": 2.5}`, wantErr: true},
		{raw: `{"n": "many"}`, wantErr: true},
		{raw: `{"n": true}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := decodeArgs(t, tt.raw).integer("n", 9)
			if (err != nil) != tt.wantErr {
				t.Fatalf("integer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("integer() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestArgs_IntRange(t *testing.T) {
	a := decodeArgs(t, `{"n": 0}`)
	if _, err := a.intRange("n", 7, 1, 10); err == nil {
		t.Error("intRange() accepted a value below the minimum")
	}
	if got, err := decodeArgs(t, `{}`).intRange("n", 7, 1, 10); err != nil || got != 7 {
		t.Errorf("intRange() = %d, %v, want default 7", got, err)
	}
}

func TestArgs_Boolean(t *testing.T) {
	tests := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{raw: `{}`, want: true},
		{raw: `{"b": false}`, want: false},
		{raw: `{"b": "false"}`, want: false},
		{raw: `{"b": 1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := decodeArgs(t, tt.raw).boolean("b", true)
			if (err != nil) != tt.wantErr {
				t.Fatalf("boolean() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("boolean() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArgs_List(t *testing.T) {
	tests := []struct {
		raw     string
		want    []string
		wantErr bool
	}{
		{raw: `{}`, want: nil},
		{raw: `{"l": "book, thesis ,"}`, want: []string{"book", "thesis"}},
		{raw: `{"l": ["ml", " cats ", ""]}`, want: []string{"ml", "cats"}},
		{raw: `{"l": ["ml", 3]}`, wantErr: true},
		{raw: `{"l": 3}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := decodeArgs(t, tt.raw).list("l")
			if (err != nil) != tt.wantErr {
				t.Fatalf("list() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("list() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArgs_Key(t *testing.T) {
	if got, err := decodeArgs(t, `{"k": " ABCD2345 "}`).key("k"); err != nil || got != "ABCD2345" {
		t.Errorf("key() = %q, %v", got, err)
	}
	if got, err := decodeArgs(t, `{"k": "COL1"}`).key("k"); err != nil || got != "COL1" {
		t.Errorf("key() on a short key = %q, %v", got, err)
	}
	for _, bad := range []string{`"AB/CD"`, `"AB CD"`, `"AB,CD"`, `"AB?CD"`, `"` + strings.Repeat("A", 65) + `"`} {
		if _, err := decodeArgs(t, `{"k": `+bad+`}`).key("k"); err == nil {
			t.Errorf("key() accepted %s", bad)
		}
	}
	if got, err := decodeArgs(t, `{}`).key("k"); err != nil || got != "" {
		t.Errorf("key() on missing = %q, %v", got, err)
	}
}
