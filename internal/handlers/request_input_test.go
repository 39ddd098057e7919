package handlers

import (
	"errors"
	"mime/multipart"
	"strings"
	"testing"
)

func TestParseItemsAcceptsStringsAndNumbers(t *testing.T) {
	items, tokens, err := parseItems(`[
		{"name":"Laptop","description":"x","quantity":"2","price":"50.5","source":"VendorA"},
		{"name":"Cable","description":"y","quantity":3,"price":0,"source":"VendorB","attachment":"cable"},
		{"name":"Pen","description":"z","quantity":" 1 ","source":"Shop"}
	]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items got %d", len(items))
	}
	if items[0].Quantity != 2 || items[0].Price != 50.5 {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Quantity != 3 || tokens[1] != "cable" || tokens[0] != "" {
		t.Fatalf("unexpected second item %+v tokens %v", items[1], tokens)
	}
	if items[2].Price != 0 {
		t.Fatalf("missing price should default to 0, got %v", items[2].Price)
	}
}

func TestParseItemsAcceptsColumnBounds(t *testing.T) {
	items, _, err := parseItems(`[{"name":"a","description":"b","quantity":2147483647,"price":"9999999999.99","source":"s"},
		{"name":"c","description":"d","quantity":1,"price":1.15,"source":"s"}]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if items[0].Quantity != 2147483647 || items[0].Price != 9999999999.99 || items[1].Price != 1.15 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestParseItemsErrors(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		wantParse bool
	}{
		{"not json", "not valid json", true},
		{"object instead of list", `{"name":"a"}`, true},
		{"blank", "   ", true},
		{"empty list", `[]`, false},
		{"negative quantity", `[{"name":"a","description":"b","quantity":"-1","source":"s"}]`, false},
		{"text quantity", `[{"name":"a","description":"b","quantity":"abc","source":"s"}]`, false},
		{"zero quantity", `[{"name":"a","description":"b","quantity":0,"source":"s"}]`, false},
		{"fractional quantity", `[{"name":"a","description":"b","quantity":"1.5","source":"s"}]`, false},
		{"negative price", `[{"name":"a","description":"b","quantity":1,"price":"-2","source":"s"}]`, false},
		{"text price", `[{"name":"a","description":"b","quantity":1,"price":"cheap","source":"s"}]`, false},
		{"missing source", `[{"name":"a","description":"b","quantity":1}]`, false},
		{"unknown field", `[{"name":"a","description":"b","quantity":1,"source":"s","priority":"High"}]`, false},
		{"huge quantity", `[{"name":"a","description":"b","quantity":"2147483648","source":"s"}]`, false},
		{"huge price", `[{"name":"a","description":"b","quantity":1,"price":1e10,"source":"s"}]`, false},
		{"sub-cent price", `[{"name":"a","description":"b","quantity":1,"price":"0.005","source":"s"}]`, false},
		{"bool quantity", `[{"name":"a","description":"b","quantity":true,"source":"s"}]`, false},
	}
	for _, tc := range cases {
		_, _, err := parseItems(tc.raw)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		var pErr *ParseError
		var vErr *ValidationError
		if tc.wantParse && !errors.As(err, &pErr) {
			t.Errorf("%s: expected ParseError, got %T %v", tc.name, err, err)
		}
		if !tc.wantParse && !errors.As(err, &vErr) {
			t.Errorf("%s: expected ValidationError, got %T %v", tc.name, err, err)
		}
	}
}

func TestParseItemsReportsMissingFields(t *testing.T) {
	_, _, err := parseItems(`[{"name":"ok","description":"d","quantity":1,"source":"s"},{"quantity":1}]`)
	if err == nil || !strings.Contains(err.Error(), "Item 2") || !strings.Contains(err.Error(), "name, description, source") {
		t.Fatalf("unexpected error %v", err)
	}
}

func headers(names ...string) []*multipart.FileHeader {
	out := make([]*multipart.FileHeader, len(names))
	for i, n := range names {
		out[i] = &multipart.FileHeader{Filename: n}
	}
	return out
}

func TestMatchAttachmentsPositional(t *testing.T) {
	form := &multipart.Form{File: map[string][]*multipart.FileHeader{"files": headers("a.pdf")}}
	got, err := matchAttachments([]string{"", "", ""}, form)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] == nil || got[0].Filename != "a.pdf" || got[1] != nil || got[2] != nil {
		t.Fatalf("unexpected positional mapping %v", got)
	}

	if _, err := matchAttachments([]string{""}, &multipart.Form{File: map[string][]*multipart.FileHeader{
		"files": headers("a", "b"),
	}}); err == nil {
		t.Fatalf("expected error for more files than items")
	}

	got, err = matchAttachments([]string{"", ""}, nil)
	if err != nil || got[0] != nil || got[1] != nil {
		t.Fatalf("no form should mean no attachments: %v %v", got, err)
	}
}

func TestMatchAttachmentsByToken(t *testing.T) {
	form := &multipart.Form{File: map[string][]*multipart.FileHeader{
		"attachments[quote]": headers("quote.pdf"),
		"attachments[photo]": headers("photo.jpg"),
	}}
	got, err := matchAttachments([]string{"photo", "", "quote"}, form)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Filename != "photo.jpg" || got[1] != nil || got[2].Filename != "quote.pdf" {
		t.Fatalf("unexpected token mapping %v", got)
	}
}

func TestMatchAttachmentsByTokenErrors(t *testing.T) {
	cases := []struct {
		name   string
		tokens []string
		files  map[string][]*multipart.FileHeader
	}{
		{"missing upload", []string{"quote"}, map[string][]*multipart.FileHeader{}},
		{"unclaimed upload", []string{"quote"}, map[string][]*multipart.FileHeader{
			"attachments[quote]": headers("q"), "attachments[extra]": headers("e"),
		}},
		{"duplicate token", []string{"quote", "quote"}, map[string][]*multipart.FileHeader{
			"attachments[quote]": headers("q"),
		}},
		{"mixed modes", []string{"quote", ""}, map[string][]*multipart.FileHeader{
			"attachments[quote]": headers("q"), "files": headers("f"),
		}},
		{"token part without declaration", []string{""}, map[string][]*multipart.FileHeader{
			"attachments[quote]": headers("q"),
		}},
		{"two files for one token", []string{"quote"}, map[string][]*multipart.FileHeader{
			"attachments[quote]": headers("q1", "q2"),
		}},
	}
	for _, tc := range cases {
		_, err := matchAttachments(tc.tokens, &multipart.Form{File: tc.files})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}
}
