package seo

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stefan-ffr/mueller/internal/directory"
)

func TestPersonSchema(t *testing.T) {
	p := &directory.Person{
		FullName:  "Stefan Müller",
		FirstName: "Stefan",
		LastName:  "Müller",
		Countries: []directory.Country{
			{
				Code:  "ch",
				Phone: "+41 79 123 45 67",
				Email: "stefan@example.ch",
				Address: directory.InlineAddress(directory.Address{
					Street: "Gerliswilstrasse 1", City: "Emmenbrücke", PostalCode: "6020", Country: "Schweiz",
				}),
			},
			{Code: "th", Phone: "+66 81 234 5678", Address: directory.SharedAddress("missing")},
		},
	}
	got := Person(p, "https://family.example.ch/p/stefan")

	var decoded map[string]any
	if err := json.Unmarshal([]byte(JSON(got)), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"@context":   "https://schema.org",
		"@type":      "Person",
		"name":       "Stefan Müller",
		"givenName":  "Stefan",
		"familyName": "Müller",
		"url":        "https://family.example.ch/p/stefan",
		"telephone":  []any{"+41791234567", "+66812345678"},
		"email":      []any{"stefan@example.ch"},
		"address": []any{map[string]any{
			"@type":           "PostalAddress",
			"streetAddress":   "Gerliswilstrasse 1",
			"addressLocality": "Emmenbrücke",
			"postalCode":      "6020",
			"addressCountry":  "Schweiz",
		}},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Fatalf("person schema mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONEscapesScriptClose(t *testing.T) {
	out := string(JSON(map[string]string{"name": "</script><b>"}))
	if strings.Contains(out, "</script>") {
		t.Fatalf("script close must be escaped: %s", out)
	}
}

func TestMetaAlternates(t *testing.T) {
	m := NewMeta("Stefan Müller - Kontakt", "", "https://family.example.ch/p/stefan", "Familie Müller")
	m = m.WithAlternates([]string{"de", "en"}, func(lang string) string {
		return m.Canonical + "?lang=" + lang
	})
	if len(m.Alternates) != 2 || m.Alternates[1].Href != "https://family.example.ch/p/stefan?lang=en" {
		t.Fatalf("unexpected alternates %+v", m.Alternates)
	}
	if m.OG.Type != "profile" || m.Robots == "" {
		t.Fatalf("unexpected meta %+v", m)
	}
}
