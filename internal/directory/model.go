package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/stefan-ffr/mueller/internal/format"
)

// SharedRefPrefix marks an address that points into shared.json.
const SharedRefPrefix = "@shared/"

// Person is a family member record as stored in {id}.json.
type Person struct {
	ID            string         `json:"id"`
	DisplayOrder  int            `json:"displayOrder"`
	FullName      string         `json:"fullName"`
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	Initial       string         `json:"initial"`
	Theme         Theme          `json:"theme"`
	QuickContacts []QuickContact `json:"quickContacts,omitempty"`
	Countries     []Country      `json:"countries"`
}

// QuickContact is a labelled shortcut number shown above the country cards.
type QuickContact struct {
	Label string `json:"label"`
	Phone string `json:"phone"`
}

// Country groups the contact details a person has in one country.
type Country struct {
	Code    string       `json:"code"`
	Name    string       `json:"name"`
	Flag    string       `json:"flag,omitempty"`
	Phone   string       `json:"phone,omitempty"`
	Email   string       `json:"email,omitempty"`
	Address AddressValue `json:"address,omitempty"`
}

// Address is a postal address. District and Amphoe are only used for Thai addresses.
type Address struct {
	Street     string `json:"street,omitempty"`
	District   string `json:"district,omitempty"`
	Amphoe     string `json:"amphoe,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Fields converts the address for the format package.
func (a Address) Fields() format.AddressFields {
	return format.AddressFields{
		Street:     a.Street,
		District:   a.District,
		Amphoe:     a.Amphoe,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// AddressValue holds either an inline address or a "@shared/<key>" reference.
// It decodes from and encodes to the same JSON shape it was read from.
type AddressValue struct {
	Inline *Address
	Ref    string
}

// InlineAddress wraps an address value.
func InlineAddress(addr Address) AddressValue {
	return AddressValue{Inline: &addr}
}

// SharedAddress builds a reference to a shared address key.
func SharedAddress(key string) AddressValue {
	return AddressValue{Ref: SharedRefPrefix + key}
}

// IsZero reports whether no address is present.
func (v AddressValue) IsZero() bool {
	return v.Inline == nil && v.Ref == ""
}

// Resolved returns the inline address, or nil while the value is still a reference.
func (v AddressValue) Resolved() *Address {
	return v.Inline
}

// SharedKey returns the key of a "@shared/" reference.
func (v AddressValue) SharedKey() (string, bool) {
	if v.Inline != nil || !strings.HasPrefix(v.Ref, SharedRefPrefix) {
		return "", false
	}
	return strings.TrimPrefix(v.Ref, SharedRefPrefix), true
}

func (v AddressValue) clone() AddressValue {
	if v.Inline == nil {
		return AddressValue{Ref: v.Ref}
	}
	addr := *v.Inline
	return AddressValue{Inline: &addr}
}

// MarshalJSON implements json.Marshaler.
func (v AddressValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Inline != nil:
		return json.Marshal(v.Inline)
	case v.Ref != "":
		return json.Marshal(v.Ref)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *AddressValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = AddressValue{}
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var ref string
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		v.Ref = strings.TrimSpace(ref)
		return nil
	case data[0] == '{':
		var addr Address
		if err := json.Unmarshal(data, &addr); err != nil {
			return err
		}
		v.Inline = &addr
		return nil
	default:
		return fmt.Errorf("directory: address must be an object or a string reference, got %s", data)
	}
}

// SharedData is the content of shared.json.
type SharedData struct {
	Addresses map[string]Address `json:"addresses"`
	Tiles     []string           `json:"tiles"`
}

// Clone returns a deep copy.
func (s SharedData) Clone() SharedData {
	out := SharedData{}
	if s.Addresses != nil {
		out.Addresses = make(map[string]Address, len(s.Addresses))
		for k, v := range s.Addresses {
			out.Addresses[k] = v
		}
	}
	if s.Tiles != nil {
		out.Tiles = append([]string(nil), s.Tiles...)
	}
	return out
}

// Tile is a link card shown on the index page below the people.
type Tile struct {
	ID           string        `json:"id"`
	DisplayOrder int           `json:"displayOrder"`
	Title        LocalizedText `json:"title"`
	Description  LocalizedText `json:"description"`
	Icon         string        `json:"icon"`
	Theme        string        `json:"theme"`
	URL          string        `json:"url"`
	Type         string        `json:"type"`
}

// External reports whether the tile links off-site.
func (t Tile) External() bool {
	return strings.EqualFold(t.Type, "external")
}

// Clone returns a deep copy.
func (t Tile) Clone() Tile {
	out := t
	out.Title = t.Title.Clone()
	out.Description = t.Description.Clone()
	return out
}

// LocalizedText is a per-language string. It decodes from either a
// {"de": "...", "en": "..."} object or a plain string used for every language.
type LocalizedText map[string]string

const anyLang = "*"

// Get returns the text for lang, then fallback, then the plain value, then any
// language in sorted order.
func (t LocalizedText) Get(lang, fallback string) string {
	if len(t) == 0 {
		return ""
	}
	for _, key := range []string{lang, fallback, anyLang} {
		if v, ok := t[key]; ok && v != "" {
			return v
		}
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if t[k] != "" {
			return t[k]
		}
	}
	return ""
}

// Clone returns a copy.
func (t LocalizedText) Clone() LocalizedText {
	if t == nil {
		return nil
	}
	out := make(LocalizedText, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = LocalizedText{anyLang: s}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*t = LocalizedText(m)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if v, ok := t[anyLang]; ok && len(t) == 1 {
		return json.Marshal(v)
	}
	return json.Marshal(map[string]string(t))
}

// Translations maps language -> key -> text, as stored in translations.json.
type Translations map[string]map[string]string

// Clone returns a deep copy.
func (t Translations) Clone() Translations {
	if t == nil {
		return nil
	}
	out := make(Translations, len(t))
	for lang, table := range t {
		copied := make(map[string]string, len(table))
		for k, v := range table {
			copied[k] = v
		}
		out[lang] = copied
	}
	return out
}

// Clone returns a deep copy of the person. Cached records are never handed out directly.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	out := *p
	if p.QuickContacts != nil {
		out.QuickContacts = append([]QuickContact(nil), p.QuickContacts...)
	}
	if p.Countries != nil {
		out.Countries = make([]Country, len(p.Countries))
		for i, c := range p.Countries {
			c.Address = c.Address.clone()
			out.Countries[i] = c
		}
	}
	return &out
}

// Country returns the country with the given code.
func (p *Person) Country(code string) (Country, bool) {
	for _, c := range p.Countries {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}

// HasCountry reports whether the person has contact details for code.
func (p *Person) HasCountry(code string) bool {
	_, ok := p.Country(code)
	return ok
}
