package format

import "testing"

func TestPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+41791234567", "+41 79 123 45 67"},
		{"+41 79 123 45 67", "+41 79 123 45 67"},
		{"+66812345678", "+66 81 234 5678"},
		{"+66 81 234 5678", "+66 81 234 5678"},
		{"+4179123456", "+4179123456"},
		{"+6681234567890", "+6681234567890"},
		{"+49 151 2345678", "+49 151 2345678"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Phone(tc.in); got != tc.want {
			t.Errorf("Phone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTelHref(t *testing.T) {
	if got := TelHref("+41 79 123\t45 67"); got != "+41791234567" {
		t.Fatalf("unexpected tel href %q", got)
	}
}

func TestAddressSwiss(t *testing.T) {
	got := Address(AddressFields{
		Street:     "Gerliswilstrasse 1",
		City:       "Emmenbrücke",
		PostalCode: "6020",
		Country:    "Schweiz",
	})
	want := "Gerliswilstrasse 1<br>CH-6020 Emmenbrücke<br>Schweiz"
	if got != want {
		t.Fatalf("Address = %q, want %q", got, want)
	}
}

func TestAddressThaiAndEscaping(t *testing.T) {
	got := Address(AddressFields{
		Street:     "99/1 Moo 3 <b>",
		District:   "Tambon Nong Prue",
		Amphoe:     "Amphoe Bang Lamung",
		City:       "Chonburi",
		PostalCode: "20150",
		Country:    "Thailand",
	})
	want := "99/1 Moo 3 &lt;b&gt;<br>Tambon Nong Prue<br>Amphoe Bang Lamung<br>20150 Chonburi<br>Thailand"
	if got != want {
		t.Fatalf("Address = %q, want %q", got, want)
	}
}

func TestAddressEmpty(t *testing.T) {
	if got := Address(AddressFields{}); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestAddressPlain(t *testing.T) {
	got := AddressPlain(AddressFields{
		Street:     "99/1 Moo 3",
		Amphoe:     "Bang Lamung",
		City:       "Chonburi",
		PostalCode: "20150",
		Country:    "Thailand",
	})
	if got != "99/1 Moo 3, Bang Lamung, Chonburi" {
		t.Fatalf("unexpected plain address %q", got)
	}
}

func TestFlagForCountry(t *testing.T) {
	if got := FlagForCountry("CH"); got != "🇨🇭" {
		t.Errorf("expected swiss flag, got %q", got)
	}
	if got := FlagForCountry("th"); got != "🇹🇭" {
		t.Errorf("expected thai flag, got %q", got)
	}
	if got := FlagForCountry("jp"); got != "🌍" {
		t.Errorf("expected globe for unknown code, got %q", got)
	}
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`<a href="x">Tom & Jerry's</a>`)
	want := "&lt;a href=&#34;x&#34;&gt;Tom &amp; Jerry&#39;s&lt;/a&gt;"
	if got != want {
		t.Fatalf("EscapeHTML = %q, want %q", got, want)
	}
}
