package directory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressValueDecodesBothShapes(t *testing.T) {
	var countries []Country
	err := json.Unmarshal([]byte(`[
		{"code": "ch", "address": "@shared/emmenbruecke"},
		{"code": "th", "address": {"street": "99/1 Moo 3", "city": "Chonburi"}},
		{"code": "de"}
	]`), &countries)
	require.NoError(t, err)

	key, ok := countries[0].Address.SharedKey()
	require.True(t, ok)
	require.Equal(t, "emmenbruecke", key)
	require.Nil(t, countries[0].Address.Resolved())

	require.NotNil(t, countries[1].Address.Resolved())
	require.Equal(t, "Chonburi", countries[1].Address.Resolved().City)
	_, ok = countries[1].Address.SharedKey()
	require.False(t, ok)

	require.True(t, countries[2].Address.IsZero())

	out, err := json.Marshal(countries[0].Address)
	require.NoError(t, err)
	require.JSONEq(t, `"@shared/emmenbruecke"`, string(out))
}

func TestAddressValueRejectsOtherShapes(t *testing.T) {
	var c Country
	err := json.Unmarshal([]byte(`{"code": "ch", "address": 42}`), &c)
	require.Error(t, err)
}

func TestLocalizedText(t *testing.T) {
	var tile Tile
	require.NoError(t, json.Unmarshal([]byte(`{"title": {"de": "Fotos", "th": "รูปภาพ"}, "description": "Nur ein Text"}`), &tile))

	require.Equal(t, "รูปภาพ", tile.Title.Get("th", "en"))
	require.Equal(t, "Fotos", tile.Title.Get("en", "de"))
	require.Equal(t, "Fotos", tile.Title.Get("fr", "it"), "falls back to any language")
	require.Equal(t, "Nur ein Text", tile.Description.Get("en", "en"))
	require.Equal(t, "", LocalizedText(nil).Get("de", "en"))

	out, err := json.Marshal(tile.Description)
	require.NoError(t, err)
	require.JSONEq(t, `"Nur ein Text"`, string(out))
}

func TestThemeValidate(t *testing.T) {
	valid := Theme{
		ColorDark:    "#7e22ce",
		GradientFrom: "purple-500",
		GradientTo:   "pink-500",
		BgGradient:   "from-purple-50 to-pink-100",
		TextColor:    "purple-600",
		ButtonColor:  "purple-600",
		ButtonHover:  "purple-700",
	}
	require.NoError(t, valid.Validate())
	require.Equal(t, "purple-50", valid.BgFrom())

	cases := map[string]func(*Theme){
		"bad hex":         func(th *Theme) { th.ColorDark = "purple" },
		"unknown family":  func(th *Theme) { th.GradientFrom = "grape-500" },
		"unknown shade":   func(th *Theme) { th.TextColor = "purple-550" },
		"missing token":   func(th *Theme) { th.ButtonHover = "" },
		"one-class bg":    func(th *Theme) { th.BgGradient = "from-purple-50" },
		"swapped bg":      func(th *Theme) { th.BgGradient = "to-pink-100 from-purple-50" },
		"bad bg token":    func(th *Theme) { th.BgGradient = "from-purple-50 to-pinkish-100" },
		"injection in bg": func(th *Theme) { th.BgGradient = `from-purple-50 to-pink-100" onload="x` },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			theme := valid
			mutate(&theme)
			require.ErrorIs(t, theme.Validate(), ErrInvalidTheme)
		})
	}
}

func TestPersonCloneIsDeep(t *testing.T) {
	p := &Person{
		ID:            "sky",
		QuickContacts: []QuickContact{{Label: "mama", Phone: "+66 81 111 2222"}},
		Countries:     []Country{{Code: "th", Address: InlineAddress(Address{City: "Chonburi"})}},
	}
	c := p.Clone()
	c.QuickContacts[0].Label = "papa"
	c.Countries[0].Address.Inline.City = "Bangkok"

	require.Equal(t, "mama", p.QuickContacts[0].Label)
	require.Equal(t, "Chonburi", p.Countries[0].Address.Inline.City)
	require.True(t, p.HasCountry("TH"))
	require.False(t, p.HasCountry("ch"))
}

func TestResolveAddressReferencesLeavesInputUntouched(t *testing.T) {
	shared := SharedData{Addresses: map[string]Address{"emmenbruecke": {City: "Emmenbrücke"}}}
	in := &Person{ID: "stefan", Countries: []Country{
		{Code: "ch", Address: SharedAddress("emmenbruecke")},
		{Code: " XX", Address: SharedAddress("gone")},
	}}

	out, unresolved := ResolveAddressReferences(in, shared, nil)

	require.Equal(t, []string{"@shared/gone"}, unresolved)
	require.Equal(t, "Emmenbrücke", out.Countries[0].Address.Resolved().City)
	require.Equal(t, "🇨🇭", out.Countries[0].Flag)
	require.Equal(t, "🌍", out.Countries[1].Flag)
	require.Equal(t, "xx", out.Countries[1].Code)

	require.Equal(t, "@shared/emmenbruecke", in.Countries[0].Address.Ref)
	require.Nil(t, in.Countries[0].Address.Inline)
	require.Empty(t, in.Countries[0].Flag)
	require.Equal(t, " XX", in.Countries[1].Code)
}
