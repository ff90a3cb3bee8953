package handlers

import (
	"html/template"
	"strings"

	"github.com/stefan-ffr/mueller/internal/cms"
	"github.com/stefan-ffr/mueller/internal/directory"
)

// IndexView lists the family members followed by the link tiles.
type IndexView struct {
	People []PersonCard
	Tiles  []TileCard
}

// PersonCard links one person from the index.
type PersonCard struct {
	ID           string
	Href         string
	Initial      string
	FullName     string
	GradientFrom string
	GradientTo   string
}

// TileCard is a rendered tile.
type TileCard struct {
	ID          string
	Title       string
	Description template.HTML
	Icon        string
	Theme       string
	Href        string
	External    bool
}

// BuildIndex maps people and tiles for the index template. Tile texts are
// picked in lang, then fallback.
func BuildIndex(people []*directory.Person, tiles []directory.Tile, lang, fallback string) *IndexView {
	view := &IndexView{
		People: make([]PersonCard, 0, len(people)),
		Tiles:  make([]TileCard, 0, len(tiles)),
	}
	for _, p := range people {
		if p == nil {
			continue
		}
		view.People = append(view.People, PersonCard{
			ID:           p.ID,
			Href:         "/profile?person=" + p.ID,
			Initial:      initial(p),
			FullName:     p.FullName,
			GradientFrom: p.Theme.GradientFrom,
			GradientTo:   p.Theme.GradientTo,
		})
	}
	for _, t := range tiles {
		card := TileCard{
			ID:          t.ID,
			Title:       t.Title.Get(lang, fallback),
			Description: cms.Inline(t.Description.Get(lang, fallback)),
			Icon:        t.Icon,
			Theme:       t.Theme,
			Href:        t.URL,
			External:    t.External(),
		}
		if card.Theme == "" {
			card.Theme = "gray-500"
		}
		if !card.External && card.Href == "" {
			card.Href = "/pages/" + t.ID
		}
		view.Tiles = append(view.Tiles, card)
	}
	return view
}

func initial(p *directory.Person) string {
	if s := strings.TrimSpace(p.Initial); s != "" {
		return s
	}
	for _, r := range p.FirstName + p.FullName {
		return strings.ToUpper(string(r))
	}
	return "?"
}
