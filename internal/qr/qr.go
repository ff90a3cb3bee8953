// Package qr renders profile links and vCards as PNG QR codes.
package qr

import (
	"errors"
	"image/color"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/stefan-ffr/mueller/internal/directory"
	"github.com/stefan-ffr/mueller/internal/vcard"
)

const (
	// DefaultSize is the edge length of generated images in pixels.
	DefaultSize = 200

	// ErrorKeyLibraryMissing names the message shown when no encoder is configured.
	ErrorKeyLibraryMissing = "qr_library_missing"
	// ErrorKeyFailed names the message shown when encoding fails.
	ErrorKeyFailed = "qr_error"
)

var errNoEncoder = errors.New("qr: no encoder configured")

// Options controls a single encoding.
type Options struct {
	Size  int
	Dark  color.Color
	Light color.Color
	Level qrcode.RecoveryLevel
}

// Encoder turns text into PNG bytes.
type Encoder interface {
	Encode(text string, opts Options) ([]byte, error)
}

// PNGEncoder encodes with github.com/skip2/go-qrcode.
type PNGEncoder struct{}

// Encode implements Encoder.
func (PNGEncoder) Encode(text string, opts Options) ([]byte, error) {
	code, err := qrcode.New(text, opts.Level)
	if err != nil {
		return nil, err
	}
	code.ForegroundColor = opts.Dark
	code.BackgroundColor = opts.Light
	return code.PNG(opts.Size)
}

// Slot is one rendered QR code on a profile page. Either PNG is set or
// ErrorKey names the translation to show in its place.
type Slot struct {
	ID       string
	Country  string
	TitleKey string
	DescKey  string
	Data     string
	PNG      []byte
	ErrorKey string
}

// OK reports whether the slot has an image.
func (s Slot) OK() bool {
	return s.ErrorKey == "" && len(s.PNG) > 0
}

// Generator encodes slots and never fails; problems become an ErrorKey.
type Generator struct {
	enc    Encoder
	logger *zap.Logger
}

// NewGenerator returns a Generator. A nil encoder yields ErrorKeyLibraryMissing for every slot.
func NewGenerator(enc Encoder, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{enc: enc, logger: logger}
}

// Generate encodes data at 200x200 with recovery level L, dark modules in
// colorDark (#rrggbb) on white.
func (g *Generator) Generate(slotID, data, colorDark string) Slot {
	slot := Slot{ID: slotID, Data: data}
	if g.enc == nil {
		g.logger.Error("qr encoder unavailable", zap.String("slot", slotID), zap.Error(errNoEncoder))
		slot.ErrorKey = ErrorKeyLibraryMissing
		return slot
	}

	png, err := g.enc.Encode(data, Options{
		Size:  DefaultSize,
		Dark:  parseHex(colorDark),
		Light: color.White,
		Level: qrcode.Low,
	})
	if err != nil {
		preview := data
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		g.logger.Error("qr encoding failed",
			zap.String("slot", slotID),
			zap.Int("data_length", len(data)),
			zap.String("data_preview", preview),
			zap.Error(err),
		)
		slot.ErrorKey = ErrorKeyFailed
		return slot
	}
	slot.PNG = png
	return slot
}

// SlotPlan describes what a profile slot encodes before it is rendered.
type SlotPlan struct {
	ID       string
	Country  string
	TitleKey string
	DescKey  string
	Data     string
}

// PlanProfileSlots decides which QR codes a profile shows. One country gives
// a link and a combined vCard; more give one vCard per country followed by the link.
func PlanProfileSlots(person *directory.Person, pageURL string) []SlotPlan {
	link := SlotPlan{ID: "link", TitleKey: "qr_link", DescKey: "qr_link_desc", Data: pageURL}
	if len(person.Countries) <= 1 {
		return []SlotPlan{
			link,
			{ID: "vcard", TitleKey: "qr_vcard", DescKey: "qr_vcard_desc", Data: vcard.GenerateForQR(person, "")},
		}
	}

	plans := make([]SlotPlan, 0, len(person.Countries)+1)
	for _, c := range person.Countries {
		code := strings.ToLower(c.Code)
		title, desc := "qr_vcard", "qr_vcard_desc"
		switch code {
		case "ch", "th":
			title, desc = "qr_"+code, "qr_"+code+"_desc"
		}
		plans = append(plans, SlotPlan{
			ID:       "vcard-" + code,
			Country:  code,
			TitleKey: title,
			DescKey:  desc,
			Data:     vcard.GenerateForQR(person, c.Code),
		})
	}
	return append(plans, link)
}

// FindSlot returns the planned slot with the given id.
func FindSlot(person *directory.Person, pageURL, slotID string) (SlotPlan, bool) {
	for _, plan := range PlanProfileSlots(person, pageURL) {
		if plan.ID == slotID {
			return plan, true
		}
	}
	return SlotPlan{}, false
}

// ProfileQRCodes renders every planned slot in the person's theme color.
func (g *Generator) ProfileQRCodes(person *directory.Person, pageURL string) []Slot {
	plans := PlanProfileSlots(person, pageURL)
	slots := make([]Slot, 0, len(plans))
	for _, plan := range plans {
		slot := g.Generate(plan.ID, plan.Data, person.Theme.ColorDark)
		slot.Country = plan.Country
		slot.TitleKey = plan.TitleKey
		slot.DescKey = plan.DescKey
		slots = append(slots, slot)
	}
	return slots
}

// parseHex converts #rrggbb to a color, falling back to black.
func parseHex(hex string) color.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

