package directory

import (
	"strings"

	"go.uber.org/zap"

	"github.com/stefan-ffr/mueller/internal/format"
)

// ResolveAddressReferences returns a copy of person with every "@shared/<key>"
// address replaced by the matching entry of shared.Addresses, country codes
// lowercased, and missing flags filled from the country code. The input is
// never modified.
//
// Unknown keys are left in place as references, logged at warn level, and
// returned so the caller can decide whether that is fatal.
func ResolveAddressReferences(person *Person, shared SharedData, logger *zap.Logger) (*Person, []string) {
	if person == nil {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	out := person.Clone()
	var unresolved []string
	for i := range out.Countries {
		country := &out.Countries[i]
		country.Code = strings.ToLower(strings.TrimSpace(country.Code))
		if country.Flag == "" {
			country.Flag = format.FlagForCountry(country.Code)
		}
		if country.Address.Inline != nil || country.Address.Ref == "" {
			continue
		}
		key, ok := country.Address.SharedKey()
		if ok {
			if addr, found := shared.Addresses[key]; found {
				country.Address = InlineAddress(addr)
				continue
			}
		}
		logger.Warn("unresolved address reference",
			zap.String("person", out.ID),
			zap.String("country", country.Code),
			zap.String("ref", country.Address.Ref),
		)
		unresolved = append(unresolved, country.Address.Ref)
	}
	return out, unresolved
}
