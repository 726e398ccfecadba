package comps

import (
	"encoding/json"
	"strings"

	"github.com/yourorg/cma-api/internal/canon"
	"github.com/yourorg/cma-api/mls"
)

type TierKind string

const (
	TierExact    TierKind = "exact"
	TierRelaxed  TierKind = "relaxed"
	TierFreeText TierKind = "free_text"
	TierZip      TierKind = "zip"
)

// Tier is one precision level of the fallback chain.
type Tier struct {
	Kind   TierKind
	Params mls.Params
}

// matchesStreet reports whether candidates of this tier can be compared to a
// searched street number and name.
func (t Tier) matchesStreet() bool {
	return t.Params.StreetNumber != "" && t.Params.StreetName != ""
}

func (t Tier) MarshalJSON() ([]byte, error) {
	fields := map[string]string{}
	for k, v := range t.Params.Values() {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return json.Marshal(struct {
		Kind   TierKind          `json:"kind"`
		Params map[string]string `json:"params"`
	}{t.Kind, fields})
}

// BuildFallbacks parses the address and returns its tiers, most precise first.
func BuildFallbacks(fullAddress string) []Tier {
	return BuildTiers(canon.Parse(fullAddress), fullAddress)
}

// BuildTiers emits, in order: exact (number+name+zip), relaxed (name + city or
// zip), free text (always), zip only. Each is included only when its fields exist.
func BuildTiers(addr canon.ParsedAddress, fullAddress string) []Tier {
	zip := zip5(addr.Zip)
	tiers := make([]Tier, 0, 4)

	if addr.StreetNumber != "" && addr.StreetName != "" && zip != "" {
		tiers = append(tiers, Tier{Kind: TierExact, Params: mls.Params{
			StreetNumber: addr.StreetNumber,
			StreetName:   addr.StreetName,
			StreetSuffix: addr.StreetSuffix,
			PostalCode:   zip,
		}})
	}
	if addr.StreetName != "" && (addr.City != "" || zip != "") {
		tiers = append(tiers, Tier{Kind: TierRelaxed, Params: mls.Params{
			StreetName: addr.StreetName,
			City:       addr.City,
			PostalCode: zip,
		}})
	}
	tiers = append(tiers, Tier{Kind: TierFreeText, Params: mls.Params{
		Query: strings.TrimSpace(fullAddress),
	}})
	if zip != "" {
		tiers = append(tiers, Tier{Kind: TierZip, Params: mls.Params{PostalCode: zip}})
	}
	return tiers
}

func zip5(z string) string {
	z = strings.TrimSpace(z)
	if len(z) > 5 {
		return z[:5]
	}
	return z
}
