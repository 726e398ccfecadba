package canon

import "strings"

// SuffixTable is an ordered, versioned vocabulary of street suffixes. Lookups are
// case-insensitive; the table never changes after construction.
type SuffixTable struct {
	Version  string
	suffixes []string
	index    map[string]struct{}
}

func NewSuffixTable(version string, suffixes ...string) *SuffixTable {
	t := &SuffixTable{Version: version, index: make(map[string]struct{}, len(suffixes))}
	for _, s := range suffixes {
		key := strings.ToUpper(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if _, dup := t.index[key]; dup {
			continue
		}
		t.index[key] = struct{}{}
		t.suffixes = append(t.suffixes, s)
	}
	return t
}

// Extend returns a new table with extra suffixes appended under a new version.
func (t *SuffixTable) Extend(version string, extra ...string) *SuffixTable {
	all := append(append([]string(nil), t.suffixes...), extra...)
	return NewSuffixTable(version, all...)
}

func (t *SuffixTable) Contains(token string) bool {
	if t == nil {
		return false
	}
	key := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(token), "."))
	_, ok := t.index[key]
	return ok
}

func (t *SuffixTable) Len() int { return len(t.suffixes) }

// DefaultSuffixes covers the common USPS abbreviations plus the long forms of the
// primary ones. Long words that often appear inside street names (Creek, Spring,
// Hill) are only matched in abbreviated form.
var DefaultSuffixes = NewSuffixTable("us-2024.1",
	"St", "Street",
	"Ave", "Av", "Avenue",
	"Blvd", "Boulevard",
	"Dr", "Drive",
	"Rd", "Road",
	"Ln", "Lane",
	"Ct", "Court",
	"Pl", "Place",
	"Cir", "Circle",
	"Way",
	"Pkwy", "Parkway",
	"Trl", "Trail",
	"Loop",
	"Ter", "Terrace",
	"Hwy", "Highway",
	"Cv", "Xing", "Sq", "Bnd", "Holw", "Vw", "Pt", "Rdg", "Grv", "Hl", "Hts",
	"Expy", "Fwy", "Aly", "Crk", "Cres", "Mdw", "Spg", "Sta",
)
