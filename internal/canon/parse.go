package canon

import (
	"regexp"
	"strings"
)

// ParsedAddress holds whatever could be recovered from a free-text address.
// Empty fields mean the part was absent.
type ParsedAddress struct {
	StreetNumber string `json:"streetNumber,omitempty"`
	StreetName   string `json:"streetName,omitempty"`
	StreetSuffix string `json:"streetSuffix,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Zip          string `json:"zip,omitempty"`
}

// Line renders the street portion, e.g. "2402 Rockingham Cir".
func (p ParsedAddress) Line() string {
	return collapseSpaces(p.StreetNumber + " " + p.StreetName + " " + p.StreetSuffix)
}

func (p ParsedAddress) IsZero() bool { return p == ParsedAddress{} }

var (
	reStateZip     = regexp.MustCompile(`^(.*?)[\s,]*\b([A-Za-z]{2})\s+(\d{5}(?:-\d{4})?)$`)
	reStreetNumber = regexp.MustCompile(`^(\d+[A-Za-z]?)(?:\s+|$)(.*)$`)
)

type Parser struct {
	Suffixes *SuffixTable
}

func NewParser(suffixes *SuffixTable) *Parser {
	if suffixes == nil {
		suffixes = DefaultSuffixes
	}
	return &Parser{Suffixes: suffixes}
}

// Parse splits on commas; the first segment is the street, the last may end in
// "STATE ZIP". It never fails and returns best-effort partial results.
func Parse(full string) ParsedAddress {
	return NewParser(nil).Parse(full)
}

func (p *Parser) Parse(full string) ParsedAddress {
	var out ParsedAddress
	segments := splitSegments(full)
	if len(segments) == 0 {
		return out
	}
	if len(segments) < 2 {
		p.parseStreet(segments[0], &out)
		return out
	}

	last := segments[len(segments)-1]
	if m := reStateZip.FindStringSubmatch(last); m != nil {
		out.State = strings.ToUpper(m[2])
		out.Zip = m[3]
		out.City = strings.TrimSpace(m[1])
		if out.City == "" && len(segments) >= 3 {
			out.City = segments[len(segments)-2]
		}
	} else {
		out.City = last
	}
	p.parseStreet(segments[0], &out)
	return out
}

func (p *Parser) parseStreet(street string, out *ParsedAddress) {
	rest := collapseSpaces(street)
	if m := reStreetNumber.FindStringSubmatch(rest); m != nil {
		out.StreetNumber = m[1]
		rest = strings.TrimSpace(m[2])
	}
	if rest == "" {
		return
	}
	tokens := strings.Fields(rest)
	// index 0 is always name so "12 Loop Rd" keeps "Loop" as the name
	for i := 1; i < len(tokens); i++ {
		if p.Suffixes.Contains(tokens[i]) {
			out.StreetName = strings.Join(tokens[:i], " ")
			out.StreetSuffix = strings.TrimSuffix(tokens[i], ".")
			return
		}
	}
	out.StreetName = rest
}

func splitSegments(full string) []string {
	raw := strings.Split(full, ",")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = collapseSpaces(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
