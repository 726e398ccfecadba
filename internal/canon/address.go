package canon

import (
	"regexp"
	"strings"
)

var rePunct = regexp.MustCompile(`[^A-Za-z0-9\s]`)

// Canonicalize normalizes an address and computes a stable property key.
// Unit/suite designators are dropped so every unit of a building shares a key.
func Canonicalize(line1, city, state, zip string) (normLine1, normCity, normState, normZip, propertyKey string) {
	n1 := CanonicalStreet(line1)
	c := collapseSpaces(rePunct.ReplaceAllString(strings.ToUpper(strings.TrimSpace(city)), " "))
	st := strings.ToUpper(strings.TrimSpace(state))
	if len(st) > 2 {
		st = stateAbbrev(st)
	}
	z := trimZIP(zip)

	key := strings.ToLower(n1 + "|" + c + "|" + st + "|" + z)
	return n1, c, st, z, key
}

// CanonicalStreet upper-cases a street fragment, strips unit designators and
// punctuation, and abbreviates long-form suffixes.
func CanonicalStreet(s string) string {
	n := strings.TrimSpace(strings.ToUpper(s))
	n = stripUnit(n)
	n = rePunct.ReplaceAllString(n, " ")
	n = collapseSpaces(n)
	return abbreviateSuffix(n)
}

// SameStreet reports whether a candidate's street number and name match the
// searched ones. Names match when the candidate's canonical name contains the
// searched name; suffix and unit are not compared.
func SameStreet(searchNumber, searchName, candNumber, candName string) bool {
	sn := CanonicalStreet(searchNumber)
	sName := CanonicalStreet(searchName)
	if sn == "" || sName == "" {
		return false
	}
	if CanonicalStreet(candNumber) != sn {
		return false
	}
	return strings.Contains(" "+CanonicalStreet(candName)+" ", " "+sName+" ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func trimZIP(z string) string {
	z = strings.TrimSpace(z)
	if len(z) >= 5 {
		return z[:5]
	}
	return z
}

func stripUnit(s string) string {
	toks := []string{" APT ", " UNIT ", " STE ", " SUITE ", " #"}
	up := " " + s + " "
	for _, t := range toks {
		if i := strings.Index(up, t); i >= 0 {
			return strings.TrimSpace(up[:i])
		}
	}
	return strings.TrimSpace(s)
}

var longSuffixes = map[string]string{
	"STREET":    "ST",
	"ROAD":      "RD",
	"AVENUE":    "AVE",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"LANE":      "LN",
	"COURT":     "CT",
	"CIRCLE":    "CIR",
	"TERRACE":   "TER",
	"PLACE":     "PL",
	"PARKWAY":   "PKWY",
	"HIGHWAY":   "HWY",
	"TRAIL":     "TRL",
	"COVE":      "CV",
}

// abbreviateSuffix works token-wise so "STREETER" is left alone.
func abbreviateSuffix(s string) string {
	toks := strings.Fields(s)
	for i, t := range toks {
		if i == 0 {
			continue
		}
		if v, ok := longSuffixes[t]; ok {
			toks[i] = v
		}
	}
	return strings.Join(toks, " ")
}

var stateNames = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR", "CALIFORNIA": "CA", "COLORADO": "CO",
	"CONNECTICUT": "CT", "DELAWARE": "DE", "DISTRICT OF COLUMBIA": "DC", "FLORIDA": "FL", "GEORGIA": "GA",
	"HAWAII": "HI", "IDAHO": "ID", "ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA", "KANSAS": "KS",
	"KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME", "MARYLAND": "MD", "MASSACHUSETTS": "MA",
	"MICHIGAN": "MI", "MINNESOTA": "MN", "MISSISSIPPI": "MS", "MISSOURI": "MO", "MONTANA": "MT",
	"NEBRASKA": "NE", "NEVADA": "NV", "NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM",
	"NEW YORK": "NY", "NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH", "OKLAHOMA": "OK",
	"OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI", "SOUTH CAROLINA": "SC", "SOUTH DAKOTA": "SD",
	"TENNESSEE": "TN", "TEXAS": "TX", "UTAH": "UT", "VERMONT": "VT", "VIRGINIA": "VA", "WASHINGTON": "WA",
	"WEST VIRGINIA": "WV", "WISCONSIN": "WI", "WYOMING": "WY",
}

func stateAbbrev(s string) string {
	if v, ok := stateNames[s]; ok {
		return v
	}
	return s
}
