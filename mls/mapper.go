package mls

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yourorg/cma-api/internal/canon"
)

// stringNumber accepts string or number JSON and stores as string
type stringNumber string

func (s *stringNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = stringNumber(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = stringNumber(num.String())
	return nil
}

// flexNumber accepts numbers, numeric strings, null and "" (all non-numeric text is 0).
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	var s stringNumber
	if err := s.UnmarshalJSON(b); err != nil {
		return nil
	}
	clean := strings.ReplaceAll(string(s), ",", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = 0
		return nil
	}
	*f = flexNumber(v)
	return nil
}

func (f flexNumber) Int() int { return int(math.Round(float64(f))) }

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

type flexTime struct{ t *time.Time }

func (ft *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || strings.TrimSpace(s) == "" {
		ft.t = nil
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			t = t.UTC()
			ft.t = &t
			return nil
		}
	}
	ft.t = nil
	return nil
}

// photoList accepts ["url", ...] or [{"href": "url"}, ...].
type photoList []string

func (p *photoList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*p = nil
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Href string `json:"href"`
			URL  string `json:"url"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			if v := nonEmpty(obj.Href, obj.URL); v != "" {
				out = append(out, v)
			}
		}
	}
	*p = out
	return nil
}

type rawAddress struct {
	Full         string       `json:"full"`
	OneLine      string       `json:"oneLine"`
	Line1        string       `json:"line1"`
	StreetNumber stringNumber `json:"streetNumber"`
	StreetName   string       `json:"streetName"`
	Unit         stringNumber `json:"unit"`
	City         string       `json:"city"`
	Locality     string       `json:"locality"`
	State        string       `json:"state"`
	Region       string       `json:"region"`
	PostalCode   stringNumber `json:"postalCode"`
	Postal1      stringNumber `json:"postal1"`
}

// flexAddress accepts either an address object or a one-line string.
type flexAddress struct{ rawAddress }

func (a *flexAddress) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		a.Full = s
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	return json.Unmarshal(b, &a.rawAddress)
}

type rawListing struct {
	ListingID stringNumber `json:"listingId"`
	MlsID     stringNumber `json:"mlsId"`
	ID        stringNumber `json:"id"`
	Address   flexAddress  `json:"address"`

	ListPrice  flexNumber `json:"listPrice"`
	ClosePrice flexNumber `json:"closePrice"`

	Property struct {
		Bedrooms   flexNumber `json:"bedrooms"`
		Bathrooms  flexNumber `json:"bathrooms"`
		BathsFull  flexNumber `json:"bathsFull"`
		BathsHalf  flexNumber `json:"bathsHalf"`
		Area       flexNumber `json:"area"`
		LivingArea flexNumber `json:"livingArea"`
		LotSize    flexNumber `json:"lotSize"`
		YearBuilt  flexNumber `json:"yearBuilt"`
		Type       string     `json:"type"`
		SubType    string     `json:"subType"`
	} `json:"property"`

	Beds          flexNumber `json:"beds"`
	Bedrooms      flexNumber `json:"bedrooms"`
	Baths         flexNumber `json:"baths"`
	BathsFull     flexNumber `json:"bathsFull"`
	BathsHalf     flexNumber `json:"bathsHalf"`
	Sqft          flexNumber `json:"sqft"`
	LivingArea    flexNumber `json:"livingArea"`
	LotSize       flexNumber `json:"lotSize"`
	YearBuilt     flexNumber `json:"yearBuilt"`
	PropertyType  string     `json:"propertyType"`
	Status        string     `json:"status"`
	StandardState string     `json:"standardStatus"`
	ListDate      flexTime   `json:"listDate"`
	CloseDate     flexTime   `json:"closeDate"`
	DaysOnMarket  flexNumber `json:"daysOnMarket"`

	Mls struct {
		Status       string     `json:"status"`
		DaysOnMarket flexNumber `json:"daysOnMarket"`
	} `json:"mls"`
	Sales struct {
		ClosePrice flexNumber `json:"closePrice"`
		CloseDate  flexTime   `json:"closeDate"`
	} `json:"sales"`

	Photos photoList `json:"photos"`

	Geo struct {
		Lat flexNumber `json:"lat"`
		Lng flexNumber `json:"lng"`
	} `json:"geo"`
	Latitude    flexNumber `json:"latitude"`
	Longitude   flexNumber `json:"longitude"`
	Coordinates struct {
		Latitude  flexNumber `json:"latitude"`
		Longitude flexNumber `json:"longitude"`
	} `json:"coordinates"`
}

var errUnknownRoot = errors.New("mls: payload has no listings array")

// MapListingsPayload normalizes a provider payload into Listings. The root may be
// an array or an object wrapping the array under one of several keys.
func MapListingsPayload(raw []byte) ([]Listing, error) {
	items, err := listingsArray(raw)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(items))
	for _, item := range items {
		var r rawListing
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, err
		}
		out = append(out, r.normalize())
	}
	return out, nil
}

func listingsArray(raw []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errUnknownRoot
	}
	var items []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return nil, err
	}
	for _, key := range []string{"listings", "properties", "property", "value", "results"} {
		v, ok := root[key]
		if !ok || string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	return nil, errUnknownRoot
}

func (r rawListing) normalize() Listing {
	a := r.Address.rawAddress
	full := firstNonEmpty(a.Full, a.OneLine, a.Line1)
	addr := Address{
		Full:         full,
		StreetNumber: string(a.StreetNumber),
		StreetName:   strings.TrimSpace(a.StreetName),
		Unit:         string(a.Unit),
		City:         cityCase(nonEmpty(a.City, a.Locality)),
		State:        strings.ToUpper(strings.TrimSpace(nonEmpty(a.State, a.Region))),
		PostalCode:   firstNonEmpty(string(a.PostalCode), string(a.Postal1)),
	}
	if full != "" && (addr.StreetNumber == "" || addr.StreetName == "") {
		parsed := canon.Parse(full)
		if addr.StreetNumber == "" {
			addr.StreetNumber = parsed.StreetNumber
		}
		if addr.StreetName == "" {
			addr.StreetName = strings.TrimSpace(parsed.StreetName + " " + parsed.StreetSuffix)
		}
		if addr.City == "" {
			addr.City = cityCase(parsed.City)
		}
		if addr.State == "" {
			addr.State = parsed.State
		}
		if addr.PostalCode == "" {
			addr.PostalCode = parsed.Zip
		}
	}
	if addr.Full == "" {
		addr.Full = strings.Join(strings.Fields(addr.StreetNumber+" "+addr.StreetName), " ")
	}

	baths := firstPositive(float64(r.Property.Bathrooms), float64(r.Baths))
	if baths == 0 {
		full := firstPositive(float64(r.Property.BathsFull), float64(r.BathsFull))
		half := firstPositive(float64(r.Property.BathsHalf), float64(r.BathsHalf))
		baths = full + 0.5*half
	}

	lat := firstNonZero(float64(r.Geo.Lat), float64(r.Latitude), float64(r.Coordinates.Latitude))
	lng := firstNonZero(float64(r.Geo.Lng), float64(r.Longitude), float64(r.Coordinates.Longitude))
	var coords *Coordinates
	if lat != 0 || lng != 0 {
		coords = &Coordinates{Lat: lat, Lng: lng}
	}

	closeDate := r.Sales.CloseDate.t
	if closeDate == nil {
		closeDate = r.CloseDate.t
	}

	photos := make([]string, 0, len(r.Photos))
	for _, href := range r.Photos {
		photos = append(photos, upgradePhotoURL(href))
	}

	return Listing{
		ID:           firstNonEmpty(string(r.ListingID), string(r.MlsID), string(r.ID)),
		MLSID:        string(r.MlsID),
		Address:      addr,
		ListPrice:    r.ListPrice.Int(),
		ClosePrice:   firstPositiveInt(r.Sales.ClosePrice.Int(), r.ClosePrice.Int()),
		Beds:         firstPositiveInt(r.Property.Bedrooms.Int(), r.Bedrooms.Int(), r.Beds.Int()),
		Baths:        baths,
		Sqft:         firstPositiveInt(r.Property.Area.Int(), r.Property.LivingArea.Int(), r.Sqft.Int(), r.LivingArea.Int()),
		LotSize:      firstPositive(float64(r.Property.LotSize), float64(r.LotSize)),
		YearBuilt:    firstPositiveInt(r.Property.YearBuilt.Int(), r.YearBuilt.Int()),
		PropertyType: firstNonEmpty(r.Property.Type, r.PropertyType),
		Status:       firstNonEmpty(r.Mls.Status, r.Status, r.StandardState),
		ListDate:     r.ListDate.t,
		CloseDate:    closeDate,
		DaysOnMarket: firstPositiveInt(r.Mls.DaysOnMarket.Int(), r.DaysOnMarket.Int()),
		Photos:       photos,
		Coordinates:  coords,
	}
}

// cityCase title-cases all-caps city names ("ROUND ROCK" -> "Round Rock").
func cityCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s != strings.ToUpper(s) {
		return s
	}
	// a Caser keeps state, so one per call
	return cases.Title(language.English).String(strings.ToLower(s))
}

func nonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositiveInt(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

// coordinates can be negative; zero means absent
func firstNonZero(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
