package mls

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Params is the flat parameter bag accepted by the listings search endpoint.
// Zero values are omitted from the query.
type Params struct {
	Query        string
	StreetNumber string
	StreetName   string
	StreetSuffix string
	City         string
	PostalCode   string
	Status       string
	MinCloseDate time.Time
	MinPrice     int
	MaxPrice     int
	MinBeds      int
	MinBaths     int
	MinSqft      int
	MaxSqft      int
	PropertyType string
	Limit        int
	Page         int
	Sort         string
}

func (p Params) Values() url.Values {
	q := url.Values{}
	setStr := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	setInt := func(k string, v int) {
		if v > 0 {
			q.Set(k, strconv.Itoa(v))
		}
	}
	setStr("q", p.Query)
	setStr("streetNumber", p.StreetNumber)
	setStr("streetName", p.StreetName)
	setStr("streetSuffix", p.StreetSuffix)
	setStr("cities", p.City)
	setStr("postalCodes", p.PostalCode)
	setStr("status", p.Status)
	if !p.MinCloseDate.IsZero() {
		q.Set("mincloseddate", p.MinCloseDate.Format("2006-01-02"))
	}
	setInt("minprice", p.MinPrice)
	setInt("maxprice", p.MaxPrice)
	setInt("minbeds", p.MinBeds)
	setInt("minbaths", p.MinBaths)
	setInt("minarea", p.MinSqft)
	setInt("maxarea", p.MaxSqft)
	setStr("type", p.PropertyType)
	setInt("limit", p.Limit)
	if p.Page > 1 && p.Limit > 0 {
		q.Set("offset", strconv.Itoa((p.Page-1)*p.Limit))
	}
	setStr("sort", p.Sort)
	return q
}

// String is used in log lines; it never includes credentials.
func (p Params) String() string {
	return fmt.Sprintf("status=%s %s", p.Status, p.Values().Encode())
}
