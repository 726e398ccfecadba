package mls

import (
	"strings"
	"time"
)

// Listing is the provider-independent shape every payload is normalized into.
type Listing struct {
	ID           string       `json:"id"`
	MLSID        string       `json:"mlsId,omitempty"`
	Address      Address      `json:"address"`
	ListPrice    int          `json:"listPrice"`
	ClosePrice   int          `json:"closePrice,omitempty"`
	Beds         int          `json:"beds"`
	Baths        float64      `json:"baths"`
	Sqft         int          `json:"sqft"`
	LotSize      float64      `json:"lotSize,omitempty"`
	YearBuilt    int          `json:"yearBuilt,omitempty"`
	PropertyType string       `json:"propertyType,omitempty"`
	Status       string       `json:"status"`
	ListDate     *time.Time   `json:"listDate,omitempty"`
	CloseDate    *time.Time   `json:"closeDate,omitempty"`
	DaysOnMarket int          `json:"daysOnMarket,omitempty"`
	Photos       []string     `json:"photos"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

type Address struct {
	Full         string `json:"full"`
	StreetNumber string `json:"streetNumber,omitempty"`
	StreetName   string `json:"streetName,omitempty"`
	Unit         string `json:"unit,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Statuses understood by the provider's status filter.
const (
	StatusActive              = "Active"
	StatusPending             = "Pending"
	StatusActiveUnderContract = "ActiveUnderContract"
	StatusClosed              = "Closed"
	StatusExpired             = "Expired"
	StatusWithdrawn           = "Withdrawn"
)

func (l Listing) IsClosed() bool {
	return strings.EqualFold(l.Status, StatusClosed) || strings.EqualFold(l.Status, "Sold")
}

// Price prefers the close price for sold listings.
func (l Listing) Price() int {
	if l.IsClosed() && l.ClosePrice > 0 {
		return l.ClosePrice
	}
	return l.ListPrice
}
