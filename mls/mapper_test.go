package mls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simplyRetsPayload = `[
  {
    "mlsId": 1005192,
    "listingId": "49699",
    "address": {
      "streetNumber": 100,
      "streetName": "Congress Ave",
      "unit": "5",
      "city": "AUSTIN",
      "state": "TX",
      "postalCode": "78701",
      "full": "100 Congress Ave #5"
    },
    "listPrice": 525000,
    "listDate": "2024-02-01T08:00:00Z",
    "property": {
      "bedrooms": 3,
      "bathsFull": 2,
      "bathsHalf": 1,
      "area": 1850,
      "lotSize": "0.21",
      "yearBuilt": 1998,
      "type": "Residential"
    },
    "mls": {"status": "Closed", "daysOnMarket": 21},
    "sales": {"closePrice": 510000, "closeDate": "2024-03-15T00:00:00Z"},
    "photos": ["https://cdn.example.com/p/1-w640_h480.jpg", ""],
    "geo": {"lat": 30.2642, "lng": -97.7446}
  }
]`

const wrappedPayload = `{
  "listings": [
    {
      "id": "abc-1",
      "address": "2402 Rockingham Cir, Austin, TX 78704",
      "price": 1,
      "listPrice": "649,900",
      "beds": "4",
      "baths": 2.5,
      "sqft": "2100",
      "propertyType": "Residential",
      "status": "Active",
      "closeDate": "",
      "daysOnMarket": "7",
      "photos": [{"href": "https://cdn.example.com/a.jpg"}, {"url": "https://cdn.example.com/b.jpg"}],
      "latitude": "30.25",
      "longitude": "-97.77"
    }
  ]
}`

func TestMapListingsPayload_SimplyRetsShape(t *testing.T) {
	listings, err := MapListingsPayload([]byte(simplyRetsPayload))
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "49699", l.ID)
	assert.Equal(t, "1005192", l.MLSID)
	assert.Equal(t, "100", l.Address.StreetNumber)
	assert.Equal(t, "Congress Ave", l.Address.StreetName)
	assert.Equal(t, "5", l.Address.Unit)
	assert.Equal(t, "Austin", l.Address.City)
	assert.Equal(t, "78701", l.Address.PostalCode)
	assert.Equal(t, 525000, l.ListPrice)
	assert.Equal(t, 510000, l.ClosePrice)
	assert.Equal(t, 510000, l.Price())
	assert.Equal(t, 3, l.Beds)
	assert.InDelta(t, 2.5, l.Baths, 0.001)
	assert.Equal(t, 1850, l.Sqft)
	assert.InDelta(t, 0.21, l.LotSize, 0.0001)
	assert.Equal(t, 1998, l.YearBuilt)
	assert.Equal(t, "Residential", l.PropertyType)
	assert.Equal(t, "Closed", l.Status)
	assert.True(t, l.IsClosed())
	assert.Equal(t, 21, l.DaysOnMarket)
	require.NotNil(t, l.CloseDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *l.CloseDate)
	require.NotNil(t, l.ListDate)
	assert.Equal(t, []string{"https://cdn.example.com/p/1-w2048_h1536.jpg"}, l.Photos)
	require.NotNil(t, l.Coordinates)
	assert.InDelta(t, 30.2642, l.Coordinates.Lat, 1e-9)
	assert.InDelta(t, -97.7446, l.Coordinates.Lng, 1e-9)
}

func TestMapListingsPayload_WrappedAlternateNames(t *testing.T) {
	listings, err := MapListingsPayload([]byte(wrappedPayload))
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "abc-1", l.ID)
	assert.Equal(t, "2402 Rockingham Cir, Austin, TX 78704", l.Address.Full)
	assert.Equal(t, "2402", l.Address.StreetNumber)
	assert.Equal(t, "Rockingham Cir", l.Address.StreetName)
	assert.Equal(t, 649900, l.ListPrice)
	assert.Equal(t, 4, l.Beds)
	assert.InDelta(t, 2.5, l.Baths, 0.001)
	assert.Equal(t, 2100, l.Sqft)
	assert.Equal(t, "Active", l.Status)
	assert.False(t, l.IsClosed())
	assert.Nil(t, l.CloseDate)
	assert.Equal(t, 7, l.DaysOnMarket)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}, l.Photos)
	require.NotNil(t, l.Coordinates)
	assert.InDelta(t, 30.25, l.Coordinates.Lat, 1e-9)
}

func TestMapListingsPayload_EmptyAndInvalid(t *testing.T) {
	listings, err := MapListingsPayload([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, listings)

	listings, err = MapListingsPayload([]byte(`{"properties": []}`))
	require.NoError(t, err)
	assert.Empty(t, listings)

	_, err = MapListingsPayload([]byte(`{"unexpected": true}`))
	assert.Error(t, err)

	_, err = MapListingsPayload([]byte(`not json`))
	assert.Error(t, err)

	_, err = MapListingsPayload(nil)
	assert.Error(t, err)
}

func TestMapListingsPayload_NoCoordinates(t *testing.T) {
	listings, err := MapListingsPayload([]byte(`[{"id": 1, "address": {"full": "1 A St"}}]`))
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Nil(t, listings[0].Coordinates)
	assert.Equal(t, "1", listings[0].ID)
	assert.NotNil(t, listings[0].Photos)
}

func TestCityCase(t *testing.T) {
	assert.Equal(t, "Round Rock", cityCase("ROUND ROCK"))
	assert.Equal(t, "McKinney", cityCase("McKinney"))
	assert.Equal(t, "", cityCase("  "))
}
