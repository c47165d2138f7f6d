package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/mariusnicorescu85/uk-property-investment/internal/fetch"
)

func TestLookupPostcode_PrimarySource(t *testing.T) {
	// Setup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":200,"result":{"latitude":51.5014,"longitude":-0.1419}}`))
	}))
	defer server.Close()

	geocoder := NewGeocoder(logrus.New(), t.TempDir(), "test-agent")
	geocoder.postcodesURL = server.URL + "/"

	// Test
	coords, err := geocoder.LookupPostcode(context.Background(), "SW1A 1AA")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 51.5014, coords.Latitude)
	assert.Equal(t, -0.1419, coords.Longitude)
	assert.Equal(t, "postcodes.io", coords.Provider)
}

func TestLookupPostcode_FallsBackToNominatim(t *testing.T) {
	// Setup
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gb", r.URL.Query().Get("countrycodes"))
		w.Write([]byte(`[{"lat":"53.4808","lon":"-2.2426"}]`))
	}))
	defer secondary.Close()

	geocoder := NewGeocoder(logrus.New(), t.TempDir(), "test-agent")
	geocoder.postcodesURL = primary.URL + "/"
	geocoder.nominatimURL = secondary.URL

	// Test
	coords, err := geocoder.LookupPostcode(context.Background(), "M1 1AE")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 53.4808, coords.Latitude)
	assert.Equal(t, -2.2426, coords.Longitude)
	assert.Equal(t, "nominatim", coords.Provider)
}

func TestLookupPostcode_BothSourcesFail(t *testing.T) {
	// Setup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	geocoder := NewGeocoder(logrus.New(), t.TempDir(), "test-agent")
	geocoder.postcodesURL = server.URL + "/"
	geocoder.nominatimURL = server.URL

	// Test
	_, err := geocoder.LookupPostcode(context.Background(), "SW1A 1AA")

	// Assert
	var upstream *fetch.UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.Equal(t, "geocoding", upstream.Source)
}

func TestLookupPostcode_SecondCallHitsCache(t *testing.T) {
	// Setup
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"status":200,"result":{"latitude":51.5014,"longitude":-0.1419}}`))
	}))
	defer server.Close()

	geocoder := NewGeocoder(logrus.New(), t.TempDir(), "test-agent")
	geocoder.postcodesURL = server.URL + "/"

	// Test
	first, err1 := geocoder.LookupPostcode(context.Background(), "SW1A 1AA")
	second, err2 := geocoder.LookupPostcode(context.Background(), "sw1a1aa")

	// Assert
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, 1, requests)
	assert.Equal(t, first.Latitude, second.Latitude)
	assert.Equal(t, "cache", second.Provider)
}
