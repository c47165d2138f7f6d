package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mariusnicorescu85/uk-property-investment/internal/fetch"
	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

const (
	postcodesIOURL = "https://api.postcodes.io/postcodes/"
	nominatimURL   = "https://nominatim.openstreetmap.org/search"
)

// Geocoder resolves postcodes to coordinates. Results are kept in a
// disk-backed cache because a postcode's location never changes.
type Geocoder struct {
	logger    *logrus.Logger
	cacheDir  string
	cache     map[string][]float64
	cacheLock sync.RWMutex
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string

	postcodesURL string
	nominatimURL string
}

func NewGeocoder(logger *logrus.Logger, cacheDir, userAgent string) *Geocoder {
	os.MkdirAll(cacheDir, 0755)

	g := &Geocoder{
		logger:       logger,
		cacheDir:     cacheDir,
		cache:        make(map[string][]float64),
		client:       &http.Client{Timeout: 10 * time.Second},
		limiter:      rate.NewLimiter(rate.Every(time.Second), 1),
		userAgent:    userAgent,
		postcodesURL: postcodesIOURL,
		nominatimURL: nominatimURL,
	}

	g.loadCache()

	return g
}

func (g *Geocoder) loadCache() {
	cacheFile := filepath.Join(g.cacheDir, "geocode_cache.json")
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		g.logger.Warnf("Could not load geocode cache: %v", err)
		return
	}

	err = json.Unmarshal(data, &g.cache)
	if err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		return
	}

	g.logger.Infof("Loaded %d cached postcodes", len(g.cache))
}

func (g *Geocoder) saveCache() {
	g.cacheLock.RLock()
	defer g.cacheLock.RUnlock()

	cacheFile := filepath.Join(g.cacheDir, "geocode_cache.json")
	data, err := json.Marshal(g.cache)
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	err = os.WriteFile(cacheFile, data, 0644)
	if err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
		return
	}

	g.logger.Info("Saved geocode cache to disk")
}

type postcodesIOResponse struct {
	Status int `json:"status"`
	Result struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"result"`
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// LookupPostcode resolves a postcode to coordinates, trying postcodes.io
// first and falling back to Nominatim.
func (g *Geocoder) LookupPostcode(ctx context.Context, postcode string) (*models.Coordinates, error) {
	cacheKey := strings.ToUpper(strings.ReplaceAll(postcode, " ", ""))

	g.cacheLock.RLock()
	if coords, ok := g.cache[cacheKey]; ok {
		g.cacheLock.RUnlock()
		if len(coords) == 2 {
			g.logger.WithFields(logrus.Fields{
				"postcode":  postcode,
				"latitude":  coords[0],
				"longitude": coords[1],
				"source":    "cache",
			}).Debug("Found coordinates in cache")
			return &models.Coordinates{Latitude: coords[0], Longitude: coords[1], Provider: "cache"}, nil
		}
		return nil, fmt.Errorf("invalid cached coordinates")
	}
	g.cacheLock.RUnlock()

	coords, err := g.lookupPostcodesIO(ctx, postcode)
	if err != nil {
		g.logger.WithError(err).WithField("postcode", postcode).Warn("postcodes.io lookup failed, trying Nominatim")
		coords, err = g.lookupNominatim(ctx, postcode)
	}
	if err != nil {
		return nil, &fetch.UpstreamError{Source: "geocoding", Err: err}
	}

	g.cacheLock.Lock()
	g.cache[cacheKey] = []float64{coords.Latitude, coords.Longitude}
	g.cacheLock.Unlock()

	go g.saveCache()

	return coords, nil
}

func (g *Geocoder) lookupPostcodesIO(ctx context.Context, postcode string) (*models.Coordinates, error) {
	lookupURL := g.postcodesURL + url.PathEscape(postcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("postcode lookup failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("postcode lookup returned status %d", resp.StatusCode)
	}

	var result postcodesIOResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	if result.Status != http.StatusOK {
		return nil, fmt.Errorf("postcode lookup returned status %d", result.Status)
	}

	g.logger.WithFields(logrus.Fields{
		"postcode":  postcode,
		"latitude":  result.Result.Latitude,
		"longitude": result.Result.Longitude,
		"source":    "postcodes.io",
	}).Info("Successfully geocoded postcode")

	return &models.Coordinates{
		Latitude:  result.Result.Latitude,
		Longitude: result.Result.Longitude,
		Provider:  "postcodes.io",
	}, nil
}

func (g *Geocoder) lookupNominatim(ctx context.Context, postcode string) (*models.Coordinates, error) {
	// Respect Nominatim's usage policy
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %v", err)
	}

	params := url.Values{
		"q":            []string{postcode + ", United Kingdom"},
		"format":       []string{"json"},
		"limit":        []string{"1"},
		"countrycodes": []string{"gb"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.nominatimURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no results found for postcode: %s", postcode)
	}

	var lat, lon float64
	fmt.Sscanf(result[0].Lat, "%f", &lat)
	fmt.Sscanf(result[0].Lon, "%f", &lon)

	g.logger.WithFields(logrus.Fields{
		"postcode":  postcode,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded postcode")

	return &models.Coordinates{Latitude: lat, Longitude: lon, Provider: "nominatim"}, nil
}
