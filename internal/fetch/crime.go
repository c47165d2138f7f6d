package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/internal/cache"
	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

const streetCrimeURL = "https://data.police.uk/api/crimes-street/all-crime"

type streetCrime struct {
	Category string `json:"category"`
}

// CrimeClient fetches street-level incident counts around a coordinate.
type CrimeClient struct {
	client    *http.Client
	cache     cache.Cache
	logger    *logrus.Logger
	userAgent string

	baseURL string
	now     func() time.Time
}

func NewCrimeClient(c cache.Cache, logger *logrus.Logger, userAgent string) *CrimeClient {
	return &CrimeClient{
		client:    &http.Client{Timeout: 10 * time.Second},
		cache:     c,
		logger:    logger,
		userAgent: userAgent,
		baseURL:   streetCrimeURL,
		now:       time.Now,
	}
}

// StreetCrime returns incident counts for the most recent complete month at
// the given location. The annualised rate is the monthly count times twelve.
func (c *CrimeClient) StreetCrime(ctx context.Context, lat, lng float64) (*models.CrimeSnapshot, error) {
	key := fmt.Sprintf("%s%.4f,%.4f", cache.KeyCrimePrefix, lat, lng)
	if v, ok := c.cache.Get(key); ok {
		if snapshot, ok := v.(*models.CrimeSnapshot); ok {
			return snapshot, nil
		}
	}

	month := c.now().AddDate(0, -2, 0).Format("2006-01")
	url := fmt.Sprintf("%s?lat=%f&lng=%f&date=%s", c.baseURL, lat, lng, month)

	body, err := getBody(ctx, c.client, url, c.userAgent)
	if err != nil {
		return nil, &UpstreamError{Source: "police", Err: err}
	}

	var incidents []streetCrime
	if err := json.Unmarshal(body, &incidents); err != nil {
		return nil, &UpstreamError{Source: "police", Err: fmt.Errorf("failed to parse crime payload: %v", err)}
	}

	categories := make(map[string]int)
	for _, incident := range incidents {
		categories[incident.Category]++
	}

	snapshot := &models.CrimeSnapshot{
		TotalCrimes: len(incidents),
		CrimeRate:   float64(len(incidents)) * 12,
		Categories:  categories,
		Source:      models.SourceLive,
	}

	c.logger.WithFields(logrus.Fields{
		"month":     month,
		"incidents": len(incidents),
	}).Debug("Fetched street crime")

	c.cache.Set(key, snapshot, cache.TTLCrime)
	return snapshot, nil
}

// FallbackCrime is the snapshot substituted when the crime API is
// unavailable: a notional 25 incidents a month.
func FallbackCrime() *models.CrimeSnapshot {
	return &models.CrimeSnapshot{
		TotalCrimes: 25,
		CrimeRate:   300,
		Categories:  map[string]int{},
		Source:      models.SourceFallback,
	}
}
