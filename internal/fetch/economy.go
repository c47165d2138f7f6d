package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/internal/cache"
)

// Production endpoints for the four economic series. Tests point the client
// at local servers instead.
const (
	bankRateCSVURL  = "https://www.bankofengland.co.uk/boeapps/iadb/fromshowcolumns.asp?csv.x=yes&SeriesCodes=IUDBEDR&CSVF=TN&UsingCodes=Y&VPD=Y"
	bankRatePageURL = "https://www.bankofengland.co.uk/monetary-policy"

	inflationSeriesURL = "https://api.ons.gov.uk/timeseries/l55o/dataset/mm23/data"
	inflationPageURL   = "https://www.ons.gov.uk/economy/inflationandpriceindices"

	unemploymentSeriesURL = "https://api.ons.gov.uk/timeseries/mgsx/dataset/lms/data"
	unemploymentPageURL   = "https://www.ons.gov.uk/employmentandlabourmarket/peopleinwork/employmentandemployeetypes"

	gdpSeriesURL = "https://api.ons.gov.uk/timeseries/ihyq/dataset/qna/data"
	gdpPageURL   = "https://www.ons.gov.uk/economy/grossdomesticproductgdp"
)

// Values assumed when both fetch tiers for an indicator fail. They are
// always reported as "fallback", never as live data.
const (
	FallbackBaseRate     = 5.25
	FallbackInflation    = 3.2
	FallbackUnemployment = 4.2
	FallbackGDPGrowth    = 0.6
)

// Patterns for the secondary tier: extracting a headline figure from an
// upstream HTML page when the structured endpoint is down.
var (
	bankRatePattern     = regexp.MustCompile(`(?i)Bank Rate\s+is\s+(\d+(?:\.\d+)?)%`)
	inflationPattern    = regexp.MustCompile(`(?i)CPIH[^%]{0,60}?(\d+(?:\.\d+)?)%`)
	unemploymentPattern = regexp.MustCompile(`(?i)unemployment rate[^%]{0,60}?(\d+(?:\.\d+)?)%`)
	gdpPattern          = regexp.MustCompile(`(?i)GDP[^%]{0,80}?(?:grew|rose|increased)[^%]{0,20}?(\d+(?:\.\d+)?)%`)
)

// onsSeriesResponse is the subset of the ONS time-series API payload the
// client reads. Values arrive as strings.
type onsSeriesResponse struct {
	Months []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"months"`
	Quarters []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"quarters"`
}

// EconomicClient fetches the four macro indicators. Each indicator tries a
// structured source first, then a page-scrape tier, and caches whatever
// succeeded.
type EconomicClient struct {
	client    *http.Client
	cache     cache.Cache
	logger    *logrus.Logger
	userAgent string

	bankRateCSVURL   string
	bankRatePageURL  string
	inflationURLs    [2]string
	unemploymentURLs [2]string
	gdpURLs          [2]string
}

func NewEconomicClient(c cache.Cache, logger *logrus.Logger, userAgent string) *EconomicClient {
	return &EconomicClient{
		client:           &http.Client{Timeout: 10 * time.Second},
		cache:            c,
		logger:           logger,
		userAgent:        userAgent,
		bankRateCSVURL:   bankRateCSVURL,
		bankRatePageURL:  bankRatePageURL,
		inflationURLs:    [2]string{inflationSeriesURL, inflationPageURL},
		unemploymentURLs: [2]string{unemploymentSeriesURL, unemploymentPageURL},
		gdpURLs:          [2]string{gdpSeriesURL, gdpPageURL},
	}
}

// BaseRate returns the central-bank policy rate in percent.
func (c *EconomicClient) BaseRate(ctx context.Context) (float64, error) {
	if value, ok := c.cachedValue(cache.KeyBaseRate); ok {
		return value, nil
	}

	rate, err := c.fetchBankRateCSV(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Bank rate series fetch failed, scraping page")
		rate, err = c.scrapeValue(ctx, c.bankRatePageURL, bankRatePattern)
	}
	if err != nil {
		return 0, &UpstreamError{Source: "bank_rate", Err: err}
	}

	c.cache.Set(cache.KeyBaseRate, rate, cache.TTLBaseRate)
	return rate, nil
}

// Inflation returns the annual CPIH rate in percent.
func (c *EconomicClient) Inflation(ctx context.Context) (float64, error) {
	return c.monthlyIndicator(ctx, cache.KeyInflation, cache.TTLInflation, "inflation", c.inflationURLs, inflationPattern)
}

// Unemployment returns the headline unemployment rate in percent.
func (c *EconomicClient) Unemployment(ctx context.Context) (float64, error) {
	return c.monthlyIndicator(ctx, cache.KeyUnemployment, cache.TTLUnemployment, "unemployment", c.unemploymentURLs, unemploymentPattern)
}

// GDPGrowth returns the latest quarter-on-quarter GDP growth in percent.
func (c *EconomicClient) GDPGrowth(ctx context.Context) (float64, error) {
	if value, ok := c.cachedValue(cache.KeyGDPGrowth); ok {
		return value, nil
	}

	growth, err := c.fetchONSSeries(ctx, c.gdpURLs[0], true)
	if err != nil {
		c.logger.WithError(err).Warn("GDP series fetch failed, scraping page")
		growth, err = c.scrapeValue(ctx, c.gdpURLs[1], gdpPattern)
	}
	if err != nil {
		return 0, &UpstreamError{Source: "gdp", Err: err}
	}

	c.cache.Set(cache.KeyGDPGrowth, growth, cache.TTLGDPGrowth)
	return growth, nil
}

// monthlyIndicator runs the shared two-tier flow for the monthly ONS series.
func (c *EconomicClient) monthlyIndicator(ctx context.Context, key string, ttl time.Duration, source string, urls [2]string, pattern *regexp.Regexp) (float64, error) {
	if value, ok := c.cachedValue(key); ok {
		return value, nil
	}

	value, err := c.fetchONSSeries(ctx, urls[0], false)
	if err != nil {
		c.logger.WithError(err).Warnf("%s series fetch failed, scraping page", source)
		value, err = c.scrapeValue(ctx, urls[1], pattern)
	}
	if err != nil {
		return 0, &UpstreamError{Source: source, Err: err}
	}

	c.cache.Set(key, value, ttl)
	return value, nil
}

func (c *EconomicClient) cachedValue(key string) (float64, bool) {
	if v, ok := c.cache.Get(key); ok {
		if value, ok := v.(float64); ok {
			return value, true
		}
	}
	return 0, false
}

// fetchBankRateCSV parses the IADB CSV export: header row, then
// "date,value" rows, newest last.
func (c *EconomicClient) fetchBankRateCSV(ctx context.Context) (float64, error) {
	body, err := getBody(ctx, c.client, c.bankRateCSVURL, c.userAgent)
	if err != nil {
		return 0, err
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	for i := len(lines) - 1; i > 0; i-- {
		fields := strings.Split(strings.TrimSpace(lines[i]), ",")
		if len(fields) < 2 {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(fields[len(fields)-1]), 64)
		if err != nil {
			continue
		}
		return rate, nil
	}

	return 0, fmt.Errorf("no parseable rate rows in CSV payload")
}

// fetchONSSeries returns the most recent value of an ONS time series,
// reading quarters for quarterly series and months otherwise.
func (c *EconomicClient) fetchONSSeries(ctx context.Context, url string, quarterly bool) (float64, error) {
	body, err := getBody(ctx, c.client, url, c.userAgent)
	if err != nil {
		return 0, err
	}

	var series onsSeriesResponse
	if err := json.Unmarshal(body, &series); err != nil {
		return 0, fmt.Errorf("failed to parse series payload: %v", err)
	}

	var raw string
	if quarterly {
		if len(series.Quarters) == 0 {
			return 0, fmt.Errorf("series payload has no quarters")
		}
		raw = series.Quarters[len(series.Quarters)-1].Value
	} else {
		if len(series.Months) == 0 {
			return 0, fmt.Errorf("series payload has no months")
		}
		raw = series.Months[len(series.Months)-1].Value
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse series value %q: %v", raw, err)
	}

	return value, nil
}

// scrapeValue extracts the first percentage matched by pattern from an
// upstream page.
func (c *EconomicClient) scrapeValue(ctx context.Context, url string, pattern *regexp.Regexp) (float64, error) {
	body, err := getBody(ctx, c.client, url, c.userAgent)
	if err != nil {
		return 0, err
	}

	match := pattern.FindSubmatch(body)
	if match == nil {
		return 0, fmt.Errorf("no value matched on page")
	}

	value, err := strconv.ParseFloat(string(match[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse scraped value %q: %v", match[1], err)
	}

	return value, nil
}
