package fetch

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/internal/cache"
	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

const (
	pricePaidURL   = "https://landregistry.data.gov.uk/app/ppd/ppd_data.csv"
	maxSaleRecords = 50
	minSaleFields  = 12
)

var saleDateFormats = []string{"2006-01-02 15:04", "2006-01-02"}

var propertyTypeNames = map[string]string{
	"D": "Detached",
	"S": "Semi-Detached",
	"T": "Terraced",
	"F": "Flat",
	"O": "Other",
}

// SalesClient fetches completed transactions from the price-paid dataset.
type SalesClient struct {
	client    *http.Client
	cache     cache.Cache
	logger    *logrus.Logger
	userAgent string

	baseURL string
}

func NewSalesClient(c cache.Cache, logger *logrus.Logger, userAgent string) *SalesClient {
	return &SalesClient{
		client:    &http.Client{Timeout: 15 * time.Second},
		cache:     c,
		logger:    logger,
		userAgent: userAgent,
		baseURL:   pricePaidURL,
	}
}

// RecentSales returns up to 50 transactions for a postcode, newest first.
// An empty result is valid data, not an error.
func (c *SalesClient) RecentSales(ctx context.Context, postcode string) ([]models.SaleRecord, error) {
	key := cache.KeySalesPrefix + postcode
	if v, ok := c.cache.Get(key); ok {
		if sales, ok := v.([]models.SaleRecord); ok {
			return sales, nil
		}
	}

	params := url.Values{}
	params.Set("postcode", postcode)
	params.Set("limit", "100")

	body, err := getBody(ctx, c.client, c.baseURL+"?"+params.Encode(), c.userAgent)
	if err != nil {
		return nil, &UpstreamError{Source: "land_registry", Err: err}
	}

	sales := parseSalesCSV(string(body))
	c.logger.WithField("postcode", postcode).Debugf("Parsed price-paid records: %s", SaleStats(sales))

	c.cache.Set(key, sales, cache.TTLSales)
	return sales, nil
}

// parseSalesCSV splits the payload into lines and parses each one
// independently so a single malformed row never poisons the batch.
func parseSalesCSV(payload string) []models.SaleRecord {
	lines := strings.Split(strings.ReplaceAll(payload, "\r\n", "\n"), "\n")
	sales := make([]models.SaleRecord, 0, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, ok := parseSaleLine(line)
		if !ok {
			continue
		}
		sales = append(sales, record)
	}

	sort.Slice(sales, func(i, j int) bool {
		return sales[i].Date.After(sales[j].Date)
	})

	if len(sales) > maxSaleRecords {
		sales = sales[:maxSaleRecords]
	}
	return sales
}

func parseSaleLine(line string) (models.SaleRecord, bool) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	fields, err := reader.Read()
	if err != nil || len(fields) < minSaleFields {
		return models.SaleRecord{}, false
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil || price <= 0 {
		return models.SaleRecord{}, false
	}

	date, ok := parseSaleDate(strings.TrimSpace(fields[2]))
	if !ok {
		return models.SaleRecord{}, false
	}

	propertyType := propertyTypeNames[strings.TrimSpace(fields[4])]
	if propertyType == "" {
		propertyType = "Other"
	}

	return models.SaleRecord{
		Price:        price,
		Date:         date,
		Postcode:     strings.TrimSpace(fields[3]),
		PropertyType: propertyType,
		NewBuild:     strings.TrimSpace(fields[5]) == "Y",
		Tenure:       tenureName(strings.TrimSpace(fields[6])),
		Address:      buildAddress(fields),
	}, true
}

func parseSaleDate(raw string) (time.Time, bool) {
	for _, layout := range saleDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func tenureName(code string) string {
	switch code {
	case "F":
		return "Freehold"
	case "L":
		return "Leasehold"
	default:
		return code
	}
}

func buildAddress(fields []string) string {
	parts := make([]string, 0, 3)
	for _, i := range []int{7, 9, 11} {
		if i < len(fields) {
			if part := strings.TrimSpace(fields[i]); part != "" {
				parts = append(parts, part)
			}
		}
	}
	return strings.Join(parts, ", ")
}

// SaleStats summarises a parsed batch for logging.
func SaleStats(sales []models.SaleRecord) string {
	if len(sales) == 0 {
		return "no sales"
	}
	return fmt.Sprintf("%d sales, newest %s", len(sales), sales[0].Date.Format("2006-01-02"))
}
