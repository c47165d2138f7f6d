package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

func testProfiles() []models.AreaProfile {
	return []models.AreaProfile{
		{AreaCode: "SW", Region: "London Southwest", BasePrice: 735000, GrowthRate: 3.7, YieldPercent: 3.8, RiskFactor: 0.85},
		{AreaCode: "S", Region: "Sheffield", BasePrice: 205000, GrowthRate: 3.9, YieldPercent: 6.1, RiskFactor: 1.05},
		{AreaCode: "M", Region: "Manchester", BasePrice: 255000, GrowthRate: 4.5, YieldPercent: 6.2, RiskFactor: 1.0},
		{AreaCode: "DEFAULT", Region: "UK Average", BasePrice: 285000, GrowthRate: 3.0, YieldPercent: 5.2, RiskFactor: 1.0},
	}
}

func TestNewAreaTable_RequiresDefaultEntry(t *testing.T) {
	_, err := NewAreaTable([]models.AreaProfile{
		{AreaCode: "SW", Region: "London Southwest"},
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT")
}

func TestAreaTable_Resolve(t *testing.T) {
	table, err := NewAreaTable(testProfiles())
	assert.NoError(t, err)

	tests := []struct {
		name           string
		postcode       string
		expectedRegion string
	}{
		{
			name:           "Two letter area",
			postcode:       "SW1A 1AA",
			expectedRegion: "London Southwest",
		},
		{
			name:           "One letter area",
			postcode:       "M1 1AE",
			expectedRegion: "Manchester",
		},
		{
			name:           "Two letter prefix falls back to one letter",
			postcode:       "SK1 1AA",
			expectedRegion: "Sheffield",
		},
		{
			name:           "Unknown area resolves to default",
			postcode:       "ZZ9 9ZZ",
			expectedRegion: "UK Average",
		},
		{
			name:           "Lowercase input",
			postcode:       "sw1a 1aa",
			expectedRegion: "London Southwest",
		},
		{
			name:           "Empty postcode resolves to default",
			postcode:       "",
			expectedRegion: "UK Average",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := table.Resolve(tt.postcode)
			assert.Equal(t, tt.expectedRegion, profile.Region)
		})
	}
}

func TestAreaTable_GetAndDefault(t *testing.T) {
	table, err := NewAreaTable(testProfiles())
	assert.NoError(t, err)

	profile, ok := table.Get("sw")
	assert.True(t, ok)
	assert.Equal(t, "London Southwest", profile.Region)

	_, ok = table.Get("ZZ")
	assert.False(t, ok)

	assert.Equal(t, "UK Average", table.Default().Region)
	assert.Equal(t, 1.0, table.Default().RiskFactor)
}

func TestAreaTable_AllSortedByCode(t *testing.T) {
	table, err := NewAreaTable(testProfiles())
	assert.NoError(t, err)

	profiles := table.All()
	assert.Len(t, profiles, 4)
	assert.Equal(t, "DEFAULT", profiles[0].AreaCode)
	assert.Equal(t, "M", profiles[1].AreaCode)
	assert.Equal(t, "S", profiles[2].AreaCode)
	assert.Equal(t, "SW", profiles[3].AreaCode)
}

func TestLoadAreaProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.json")
	asset := `{
		"version": "2024.2",
		"areas": [
			{"areaCode": "SW", "region": "London Southwest", "basePrice": 735000, "growthRate": 3.7, "yieldPercent": 3.8, "riskFactor": 0.85},
			{"areaCode": "DEFAULT", "region": "UK Average", "basePrice": 285000, "growthRate": 3.0, "yieldPercent": 5.2, "riskFactor": 1.0}
		]
	}`
	assert.NoError(t, os.WriteFile(path, []byte(asset), 0644))

	table, err := LoadAreaProfiles(path)

	assert.NoError(t, err)
	assert.Equal(t, "2024.2", table.Version())
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 3.7, table.Resolve("SW1A 1AA").GrowthRate)
}

func TestLoadAreaProfiles_MissingFile(t *testing.T) {
	_, err := LoadAreaProfiles(filepath.Join(t.TempDir(), "missing.json"))

	assert.Error(t, err)
}

func TestRegionBonus(t *testing.T) {
	tests := []struct {
		name          string
		areaCode      string
		expectedBonus float64
		expectedGroup string
	}{
		{
			name:          "Inner London",
			areaCode:      "SW",
			expectedBonus: 0.5,
			expectedGroup: "London",
		},
		{
			name:          "Outer London",
			areaCode:      "CR",
			expectedBonus: 0.5,
			expectedGroup: "London",
		},
		{
			name:          "Northern Powerhouse",
			areaCode:      "M",
			expectedBonus: 0.4,
			expectedGroup: "Northern Powerhouse",
		},
		{
			name:          "Scottish city",
			areaCode:      "EH",
			expectedBonus: 0.2,
			expectedGroup: "Scottish Cities",
		},
		{
			name:          "Welsh city",
			areaCode:      "NP",
			expectedBonus: 0.3,
			expectedGroup: "Welsh Cities",
		},
		{
			name:          "Ungrouped area",
			areaCode:      "B",
			expectedBonus: 0,
			expectedGroup: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bonus, group := RegionBonus(tt.areaCode)
			assert.Equal(t, tt.expectedBonus, bonus)
			assert.Equal(t, tt.expectedGroup, group)
		})
	}
}
