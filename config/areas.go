package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

// DefaultAreaCode is the catch-all row every area table must carry. It backs
// predictions for postcodes outside the detailed table.
const DefaultAreaCode = "DEFAULT"

// areaProfileFile is the on-disk shape of the area baseline asset.
type areaProfileFile struct {
	Version string               `json:"version"`
	Areas   []models.AreaProfile `json:"areas"`
}

// AreaTable is the immutable postcode-area baseline table. Lookups by full
// postcode resolve through the two-letter prefix, then the one-letter prefix,
// then the DEFAULT row, so resolution is total and never errors.
type AreaTable struct {
	lock     sync.RWMutex
	version  string
	profiles map[string]models.AreaProfile
}

// LoadAreaProfiles reads the versioned area asset from disk.
func LoadAreaProfiles(path string) (*AreaTable, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read area profiles: %v", err)
	}

	var file areaProfileFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse area profiles: %v", err)
	}

	table, err := NewAreaTable(file.Areas)
	if err != nil {
		return nil, err
	}
	table.version = file.Version
	return table, nil
}

// NewAreaTable builds a table from profile rows. The rows must include the
// DEFAULT entry.
func NewAreaTable(profiles []models.AreaProfile) (*AreaTable, error) {
	table := &AreaTable{profiles: make(map[string]models.AreaProfile, len(profiles))}
	for _, profile := range profiles {
		table.profiles[strings.ToUpper(profile.AreaCode)] = profile
	}

	if _, ok := table.profiles[DefaultAreaCode]; !ok {
		return nil, fmt.Errorf("area profiles are missing the %s entry", DefaultAreaCode)
	}

	return table, nil
}

// Version returns the asset version string, empty for tables built in code.
func (t *AreaTable) Version() string {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.version
}

// Resolve maps a postcode to its baseline profile.
func (t *AreaTable) Resolve(postcode string) models.AreaProfile {
	t.lock.RLock()
	defer t.lock.RUnlock()

	prefix := areaPrefix(postcode)
	if len(prefix) == 2 {
		if profile, ok := t.profiles[prefix]; ok {
			return profile
		}
		prefix = prefix[:1]
	}
	if len(prefix) == 1 {
		if profile, ok := t.profiles[prefix]; ok {
			return profile
		}
	}
	return t.profiles[DefaultAreaCode]
}

// Get returns the profile for an exact area code.
func (t *AreaTable) Get(areaCode string) (models.AreaProfile, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	profile, ok := t.profiles[strings.ToUpper(areaCode)]
	return profile, ok
}

// Default returns the catch-all profile.
func (t *AreaTable) Default() models.AreaProfile {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.profiles[DefaultAreaCode]
}

// All returns every profile sorted by area code.
func (t *AreaTable) All() []models.AreaProfile {
	t.lock.RLock()
	defer t.lock.RUnlock()

	profiles := make([]models.AreaProfile, 0, len(t.profiles))
	for _, profile := range t.profiles {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].AreaCode < profiles[j].AreaCode
	})
	return profiles
}

// Len returns the number of rows including DEFAULT.
func (t *AreaTable) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.profiles)
}

// areaPrefix extracts the leading letters of a postcode, capped at two.
func areaPrefix(postcode string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(postcode))
	end := 0
	for end < len(trimmed) && end < 2 && trimmed[end] >= 'A' && trimmed[end] <= 'Z' {
		end++
	}
	return trimmed[:end]
}
