package realtime

import (
	"errors"
	"regexp"
	"strings"
)

// Full postcodes like "SW1A 1AA" and outward-only codes like "SW1A" are both
// accepted; anything else is rejected before any upstream call is made.
var (
	fullPostcodePattern    = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{1,2}[A-Z]?\s?[0-9][A-Z]{2}$`)
	outwardPostcodePattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{1,2}[A-Z]?$`)
)

var ErrInvalidPostcode = errors.New("invalid UK postcode")

// NormalizePostcode uppercases the input and trims surrounding whitespace.
func NormalizePostcode(postcode string) string {
	return strings.ToUpper(strings.TrimSpace(postcode))
}

// ValidatePostcode checks the input against the UK postcode shape, case
// insensitively.
func ValidatePostcode(postcode string) error {
	normalized := NormalizePostcode(postcode)
	if fullPostcodePattern.MatchString(normalized) || outwardPostcodePattern.MatchString(normalized) {
		return nil
	}
	return ErrInvalidPostcode
}
