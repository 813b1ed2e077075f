package domain

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers written without a country code.
const DefaultPhoneRegion = "BR"

// NormalizePhone reduces a customer phone to its national significant digits,
// the identity key used in the customer's personal collection.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: phone is required", ErrInvalidSelection)
	}
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("%w: phone %q: %v", ErrInvalidSelection, raw, err)
	}
	national := phonenumbers.GetNationalSignificantNumber(num)
	if national == "" {
		return "", fmt.Errorf("%w: phone %q has no digits", ErrInvalidSelection, raw)
	}
	return national, nil
}
