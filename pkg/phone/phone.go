package phone

import (
	"errors"
	"strings"

	"github.com/ttacon/libphonenumber"
)

var ErrInvalidPhone = errors.New("phone number is not valid")

// Normalize parses a local or international number and returns it in E.164.
// An empty input stays empty.
func Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	p, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", ErrInvalidPhone
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
