// Package phone canonicalizes Brazilian phone numbers into the dialable
// international form expected by WhatsApp gateways.
package phone

import (
	"fmt"
	"strings"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
)

const (
	CountryCode      = "55"
	minSubscriberLen = 10
	minNationalLen   = 12
)

// Normalize strips formatting from raw and returns a number prefixed with the
// Brazilian country code. A digit string already carrying the prefix is kept as
// is only when it is long enough to hold a full number behind it; otherwise
// "55" is taken to be an area code.
func Normalize(raw string) (string, error) {
	digits := Digits(raw)
	switch {
	case digits == "":
		return "", fmt.Errorf("Normalize: empty: %w", domain.ErrInvalidPhone)
	case strings.HasPrefix(digits, CountryCode) && len(digits) >= minNationalLen:
		return digits, nil
	case len(digits) >= minSubscriberLen:
		return CountryCode + digits, nil
	default:
		return "", fmt.Errorf("Normalize: %d digits: %w", len(digits), domain.ErrInvalidPhone)
	}
}

func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
