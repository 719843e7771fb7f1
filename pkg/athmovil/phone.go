package athmovil

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const phoneDigits = 10

// NormalizePhoneNumber strips formatting characters from phone and requires exactly
// ten digits to remain. Letters and other symbols are rejected.
func NormalizePhoneNumber(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(" ()-.+", r):
		default:
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidPhoneNumber, r)
		}
	}

	digits := b.String()
	if len(digits) != phoneDigits {
		return "", fmt.Errorf("%w: must be %d digits, got %d", ErrInvalidPhoneNumber, phoneDigits, len(digits))
	}
	return digits, nil
}

// IsValidEcommerceID reports whether id has the UUID shape the API issues.
func IsValidEcommerceID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// MaskSensitive keeps the first four characters of a secret for logging.
func MaskSensitive(s string) string {
	const visible = 4
	if len(s) <= visible {
		return "***"
	}
	return s[:visible] + strings.Repeat("*", len(s)-visible)
}
