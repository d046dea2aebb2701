package booking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/apperr"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// normalizeDate accepts YYYY-MM-DD.
func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: date is required", apperr.ErrValidation)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", apperr.ErrValidation)
	}
	return t.Format(dateLayout), nil
}

// normalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func normalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: time is required", apperr.ErrValidation)
	}
	for _, layout := range []string{timeLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(timeLayout), nil
		}
	}
	return "", fmt.Errorf("%w: time must be HH:MM or HH:MM:SS", apperr.ErrValidation)
}

func validPartySize(n int) (uint32, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: party_size must be at least 1", apperr.ErrValidation)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: party_size is out of range", apperr.ErrValidation)
	}
	return uint32(n), nil
}
