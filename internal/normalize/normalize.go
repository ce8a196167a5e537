// Package normalize turns one source-specific reservation into a canonical Booking.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidDate  = errors.New("invalid date")
)

// Source describes where a raw record came from.
type Source struct {
	PropertyID string
	Origin     models.Origin
}

// Normalize converts raw into a Booking. It never panics; any extraction
// failure comes back as an error so the caller can skip the record.
func Normalize(raw models.RawRecord, src Source) (b models.Booking, err error) {
	defer func() {
		if p := recover(); p != nil {
			b = models.Booking{}
			err = fmt.Errorf("normalize: recovered: %v", p)
		}
	}()

	if raw == nil {
		return models.Booking{}, fmt.Errorf("%w: empty record", ErrMissingField)
	}

	externalID, ok := stringField(raw, models.FieldExternalID)
	if !ok {
		return models.Booking{}, fmt.Errorf("%w: %s", ErrMissingField, models.FieldExternalID)
	}

	propertyID := strings.TrimSpace(src.PropertyID)
	if propertyID == "" {
		propertyID, ok = stringField(raw, models.FieldPropertyID)
		if !ok {
			return models.Booking{}, fmt.Errorf("%w: %s (reservation %s)", ErrMissingField, models.FieldPropertyID, externalID)
		}
	}

	bookedAt, err := dateField(raw, models.FieldBookedAt)
	if err != nil {
		return models.Booking{}, fmt.Errorf("reservation %s: %w", externalID, err)
	}
	checkin, err := dateField(raw, models.FieldCheckin)
	if err != nil {
		return models.Booking{}, fmt.Errorf("reservation %s: %w", externalID, err)
	}
	checkout, err := dateField(raw, models.FieldCheckout)
	if err != nil {
		return models.Booking{}, fmt.Errorf("reservation %s: %w", externalID, err)
	}

	status, _ := stringField(raw, models.FieldStatus)
	channel, _ := stringField(raw, models.FieldChannel)

	var price decimal.Decimal
	if v, ok := raw.Get(models.FieldPrice); ok {
		price = ParsePrice(v)
	}

	origin := src.Origin
	if origin == "" {
		origin = models.OriginAPI
	}

	return models.Booking{
		PropertyID:  propertyID,
		ExternalID:  externalID,
		BookingDate: bookedAt,
		Checkin:     checkin,
		Checkout:    checkout,
		Nights:      Nights(checkin, checkout),
		LeadTime:    LeadTime(bookedAt, checkin),
		Price:       price,
		Status:      status,
		Channel:     channel,
		DataOrigin:  origin,
	}, nil
}

// Nights is ceil(checkout - checkin) in days, floored at zero.
func Nights(checkin, checkout time.Time) int {
	n := dates.DayDiffCeil(checkin, checkout)
	if n < 0 {
		return 0
	}
	return n
}

// LeadTime is floor(checkin - bookingDate) in days. Negative values are kept.
func LeadTime(bookingDate, checkin time.Time) int {
	return dates.DayDiffFloor(dates.DateOnly(bookingDate), checkin)
}

// NormalizeAll normalizes a batch, skipping records that fail and
// collapsing repeated reservations so the last occurrence wins.
func NormalizeAll(raws []models.RawRecord, src Source, lg *log.Logger) ([]models.Booking, []error) {
	out := make([]models.Booking, 0, len(raws))
	index := make(map[string]int, len(raws))
	var skipped []error

	for i, raw := range raws {
		b, err := Normalize(raw, src)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("record %d: %w", i, err))
			if lg != nil {
				lg.Printf("⚠️ normalize: skipping record %d from %s/%s: %v", i, src.Origin, src.PropertyID, err)
			}
			continue
		}

		key := b.PropertyID + "\x00" + b.ExternalID
		if at, seen := index[key]; seen {
			out[at] = b
			continue
		}
		index[key] = len(out)
		out = append(out, b)
	}

	return out, skipped
}

func stringField(raw models.RawRecord, key string) (string, bool) {
	v, ok := raw.Get(key)
	if !ok {
		return "", false
	}

	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		if x == math.Trunc(x) {
			s = fmt.Sprintf("%.0f", x)
		} else {
			s = fmt.Sprintf("%v", x)
		}
	case int, int64, int32:
		s = fmt.Sprintf("%d", x)
	case fmt.Stringer:
		s = x.String()
	default:
		return "", false
	}

	s = strings.TrimSpace(s)
	return s, s != ""
}

// spreadsheet serial dates count days from 1899-12-30
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func dateField(raw models.RawRecord, key string) (time.Time, error) {
	v, ok := raw.Get(key)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrMissingField, key)
	}

	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
		return dates.DateOnly(x), nil
	case float64:
		if x <= 0 {
			return time.Time{}, fmt.Errorf("%w: %s=%v", ErrInvalidDate, key, x)
		}
		return dates.DateOnly(serialEpoch.AddDate(0, 0, int(x))), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
		t, err := dates.Parse(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidDate, key, err)
		}
		return dates.DateOnly(t), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s has type %T", ErrInvalidDate, key, v)
	}
}
