// Package sources turns spreadsheet exports and pasted tables into raw records
// shaped like the PMS API payload.
package sources

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
)

var ErrNoHeader = errors.New("no header row with a reservation id column")

// headerAliases maps a squashed header (lowercase, letters and digits only)
// onto the canonical raw key.
var headerAliases = map[string]string{
	"reservationid":      models.FieldExternalID,
	"reservationnumber":  models.FieldExternalID,
	"reservationno":      models.FieldExternalID,
	"reservation":        models.FieldExternalID,
	"bookingid":          models.FieldExternalID,
	"bookingnumber":      models.FieldExternalID,
	"bookingreference":   models.FieldExternalID,
	"bookingref":         models.FieldExternalID,
	"confirmationnumber": models.FieldExternalID,

	"propertyid":   models.FieldPropertyID,
	"property":     models.FieldPropertyID,
	"propertycode": models.FieldPropertyID,
	"hostel":       models.FieldPropertyID,

	"datecreated":     models.FieldBookedAt,
	"bookingdate":     models.FieldBookedAt,
	"bookeddate":      models.FieldBookedAt,
	"bookedon":        models.FieldBookedAt,
	"reservationdate": models.FieldBookedAt,
	"createdat":       models.FieldBookedAt,
	"created":         models.FieldBookedAt,

	"startdate":   models.FieldCheckin,
	"checkin":     models.FieldCheckin,
	"checkindate": models.FieldCheckin,
	"arrival":     models.FieldCheckin,
	"arrivaldate": models.FieldCheckin,

	"enddate":       models.FieldCheckout,
	"checkout":      models.FieldCheckout,
	"checkoutdate":  models.FieldCheckout,
	"departure":     models.FieldCheckout,
	"departuredate": models.FieldCheckout,

	"total":              models.FieldPrice,
	"grandtotal":         models.FieldPrice,
	"totalprice":         models.FieldPrice,
	"price":              models.FieldPrice,
	"amount":             models.FieldPrice,
	"accommodationtotal": models.FieldPrice,
	"revenue":            models.FieldPrice,

	"status":            models.FieldStatus,
	"reservationstatus": models.FieldStatus,
	"bookingstatus":     models.FieldStatus,

	"sourcename":    models.FieldChannel,
	"source":        models.FieldChannel,
	"channel":       models.FieldChannel,
	"bookingsource": models.FieldChannel,
}

// CanonicalHeader returns the raw key for a column header, or "" when unknown.
func CanonicalHeader(h string) string {
	return headerAliases[squash(h)]
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// columnMap resolves a header row. The first column that maps to a key wins.
func columnMap(header []string) (map[int]string, error) {
	cols := make(map[int]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		key := CanonicalHeader(h)
		if key == "" || seen[key] {
			continue
		}
		cols[i] = key
		seen[key] = true
	}
	if !seen[models.FieldExternalID] {
		return nil, fmt.Errorf("%w: %v", ErrNoHeader, header)
	}
	return cols, nil
}

// findHeader returns the index of the first row that resolves as a header.
// Exports often carry a title or filter line above the table.
func findHeader(rows [][]string, maxScan int) (int, map[int]string, error) {
	if maxScan > len(rows) {
		maxScan = len(rows)
	}
	for i := 0; i < maxScan; i++ {
		if cols, err := columnMap(rows[i]); err == nil {
			return i, cols, nil
		}
	}
	return -1, nil, ErrNoHeader
}

// RowsToRecords maps string rows onto raw records. Blank cells are left out
// so the normalizer sees them as missing.
func RowsToRecords(rows [][]string) ([]models.RawRecord, error) {
	at, cols, err := findHeader(rows, 10)
	if err != nil {
		return nil, err
	}

	out := make([]models.RawRecord, 0, len(rows)-at-1)
	for _, row := range rows[at+1:] {
		rec := models.RawRecord{}
		for i, cell := range row {
			key, ok := cols[i]
			if !ok {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				rec[key] = v
			}
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ValuesToRecords does the same for Google Sheets values, keeping numeric
// cells numeric so serial dates and prices survive.
func ValuesToRecords(values [][]any) ([]models.RawRecord, error) {
	header := make([][]string, 0, 10)
	for i := 0; i < len(values) && i < 10; i++ {
		header = append(header, cellStrings(values[i]))
	}
	at, cols, err := findHeader(header, 10)
	if err != nil {
		return nil, err
	}

	out := make([]models.RawRecord, 0, len(values)-at-1)
	for _, row := range values[at+1:] {
		rec := models.RawRecord{}
		for i, cell := range row {
			key, ok := cols[i]
			if !ok || cell == nil {
				continue
			}
			switch v := cell.(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" {
					rec[key] = s
				}
			case float64:
				rec[key] = v
			default:
				rec[key] = fmt.Sprint(v)
			}
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out, nil
}

func cellStrings(row []any) []string {
	out := make([]string, len(row))
	for i, c := range row {
		if c != nil {
			out[i] = fmt.Sprint(c)
		}
	}
	return out
}
