package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/ingest"
)

func parseDateInput(input string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "today":
		return dates.DateOnly(now), nil
	case "yesterday":
		return dates.DateOnly(now).AddDate(0, 0, -1), nil
	case "thisweek":
		return dates.WeekStart(now), nil
	case "lastweek":
		from, _ := ingest.LastWeek(now)
		return from, nil
	}
	parsed, err := dates.Parse(input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", input)
	}
	return dates.DateOnly(parsed), nil
}

// resolveRange applies --from / --to over the last full week.
func resolveRange(now time.Time) (time.Time, time.Time, error) {
	from, to := ingest.LastWeek(now)
	if fromFlag != "" {
		d, err := parseDateInput(fromFlag, now)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = d
		if toFlag == "" {
			to = dates.WeekEnd(d)
		}
	}
	if toFlag != "" {
		d, err := parseDateInput(toFlag, now)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = d
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must be on or before --to")
	}
	return from, to, nil
}

func writeJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func splitIDs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
