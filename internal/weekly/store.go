// Package weekly holds the in-memory weekly view and its smart-merge rule.
package weekly

import (
	"sort"
	"sync"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
)

// Update is one week's worth of per-property metrics to merge in.
type Update struct {
	WeekStart  time.Time
	WeekLabel  string
	Properties map[string]models.WeeklyMetrics
}

// Store keeps at most one WeekRecord per Monday, sorted ascending.
type Store struct {
	mu    sync.RWMutex
	weeks []models.WeekRecord
}

func NewStore() *Store {
	return &Store{}
}

// Merge returns existing with every property in updates overwritten or added.
// Properties missing from updates are carried over unchanged.
func Merge(existing models.WeekRecord, updates map[string]models.WeeklyMetrics) models.WeekRecord {
	props := make(map[string]models.WeeklyMetrics, len(existing.Properties)+len(updates))
	for id, m := range existing.Properties {
		props[id] = m
	}
	for id, m := range updates {
		props[id] = m
	}
	return models.WeekRecord{
		WeekLabel:  existing.WeekLabel,
		WeekStart:  existing.WeekStart,
		Properties: props,
	}
}

// Find looks a week up by calendar-week identity: any time inside the week matches.
func (s *Store) Find(t time.Time) (models.WeekRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index(dates.WeekStart(t))
	if !ok {
		return models.WeekRecord{}, false
	}
	return copyRecord(s.weeks[i]), true
}

// MergeIn applies one week's updates.
func (s *Store) MergeIn(weekStart time.Time, weekLabel string, updates map[string]models.WeeklyMetrics) models.WeekRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.mergeLocked(Update{WeekStart: weekStart, WeekLabel: weekLabel, Properties: updates})
	s.sortLocked()
	return copyRecord(rec)
}

// Apply merges several weeks as one step; readers see either none or all of it.
func (s *Store) Apply(updates []Update) {
	if len(updates) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		s.mergeLocked(u)
	}
	s.sortLocked()
}

// Weeks returns a copy of the store, ascending by week start.
func (s *Store) Weeks() []models.WeekRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.WeekRecord, len(s.weeks))
	for i, w := range s.weeks {
		out[i] = copyRecord(w)
	}
	return out
}

// Range returns the weeks whose start falls in [from, to].
func (s *Store) Range(from, to time.Time) []models.WeekRecord {
	first, last := dates.WeekStart(from), dates.WeekStart(to)

	var out []models.WeekRecord
	for _, w := range s.Weeks() {
		if w.WeekStart.Before(first) || w.WeekStart.After(last) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.weeks)
}

func (s *Store) mergeLocked(u Update) models.WeekRecord {
	start := dates.WeekStart(u.WeekStart)
	label := u.WeekLabel
	if label == "" {
		label = dates.WeekLabel(start)
	}

	if i, ok := s.index(start); ok {
		rec := Merge(s.weeks[i], u.Properties)
		if rec.WeekLabel == "" {
			rec.WeekLabel = label
		}
		s.weeks[i] = rec
		return rec
	}

	rec := Merge(models.WeekRecord{WeekLabel: label, WeekStart: start}, u.Properties)
	s.weeks = append(s.weeks, rec)
	return rec
}

func (s *Store) index(start time.Time) (int, bool) {
	for i, w := range s.weeks {
		if w.WeekStart.Equal(start) {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.weeks, func(i, j int) bool {
		return s.weeks[i].WeekStart.Before(s.weeks[j].WeekStart)
	})
}

func copyRecord(w models.WeekRecord) models.WeekRecord {
	props := make(map[string]models.WeeklyMetrics, len(w.Properties))
	for id, m := range w.Properties {
		props[id] = m
	}
	w.Properties = props
	return w
}
