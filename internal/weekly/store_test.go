package weekly

import (
	"testing"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func metrics(count int, revenue int64) models.WeeklyMetrics {
	return models.WeeklyMetrics{
		Count:      count,
		ValidCount: count,
		Revenue:    decimal.NewFromInt(revenue),
		ADR:        decimal.NewFromInt(revenue),
	}
}

func TestMergeInKeepsUntouchedProperties(t *testing.T) {
	s := NewStore()
	monday := day("2025-01-06")
	old := metrics(1, 10)
	other := metrics(5, 500)
	s.MergeIn(monday, "", map[string]models.WeeklyMetrics{"A": old, "B": other})

	fresh := metrics(2, 20)
	got := s.MergeIn(monday, "", map[string]models.WeeklyMetrics{"A": fresh})

	if len(got.Properties) != 2 {
		t.Fatalf("properties = %d, want 2", len(got.Properties))
	}
	if !got.Properties["A"].Equal(fresh) {
		t.Errorf("A = %+v, want the fresh snapshot", got.Properties["A"])
	}
	if !got.Properties["B"].Equal(other) {
		t.Errorf("B changed: %+v", got.Properties["B"])
	}
}

func TestMergeInSameWeekDifferentDay(t *testing.T) {
	s := NewStore()
	s.MergeIn(day("2025-01-06"), "", map[string]models.WeeklyMetrics{"A": metrics(1, 1)})
	s.MergeIn(day("2025-01-09"), "", map[string]models.WeeklyMetrics{"B": metrics(2, 2)})

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want one record for the week", s.Len())
	}
	w, ok := s.Find(day("2025-01-12"))
	if !ok {
		t.Fatal("Find(Sunday) should match the Monday record")
	}
	if len(w.Properties) != 2 {
		t.Errorf("properties = %v", w.Properties)
	}
	if w.WeekLabel != "Jan 06 – Jan 12, 2025" {
		t.Errorf("WeekLabel = %q", w.WeekLabel)
	}
}

func TestMergeInIdempotent(t *testing.T) {
	s := NewStore()
	u := map[string]models.WeeklyMetrics{"A": metrics(3, 30)}
	first := s.MergeIn(day("2025-02-03"), "", u)
	second := s.MergeIn(day("2025-02-03"), "", u)

	if s.Len() != 1 || len(second.Properties) != 1 || !first.Properties["A"].Equal(second.Properties["A"]) {
		t.Errorf("second merge changed state: %+v vs %+v", first, second)
	}
}

func TestStoreSortedAscending(t *testing.T) {
	s := NewStore()
	for _, d := range []string{"2025-03-10", "2025-01-06", "2025-02-17", "2024-12-30"} {
		s.MergeIn(day(d), "", map[string]models.WeeklyMetrics{"A": metrics(1, 1)})
	}

	weeks := s.Weeks()
	if len(weeks) != 4 {
		t.Fatalf("weeks = %d", len(weeks))
	}
	for i := 1; i < len(weeks); i++ {
		if !weeks[i-1].WeekStart.Before(weeks[i].WeekStart) {
			t.Errorf("weeks not ascending at %d: %v then %v", i, weeks[i-1].WeekStart, weeks[i].WeekStart)
		}
	}
	if weeks[0].WeekLabel != "Dec 30, 2024 – Jan 05, 2025" {
		t.Errorf("cross-year label = %q", weeks[0].WeekLabel)
	}
}

func TestApplyCommitsAllWeeks(t *testing.T) {
	s := NewStore()
	s.MergeIn(day("2025-01-06"), "", map[string]models.WeeklyMetrics{"B": metrics(9, 9)})

	s.Apply([]Update{
		{WeekStart: day("2025-01-13"), Properties: map[string]models.WeeklyMetrics{"A": metrics(1, 1)}},
		{WeekStart: day("2025-01-06"), Properties: map[string]models.WeeklyMetrics{"A": metrics(2, 2)}},
	})

	weeks := s.Weeks()
	if len(weeks) != 2 {
		t.Fatalf("weeks = %d, want 2", len(weeks))
	}
	if len(weeks[0].Properties) != 2 || weeks[0].Properties["B"].Count != 9 {
		t.Errorf("first week lost B: %+v", weeks[0].Properties)
	}
	if weeks[1].Properties["A"].Count != 1 {
		t.Errorf("second week = %+v", weeks[1].Properties)
	}
}

func TestWeeksReturnsCopies(t *testing.T) {
	s := NewStore()
	s.MergeIn(day("2025-01-06"), "", map[string]models.WeeklyMetrics{"A": metrics(1, 1)})

	weeks := s.Weeks()
	weeks[0].Properties["A"] = metrics(100, 100)

	w, _ := s.Find(day("2025-01-06"))
	if w.Properties["A"].Count != 1 {
		t.Errorf("caller mutation leaked into the store")
	}
}

func TestRange(t *testing.T) {
	s := NewStore()
	for _, d := range []string{"2025-01-06", "2025-01-13", "2025-01-20"} {
		s.MergeIn(day(d), "", map[string]models.WeeklyMetrics{"A": metrics(1, 1)})
	}
	got := s.Range(day("2025-01-08"), day("2025-01-15"))
	if len(got) != 2 {
		t.Fatalf("Range = %d weeks, want 2", len(got))
	}
}
