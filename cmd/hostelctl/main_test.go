package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

func TestParseDateInput(t *testing.T) {
	now := time.Date(2025, 1, 15, 18, 30, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		in   string
		want string
	}{
		{"today", "2025-01-15"},
		{"yesterday", "2025-01-14"},
		{"thisweek", "2025-01-13"},
		{"lastweek", "2025-01-06"},
		{"2025-02-03", "2025-02-03"},
		{"03/02/2025", "2025-02-03"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDateInput(tt.in, now)
			if err != nil {
				t.Fatalf("parseDateInput: %v", err)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("got %s, want %s", got.Format("2006-01-02"), tt.want)
			}
		})
	}

	if _, err := parseDateInput("soon", now); err == nil {
		t.Error("expected error for unknown input")
	}
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	t.Cleanup(func() { fromFlag, toFlag = "", "" })

	fromFlag, toFlag = "", ""
	from, to, err := resolveRange(now)
	if err != nil || from.Format("2006-01-02") != "2025-01-06" || to.Format("2006-01-02") != "2025-01-12" {
		t.Errorf("default range = %s .. %s, %v", from, to, err)
	}

	fromFlag = "2024-12-30"
	from, to, err = resolveRange(now)
	if err != nil || from.Format("2006-01-02") != "2024-12-30" || to.Format("2006-01-02") != "2025-01-05" {
		t.Errorf("from-only range = %s .. %s, %v", from, to, err)
	}

	fromFlag, toFlag = "2025-01-10", "2025-01-01"
	if _, _, err := resolveRange(now); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestSplitIDs(t *testing.T) {
	got := splitIDs(" p1, ,p2,")
	if len(got) != 2 || got[0] != "p1" || got[1] != "p2" {
		t.Errorf("splitIDs = %v", got)
	}
}

func TestFit(t *testing.T) {
	if got := fit("abc", 6); got != "abc  " {
		t.Errorf("pad = %q", got)
	}
	if got := fit("abcdefgh", 6); got != "abcd…" {
		t.Errorf("truncate = %q", got)
	}
}

func TestTermSinkPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	s := &termSink{out: &buf, width: 80}

	items := []orchestrator.Item{
		{PropertyID: "p1", Name: "Old Town", State: orchestrator.StateSuccess, Records: 3},
		{PropertyID: "p2", Name: "Harbour", State: orchestrator.StateLoading},
	}
	s.OnProgress(orchestrator.Progress{BatchID: "b1", Current: 2, Total: 2, Items: items})
	s.OnProgress(orchestrator.Progress{BatchID: "b1", Current: 2, Total: 2, Items: items})

	items[1].State = orchestrator.StateError
	items[1].Error = "boom"
	items[1].ErrorKind = "server"
	s.OnProgress(orchestrator.Progress{BatchID: "b1", Current: 2, Total: 2, Items: items})
	s.OnSummary(orchestrator.Summary{BatchID: "b1", SuccessCount: 1, ErrorCount: 1, Items: items})

	out := buf.String()
	if strings.Count(out, "Old Town") != 1 {
		t.Errorf("Old Town reported more than once:\n%s", out)
	}
	if !strings.Contains(out, "❌ Harbour: boom (server)") || !strings.Contains(out, "1 succeeded, 1 failed") {
		t.Errorf("output:\n%s", out)
	}
}

func TestProgressLine(t *testing.T) {
	p := orchestrator.Progress{Current: 1, Total: 2, Items: []orchestrator.Item{
		{Name: "A", State: orchestrator.StateSuccess},
		{Name: "B", State: orchestrator.StatePending},
	}}
	if got := progressLine(p); got != "[1/2] ✓A ·B" {
		t.Errorf("progressLine = %q", got)
	}
}

func TestExecuteAlwaysTearsDown(t *testing.T) {
	failure := errors.New("fetch failed")
	tests := []struct {
		name    string
		runErr  error
		downErr error
		want    error
	}{
		{"success", nil, nil, nil},
		{"command fails", failure, nil, failure},
		{"teardown fails", nil, failure, failure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{
				Use:           "x",
				SilenceUsage:  true,
				SilenceErrors: true,
				RunE:          func(*cobra.Command, []string) error { return tt.runErr },
			}
			cmd.SetArgs([]string{})

			downs := 0
			err := execute(cmd, func() error { downs++; return tt.downErr })
			if downs != 1 {
				t.Errorf("teardown ran %d times, want 1", downs)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTeardownWithoutRunner(t *testing.T) {
	runner = nil
	if err := teardown(); err != nil {
		t.Fatalf("teardown: %v", err)
	}
}
