// Package notify fans orchestrator progress out to logs, Telegram and Redis.
package notify

import (
	"log"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

// LogSink writes one line per finished item and one for the summary.
type LogSink struct {
	lg       *log.Logger
	reported finished
}

func NewLogSink(lg *log.Logger) *LogSink {
	return &LogSink{lg: lg}
}

func (s *LogSink) OnProgress(p orchestrator.Progress) {
	for _, it := range s.reported.newlyFinished(p) {
		switch it.State {
		case orchestrator.StateSuccess:
			s.lg.Printf("[%d/%d] ✅ %s: %d bookings (%d skipped)", p.Current, p.Total, it.Name, it.Records, it.Skipped)
		case orchestrator.StateError:
			s.lg.Printf("[%d/%d] ❌ %s: %s", p.Current, p.Total, it.Name, it.Error)
		}
	}
}

func (s *LogSink) OnSummary(sum orchestrator.Summary) {
	s.lg.Printf("📦 %s in %s", sum, sum.Elapsed.Round(time.Millisecond))
}

// finished remembers which items were already reported within a batch.
type finished struct {
	batch string
	seen  map[string]bool
}

func (f *finished) newlyFinished(p orchestrator.Progress) []orchestrator.Item {
	if f.batch != p.BatchID || f.seen == nil {
		f.batch = p.BatchID
		f.seen = map[string]bool{}
	}

	var out []orchestrator.Item
	for _, it := range p.Items {
		if it.State != orchestrator.StateSuccess && it.State != orchestrator.StateError {
			continue
		}
		if f.seen[it.PropertyID] {
			continue
		}
		f.seen[it.PropertyID] = true
		out = append(out, it)
	}
	return out
}
