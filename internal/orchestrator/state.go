package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/weekly"
)

type State string

const (
	StatePending State = "pending"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Item is the per-property status inside a batch.
type Item struct {
	PropertyID string    `json:"propertyId"`
	Name       string    `json:"name"`
	State      State     `json:"state"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	Records    int       `json:"records"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"startedAt,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Progress is emitted after every item transition.
type Progress struct {
	BatchID   string `json:"batchId"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Items     []Item `json:"items"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Summary is the terminal report of a batch.
type Summary struct {
	BatchID      string        `json:"batchId"`
	SuccessCount int           `json:"successCount"`
	ErrorCount   int           `json:"errorCount"`
	Cancelled    bool          `json:"cancelled"`
	Items        []Item        `json:"items"`
	Elapsed      time.Duration `json:"elapsed"`
}

// FailedPropertyIDs lists the items that ended in error, in batch order.
func (s Summary) FailedPropertyIDs() []string {
	var out []string
	for _, it := range s.Items {
		if it.State == StateError {
			out = append(out, it.PropertyID)
		}
	}
	return out
}

// Status maps the outcome onto an import audit status.
func (s Summary) Status() models.ImportStatus {
	switch {
	case s.Cancelled:
		return models.ImportCancelled
	case s.ErrorCount == 0:
		return models.ImportSuccess
	case s.SuccessCount == 0:
		return models.ImportFailed
	default:
		return models.ImportPartial
	}
}

func (s Summary) String() string {
	msg := fmt.Sprintf("%d succeeded, %d failed", s.SuccessCount, s.ErrorCount)
	if s.Cancelled {
		msg += " (cancelled)"
	}
	return msg
}

// Batch is everything a finished run hands to persistence.
type Batch struct {
	ID         string
	Origin     models.Origin
	From, To   time.Time
	Properties []string
	Bookings   []models.Booking
	Updates    []weekly.Update
	Summary    Summary
}

// ProgressSink receives progress snapshots and the final summary.
type ProgressSink interface {
	OnProgress(p Progress)
	OnSummary(s Summary)
}

// Persister receives the committed batch. It must not block the caller for
// the duration of the writes.
type Persister interface {
	Persist(ctx context.Context, b Batch)
}

type multiSink []ProgressSink

// MultiSink fans events out to every non-nil sink.
func MultiSink(sinks ...ProgressSink) ProgressSink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) OnProgress(p Progress) {
	for _, s := range m {
		s.OnProgress(p)
	}
}

func (m multiSink) OnSummary(s Summary) {
	for _, sink := range m {
		sink.OnSummary(s)
	}
}
