package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

// termSink redraws one status line when out is a terminal and prints one
// line per finished property otherwise.
type termSink struct {
	mu    sync.Mutex
	out   io.Writer
	tty   bool
	width int
	done  map[string]bool
	batch string
}

func newTermSink(f *os.File) *termSink {
	s := &termSink{out: f, width: 80}
	if fd := int(f.Fd()); term.IsTerminal(fd) {
		s.tty = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			s.width = w
		}
	}
	return s
}

func (s *termSink) OnProgress(p orchestrator.Progress) {
	if outputJSON {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tty {
		fmt.Fprintf(s.out, "\r%s", fit(progressLine(p), s.width))
		return
	}

	if p.BatchID != s.batch {
		s.batch = p.BatchID
		s.done = map[string]bool{}
	}
	for _, it := range p.Items {
		if s.done[it.PropertyID] || (it.State != orchestrator.StateSuccess && it.State != orchestrator.StateError) {
			continue
		}
		s.done[it.PropertyID] = true
		fmt.Fprintln(s.out, itemLine(it))
	}
}

func (s *termSink) OnSummary(sum orchestrator.Summary) {
	if outputJSON {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tty {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.width-1)+"\r")
		for _, it := range sum.Items {
			fmt.Fprintln(s.out, itemLine(it))
		}
	}
	fmt.Fprintf(s.out, "%s in %s\n", sum, sum.Elapsed.Round(time.Millisecond))
}

func progressLine(p orchestrator.Progress) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d/%d]", p.Current, p.Total)
	for _, it := range p.Items {
		b.WriteString(" ")
		b.WriteString(stateMark(it.State))
		b.WriteString(it.Name)
	}
	return b.String()
}

func itemLine(it orchestrator.Item) string {
	switch it.State {
	case orchestrator.StateSuccess:
		return fmt.Sprintf("✅ %s: %d bookings", it.Name, it.Records)
	case orchestrator.StateError:
		return fmt.Sprintf("❌ %s: %s (%s)", it.Name, it.Error, it.ErrorKind)
	case orchestrator.StateLoading:
		return fmt.Sprintf("… %s", it.Name)
	}
	return fmt.Sprintf("· %s: not fetched", it.Name)
}

func stateMark(s orchestrator.State) string {
	switch s {
	case orchestrator.StateLoading:
		return "…"
	case orchestrator.StateSuccess:
		return "✓"
	case orchestrator.StateError:
		return "✗"
	}
	return "·"
}

// fit truncates or pads line to width-1 runes so a redraw fully overwrites the previous one.
func fit(line string, width int) string {
	if width <= 1 {
		return line
	}
	r := []rune(line)
	limit := width - 1
	if len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return line + strings.Repeat(" ", limit-len(r))
}
