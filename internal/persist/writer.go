package persist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var ErrWriterClosed = errors.New("writer closed")

// Status is a snapshot of the background writer.
type Status struct {
	Queued      int       `json:"queued"`
	Pending     int       `json:"pending"`
	Done        int       `json:"done"`
	Failed      int       `json:"failed"`
	LastError   string    `json:"lastError,omitempty"`
	LastErrorAt time.Time `json:"lastErrorAt,omitempty"`
	LastJob     string    `json:"lastJob,omitempty"`
}

type job struct {
	name    string
	barrier bool
	run     func(ctx context.Context) error
	done    chan struct{}
}

// Writer runs write jobs one at a time in the order they were enqueued, so a
// bulk upsert always lands before a later enrichment of the same rows.
// Enqueue never blocks on the database.
type Writer struct {
	lg      *log.Logger
	timeout time.Duration

	mu     sync.Mutex
	queue  []job
	status Status
	closed bool
	wake   chan struct{}
	exited chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWriter starts the worker. timeout bounds each job; zero means one minute.
func NewWriter(lg *log.Logger, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Writer{
		lg:      lg,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		exited:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	go w.loop()
	return w
}

// Enqueue schedules fn after every job already queued.
func (w *Writer) Enqueue(name string, fn func(ctx context.Context) error) error {
	_, err := w.enqueue(name, fn, false)
	return err
}

func (w *Writer) enqueue(name string, fn func(ctx context.Context) error, barrier bool) (chan struct{}, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrWriterClosed
	}
	j := job{name: name, barrier: barrier, run: fn, done: make(chan struct{})}
	w.queue = append(w.queue, j)
	if !barrier {
		w.status.Queued++
		w.status.Pending++
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return j.done, nil
}

// Flush waits until every job queued before the call has run.
func (w *Writer) Flush(ctx context.Context) error {
	done, err := w.enqueue("flush", func(context.Context) error { return nil }, true)
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Close drains the queue and stops the worker. Jobs still queued when ctx
// expires are abandoned.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	select {
	case <-w.exited:
		return nil
	case <-ctx.Done():
		w.cancel()
		<-w.exited
		return ctx.Err()
	}
}

func (w *Writer) loop() {
	defer close(w.exited)
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			closed := w.closed
			w.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-w.wake:
			case <-w.ctx.Done():
				return
			}
			continue
		}
		j := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		if w.ctx.Err() != nil {
			return
		}
		w.run(j)
	}
}

func (w *Writer) run(j job) {
	defer close(j.done)
	if j.barrier {
		return
	}

	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	err := safeRun(ctx, j.run)
	cancel()

	w.mu.Lock()
	w.status.Pending--
	w.status.LastJob = j.name
	if err != nil {
		w.status.Failed++
		w.status.LastError = j.name + ": " + err.Error()
		w.status.LastErrorAt = time.Now().UTC()
	} else {
		w.status.Done++
	}
	w.mu.Unlock()

	if err != nil && w.lg != nil {
		w.lg.Printf("❌ persist: %s failed: %v", j.name, err)
	}
}

func safeRun(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in write job: %v", p)
		}
	}()
	return fn(ctx)
}
