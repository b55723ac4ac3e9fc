// Package search turns raw keystrokes into rate-limited catalog lookups.
//
// Every Update restarts a quiescence window; only the last query typed within
// the window is looked up. Each lookup takes a sequence number and its result
// is published only if no newer lookup (or blank query) has been issued since,
// so a slow response can never overwrite fresher results.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tokosehat/kasir/pkg/logger"
	"github.com/tokosehat/kasir/pkg/metrics"
)

const DefaultWindow = 300 * time.Millisecond

// LookupFunc performs one catalog query.
type LookupFunc[T any] func(ctx context.Context, query string) ([]T, error)

// Result is a published result set. Items is never nil.
type Result[T any] struct {
	Query string
	Seq   uint64
	Items []T
	Err   error
}

// Sink receives published results. It must not call back into the Debouncer.
type Sink[T any] func(Result[T])

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Debouncer[T any] struct {
	window    time.Duration
	lookup    LookupFunc[T]
	sink      Sink[T]
	afterFunc AfterFunc
	logg      *logger.Logger
	metrics   *metrics.RegisterMetrics

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	timer  Timer
	gen    uint64
	seq    uint64
	closed bool

	deliverMu sync.Mutex
}

type Option[T any] func(*Debouncer[T])

func WithWindow[T any](window time.Duration) Option[T] {
	return func(d *Debouncer[T]) {
		if window >= 0 {
			d.window = window
		}
	}
}

// WithAfterFunc replaces the timer factory; tests use it to fire windows by hand.
func WithAfterFunc[T any](fn AfterFunc) Option[T] {
	return func(d *Debouncer[T]) {
		if fn != nil {
			d.afterFunc = fn
		}
	}
}

func WithLogger[T any](logg *logger.Logger) Option[T] {
	return func(d *Debouncer[T]) {
		if logg != nil {
			d.logg = logg
		}
	}
}

func WithMetrics[T any](m *metrics.RegisterMetrics) Option[T] {
	return func(d *Debouncer[T]) {
		d.metrics = m
	}
}

func New[T any](lookup LookupFunc[T], sink Sink[T], opts ...Option[T]) *Debouncer[T] {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Debouncer[T]{
		window:    DefaultWindow,
		lookup:    lookup,
		sink:      sink,
		afterFunc: realAfterFunc,
		logg:      logger.Nop(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Update records a new query. A blank query cancels any pending lookup and
// publishes an empty result immediately, without calling the catalog.
func (d *Debouncer[T]) Update(query string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++

	if strings.TrimSpace(query) == "" {
		d.seq++
		seq := d.seq
		d.mu.Unlock()
		d.metrics.IncSearch(metrics.SearchOutcomeBlank)
		d.deliver(Result[T]{Query: query, Seq: seq, Items: []T{}})
		return
	}

	gen := d.gen
	d.timer = d.afterFunc(d.window, func() { d.fire(gen, query) })
	d.mu.Unlock()
}

// Latest returns the sequence of the most recently issued lookup.
func (d *Debouncer[T]) Latest() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Close stops any pending timer and invalidates in-flight lookups.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.cancel()
}

func (d *Debouncer[T]) fire(gen uint64, query string) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	items, err := d.lookup(d.ctx, query)
	if err != nil {
		d.metrics.IncSearch(metrics.SearchOutcomeError)
		ctx := d.logg.WithFields(context.Background(), map[string]any{"query": query, "seq": seq})
		d.logg.Warn(ctx, "catalog search failed: "+err.Error())
		items = nil
	}
	if items == nil {
		items = []T{}
	}
	d.deliver(Result[T]{Query: query, Seq: seq, Items: items, Err: err})
}

// deliver publishes r unless a newer lookup has been issued.
func (d *Debouncer[T]) deliver(r Result[T]) {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	stale := r.Seq != d.seq
	d.mu.Unlock()
	if stale {
		d.metrics.IncSearch(metrics.SearchOutcomeStale)
		return
	}
	if r.Err == nil && strings.TrimSpace(r.Query) != "" {
		d.metrics.IncSearch(metrics.SearchOutcomeOK)
	}
	if d.sink != nil {
		d.sink(r)
	}
}
