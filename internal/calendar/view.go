package calendar

import (
	"context"
	"time"
)

// Fetcher loads the current item snapshot from a backend.
type Fetcher[T Item] interface {
	FetchTasks(ctx context.Context) ([]T, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[T Item] func(ctx context.Context) ([]T, error)

// FetchTasks calls f(ctx).
func (f FetcherFunc[T]) FetchTasks(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// View is the state behind a month calendar: the month on display and the
// last item snapshot that was fetched. A View is owned by a single goroutine.
type View[T Item] struct {
	fetcher Fetcher[T]
	month   Month
	items   []T
	buckets []DayBucket[T]
	stats   Stats
	loaded  bool
	err     error
}

// NewView returns a view anchored on the month containing anchor. Nothing is
// fetched until Load is called.
func NewView[T Item](anchor time.Time, fetcher Fetcher[T]) *View[T] {
	return &View[T]{
		fetcher: fetcher,
		month:   MonthOf(anchor),
	}
}

// Load fetches a fresh snapshot and re-bins it for the current month. On
// failure the error is recorded and the previous buckets are kept. There is
// no retry.
func (v *View[T]) Load(ctx context.Context) error {
	items, err := v.fetcher.FetchTasks(ctx)
	v.Apply(items, err)
	return err
}

// Apply installs the outcome of a fetch performed elsewhere. It lets callers
// run the fetch on another goroutine and hand the result back to the owner.
func (v *View[T]) Apply(items []T, err error) {
	if err != nil {
		v.err = err
		return
	}
	v.err = nil
	v.items = items
	v.loaded = true
	v.rebin()
}

// Next moves to the following month and re-bins the snapshot.
func (v *View[T]) Next() {
	v.month = v.month.Next()
	v.rebin()
}

// Prev moves to the preceding month and re-bins the snapshot.
func (v *View[T]) Prev() {
	v.month = v.month.Prev()
	v.rebin()
}

// Jump moves to the month containing t and re-bins the snapshot.
func (v *View[T]) Jump(t time.Time) {
	v.month = MonthOf(t)
	v.rebin()
}

func (v *View[T]) rebin() {
	if !v.loaded {
		return
	}
	v.buckets, v.stats = binMonth(v.month, v.items)
}

// Anchor returns the month on display.
func (v *View[T]) Anchor() Month { return v.month }

// Buckets returns the day buckets of the month on display. It is empty until
// the first successful Load.
func (v *View[T]) Buckets() []DayBucket[T] { return v.buckets }

// Stats returns the distribution of the snapshot over the month on display.
func (v *View[T]) Stats() Stats { return v.stats }

// Items returns the current snapshot.
func (v *View[T]) Items() []T { return v.items }

// Loaded reports whether a fetch has succeeded at least once.
func (v *View[T]) Loaded() bool { return v.loaded }

// Err returns the error of the most recent Load, or nil if it succeeded.
func (v *View[T]) Err() error { return v.err }
