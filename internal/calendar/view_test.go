package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	items []Entry
	err   error
	calls int
}

func (s *stubFetcher) FetchTasks(_ context.Context) ([]Entry, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func TestView_LoadBinsSnapshot(t *testing.T) {
	f := &stubFetcher{items: []Entry{
		{ID: "1", Due: "2024-02-29"},
		{ID: "2", Due: "2024-03-01"},
		{ID: "3"},
	}}
	v := NewView[Entry](date(2024, time.February, 12), f)

	assert.Empty(t, v.Buckets())
	assert.False(t, v.Loaded())

	require.NoError(t, v.Load(context.Background()))

	assert.True(t, v.Loaded())
	require.Len(t, v.Buckets(), 29)
	assert.Len(t, v.Buckets()[28].Tasks, 1)
	assert.Equal(t, Stats{Placed: 1, OutOfMonth: 1, Undated: 1}, v.Stats())
}

func TestView_NavigationRebinsWithoutFetching(t *testing.T) {
	f := &stubFetcher{items: []Entry{
		{ID: "feb", Due: "2024-02-29"},
		{ID: "mar", Due: "2024-03-01"},
	}}
	v := NewView[Entry](date(2024, time.February, 1), f)
	require.NoError(t, v.Load(context.Background()))

	v.Next()
	assert.Equal(t, "2024-03", v.Anchor().String())
	require.Len(t, v.Buckets(), 31)
	require.Len(t, v.Buckets()[0].Tasks, 1)
	assert.Equal(t, "mar", v.Buckets()[0].Tasks[0].ID)

	v.Prev()
	assert.Equal(t, "2024-02", v.Anchor().String())
	require.Len(t, v.Buckets(), 29)
	assert.Equal(t, "feb", v.Buckets()[28].Tasks[0].ID)

	assert.Equal(t, 1, f.calls)
}

func TestView_NextPrevRoundTripRestoresState(t *testing.T) {
	f := &stubFetcher{items: []Entry{{ID: "1", Due: "2024-12-24"}}}
	v := NewView[Entry](date(2024, time.December, 5), f)
	require.NoError(t, v.Load(context.Background()))

	before := v.Buckets()
	v.Next()
	assert.Equal(t, "2025-01", v.Anchor().String())
	v.Prev()

	assert.Equal(t, "2024-12", v.Anchor().String())
	assert.Equal(t, before, v.Buckets())
}

func TestView_FailedLoadKeepsPreviousBuckets(t *testing.T) {
	f := &stubFetcher{items: []Entry{{ID: "1", Due: "2024-06-01"}}}
	v := NewView[Entry](date(2024, time.June, 1), f)
	require.NoError(t, v.Load(context.Background()))
	before := v.Buckets()

	f.err = errors.New("connection refused")
	err := v.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, err, v.Err())
	assert.Equal(t, before, v.Buckets())

	f.err = nil
	require.NoError(t, v.Load(context.Background()))
	assert.NoError(t, v.Err())
}

func TestView_FailedFirstLoadLeavesEmpty(t *testing.T) {
	f := &stubFetcher{err: errors.New("boom")}
	v := NewView[Entry](date(2024, time.June, 1), f)

	require.Error(t, v.Load(context.Background()))
	assert.Empty(t, v.Buckets())

	v.Next()
	assert.Equal(t, "2024-07", v.Anchor().String())
	assert.Empty(t, v.Buckets())
}

func TestView_Jump(t *testing.T) {
	fetch := FetcherFunc[Entry](func(context.Context) ([]Entry, error) {
		return []Entry{{ID: "1", Due: "2030-01-15"}}, nil
	})
	v := NewView[Entry](date(2024, time.June, 1), fetch)
	require.NoError(t, v.Load(context.Background()))

	v.Jump(date(2030, time.January, 9))

	assert.Equal(t, "2030-01", v.Anchor().String())
	assert.Len(t, v.Buckets()[14].Tasks, 1)
}
