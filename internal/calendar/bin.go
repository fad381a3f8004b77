package calendar

import (
	"encoding/json"
	"strings"
	"time"
)

// Item is anything with a due date. DueDate returns the raw due value as
// received, typically YYYY-MM-DD; an empty string means the item is undated.
type Item interface {
	DueDate() string
}

// Entry is a minimal Item for callers that only have an identifier, a title
// and a due value.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Due   string `json:"due,omitempty"`
}

// DueDate implements Item.
func (e Entry) DueDate() string { return e.Due }

// DayBucket groups the items due on one day.
type DayBucket[T Item] struct {
	Date  time.Time
	Tasks []T
}

// MarshalJSON renders the bucket date in DateLayout.
func (b DayBucket[T]) MarshalJSON() ([]byte, error) {
	tasks := b.Tasks
	if tasks == nil {
		tasks = []T{}
	}
	return json.Marshal(struct {
		Date  string `json:"date"`
		Tasks []T    `json:"tasks"`
	}{
		Date:  b.Date.Format(DateLayout),
		Tasks: tasks,
	})
}

// Stats describes how a collection was distributed over a month.
type Stats struct {
	Placed     int `json:"placed"`
	OutOfMonth int `json:"out_of_month"`
	Undated    int `json:"undated"`
	Malformed  int `json:"malformed"`
}

// Excluded returns the number of items that landed in no bucket.
func (s Stats) Excluded() int {
	return s.OutOfMonth + s.Undated + s.Malformed
}

// Unscheduled returns the number of items that could not be placed on any
// month at all.
func (s Stats) Unscheduled() int {
	return s.Undated + s.Malformed
}

// Bin distributes items over the days of the anchor's month. The result has
// exactly one bucket per day in ascending order; bucket i holds day i+1.
// Items keep their input order within a bucket. Items that are undated,
// malformed or due in another month are dropped.
func Bin[T Item](anchor time.Time, items []T) []DayBucket[T] {
	buckets, _ := BinWithStats(anchor, items)
	return buckets
}

// BinWithStats is Bin that also reports what happened to every item.
func BinWithStats[T Item](anchor time.Time, items []T) ([]DayBucket[T], Stats) {
	month := MonthOf(anchor)
	return binMonth(month, items)
}

func binMonth[T Item](month Month, items []T) ([]DayBucket[T], Stats) {
	buckets := make([]DayBucket[T], month.Days())
	for i := range buckets {
		buckets[i] = DayBucket[T]{Date: month.Day(i + 1), Tasks: []T{}}
	}

	var stats Stats
	for _, item := range items {
		raw := strings.TrimSpace(item.DueDate())
		if raw == "" {
			stats.Undated++
			continue
		}
		y, m, d, ok := ParseDue(raw)
		if !ok {
			stats.Malformed++
			continue
		}
		if y != month.Year() || m != month.Month() {
			stats.OutOfMonth++
			continue
		}
		buckets[d-1].Tasks = append(buckets[d-1].Tasks, item)
		stats.Placed++
	}

	return buckets, stats
}

// ParseDue reduces a due value to its calendar day. It accepts YYYY-MM-DD and
// RFC 3339 timestamps; a timestamp is read in its own offset so that the day
// the producer meant is kept.
func ParseDue(raw string) (year int, month time.Month, day int, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0, 0, false
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		y, m, d := t.Date()
		return y, m, d, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		y, m, d := t.Date()
		return y, m, d, true
	}
	return 0, 0, 0, false
}

// NormalizeDue returns raw reduced to YYYY-MM-DD, or false when raw is not a
// recognizable date.
func NormalizeDue(raw string) (string, bool) {
	y, m, d, ok := ParseDue(raw)
	if !ok {
		return "", false
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(DateLayout), true
}
