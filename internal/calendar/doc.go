// Package calendar bins dated items into the days of a month and tracks the
// month currently on display.
//
// The binning is a pure function of an anchor date and an item collection:
//
//	buckets := calendar.Bin(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), tasks)
//	// len(buckets) == 29, buckets[28] holds everything due 2024-02-29
//
// Only the year and month of the anchor matter. Items whose due date is
// missing, unparseable or outside the anchor month are left out of every
// bucket; BinWithStats reports how many were left out and why.
//
// A View pairs a Month with the last fetched item snapshot. Navigating with
// Next and Prev re-bins the snapshot without fetching; Load is the only
// operation that talks to the backend.
package calendar
