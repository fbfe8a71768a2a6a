package retention

import (
	"sort"
	"time"

	"sftp-cleanup/internal/remote"
)

const secondsPerDay = 86400

// IsStale reports whether an entry modified at mtime is older than
// maxAgeDays at now. Ages are compared in whole seconds, an entry exactly
// maxAgeDays old is kept.
func IsStale(mtime, now time.Time, maxAgeDays int) bool {
	return now.Unix()-mtime.Unix() > int64(maxAgeDays)*secondsPerDay
}

// Threshold is the single staleness snapshot taken at the start of a run.
type Threshold struct {
	Now        time.Time
	MaxAgeDays int
}

func NewThreshold(now time.Time, maxAgeDays int) Threshold {
	return Threshold{Now: now, MaxAgeDays: maxAgeDays}
}

// Cutoff is the boundary of the window. Entries modified before it, compared
// in whole seconds, are stale.
func (t Threshold) Cutoff() time.Time {
	return time.Unix(t.Now.Unix()-int64(t.MaxAgeDays)*secondsPerDay, 0)
}

func (t Threshold) IsStale(mtime time.Time) bool {
	return IsStale(mtime, t.Now, t.MaxAgeDays)
}

// SortByModTime orders entries oldest first, keeping listing order for ties.
func SortByModTime(entries []remote.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
}

// Stale returns the stale entries of a listing, oldest first. The input
// slice is not modified.
func (t Threshold) Stale(entries []remote.Entry) []remote.Entry {
	sorted := make([]remote.Entry, len(entries))
	copy(sorted, entries)
	SortByModTime(sorted)

	stale := make([]remote.Entry, 0)
	for _, e := range sorted {
		if t.IsStale(e.ModTime) {
			stale = append(stale, e)
		}
	}
	return stale
}
