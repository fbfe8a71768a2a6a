package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sftp-cleanup/internal/deleter"
)

const timeLayout = "2006-01-02 15:04:05"

type Mode string

const (
	ModeScan   Mode = "scan"
	ModeCheck  Mode = "check"
	ModeDelete Mode = "delete"
)

// Candidate is a stale entry selected in one top-level directory.
type Candidate struct {
	// Display is "<topdir>/<name>", Path the absolute remote path.
	Display string
	Path    string
	ModTime time.Time
	IsDir   bool
}

type Report struct {
	Mode      Mode
	Threshold time.Time
	// Scanned lists the allow-listed top-level directories that were examined.
	Scanned      []string
	Candidates   []Candidate
	FilesRemoved int
	DirsRemoved  int
	Errors       []error
}

func New(mode Mode, threshold time.Time) *Report {
	return &Report{
		Mode:       mode,
		Threshold:  threshold,
		Scanned:    make([]string, 0),
		Candidates: make([]Candidate, 0),
		Errors:     make([]error, 0),
	}
}

// AddDeletion folds the outcome of removing one candidate into the report.
func (r *Report) AddDeletion(res *deleter.Result) {
	r.FilesRemoved += len(res.FilesRemoved)
	r.DirsRemoved += len(res.DirsRemoved)
	r.Errors = append(r.Errors, res.Errors...)
}

func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

func FormatSummary(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Mode: %s, stale before %s\n", r.Mode, r.Threshold.Format(timeLayout))

	scanned := append([]string(nil), r.Scanned...)
	sort.Strings(scanned)
	if len(scanned) == 0 {
		b.WriteString("Scanned: none\n")
	} else {
		fmt.Fprintf(&b, "Scanned (%d): %s\n", len(scanned), strings.Join(scanned, ", "))
	}

	fmt.Fprintf(&b, "Stale entries: %d", len(r.Candidates))
	if len(r.Candidates) > 0 {
		dirs := 0
		oldest := r.Candidates[0].ModTime
		for _, c := range r.Candidates {
			if c.IsDir {
				dirs++
			}
			if c.ModTime.Before(oldest) {
				oldest = c.ModTime
			}
		}
		fmt.Fprintf(&b, " (%d directories, %d files), oldest modified %s",
			dirs, len(r.Candidates)-dirs, oldest.Format(timeLayout))
	}
	b.WriteString("\n")
	if r.Mode == ModeDelete {
		fmt.Fprintf(&b, "Removed: %d files, %d directories\n", r.FilesRemoved, r.DirsRemoved)
	}
	if r.HasErrors() {
		fmt.Fprintf(&b, "Skipped operations: %d\n", len(r.Errors))
	}

	return b.String()
}
