// Package remote describes the remote file store a cleanup run works against.
package remote

import "time"

// Entry is one item of a remote directory listing.
type Entry struct {
	Name    string
	ModTime time.Time
	IsDir   bool
}

// Client is a connected session against a remote file hierarchy. Paths are
// slash separated. Implementations used with a concurrent scan must be safe
// for concurrent use.
type Client interface {
	// List returns the names in the directory p.
	List(p string) ([]string, error)

	// ListWithAttrs returns the entries in the directory p with their
	// modification times.
	ListWithAttrs(p string) ([]Entry, error)

	// Stat describes p, following symbolic links.
	Stat(p string) (Entry, error)

	// RemoveFile removes the non-directory p.
	RemoveFile(p string) error

	// RemoveDirectory removes the empty directory p.
	RemoveDirectory(p string) error

	// Close ends the session.
	Close() error
}

// Operation names used in OpError.
const (
	OpList            = "list"
	OpStat            = "stat"
	OpRemoveFile      = "remove file"
	OpRemoveDirectory = "remove directory"
)

// OpError records a failed remote operation that a best-effort caller
// chose to step over.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}
