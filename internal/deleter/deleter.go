// Package deleter removes a stale remote subtree on a best-effort basis.
//
// A tree is removed in three passes: discover the directories below the
// root, remove the entries of every discovered directory, then remove the
// discovered paths themselves last-discovered first so that directories are
// (ideally) empty by the time they are removed. A failed operation never
// stops the run; it is recorded in the Result and the next one is tried.
package deleter

import (
	"context"
	"errors"
	"io/fs"
	"path"

	"github.com/sirupsen/logrus"

	"sftp-cleanup/internal/config"
	"sftp-cleanup/internal/remote"
	"sftp-cleanup/internal/walker"
)

// Events receives one message per successful removal.
type Events interface {
	Eventf(format string, args ...any)
}

type Result struct {
	Root         string
	FilesRemoved []string
	DirsRemoved  []string
	// Errors holds the operations that were skipped, as *remote.OpError.
	Errors []error
}

func (r *Result) Removed() int {
	return len(r.FilesRemoved) + len(r.DirsRemoved)
}

type Deleter struct {
	client remote.Client
	events Events
	log    logrus.FieldLogger
	walk   string
}

// New returns a Deleter using the config.WalkLegacy or config.WalkFull
// discovery strategy.
func New(client remote.Client, events Events, log logrus.FieldLogger, walk string) *Deleter {
	return &Deleter{client: client, events: events, log: log, walk: walk}
}

// DeleteTree removes root and everything below it that it can reach. It
// never fails; see Result for what happened.
func (d *Deleter) DeleteTree(ctx context.Context, root string) *Result {
	result := &Result{
		Root:         root,
		FilesRemoved: make([]string, 0),
		DirsRemoved:  make([]string, 0),
		Errors:       make([]error, 0),
	}

	var walked *walker.WalkResult
	if d.walk == config.WalkFull {
		walked = walker.Full(ctx, d.client, root)
		for _, err := range walked.Errors {
			d.record(result, err)
		}
		d.removeFiles(ctx, result, walked.Dirs)
	} else {
		walked = walker.Legacy(ctx, d.client, root)
		for _, err := range walked.Errors {
			d.record(result, err)
		}
		d.removeNames(ctx, result, walked.Dirs)
	}

	for i := len(walked.Dirs) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			break
		}
		d.remove(result, walked.Dirs[i])
	}

	return result
}

// removeNames removes every listed name of every discovered path. A name is
// attempted once per tree even when it appears under several paths.
func (d *Deleter) removeNames(ctx context.Context, result *Result, dirs []string) {
	removed := make(map[string]struct{})
	for _, dir := range dirs {
		// Discovered paths that are not directories cannot be listed
		names, err := d.client.List(dir)
		if err != nil {
			continue
		}
		for _, name := range names {
			if ctx.Err() != nil {
				return
			}
			if _, ok := removed[name]; ok {
				continue
			}
			removed[name] = struct{}{}
			d.remove(result, path.Join(dir, name))
		}
	}
}

// removeFiles removes the non-directory entries of every discovered
// directory. Directories are left for the final pass.
func (d *Deleter) removeFiles(ctx context.Context, result *Result, dirs []string) {
	for _, dir := range dirs {
		// Listing failures were already recorded during discovery
		entries, err := d.client.ListWithAttrs(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if ctx.Err() != nil {
				return
			}
			if e.IsDir {
				continue
			}
			d.remove(result, path.Join(dir, e.Name))
		}
	}
}

// remove deletes p as a directory or a file depending on what the remote
// reports it to be.
func (d *Deleter) remove(result *Result, p string) {
	entry, err := d.client.Stat(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.record(result, &remote.OpError{Op: remote.OpStat, Path: p, Err: err})
			return
		}
		// Stat follows links, so p may still be a dangling link. It is only
		// already gone when the unlink finds nothing either.
		if err := d.client.RemoveFile(p); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				d.record(result, &remote.OpError{Op: remote.OpRemoveFile, Path: p, Err: err})
			}
			return
		}
		result.FilesRemoved = append(result.FilesRemoved, p)
		d.events.Eventf("file removed: %s", p)
		return
	}

	if entry.IsDir {
		if err := d.client.RemoveDirectory(p); err != nil {
			d.record(result, &remote.OpError{Op: remote.OpRemoveDirectory, Path: p, Err: err})
			return
		}
		result.DirsRemoved = append(result.DirsRemoved, p)
		d.events.Eventf("directory removed: %s", p)
		return
	}

	if err := d.client.RemoveFile(p); err != nil {
		d.record(result, &remote.OpError{Op: remote.OpRemoveFile, Path: p, Err: err})
		return
	}
	result.FilesRemoved = append(result.FilesRemoved, p)
	d.events.Eventf("file removed: %s", p)
}

func (d *Deleter) record(result *Result, err error) {
	result.Errors = append(result.Errors, err)

	fields := logrus.Fields{"root": result.Root}
	var opErr *remote.OpError
	if errors.As(err, &opErr) {
		fields["op"] = opErr.Op
		fields["path"] = opErr.Path
	}
	d.log.WithFields(fields).WithError(err).Debug("remote operation skipped")
}
