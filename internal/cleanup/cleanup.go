// Package cleanup drives one retention pass over a remote store: list the
// top-level directories, select stale children of the allow-listed ones and
// report or remove them.
package cleanup

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/IGLOU-EU/go-wildcard"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"sftp-cleanup/internal/allowlist"
	"sftp-cleanup/internal/deleter"
	"sftp-cleanup/internal/progress"
	"sftp-cleanup/internal/remote"
	"sftp-cleanup/internal/report"
	"sftp-cleanup/internal/retention"
)

// ProtectedName is never selected directly under a top-level directory.
const ProtectedName = ".ssh"

// Events is the operator-facing output: Eventf goes to the console and the
// log file, Printf to the console only.
type Events interface {
	Eventf(format string, args ...any)
	Printf(format string, args ...any)
}

type Options struct {
	Mode       report.Mode
	Root       string
	MaxAgeDays int
	// Exclude holds extra wildcard patterns matched against child names.
	Exclude []string
	Walk    string
	Workers int
	// Progress receives a scan progress bar when set.
	Progress io.Writer
	Now      func() time.Time
}

type Cleaner struct {
	client  remote.Client
	allow   *allowlist.List
	events  Events
	log     logrus.FieldLogger
	opts    Options
	deleter *deleter.Deleter
}

// plan holds the stale children of one top-level directory.
type plan struct {
	dir        string
	candidates []report.Candidate
	err        error
}

func New(client remote.Client, allow *allowlist.List, events Events, log logrus.FieldLogger, opts Options) *Cleaner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Root == "" {
		opts.Root = "/"
	}
	return &Cleaner{
		client:  client,
		allow:   allow,
		events:  events,
		log:     log,
		opts:    opts,
		deleter: deleter.New(client, events, log, opts.Walk),
	}
}

// Run performs one pass. Only a failure to list the remote root, or
// cancellation, is returned as an error; everything else is recorded in the
// report.
func (c *Cleaner) Run(ctx context.Context) (*report.Report, error) {
	threshold := retention.NewThreshold(c.opts.Now(), c.opts.MaxAgeDays)
	rep := report.New(c.opts.Mode, threshold.Cutoff())

	tops, err := c.client.List(c.opts.Root)
	if err != nil {
		return rep, fmt.Errorf("failed to list remote root %s: %w", c.opts.Root, err)
	}

	if c.opts.Mode == report.ModeCheck {
		c.audit()
	}

	dirs := make([]string, 0)
	for _, name := range tops {
		if c.allow.Contains(name) {
			dirs = append(dirs, name)
		}
	}

	plans, err := c.scan(ctx, dirs, threshold)
	if err != nil {
		return rep, err
	}

	for _, p := range plans {
		rep.Scanned = append(rep.Scanned, p.dir)
		if p.err != nil {
			rep.Errors = append(rep.Errors, p.err)
			c.log.WithField("dir", p.dir).WithError(p.err).Warn("skipping directory")
			continue
		}

		for _, cand := range p.candidates {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			rep.Candidates = append(rep.Candidates, cand)

			switch c.opts.Mode {
			case report.ModeCheck:
				c.events.Printf("%s", cand.Display)
			case report.ModeDelete:
				rep.AddDeletion(c.deleter.DeleteTree(ctx, cand.Path))
			}
		}
	}

	return rep, ctx.Err()
}

// audit echoes the allow-list so the log records what a check run was
// configured with.
func (c *Cleaner) audit() {
	c.events.Printf("I check root directory on sftp from %q", c.allow.Path)
	c.log.WithFields(logrus.Fields{
		"list":   c.allow.Path,
		"digest": c.allow.Digest(),
		"names":  c.allow.Len(),
	}).Info("allow-list loaded")
	for _, name := range c.allow.Names() {
		c.events.Eventf("%s", name)
	}
	c.events.Printf("----------------")
}

// scan builds the plan of every directory with up to Workers listings in
// flight. Plans come back in the order of dirs.
func (c *Cleaner) scan(ctx context.Context, dirs []string, threshold retention.Threshold) ([]plan, error) {
	plans := make([]plan, len(dirs))

	var bar *progress.Bar
	if c.opts.Progress != nil {
		bar = progress.New(int64(len(dirs)), c.opts.Progress)
		defer bar.Finish()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bar.Start(dir)
			plans[i] = c.planDir(dir, threshold)
			bar.Done(dir)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

func (c *Cleaner) planDir(dir string, threshold retention.Threshold) plan {
	p := plan{dir: dir, candidates: make([]report.Candidate, 0)}

	dirPath := path.Join(c.opts.Root, dir)
	entries, err := c.client.ListWithAttrs(dirPath)
	if err != nil {
		p.err = &remote.OpError{Op: remote.OpList, Path: dirPath, Err: err}
		return p
	}

	for _, e := range threshold.Stale(entries) {
		if c.excluded(e.Name) {
			continue
		}
		p.candidates = append(p.candidates, report.Candidate{
			Display: dir + "/" + e.Name,
			Path:    path.Join(dirPath, e.Name),
			ModTime: e.ModTime,
			IsDir:   e.IsDir,
		})
	}
	return p
}

func (c *Cleaner) excluded(name string) bool {
	if name == ProtectedName {
		return true
	}
	for _, pattern := range c.opts.Exclude {
		if wildcard.Match(pattern, name) {
			return true
		}
	}
	return false
}
