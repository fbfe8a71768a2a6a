package walker

import (
	"context"
	"path"

	"sftp-cleanup/internal/remote"
)

// LegacyMaxDepth is how many levels below the root the legacy discovery
// tries before giving up.
const LegacyMaxDepth = 9

type WalkResult struct {
	// Dirs holds the root first, then discovered paths in discovery order.
	Dirs   []string
	Errors []error
}

// Legacy discovers directories below root by extending a single path.
//
// Each level lists the path discovered last and, for every name in that
// listing, checks that the path being extended is still a directory before
// appending the name to it. Siblings therefore get chained onto each other,
// and once the extended path stops being a directory discovery ends. In
// practice only the first nested level is found reliably; the rest of a
// deeper tree is left for the caller's best-effort pass.
func Legacy(ctx context.Context, client remote.Client, root string) *WalkResult {
	result := &WalkResult{
		Dirs:   []string{root},
		Errors: make([]error, 0),
	}

	current := root
	for level := 1; level <= LegacyMaxDepth; level++ {
		if ctx.Err() != nil {
			break
		}

		// Listing fails once current is no longer a directory, including
		// when root itself is a plain file
		names, err := client.List(current)
		if err != nil {
			break
		}

		extended := false
		for _, name := range names {
			entry, err := client.Stat(current)
			if err != nil {
				result.Errors = append(result.Errors, &remote.OpError{Op: remote.OpStat, Path: current, Err: err})
				break
			}
			if !entry.IsDir {
				break
			}
			current = path.Join(current, name)
			result.Dirs = append(result.Dirs, current)
			extended = true
		}

		if !extended {
			break
		}
	}

	return result
}

// Full discovers every directory below root breadth first. Symbolic links
// are not followed. A root that cannot be listed, such as a plain file,
// yields just the root.
func Full(ctx context.Context, client remote.Client, root string) *WalkResult {
	result := &WalkResult{
		Dirs:   []string{root},
		Errors: make([]error, 0),
	}

	queue := []string{root}
	for len(queue) > 0 {
		if ctx.Err() != nil {
			break
		}

		dir := queue[0]
		queue = queue[1:]

		entries, err := client.ListWithAttrs(dir)
		if err != nil {
			if dir != root {
				result.Errors = append(result.Errors, &remote.OpError{Op: remote.OpList, Path: dir, Err: err})
			}
			continue
		}

		for _, e := range entries {
			if !e.IsDir {
				continue
			}
			child := path.Join(dir, e.Name)
			result.Dirs = append(result.Dirs, child)
			queue = append(queue, child)
		}
	}

	return result
}
