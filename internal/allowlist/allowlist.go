// Package allowlist loads the set of top-level remote directories that a
// cleanup run is allowed to touch.
//
// The file holds one directory name per line, relative to the remote root.
// Lines are kept as written apart from the line terminator.
package allowlist

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"sftp-cleanup/internal/hash"
)

// ErrMissing is returned by Load when the allow-list file does not exist.
var ErrMissing = errors.New("allow-list file is missing")

type List struct {
	Path  string
	names []string
	set   map[string]struct{}
}

func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("failed to read allow-list: %w", err)
	}

	names := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		names = append(names, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse allow-list: %w", err)
	}

	l := New(names...)
	l.Path = path
	return l, nil
}

// New builds a list from names in order.
func New(names ...string) *List {
	l := &List{
		names: make([]string, 0, len(names)),
		set:   make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		l.names = append(l.names, name)
		l.set[name] = struct{}{}
	}
	return l
}

func (l *List) Contains(name string) bool {
	_, ok := l.set[name]
	return ok
}

// Names returns the entries in file order, duplicates included.
func (l *List) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

func (l *List) Len() int {
	return len(l.names)
}

// Digest identifies the list contents in audit output.
func (l *List) Digest() string {
	return hash.Lines(l.names)
}
