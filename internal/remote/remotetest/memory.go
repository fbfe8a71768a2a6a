// Package remotetest provides an in-memory remote.Client for tests.
package remotetest

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"sftp-cleanup/internal/remote"
)

type node struct {
	isDir   bool
	modTime time.Time
	// target is set for symbolic links.
	target string
}

// Memory is a remote file hierarchy held in memory. It is safe for
// concurrent use.
type Memory struct {
	mu      sync.Mutex
	nodes   map[string]*node
	fail    map[string]error
	calls   []string
	removed []string
	closed  bool
}

func NewMemory() *Memory {
	return &Memory{
		nodes: map[string]*node{"/": {isDir: true}},
		fail:  make(map[string]error),
	}
}

func clean(p string) string {
	return path.Clean("/" + p)
}

// AddDir creates p and any missing parents with the given modification time.
func (m *Memory) AddDir(p string, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addParents(clean(p), modTime)
	m.nodes[clean(p)] = &node{isDir: true, modTime: modTime}
}

// AddFile creates the file p and any missing parents.
func (m *Memory) AddFile(p string, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addParents(clean(p), modTime)
	m.nodes[clean(p)] = &node{modTime: modTime}
}

// AddSymlink creates a symbolic link at p pointing to target, which need not
// exist. Listings report the link itself; Stat follows it.
func (m *Memory) AddSymlink(p, target string, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addParents(clean(p), modTime)
	m.nodes[clean(p)] = &node{modTime: modTime, target: clean(target)}
}

func (m *Memory) addParents(p string, modTime time.Time) {
	for dir := path.Dir(p); dir != "/"; dir = path.Dir(dir) {
		if _, ok := m.nodes[dir]; !ok {
			m.nodes[dir] = &node{isDir: true, modTime: modTime}
		}
	}
}

// FailOn makes every operation on p return err.
func (m *Memory) FailOn(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[clean(p)] = err
}

func (m *Memory) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[clean(p)]
	return ok
}

// Paths returns every path below the root, sorted.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.nodes))
	for p := range m.nodes {
		if p != "/" {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Removed returns the removed paths in removal order.
func (m *Memory) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

// Calls returns every operation performed, formatted as "op path".
func (m *Memory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// begin records the call and returns the cleaned path. m.mu must be held.
func (m *Memory) begin(op, p string) (string, error) {
	cp := clean(p)
	m.calls = append(m.calls, op+" "+cp)
	if m.closed {
		return cp, fmt.Errorf("%s %s: session closed", op, cp)
	}
	if err, ok := m.fail[cp]; ok {
		return cp, err
	}
	return cp, nil
}

func (m *Memory) children(dir string) []remote.Entry {
	prefix := dir + "/"
	if dir == "/" {
		prefix = "/"
	}
	entries := make([]remote.Entry, 0)
	for p, n := range m.nodes {
		if p == "/" || !strings.HasPrefix(p, prefix) {
			continue
		}
		name := strings.TrimPrefix(p, prefix)
		if strings.Contains(name, "/") {
			continue
		}
		entries = append(entries, remote.Entry{Name: name, ModTime: n.modTime, IsDir: n.isDir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

func (m *Memory) lookupDir(op, p string) (string, error) {
	cp, err := m.begin(op, p)
	if err != nil {
		return cp, err
	}
	n, ok := m.nodes[cp]
	if !ok {
		return cp, &fs.PathError{Op: op, Path: cp, Err: fs.ErrNotExist}
	}
	if !n.isDir {
		return cp, &fs.PathError{Op: op, Path: cp, Err: fmt.Errorf("not a directory")}
	}
	return cp, nil
}

func (m *Memory) List(p string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, err := m.lookupDir("list", p)
	if err != nil {
		return nil, err
	}
	entries := m.children(cp)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

func (m *Memory) ListWithAttrs(p string) ([]remote.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, err := m.lookupDir("listattrs", p)
	if err != nil {
		return nil, err
	}
	return m.children(cp), nil
}

func (m *Memory) Stat(p string) (remote.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, err := m.begin("stat", p)
	if err != nil {
		return remote.Entry{}, err
	}
	n, ok := m.nodes[cp]
	if ok && n.target != "" {
		n, ok = m.nodes[n.target]
	}
	if !ok {
		return remote.Entry{}, &fs.PathError{Op: "stat", Path: cp, Err: fs.ErrNotExist}
	}
	return remote.Entry{Name: path.Base(cp), ModTime: n.modTime, IsDir: n.isDir}, nil
}

func (m *Memory) RemoveFile(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, err := m.begin("remove", p)
	if err != nil {
		return err
	}
	n, ok := m.nodes[cp]
	if !ok {
		return &fs.PathError{Op: "remove", Path: cp, Err: fs.ErrNotExist}
	}
	if n.isDir {
		return &fs.PathError{Op: "remove", Path: cp, Err: fmt.Errorf("is a directory")}
	}
	delete(m.nodes, cp)
	m.removed = append(m.removed, cp)
	return nil
}

func (m *Memory) RemoveDirectory(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, err := m.begin("rmdir", p)
	if err != nil {
		return err
	}
	n, ok := m.nodes[cp]
	if !ok {
		return &fs.PathError{Op: "rmdir", Path: cp, Err: fs.ErrNotExist}
	}
	if !n.isDir {
		return &fs.PathError{Op: "rmdir", Path: cp, Err: fmt.Errorf("not a directory")}
	}
	if cp == "/" || len(m.children(cp)) > 0 {
		return &fs.PathError{Op: "rmdir", Path: cp, Err: fmt.Errorf("directory not empty")}
	}
	delete(m.nodes, cp)
	m.removed = append(m.removed, cp)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ remote.Client = (*Memory)(nil)
