package progress

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Bar tracks how many top-level directories have been scanned and which
// ones are being scanned right now. A nil *Bar is valid and draws nothing.
type Bar struct {
	total      int64
	current    int64
	width      int
	writer     io.Writer
	mu         sync.Mutex
	active     map[string]bool
	lastUpdate time.Time
}

func New(total int64, w io.Writer) *Bar {
	return &Bar{
		total:  total,
		width:  40,
		writer: w,
		active: make(map[string]bool),
	}
}

// Start marks dir as being scanned.
func (b *Bar) Start(dir string) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.active[dir] = true
	b.render()
}

// Done marks dir as scanned.
func (b *Bar) Done(dir string) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.active, dir)
	b.current++

	// Update at most every 100ms to reduce flickering
	now := time.Now()
	if now.Sub(b.lastUpdate) > 100*time.Millisecond || b.current == b.total {
		b.lastUpdate = now
		b.render()
	}
}

// render must be called with mu already locked
func (b *Bar) render() {
	if b.total == 0 {
		return
	}

	done := min(b.current, b.total)
	filled := int(int64(b.width) * done / b.total)

	fmt.Fprintf(b.writer, "\r\033[K[%s%s] %3d%% (%d/%d)%s",
		strings.Repeat("█", filled), strings.Repeat("░", b.width-filled),
		done*100/b.total, done, b.total, b.activeLabel())
}

// activeLabel lists the directories being scanned, at most three by name.
func (b *Bar) activeLabel() string {
	if len(b.active) == 0 {
		return ""
	}

	dirs := make([]string, 0, len(b.active))
	for dir := range b.active {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	if len(dirs) > 3 {
		return fmt.Sprintf(" | %s +%d more", strings.Join(dirs[:3], ", "), len(dirs)-3)
	}
	return " | " + strings.Join(dirs, ", ")
}

func (b *Bar) Finish() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = b.total
	clear(b.active)
	b.render()
	fmt.Fprintf(b.writer, "\n")
}
