package hash

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Lines returns the hex encoded xxHash of the names, each followed by a
// newline, so that ["ab"] and ["a", "b"] differ
func Lines(lines []string) string {
	h := xxhash.New()
	for _, line := range lines {
		h.WriteString(line)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
