package hash

import (
	"fmt"
	"testing"

	"github.com/cespare/xxhash/v2"
)

func TestLines_MatchesXXHash(t *testing.T) {
	expected := fmt.Sprintf("%016x", xxhash.Sum64String("backups\nlogs\n"))

	if got := Lines([]string{"backups", "logs"}); got != expected {
		t.Errorf("Hash mismatch: expected %s, got %s", expected, got)
	}
}

func TestLines_Empty(t *testing.T) {
	got := Lines(nil)
	if len(got) != 16 {
		t.Errorf("Expected 16 hex characters, got %d", len(got))
	}
}

func TestLines_Deterministic(t *testing.T) {
	a := Lines([]string{"backups", "logs"})
	b := Lines([]string{"backups", "logs"})
	if a != b {
		t.Error("Lines should be deterministic")
	}
}

func TestLines_BoundariesMatter(t *testing.T) {
	if Lines([]string{"ab"}) == Lines([]string{"a", "b"}) {
		t.Error("Different line splits should produce different digests")
	}
	if Lines([]string{"a", "b"}) == Lines([]string{"b", "a"}) {
		t.Error("Line order should change the digest")
	}
}
