package walker

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"sftp-cleanup/internal/remote"
	"sftp-cleanup/internal/remote/remotetest"
)

var mtime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLegacy_RootIsFile(t *testing.T) {
	m := remotetest.NewMemory()
	m.AddFile("/backups/A", mtime)

	result := Legacy(context.Background(), m, "/backups/A")

	if !reflect.DeepEqual(result.Dirs, []string{"/backups/A"}) {
		t.Errorf("Expected only the root, got %v", result.Dirs)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
}

func TestLegacy_EmptyDirectory(t *testing.T) {
	m := remotetest.NewMemory()
	m.AddDir("/backups/empty", mtime)

	result := Legacy(context.Background(), m, "/backups/empty")

	if !reflect.DeepEqual(result.Dirs, []string{"/backups/empty"}) {
		t.Errorf("Expected only the root, got %v", result.Dirs)
	}
}

func TestLegacy_FlatDirectory(t *testing.T) {
	m := remotetest.NewMemory()
	m.AddFile("/backups/old/a.tar", mtime)
	m.AddFile("/backups/old/b.tar", mtime)

	result := Legacy(context.Background(), m, "/backups/old")

	// The first name is appended to the root, then the chain stops because
	// the extended path is a file
	expected := []string{"/backups/old", "/backups/old/a.tar"}
	if !reflect.DeepEqual(result.Dirs, expected) {
		t.Errorf("Expected %v, got %v", expected, result.Dirs)
	}
}

func TestLegacy_SingleChain(t *testing.T) {
	m := remotetest.NewMemory()
	m.AddFile("/backups/old/x/y/z.log", mtime)

	result := Legacy(context.Background(), m, "/backups/old")

	expected := []string{
		"/backups/old",
		"/backups/old/x",
		"/backups/old/x/y",
		"/backups/old/x/y/z.log",
	}
	if !reflect.DeepEqual(result.Dirs, expected) {
		t.Errorf("Expected %v, got %v", expected, result.Dirs)
	}
}

func TestLegacy_SiblingsAreChained(t *testing.T) {
	m := remotetest.NewMemory()
	m.AddFile("/backups/old/d1/one", mtime)
	m.AddFile("/backups/old/d2/two", mtime)

	result := Legacy(context.Background(), m, "/backups/old")

	// d2 is appended to d1 rather than to the root, so d2 is never found
	expected := []string{"/backups/old", "/backups/old/d1", "/backups/old/d1/d2"}
	if !reflect.DeepEqual(result.Dirs, expected) {
		t.Errorf("Expected %v, got %v", expected, result.Dirs)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 stat error for the chained path, got %v", result.Errors)
	}
	var opErr *remote.OpError
	if !errors.As(result.Errors[0], &opErr) || opErr.Path != "/backups/old/d1/d2" {
		t.Errorf("Expected stat error on /backups/old/d1/d2, got %v", result.Errors[0])
	}
}

func TestLegacy_DepthBounded(t *testing.T) {
	m := remotetest.NewMemory()
	parts := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		parts = append(parts, fmt.Sprintf("l%d", i))
	}
	m.AddFile("/deep/"+strings.Join(parts, "/")+"/leaf", mtime)

	result := Legacy(context.Background(), m, "/deep")

	if len(result.Dirs) != 1+LegacyMaxDepth {
		t.Errorf("Expected root plus %d levels, got %d: %v", LegacyMaxDepth, len(result.Dirs), result.Dirs)
	}
}

func TestLegacy_Cancelled(t *testing.T) {
	m := remotetest.NewMemory()
	m.AddFile("/backups/old/x/y", mtime)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Legacy(ctx, m, "/backups/old")
	if len(result.Dirs) != 1 {
		t.Errorf("Cancelled walk should only return the root, got %v", result.Dirs)
	}
	if len(m.Calls()) != 0 {
		t.Errorf("Cancelled walk should not touch the remote, got %v", m.Calls())
	}
}

func TestFull_BreadthFirst(t *testing.T) {
	m := remotetest.NewMemory()
	m.AddFile("/backups/old/d1/one", mtime)
	m.AddFile("/backups/old/d1/sub/deep", mtime)
	m.AddFile("/backups/old/d2/two", mtime)
	m.AddFile("/backups/old/top.log", mtime)

	result := Full(context.Background(), m, "/backups/old")

	expected := []string{
		"/backups/old",
		"/backups/old/d1",
		"/backups/old/d2",
		"/backups/old/d1/sub",
	}
	if !reflect.DeepEqual(result.Dirs, expected) {
		t.Errorf("Expected %v, got %v", expected, result.Dirs)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
}

func TestFull_NoDepthLimit(t *testing.T) {
	m := remotetest.NewMemory()
	parts := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		parts = append(parts, fmt.Sprintf("l%d", i))
	}
	m.AddFile("/deep/"+strings.Join(parts, "/")+"/leaf", mtime)

	result := Full(context.Background(), m, "/deep")

	if len(result.Dirs) != 16 {
		t.Errorf("Expected root plus 15 directories, got %d", len(result.Dirs))
	}
}

func TestFull_RootIsFile(t *testing.T) {
	m := remotetest.NewMemory()
	m.AddFile("/backups/A", mtime)

	result := Full(context.Background(), m, "/backups/A")

	if !reflect.DeepEqual(result.Dirs, []string{"/backups/A"}) {
		t.Errorf("Expected only the root, got %v", result.Dirs)
	}
	if len(result.Errors) != 0 {
		t.Errorf("A file root is not an error, got %v", result.Errors)
	}
}

func TestFull_ListErrorRecorded(t *testing.T) {
	m := remotetest.NewMemory()
	m.AddFile("/backups/old/locked/file", mtime)
	m.AddFile("/backups/old/open/file", mtime)
	m.FailOn("/backups/old/locked", errors.New("permission denied"))

	result := Full(context.Background(), m, "/backups/old")

	if len(result.Dirs) != 3 {
		t.Errorf("Expected root and both children, got %v", result.Dirs)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %v", result.Errors)
	}
	var opErr *remote.OpError
	if !errors.As(result.Errors[0], &opErr) || opErr.Op != remote.OpList {
		t.Errorf("Expected list OpError, got %v", result.Errors[0])
	}
}
