package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteImage writes data to name inside dir (created when missing) and
// returns the full path. Calls t.Fatal if the write fails.
//
// Example:
//
//	path := testutil.WriteImage(t, t.TempDir(), "child.vhdx", img.Bytes())
func WriteImage(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create image directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}
	return path
}

// CopyImage copies the image at src to dst.
// Calls t.Fatal if the copy fails.
func CopyImage(t testing.TB, src, dst string) {
	t.Helper()

	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("Failed to read image: %v", err)
	}
	WriteImage(t, filepath.Dir(dst), filepath.Base(dst), data)
}
