package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGoMod(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "go.mod")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing go.mod: %v", err)
	}
	return path
}

// TestCheckGoModWired tests the passing cases: requiring the runtime, and
// being the runtime module itself.
func TestCheckGoModWired(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "requires runtime",
			content: "module example.com/app\n\ngo 1.24.0\n\n" +
				"require github.com/kolkov/djitrace v0.1.0\n",
		},
		{
			name:    "is the runtime",
			content: "module github.com/kolkov/djitrace\n\ngo 1.24.0\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeGoMod(t, t.TempDir(), tt.content)
			if err := checkGoMod(path); err != nil {
				t.Errorf("checkGoMod() error = %v, want nil", err)
			}
		})
	}
}

// TestCheckGoModUnwired tests the failing case.
func TestCheckGoModUnwired(t *testing.T) {
	path := writeGoMod(t, t.TempDir(), "module example.com/app\n\ngo 1.24.0\n")

	err := checkGoMod(path)
	if err == nil {
		t.Fatal("checkGoMod() = nil, want error")
	}
	if !strings.Contains(err.Error(), "does not require github.com/kolkov/djitrace") {
		t.Errorf("checkGoMod() error = %q, want requirement message", err)
	}
}

// TestFindGoMod tests the upward walk from a nested directory.
func TestFindGoMod(t *testing.T) {
	root := t.TempDir()
	want := writeGoMod(t, root, "module example.com/app\n")
	nested := filepath.Join(root, "internal", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if got := findGoMod(nested); got != want {
		t.Errorf("findGoMod(%s) = %q, want %q", nested, got, want)
	}
}
