package pathutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithin(t *testing.T) {
	root := t.TempDir()
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr string
	}{
		{"plain file", "spikes.gz", filepath.Join(resolvedRoot, "spikes.gz"), ""},
		{"nested new dir", "a/b/run.arrow", filepath.Join(resolvedRoot, "a", "b", "run.arrow"), ""},
		{"absolute inside", filepath.Join(root, "x.gz"), filepath.Join(resolvedRoot, "x.gz"), ""},
		{"dot segments inside", "a/../y.gz", filepath.Join(resolvedRoot, "y.gz"), ""},
		{"traversal", "../escape.gz", "", "outside"},
		{"absolute outside", "/etc/passwd", "", "outside"},
		{"root itself", ".", "", "outside"},
		{"empty", "", "", "empty"},
		{"null byte", "a\x00b", "", "null byte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Within(tt.path, root)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Within(%q) error = %v, want %q", tt.path, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Within(%q) error = %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("Within(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestWithin_NoRoot(t *testing.T) {
	if _, err := Within("spikes.gz", ""); err == nil {
		t.Error("expected error without a root")
	}
}

func TestWithin_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := Within("link/spikes.gz", root); err == nil {
		t.Error("symlink pointing outside the root should be rejected")
	}
}

func TestWithin_SymlinkInside(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real")
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(root, "alias")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := Within("alias/spikes.gz", root); err != nil {
		t.Errorf("symlink inside the root should be allowed: %v", err)
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"spikes.gz", "spikes.gz"},
		{"/spikes.gz", "spikes.gz"},
		{"/home/user/runs/spikes.gz", ".../runs/spikes.gz"},
	}
	for _, tt := range tests {
		if got := RedactPath(tt.input); got != tt.want {
			t.Errorf("RedactPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
