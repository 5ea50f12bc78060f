// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNewWorkspace(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ws, err := NewWorkspace(root, false)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	if filepath.Dir(ws.Dir()) != root {
		t.Errorf("workspace %q not created under root %q", ws.Dir(), root)
	}

	info, err := os.Stat(ws.SecretsDir())
	if err != nil {
		t.Fatalf("secrets dir missing: %v", err)
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm != 0o700 {
			t.Errorf("secrets dir perm = %o, want 0700", perm)
		}
	}
}

func TestWorkspace_Cleanup(t *testing.T) {
	t.Parallel()

	ws, err := NewWorkspace(t.TempDir(), false)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	kept, err := ws.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if kept != "" {
		t.Errorf("kept = %q, want empty", kept)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after cleanup: %v", err)
	}
}

func TestWorkspace_CleanupKeeps(t *testing.T) {
	t.Parallel()

	ws, err := NewWorkspace(t.TempDir(), true)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	kept, err := ws.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if kept != ws.Dir() {
		t.Errorf("kept = %q, want %q", kept, ws.Dir())
	}
	if _, err := os.Stat(ws.Dir()); err != nil {
		t.Errorf("kept workspace missing: %v", err)
	}
}

func TestWorkspace_Resolve(t *testing.T) {
	t.Parallel()

	ws, err := NewWorkspace(t.TempDir(), true)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ws.Dir()},
		{"sub/dir", filepath.Join(ws.Dir(), "sub", "dir")},
		{string(filepath.Separator) + "abs", string(filepath.Separator) + "abs"},
	}
	for _, tt := range tests {
		if got := ws.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
