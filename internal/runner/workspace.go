// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"fmt"
	"os"
	"path/filepath"
)

// secretsDirName is the workspace subdirectory for decrypted credential files.
const secretsDirName = "secrets"

// Workspace is the per-run ephemeral directory. Everything a run produces
// lives underneath it and is discarded at run end unless keep is set.
type Workspace struct {
	dir  string
	keep bool
}

// NewWorkspace creates a fresh workspace directory. root selects where
// workspaces are created; empty means the OS temp directory. The secrets
// subdirectory is created up front with owner-only permissions.
func NewWorkspace(root string, keep bool) (*Workspace, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create workspace root %s: %w", root, err)
		}
	}

	dir, err := os.MkdirTemp(root, "siglaci-run-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	if err := os.Mkdir(filepath.Join(dir, secretsDirName), 0o700); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to create workspace secrets dir: %w", err)
	}

	return &Workspace{dir: dir, keep: keep}, nil
}

// Dir returns the workspace path. Step scripts run here by default.
func (w *Workspace) Dir() string { return w.dir }

// SecretsDir returns the owner-only directory for decrypted credentials.
func (w *Workspace) SecretsDir() string { return filepath.Join(w.dir, secretsDirName) }

// Resolve turns a path from the workflow file into an absolute path. Relative
// paths are anchored at the workspace; absolute paths pass through.
func (w *Workspace) Resolve(path string) string {
	if path == "" {
		return w.dir
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.dir, path)
}

// Cleanup removes the workspace unless it was created with keep set.
// Returns the workspace path when it was kept.
func (w *Workspace) Cleanup() (kept string, err error) {
	if w.keep {
		return w.dir, nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return "", fmt.Errorf("failed to remove workspace %s: %w", w.dir, err)
	}
	return "", nil
}
