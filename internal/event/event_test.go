// SPDX-License-Identifier: MPL-2.0

package event

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tohuynh/siglaci/internal/issue"
)

const samplePayload = `{
  "action": "synchronize",
  "pull_request": {
    "number": 42,
    "title": "Add staging ingest",
    "base": {"ref": "master", "sha": "1111111"},
    "head": {"ref": "feature/ingest", "sha": "abcdef1234567890"}
  },
  "repository": {
    "name": "siglatools",
    "owner": {"login": "tohuynh"},
    "clone_url": "https://github.com/tohuynh/siglatools.git"
  }
}`

func TestParsePullRequest(t *testing.T) {
	t.Parallel()

	pr, err := ParsePullRequest([]byte(samplePayload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pr.Number != 42 {
		t.Errorf("Number = %d", pr.Number)
	}
	if pr.Action != "synchronize" {
		t.Errorf("Action = %q", pr.Action)
	}
	if pr.BaseBranch != "master" {
		t.Errorf("BaseBranch = %q", pr.BaseBranch)
	}
	if pr.HeadBranch != "feature/ingest" {
		t.Errorf("HeadBranch = %q", pr.HeadBranch)
	}
	if pr.HeadSHA != "abcdef1234567890" {
		t.Errorf("HeadSHA = %q", pr.HeadSHA)
	}
	if pr.Owner != "tohuynh" || pr.Repo != "siglatools" {
		t.Errorf("repo = %s/%s", pr.Owner, pr.Repo)
	}
	if pr.Ref() != "tohuynh/siglatools#42" {
		t.Errorf("Ref() = %q", pr.Ref())
	}
}

func TestParsePullRequest_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{
			name:    "not json",
			payload: "push event",
			wantErr: "invalid event payload",
		},
		{
			name:    "no pull_request object",
			payload: `{"action": "push", "ref": "refs/heads/master"}`,
			wantErr: "no pull_request object",
		},
		{
			name:    "missing base branch",
			payload: `{"pull_request": {"number": 1, "head": {"ref": "x", "sha": "abc"}}}`,
			wantErr: "no base branch",
		},
		{
			name:    "missing head sha",
			payload: `{"pull_request": {"number": 1, "base": {"ref": "master"}}}`,
			wantErr: "no head SHA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParsePullRequest([]byte(tt.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadPullRequest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(samplePayload), 0o644); err != nil {
		t.Fatal(err)
	}

	pr, err := LoadPullRequest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pr.Number != 42 {
		t.Errorf("Number = %d", pr.Number)
	}

	_, err = LoadPullRequest(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Errorf("error = %T, want *issue.ActionableError", err)
	}
}
