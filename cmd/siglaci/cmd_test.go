// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tohuynh/siglaci/internal/runtime"
	"github.com/tohuynh/siglaci/pkg/workflowfile"
)

func TestParseSecretFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flags   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "empty",
			flags: nil,
			want:  nil,
		},
		{
			name:  "single",
			flags: []string{"DB_URL=postgres://x"},
			want:  map[string]string{"DB_URL": "postgres://x"},
		},
		{
			name:  "value with equals",
			flags: []string{"TOKEN=a=b=c"},
			want:  map[string]string{"TOKEN": "a=b=c"},
		},
		{
			name:    "missing equals",
			flags:   []string{"JUSTANAME"},
			wantErr: true,
		},
		{
			name:    "empty name",
			flags:   []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseSecretFlags(tt.flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSecretFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestParseRuntimeFlag(t *testing.T) {
	t.Parallel()

	if mode, err := parseRuntimeFlag(""); err != nil || mode != "" {
		t.Errorf("parseRuntimeFlag(\"\") = %q, %v; want empty, nil", mode, err)
	}
	if mode, err := parseRuntimeFlag("virtual"); err != nil || mode != runtime.ModeVirtual {
		t.Errorf("parseRuntimeFlag(virtual) = %q, %v", mode, err)
	}
	if _, err := parseRuntimeFlag("container"); err == nil {
		t.Error("parseRuntimeFlag(container) error = nil, want error")
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	plain := &ExitError{Code: 3}
	if plain.Error() != "exit status 3" {
		t.Errorf("Error() = %q", plain.Error())
	}

	cause := errors.New("boom")
	wrapped := &ExitError{Code: 1, Err: cause}
	if wrapped.Error() != "boom" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestStarterWorkflowIsValid(t *testing.T) {
	t.Parallel()

	wf, err := workflowfile.Parse([]byte(starterWorkflow), "starter")
	if err != nil {
		t.Fatalf("starter workflow does not parse: %v", err)
	}
	if wf.On.PullRequest == nil {
		t.Error("starter workflow missing pull_request trigger")
	}
	if len(wf.Steps) == 0 {
		t.Error("starter workflow has no steps")
	}
}

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "wf.yml")

	if err := runInit(initCmd, []string{target}); err != nil {
		t.Fatalf("runInit() error = %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("reading generated workflow: %v", err)
	}
	if _, err := workflowfile.Parse(data, target); err != nil {
		t.Errorf("generated workflow does not parse: %v", err)
	}

	// Without --force a second init must refuse to overwrite.
	if err := runInit(initCmd, []string{target}); err == nil {
		t.Error("runInit() on existing file should fail without --force")
	}
}

func TestGetVersionString(t *testing.T) {
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}
}
