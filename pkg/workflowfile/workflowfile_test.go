// SPDX-License-Identifier: MPL-2.0

package workflowfile

import (
	"strings"
	"testing"
)

const validWorkflow = `
name: staging-ingest
on:
  pull_request:
    branches: [master]
env:
  PIPELINE_ENV: staging
steps:
  - name: checkout
    uses: checkout
  - name: install dependencies
    run: |
      pip install --upgrade pip
      pip install .[all]
  - name: decrypt credentials
    uses: decrypt-secret
    with:
      source: .github/google-api-credentials.json.enc
      passphrase-secret: GOOGLE_API_SECRET_PASSPHRASE
  - name: run pipeline
    run: run_sigla_pipeline -msi "$STAGING_MASTER_SPREADSHEET_ID" -gacp "$CREDENTIALS_PATH" -dbcu "$STAGING_DB_CONNECTION_URL"
    secrets: [STAGING_MASTER_SPREADSHEET_ID, STAGING_DB_CONNECTION_URL]
`

func TestParse_ValidWorkflow(t *testing.T) {
	t.Parallel()

	wf, err := Parse([]byte(validWorkflow), "workflow.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if wf.Name != "staging-ingest" {
		t.Errorf("Name = %q", wf.Name)
	}
	if wf.On.PullRequest == nil {
		t.Fatal("expected pull_request trigger")
	}
	if got := wf.On.PullRequest.Branches; len(got) != 1 || got[0] != "master" {
		t.Errorf("Branches = %v", got)
	}
	if len(wf.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(wf.Steps))
	}
	if wf.Steps[0].Uses != BuiltinCheckout {
		t.Errorf("step 1 uses = %q", wf.Steps[0].Uses)
	}
	if !wf.Steps[1].IsRun() {
		t.Error("step 2 should be a run step")
	}
	if wf.Steps[2].With["passphrase-secret"] != "GOOGLE_API_SECRET_PASSPHRASE" {
		t.Errorf("step 3 with = %v", wf.Steps[2].With)
	}
	if got := wf.Steps[3].Secrets; len(got) != 2 {
		t.Errorf("step 4 secrets = %v", got)
	}
	if wf.FilePath != "workflow.yml" {
		t.Errorf("FilePath = %q", wf.FilePath)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "on:\n  pull_request: {}\nsteps:\n  - run: echo hi\n",
			wantErr: "no name",
		},
		{
			name:    "missing trigger",
			yaml:    "name: wf\nsteps:\n  - run: echo hi\n",
			wantErr: "no trigger",
		},
		{
			name:    "no steps",
			yaml:    "name: wf\non:\n  pull_request: {}\nsteps: []\n",
			wantErr: "no steps",
		},
		{
			name:    "step with run and uses",
			yaml:    "name: wf\non:\n  pull_request: {}\nsteps:\n  - run: echo hi\n    uses: checkout\n",
			wantErr: "both 'run' and 'uses'",
		},
		{
			name:    "step with neither run nor uses",
			yaml:    "name: wf\non:\n  pull_request: {}\nsteps:\n  - name: empty\n",
			wantErr: "neither",
		},
		{
			name:    "unknown builtin",
			yaml:    "name: wf\non:\n  pull_request: {}\nsteps:\n  - uses: teleport\n",
			wantErr: "unknown builtin",
		},
		{
			name:    "with on run step",
			yaml:    "name: wf\non:\n  pull_request: {}\nsteps:\n  - run: echo hi\n    with:\n      a: b\n",
			wantErr: "'with' is only valid",
		},
		{
			name:    "unknown runtime",
			yaml:    "name: wf\non:\n  pull_request: {}\nsteps:\n  - run: echo hi\n    runtime: container\n",
			wantErr: "unknown runtime",
		},
		{
			name:    "not yaml",
			yaml:    "{{nope",
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.yaml), "workflow.yml")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestStep_DisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		step Step
		idx  int
		want string
	}{
		{"explicit name", Step{Name: "install deps", Run: "x"}, 1, "install deps"},
		{"builtin fallback", Step{Uses: BuiltinCheckout}, 0, "checkout"},
		{"positional fallback", Step{Run: "x"}, 2, "step-3"},
	}

	for _, tt := range tests {
		if got := tt.step.DisplayName(tt.idx); got != tt.want {
			t.Errorf("%s: DisplayName = %q, want %q", tt.name, got, tt.want)
		}
	}
}
