// SPDX-License-Identifier: MPL-2.0

package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tohuynh/siglaci/internal/event"
)

func testPR() *event.PullRequest {
	return &event.PullRequest{
		Number:     17,
		Action:     "opened",
		BaseBranch: "master",
		HeadBranch: "feature/ingest",
		HeadSHA:    "0de190419d7e7ff335b44fd1ead85e159fdde244",
		Owner:      "tohuynh",
		Repo:       "sigla",
	}
}

func TestGitHubReporter_SetStatus(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotBody map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding status body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer srv.Close()

	reporter, err := NewGitHubReporter("test-token", srv.URL+"/", "staging-ingest")
	if err != nil {
		t.Fatalf("NewGitHubReporter() error = %v", err)
	}

	pr := testPR()
	if err := reporter.SetStatus(context.Background(), pr, StateSuccess, "all steps passed"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	wantPathSuffix := "/repos/tohuynh/sigla/statuses/" + pr.HeadSHA
	if !strings.HasSuffix(gotPath, wantPathSuffix) {
		t.Errorf("request path = %q, want suffix %q", gotPath, wantPathSuffix)
	}
	if gotBody["state"] != "success" {
		t.Errorf("state = %q, want %q", gotBody["state"], "success")
	}
	if gotBody["context"] != "siglaci/staging-ingest" {
		t.Errorf("context = %q, want %q", gotBody["context"], "siglaci/staging-ingest")
	}
	if gotBody["description"] != "all steps passed" {
		t.Errorf("description = %q, want %q", gotBody["description"], "all steps passed")
	}
}

func TestGitHubReporter_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	reporter, err := NewGitHubReporter("bad-token", srv.URL+"/", "staging-ingest")
	if err != nil {
		t.Fatalf("NewGitHubReporter() error = %v", err)
	}

	if err := reporter.SetStatus(context.Background(), testPR(), StatePending, "run started"); err == nil {
		t.Fatal("SetStatus() error = nil, want API error")
	}
}

func TestNewGitHubReporter_RequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := NewGitHubReporter("", "", "wf"); err == nil {
		t.Fatal("NewGitHubReporter(\"\") error = nil, want error")
	}
}

func TestTruncateDescription(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 200)
	got := truncateDescription(long)
	if len(got) != 140 {
		t.Errorf("len = %d, want 140", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated description should end with ellipsis, got %q", got[130:])
	}

	if got := truncateDescription("short"); got != "short" {
		t.Errorf("short description changed: %q", got)
	}
}

func TestNopReporter(t *testing.T) {
	t.Parallel()

	if err := (NopReporter{}).SetStatus(context.Background(), testPR(), StateFailure, "x"); err != nil {
		t.Fatalf("NopReporter.SetStatus() error = %v", err)
	}
}
