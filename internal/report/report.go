// SPDX-License-Identifier: MPL-2.0

// Package report surfaces the overall pass/fail signal of a run back onto the
// triggering pull request as a GitHub commit status.
package report

import (
	"context"
	"fmt"

	"github.com/tohuynh/siglaci/internal/event"

	"github.com/google/go-github/v82/github"
)

// Status states, matching the GitHub commit status API.
const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailure State = "failure"
	StateError   State = "error"
)

type (
	// State is a commit status state.
	State string

	// Reporter posts the run outcome for a pull request's head revision.
	Reporter interface {
		// SetStatus records the run state on the triggering revision.
		SetStatus(ctx context.Context, pr *event.PullRequest, state State, description string) error
	}

	// GitHubReporter posts commit statuses through the GitHub API.
	GitHubReporter struct {
		client *github.Client
		// statusContext is the status "context" label shown on the PR,
		// e.g. "siglaci/staging-ingest".
		statusContext string
	}

	// NopReporter discards all status updates. Used when reporting is
	// disabled or no token is configured.
	NopReporter struct{}
)

// NewGitHubReporter creates a reporter authenticated with the given token.
// apiURL overrides the API base URL for GitHub Enterprise; empty means
// github.com.
func NewGitHubReporter(token, apiURL, workflowName string) (*GitHubReporter, error) {
	if token == "" {
		return nil, fmt.Errorf("github reporter requires a token")
	}

	client := github.NewClient(nil).WithAuthToken(token)
	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url %q: %w", apiURL, err)
		}
	}

	return &GitHubReporter{
		client:        client,
		statusContext: "siglaci/" + workflowName,
	}, nil
}

// SetStatus posts the state to the pull request's head SHA.
func (r *GitHubReporter) SetStatus(ctx context.Context, pr *event.PullRequest, state State, description string) error {
	status := github.RepoStatus{
		State:       github.Ptr(string(state)),
		Description: github.Ptr(truncateDescription(description)),
		Context:     github.Ptr(r.statusContext),
	}

	_, _, err := r.client.Repositories.CreateStatus(ctx, pr.Owner, pr.Repo, pr.HeadSHA, status)
	if err != nil {
		return fmt.Errorf("failed to set commit status on %s@%s: %w", pr.Ref(), pr.HeadSHA, err)
	}
	return nil
}

// SetStatus discards the update.
func (NopReporter) SetStatus(context.Context, *event.PullRequest, State, string) error {
	return nil
}

// truncateDescription keeps descriptions within the API's 140-character limit.
func truncateDescription(s string) string {
	const maxLen = 140
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
