// SPDX-License-Identifier: MPL-2.0

// Package event loads pull-request event payloads in the GitHub webhook shape
// and flattens them into the runner-facing view.
package event

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tohuynh/siglaci/internal/issue"

	"github.com/google/go-github/v82/github"
)

// PullRequest is the flattened, runner-facing view of a pull-request event.
type PullRequest struct {
	// Number is the pull request number.
	Number int
	// Title is the pull request title.
	Title string
	// Action is the payload action ("opened", "synchronize", ...).
	Action string
	// BaseBranch is the target branch of the pull request.
	BaseBranch string
	// HeadBranch is the source branch of the pull request.
	HeadBranch string
	// HeadSHA is the triggering revision.
	HeadSHA string
	// Owner is the repository owner login.
	Owner string
	// Repo is the repository name.
	Repo string
	// CloneURL is the repository clone URL, when present in the payload.
	CloneURL string
}

// LoadPullRequest reads and parses a pull-request event payload file.
func LoadPullRequest(path string) (*PullRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.WrapWithOperation(err, "read event payload")
	}
	pr, err := ParsePullRequest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pr, nil
}

// ParsePullRequest parses a pull-request event payload.
// Payloads without a pull_request object, a base ref, or a head SHA are
// rejected: without them the run has no trigger branch to evaluate and no
// revision to check out.
func ParsePullRequest(data []byte) (*PullRequest, error) {
	var evt github.PullRequestEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}

	ghpr := evt.GetPullRequest()
	if ghpr == nil {
		return nil, fmt.Errorf("event payload has no pull_request object")
	}

	pr := &PullRequest{
		Number:     ghpr.GetNumber(),
		Title:      ghpr.GetTitle(),
		Action:     evt.GetAction(),
		BaseBranch: ghpr.GetBase().GetRef(),
		HeadBranch: ghpr.GetHead().GetRef(),
		HeadSHA:    ghpr.GetHead().GetSHA(),
		Owner:      evt.GetRepo().GetOwner().GetLogin(),
		Repo:       evt.GetRepo().GetName(),
		CloneURL:   evt.GetRepo().GetCloneURL(),
	}

	if pr.BaseBranch == "" {
		return nil, fmt.Errorf("event payload has no base branch")
	}
	if pr.HeadSHA == "" {
		return nil, fmt.Errorf("event payload has no head SHA")
	}

	return pr, nil
}

// Ref returns the owner/repo#number form used in logs and status descriptions.
func (pr *PullRequest) Ref() string {
	return fmt.Sprintf("%s/%s#%d", pr.Owner, pr.Repo, pr.Number)
}
