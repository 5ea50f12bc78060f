// SPDX-License-Identifier: MPL-2.0

package workflowfile

import "strings"

// EventPullRequest is the only event kind a workflow can respond to.
const EventPullRequest = "pull_request"

// Matches reports whether an event fires this trigger. Only pull-request
// events whose base (target) branch matches one of the configured patterns
// fire; pushes or any other event kind never do.
func (t *Trigger) Matches(eventName, baseBranch string) bool {
	if eventName != EventPullRequest || t.PullRequest == nil {
		return false
	}
	return t.PullRequest.matchesBranch(baseBranch)
}

func (pt *PullRequestTrigger) matchesBranch(branch string) bool {
	if branch == "" {
		return false
	}
	if len(pt.Branches) == 0 {
		return true
	}
	for _, pattern := range pt.Branches {
		if MatchBranchPattern(pattern, branch) {
			return true
		}
	}
	return false
}

// MatchBranchPattern matches a branch name against a pattern where `*`
// matches any run of characters (including none). Without a `*` the match
// is exact.
func MatchBranchPattern(pattern, branch string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == branch
	}

	parts := strings.Split(pattern, "*")

	// The anchored literal segments must not overlap.
	if len(parts[0])+len(parts[len(parts)-1]) > len(branch) {
		return false
	}

	// Anchor the first and last literal segments.
	if !strings.HasPrefix(branch, parts[0]) {
		return false
	}
	if !strings.HasSuffix(branch, parts[len(parts)-1]) {
		return false
	}

	// Middle segments must appear in order in the remaining text.
	rest := branch[len(parts[0]) : len(branch)-len(parts[len(parts)-1])]
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	return true
}
