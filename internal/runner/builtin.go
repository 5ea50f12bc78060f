// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tohuynh/siglaci/internal/event"
	"github.com/tohuynh/siglaci/internal/issue"
	"github.com/tohuynh/siglaci/internal/secrets"
	"github.com/tohuynh/siglaci/pkg/workflowfile"
)

// gitFunc runs one git invocation in dir. Replaceable in tests.
type gitFunc func(ctx context.Context, dir string, args ...string) error

// runBuiltin dispatches a 'uses' step. Builtins run in-process, never through
// an execution runtime.
func (r *Runner) runBuiltin(ctx context.Context, step *workflowfile.Step, ws *Workspace, pr *event.PullRequest) error {
	switch step.Uses {
	case workflowfile.BuiltinCheckout:
		return r.runCheckout(ctx, step.With, ws, pr)
	case workflowfile.BuiltinDecryptSecret:
		return r.runDecryptSecret(step.With, ws)
	default:
		// Unreachable for validated workflows.
		return fmt.Errorf("unknown builtin step %q", step.Uses)
	}
}

// runCheckout places the repository contents at the triggering revision into
// the workspace. It uses init/fetch/checkout rather than clone so the target
// directory may already exist; a repeated checkout of the same path simply
// re-syncs it.
func (r *Runner) runCheckout(ctx context.Context, with map[string]string, ws *Workspace, pr *event.PullRequest) error {
	repository := with["repository"]
	if repository == "" {
		repository = pr.CloneURL
	}
	if repository == "" {
		return issue.NewErrorContext().
			WithOperation("check out repository").
			WithSuggestion("Set 'with: {repository: <clone url>}' on the checkout step, or include clone_url in the event payload").
			BuildError()
	}

	ref := with["ref"]
	if ref == "" {
		ref = pr.HeadSHA
	}

	dir := ws.Resolve(with["path"])

	if _, err := exec.LookPath("git"); err != nil {
		return issue.NewErrorContext().
			WithOperation("check out repository").
			WithResource(repository).
			WithSuggestion("Install git and make sure it is on PATH").
			Wrap(err).
			BuildError()
	}

	r.logger.Info("checking out", "repository", repository, "ref", ref, "path", dir)

	for _, args := range [][]string{
		{"init", "--quiet", dir},
		{"-C", dir, "remote", "add", "origin", repository},
		{"-C", dir, "fetch", "--quiet", "--depth", "1", "origin", ref},
		{"-C", dir, "checkout", "--quiet", "--force", ref},
	} {
		if err := r.git(ctx, ws.Dir(), args...); err != nil {
			// Re-running against an existing checkout trips 'remote add'.
			if args[2] == "remote" && remoteExists(err) {
				if err := r.git(ctx, ws.Dir(), "-C", dir, "remote", "set-url", "origin", repository); err != nil {
					return checkoutError(repository, err)
				}
				continue
			}
			return checkoutError(repository, err)
		}
	}
	return nil
}

func checkoutError(repository string, err error) error {
	return issue.NewErrorContext().
		WithOperation("check out repository").
		WithResource(repository).
		WithSuggestion("Verify the clone URL is reachable and the revision exists").
		Wrap(err).
		BuildError()
}

func remoteExists(err error) bool {
	return strings.Contains(err.Error(), "already exists")
}

// runDecryptSecret decrypts an encrypted credential bundle into a plaintext
// file, using a passphrase drawn from the secret store.
func (r *Runner) runDecryptSecret(with map[string]string, ws *Workspace) error {
	source := with["source"]
	if source == "" {
		return issue.NewErrorContext().
			WithOperation("decrypt credential bundle").
			WithSuggestion("Set 'with: {source: <path to .enc file>}' on the decrypt-secret step").
			BuildError()
	}
	source = ws.Resolve(source)

	passphraseSecret := with["passphrase-secret"]
	if passphraseSecret == "" {
		return issue.NewErrorContext().
			WithOperation("decrypt credential bundle").
			WithResource(source).
			WithSuggestion("Set 'with: {passphrase-secret: <secret name>}' naming the passphrase secret").
			BuildError()
	}

	passphrase, err := r.resolver.Resolve(passphraseSecret)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("decrypt credential bundle").
			WithResource(source).
			Wrap(err).
			BuildError()
	}

	target := with["target"]
	if target == "" {
		target = filepath.Join(ws.SecretsDir(), strings.TrimSuffix(filepath.Base(source), ".enc"))
	} else {
		target = ws.Resolve(target)
	}

	if !strings.HasPrefix(target, ws.Dir()+string(filepath.Separator)) {
		r.logger.Warn("decrypting outside the workspace; the file will outlive the run", "target", target)
	}

	r.logger.Info("decrypting credential bundle", "source", source, "target", target)

	if err := secrets.DecryptBundleFile(source, target, passphrase); err != nil {
		return issue.NewErrorContext().
			WithOperation("decrypt credential bundle").
			WithResource(source).
			WithSuggestion("Check that the passphrase secret matches the one the bundle was encrypted with").
			Wrap(err).
			BuildError()
	}
	return nil
}

// execGit is the production gitFunc. Output is only surfaced on failure.
func execGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
		}
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return nil
}
