// SPDX-License-Identifier: MPL-2.0

// Package runner executes a workflow against a pull-request event: one
// ephemeral workspace, the declared steps strictly in order, fail-fast.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tohuynh/siglaci/internal/config"
	"github.com/tohuynh/siglaci/internal/event"
	"github.com/tohuynh/siglaci/internal/report"
	"github.com/tohuynh/siglaci/internal/runtime"
	"github.com/tohuynh/siglaci/internal/secrets"
	"github.com/tohuynh/siglaci/pkg/workflowfile"

	"github.com/charmbracelet/log"
)

type (
	// Options configures a Runner beyond what the resolved config provides.
	Options struct {
		// LocalSecrets holds explicitly supplied secret values (--secret flags).
		LocalSecrets map[string]string
		// Reporter posts run status to the pull request; nil disables reporting.
		Reporter report.Reporter
		// KeepWorkspace disables workspace teardown after the run.
		KeepWorkspace bool
		// RuntimeOverride forces a runtime for every step, ignoring the
		// workflow's defaults and per-step settings.
		RuntimeOverride runtime.Mode
		// Stdout and Stderr receive step output. Defaults to the process streams.
		Stdout io.Writer
		Stderr io.Writer
		// Logger receives runner progress. Defaults to a stderr logger.
		Logger *log.Logger
	}

	// Runner executes workflows. Construct with New.
	Runner struct {
		cfg      *config.Config
		registry *runtime.Registry
		resolver *secrets.Resolver
		redactor *secrets.Redactor
		reporter report.Reporter
		logger   *log.Logger

		stdout io.Writer
		stderr io.Writer

		keepWorkspace   bool
		runtimeOverride runtime.Mode

		git gitFunc
	}

	// StepResult records the outcome of one step.
	StepResult struct {
		Name     string
		ExitCode runtime.ExitCode
		Duration time.Duration
		Err      error
	}

	// RunResult is the outcome of one workflow run.
	RunResult struct {
		// Skipped is set when the trigger did not match; no steps ran.
		Skipped bool
		// Success is true when the run was skipped or every step passed.
		Success bool
		// Steps holds per-step outcomes, in execution order.
		Steps []StepResult
		// FailedStep names the step that aborted the run, if any.
		FailedStep string
		// ExitCode is the failing step's exit code, or zero.
		ExitCode runtime.ExitCode
		// WorkspaceDir is the kept workspace path, when teardown was disabled.
		WorkspaceDir string
	}
)

// New creates a Runner from the resolved configuration.
func New(cfg *config.Config, opts Options) *Runner {
	redactor := secrets.NewRedactor()

	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "runner"})
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = report.NopReporter{}
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Runner{
		cfg:             cfg,
		registry:        runtime.NewRegistry(),
		resolver:        secrets.NewResolver(opts.LocalSecrets, cfg.SecretsFile, redactor),
		redactor:        redactor,
		reporter:        reporter,
		logger:          logger,
		stdout:          stdout,
		stderr:          stderr,
		keepWorkspace:   opts.KeepWorkspace || cfg.KeepWorkspace,
		runtimeOverride: opts.RuntimeOverride,
		git:             execGit,
	}
}

// ShouldRun reports whether the workflow's trigger matches the event.
func ShouldRun(wf *workflowfile.Workflow, pr *event.PullRequest) bool {
	return wf.On.Matches(workflowfile.EventPullRequest, pr.BaseBranch)
}

// Run executes the workflow for the given pull-request event. A non-matching
// trigger is a skip, not an error. The returned error covers setup failures
// only; step failures are reported through the RunResult.
func (r *Runner) Run(ctx context.Context, wf *workflowfile.Workflow, pr *event.PullRequest) (*RunResult, error) {
	if !ShouldRun(wf, pr) {
		r.logger.Info("trigger did not match; skipping run",
			"workflow", wf.Name, "event", pr.Ref(), "base", pr.BaseBranch)
		return &RunResult{Skipped: true, Success: true}, nil
	}

	r.logger.Info("starting run", "workflow", wf.Name, "pr", pr.Ref(), "sha", pr.HeadSHA)
	r.setStatus(ctx, pr, report.StatePending, "run started")

	ws, err := NewWorkspace(r.cfg.WorkspaceRoot, r.keepWorkspace)
	if err != nil {
		r.setStatus(ctx, pr, report.StateError, "could not provision workspace")
		return nil, err
	}

	result := r.runSteps(ctx, wf, pr, ws)

	kept, cleanupErr := ws.Cleanup()
	if cleanupErr != nil {
		r.logger.Error("workspace cleanup failed", "err", cleanupErr)
	}
	if kept != "" {
		result.WorkspaceDir = kept
		r.logger.Info("workspace kept", "path", kept)
	}

	if result.Success {
		r.setStatus(ctx, pr, report.StateSuccess, fmt.Sprintf("%d steps passed", len(result.Steps)))
	} else {
		r.setStatus(ctx, pr, report.StateFailure,
			fmt.Sprintf("step %q failed (exit %d)", result.FailedStep, result.ExitCode))
	}

	return result, nil
}

// runSteps executes steps in declared order, stopping at the first failure.
func (r *Runner) runSteps(ctx context.Context, wf *workflowfile.Workflow, pr *event.PullRequest, ws *Workspace) *RunResult {
	result := &RunResult{Success: true}

	stdout := r.redactor.Writer(r.stdout)
	stderr := r.redactor.Writer(r.stderr)
	defer func() {
		_ = stdout.Flush()
		_ = stderr.Flush()
	}()

	for i := range wf.Steps {
		step := &wf.Steps[i]
		name := step.DisplayName(i)

		r.logger.Info("step starting", "step", name, "index", i+1, "total", len(wf.Steps))
		start := time.Now()

		var stepErr error
		exitCode := runtime.ExitCode(0)

		if step.IsRun() {
			exitCode, stepErr = r.runScript(ctx, wf, step, ws, pr, stdout, stderr)
		} else if stepErr = r.runBuiltin(ctx, step, ws, pr); stepErr != nil {
			exitCode = 1
		}

		duration := time.Since(start)
		result.Steps = append(result.Steps, StepResult{
			Name:     name,
			ExitCode: exitCode,
			Duration: duration,
			Err:      stepErr,
		})

		if stepErr != nil || !exitCode.IsSuccess() {
			r.logger.Error("step failed; aborting run",
				"step", name, "exit", int(exitCode), "duration", duration, "err", stepErr)
			result.Success = false
			result.FailedStep = name
			result.ExitCode = exitCode
			return result
		}

		r.logger.Info("step passed", "step", name, "duration", duration)
	}

	return result
}

// runScript executes one 'run' step through the selected runtime.
func (r *Runner) runScript(ctx context.Context, wf *workflowfile.Workflow, step *workflowfile.Step, ws *Workspace, pr *event.PullRequest, stdout, stderr io.Writer) (runtime.ExitCode, error) {
	env, err := r.stepEnv(wf, step, ws, pr)
	if err != nil {
		return 1, err
	}

	execCtx := &runtime.ExecutionContext{
		Context: ctx,
		Script:  step.Run,
		Shell:   r.stepShell(wf, step),
		WorkDir: ws.Resolve(step.WorkingDir),
		Env:     env,
		Stdout:  stdout,
		Stderr:  stderr,
	}

	res := r.registry.Execute(r.stepRuntime(wf, step), execCtx)
	return res.ExitCode, res.Error
}

// stepEnv layers the step environment: workflow env, then step env, then
// resolved secrets, then the runner-injected context variables. A secret that
// cannot be resolved fails the step before anything executes.
func (r *Runner) stepEnv(wf *workflowfile.Workflow, step *workflowfile.Step, ws *Workspace, pr *event.PullRequest) (map[string]string, error) {
	env := make(map[string]string, len(wf.Env)+len(step.Env)+len(step.Secrets)+6)

	for k, v := range wf.Env {
		env[k] = v
	}
	for k, v := range step.Env {
		env[k] = v
	}

	for _, name := range step.Secrets {
		value, err := r.resolver.Resolve(name)
		if err != nil {
			return nil, err
		}
		env[name] = value
	}

	env["SIGLACI_WORKSPACE"] = ws.Dir()
	env["SIGLACI_EVENT_NAME"] = workflowfile.EventPullRequest
	env["SIGLACI_BASE_REF"] = pr.BaseBranch
	env["SIGLACI_HEAD_REF"] = pr.HeadBranch
	env["SIGLACI_SHA"] = pr.HeadSHA
	env["SIGLACI_SECRETS_DIR"] = ws.SecretsDir()

	return env, nil
}

// stepRuntime selects the runtime: CLI override, step, workflow default,
// then the configured default.
func (r *Runner) stepRuntime(wf *workflowfile.Workflow, step *workflowfile.Step) runtime.Mode {
	switch {
	case r.runtimeOverride != "":
		return r.runtimeOverride
	case step.Runtime != "":
		return runtime.Mode(step.Runtime)
	case wf.Defaults.Runtime != "":
		return runtime.Mode(wf.Defaults.Runtime)
	default:
		return runtime.Mode(r.cfg.DefaultRuntime)
	}
}

func (r *Runner) stepShell(wf *workflowfile.Workflow, step *workflowfile.Step) string {
	switch {
	case step.Shell != "":
		return step.Shell
	case wf.Defaults.Shell != "":
		return wf.Defaults.Shell
	default:
		return r.cfg.Shell
	}
}

// setStatus posts a commit status. Reporting failures are logged, never
// escalated; the run outcome must not depend on the status API.
func (r *Runner) setStatus(ctx context.Context, pr *event.PullRequest, state report.State, description string) {
	if err := r.reporter.SetStatus(ctx, pr, state, description); err != nil {
		r.logger.Warn("failed to report status", "state", state, "err", err)
	}
}
