// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime executes step scripts in-process using the mvdan/sh
// POSIX interpreter. It needs no shell binary on the host.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime.
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() string {
	return string(ModeVirtual)
}

// Available returns true; the interpreter is built in.
func (r *VirtualRuntime) Available() bool {
	return true
}

// Validate parses the script to catch syntax errors before execution.
func (r *VirtualRuntime) Validate(ctx *ExecutionContext) error {
	if strings.TrimSpace(ctx.Script) == "" {
		return fmt.Errorf("step has no script content to execute")
	}
	if _, err := syntax.NewParser().Parse(strings.NewReader(ctx.Script), "step"); err != nil {
		return fmt.Errorf("step script syntax error: %w", err)
	}
	return nil
}

// Execute runs a step script in the embedded interpreter.
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	return r.run(ctx, ctx.Stdout, ctx.Stderr)
}

// ExecuteCapture runs a step script and captures its output.
func (r *VirtualRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	var stdout, stderr bytes.Buffer
	result := r.run(ctx, &stdout, &stderr)
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	return result
}

func (r *VirtualRuntime) run(ctx *ExecutionContext, stdout, stderr io.Writer) *Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(ctx.Script), "step")
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to parse step script: %w", err)}
	}

	env := append(FilterRunnerEnv(os.Environ()), EnvToSlice(ctx.Env)...)

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(ctx.Stdin, stdout, stderr),
	}
	if ctx.WorkDir != "" {
		opts = append(opts, interp.Dir(ctx.WorkDir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	if err := runner.Run(execCtx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: ExitCode(exitStatus)}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("step script failed: %w", err)}
	}

	return &Result{ExitCode: 0}
}
