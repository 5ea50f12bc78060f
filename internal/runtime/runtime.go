// SPDX-License-Identifier: MPL-2.0

// Package runtime provides the step execution runtime interface and implementations.
package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Mode constants for the available execution runtimes.
const (
	// ModeNative runs step scripts in the host system shell.
	ModeNative Mode = "native"
	// ModeVirtual runs step scripts in the embedded mvdan/sh interpreter.
	ModeVirtual Mode = "virtual"
)

type (
	// Mode identifies an execution runtime.
	Mode string

	// ExecutionContext contains everything needed to execute one step script.
	ExecutionContext struct {
		// Context is the Go context for cancellation.
		Context context.Context
		// Script is the script content to execute.
		Script string
		// Shell overrides the shell used by the native runtime.
		Shell string
		// WorkDir is the working directory for the script.
		WorkDir string
		// Env is the complete environment for the script, in addition to the
		// (filtered) host environment. Step env wins on collision with host env.
		Env map[string]string
		// Stdout is where standard output is written.
		Stdout io.Writer
		// Stderr is where standard error is written.
		Stderr io.Writer
		// Stdin is where standard input is read from.
		Stdin io.Reader
	}

	// Result contains the result of a step execution.
	Result struct {
		// ExitCode is the exit code of the step.
		ExitCode ExitCode
		// Error contains any runner-level error (not a non-zero script exit).
		Error error
		// Output contains captured stdout (capture mode only).
		Output string
		// ErrOutput contains captured stderr (capture mode only).
		ErrOutput string
	}

	// Runtime defines the interface for step execution.
	Runtime interface {
		// Name returns the runtime name.
		Name() string
		// Execute runs a script in this runtime.
		Execute(ctx *ExecutionContext) *Result
		// Available returns whether this runtime is usable on the current system.
		Available() bool
		// Validate checks whether the context can be executed with this runtime.
		Validate(ctx *ExecutionContext) error
	}

	// CapturingRuntime is implemented by runtimes that support capturing output.
	CapturingRuntime interface {
		// ExecuteCapture runs a script and captures stdout/stderr.
		ExecuteCapture(ctx *ExecutionContext) *Result
	}

	// Registry holds all available runtimes.
	Registry struct {
		runtimes map[Mode]Runtime
	}
)

// NewExecutionContext creates an execution context with sensible defaults.
func NewExecutionContext(script string) *ExecutionContext {
	return &ExecutionContext{
		Context: context.Background(),
		Script:  script,
		Env:     make(map[string]string),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
	}
}

// Success returns true if the step executed successfully.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// IsValid reports whether m names a known runtime mode.
func (m Mode) IsValid() bool {
	return m == ModeNative || m == ModeVirtual
}

// NewRegistry creates a registry with both built-in runtimes registered.
func NewRegistry() *Registry {
	r := &Registry{runtimes: make(map[Mode]Runtime)}
	r.Register(ModeNative, NewNativeRuntime())
	r.Register(ModeVirtual, NewVirtualRuntime())
	return r
}

// Register adds a runtime to the registry.
func (r *Registry) Register(mode Mode, rt Runtime) {
	r.runtimes[mode] = rt
}

// Get returns a runtime by mode.
func (r *Registry) Get(mode Mode) (Runtime, error) {
	rt, ok := r.runtimes[mode]
	if !ok {
		return nil, fmt.Errorf("runtime %q not registered", mode)
	}
	return rt, nil
}

// Available returns the modes of all usable runtimes.
func (r *Registry) Available() []Mode {
	var modes []Mode
	for mode, rt := range r.runtimes {
		if rt.Available() {
			modes = append(modes, mode)
		}
	}
	return modes
}

// Execute runs a script with the runtime selected by mode, validating first.
func (r *Registry) Execute(mode Mode, ctx *ExecutionContext) *Result {
	rt, err := r.Get(mode)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	if !rt.Available() {
		return &Result{
			ExitCode: 1,
			Error:    fmt.Errorf("runtime %q is not available on this system", rt.Name()),
		}
	}

	if err := rt.Validate(ctx); err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	res := rt.Execute(ctx)

	// A signal-killed native process reports -1; normalize anything outside
	// 0-255 so callers can always exit with the code as-is.
	if !res.ExitCode.IsValid() {
		invalid := res.ExitCode
		res.ExitCode = 1
		if res.Error == nil {
			res.Error = &InvalidExitCodeError{Value: invalid}
		}
	}

	return res
}

// EnvToSlice converts an environment map to "KEY=VALUE" form.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	return result
}

// FilterRunnerEnv removes siglaci-internal variables from the given host
// environment slice. This prevents SIGLACI_* context vars from one run leaking
// into a step script that happens to invoke siglaci again.
func FilterRunnerEnv(environ []string) []string {
	result := make([]string, 0, len(environ))
	for _, e := range environ {
		name, _, ok := strings.Cut(e, "=")
		if ok && strings.HasPrefix(name, "SIGLACI_") {
			continue
		}
		result = append(result, e)
	}
	return result
}
