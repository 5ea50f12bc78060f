// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// NativeRuntime executes step scripts using the system's default shell.
type NativeRuntime struct {
	// Shell overrides the default shell for all executions.
	Shell string
}

// NewNativeRuntime creates a new native runtime.
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() string {
	return string(ModeNative)
}

// Available returns whether a usable shell was found.
func (r *NativeRuntime) Available() bool {
	_, err := r.getShell("")
	return err == nil
}

// Validate checks if the context can be executed.
func (r *NativeRuntime) Validate(ctx *ExecutionContext) error {
	if strings.TrimSpace(ctx.Script) == "" {
		return fmt.Errorf("step has no script content to execute")
	}
	return nil
}

// Execute runs a step script using the system shell.
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	cmd, err := r.prepare(ctx)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	cmd.Stdout = ctx.Stdout
	cmd.Stderr = ctx.Stderr
	cmd.Stdin = ctx.Stdin

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &Result{ExitCode: ExitCode(exitErr.ExitCode())}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to execute step: %w", err)}
	}

	return &Result{ExitCode: 0}
}

// ExecuteCapture runs a step script and captures its output.
func (r *NativeRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	cmd, err := r.prepare(ctx)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	result := &Result{
		Output:    stdout.String(),
		ErrOutput: stderr.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = ExitCode(exitErr.ExitCode())
		} else {
			result.ExitCode = 1
			result.Error = err
		}
	}

	return result
}

// prepare builds the exec.Cmd for the context.
func (r *NativeRuntime) prepare(ctx *ExecutionContext) (*exec.Cmd, error) {
	shell, err := r.getShell(ctx.Shell)
	if err != nil {
		return nil, err
	}

	args := shellArgs(shell)
	args = append(args, ctx.Script)

	cmd := exec.CommandContext(ctx.Context, shell, args...)
	if ctx.WorkDir != "" {
		cmd.Dir = ctx.WorkDir
	}
	cmd.Env = append(FilterRunnerEnv(os.Environ()), EnvToSlice(ctx.Env)...)

	return cmd, nil
}

// getShell determines which shell to use, preferring the per-step override.
func (r *NativeRuntime) getShell(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if r.Shell != "" {
		return r.Shell, nil
	}

	switch runtime.GOOS {
	case "windows":
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		return exec.LookPath("cmd")
	default:
		if shell := os.Getenv("SHELL"); shell != "" {
			return shell, nil
		}
		if bash, err := exec.LookPath("bash"); err == nil {
			return bash, nil
		}
		if sh, err := exec.LookPath("sh"); err == nil {
			return sh, nil
		}
		return "", fmt.Errorf("no shell found")
	}
}

// shellArgs returns the arguments that make the shell execute an inline script.
func shellArgs(shell string) []string {
	base := filepath.Base(shell)
	base = strings.TrimSuffix(base, ".exe")

	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		// Assume POSIX shell
		return []string{"-c"}
	}
}
