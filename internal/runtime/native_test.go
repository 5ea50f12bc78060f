// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell test")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh on PATH")
	}
}

func TestNativeRuntime_ExecuteCapture(t *testing.T) {
	t.Parallel()
	requireShell(t)

	nr := &NativeRuntime{Shell: "sh"}

	ctx := NewExecutionContext("echo native-ok")
	ctx.WorkDir = t.TempDir()

	result := nr.ExecuteCapture(ctx)
	if !result.Success() {
		t.Fatalf("expected success, got exit %d err %v", result.ExitCode, result.Error)
	}
	if result.Output != "native-ok\n" {
		t.Errorf("output = %q", result.Output)
	}
}

func TestNativeRuntime_ExitCodePropagation(t *testing.T) {
	t.Parallel()
	requireShell(t)

	nr := &NativeRuntime{Shell: "sh"}

	ctx := NewExecutionContext("exit 7")
	result := nr.ExecuteCapture(ctx)
	if result.Error != nil {
		t.Fatalf("unexpected runner error: %v", result.Error)
	}
	if result.ExitCode != 7 {
		t.Errorf("exit code = %d, want 7", result.ExitCode)
	}
}

func TestNativeRuntime_StepEnvWinsOverHost(t *testing.T) {
	requireShell(t)

	t.Setenv("NATIVE_TEST_COLLIDE", "host")

	nr := &NativeRuntime{Shell: "sh"}
	ctx := NewExecutionContext(`printf '%s' "$NATIVE_TEST_COLLIDE"`)
	ctx.Env = map[string]string{"NATIVE_TEST_COLLIDE": "step"}

	result := nr.ExecuteCapture(ctx)
	if !result.Success() {
		t.Fatalf("expected success, got exit %d err %v", result.ExitCode, result.Error)
	}
	if result.Output != "step" {
		t.Errorf("output = %q, want %q", result.Output, "step")
	}
}

func TestNativeRuntime_ValidateEmptyScript(t *testing.T) {
	t.Parallel()

	nr := NewNativeRuntime()
	if err := nr.Validate(NewExecutionContext("")); err == nil {
		t.Error("expected error for empty script")
	}
}

func TestNativeRuntime_ContextCancellationKillsProcess(t *testing.T) {
	t.Parallel()
	requireShell(t)

	nr := &NativeRuntime{Shell: "sh"}

	execCtx := NewExecutionContext("sleep 5")
	cancelCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	execCtx.Context = cancelCtx

	start := time.Now()
	result := nr.ExecuteCapture(execCtx)
	if result.Success() {
		t.Fatal("expected failure after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("process survived cancellation for %v", elapsed)
	}
}
