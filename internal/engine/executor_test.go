package engine

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Iron-Ham/runlet/internal/taskset"
)

// newTestRunner returns a Runner rooted at a fresh temp dir.
func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(t.TempDir(), nil)
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses POSIX shell commands")
	}
}

func TestExecuteTaskSuccess(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	result := r.executeTask(taskset.Task{ID: "t1", Cmd: "exit 0"}, 0)

	if !result.Success {
		t.Errorf("expected success, got error %q", result.Error)
	}
	if result.ExitCode == nil || *result.ExitCode != 0 {
		t.Errorf("exit code = %v, want 0", result.ExitCode)
	}
	if result.Error != "" {
		t.Errorf("unexpected error: %q", result.Error)
	}
}

func TestExecuteTaskFailure(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	result := r.executeTask(taskset.Task{ID: "t1", Cmd: "exit 1"}, 0)

	if result.Success {
		t.Error("expected failure")
	}
	if result.ExitCode == nil || *result.ExitCode != 1 {
		t.Errorf("exit code = %v, want 1", result.ExitCode)
	}
	if !strings.Contains(result.Error, "Exit code: 1") {
		t.Errorf("error = %q, want exit code message", result.Error)
	}
}

func TestExecuteTaskCapturesOutput(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	result := r.executeTask(taskset.Task{ID: "t1", Cmd: "echo out; echo err 1>&2"}, 0)

	if !result.Success {
		t.Fatalf("task failed: %q", result.Error)
	}
	if result.Stdout != "out\n" {
		t.Errorf("stdout = %q, want %q", result.Stdout, "out\n")
	}
	if result.Stderr != "err\n" {
		t.Errorf("stderr = %q, want %q", result.Stderr, "err\n")
	}
}

func TestExecuteTaskTimeout(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	result := r.executeTask(taskset.Task{ID: "slow", Cmd: "echo partial; sleep 5", Timeout: 1}, 0)

	if result.Success {
		t.Error("expected timeout failure")
	}
	if result.ExitCode != nil {
		t.Errorf("exit code = %v, want nil on timeout", *result.ExitCode)
	}
	if !strings.Contains(result.Error, "Timeout after 1 seconds") {
		t.Errorf("error = %q, want timeout message", result.Error)
	}
	// Partially-buffered output is discarded on timeout.
	if result.Stdout != "" || result.Stderr != "" {
		t.Errorf("output should be discarded on timeout, got stdout=%q stderr=%q",
			result.Stdout, result.Stderr)
	}
	if result.DurationMs < 900 {
		t.Errorf("duration = %dms, expected roughly the timeout", result.DurationMs)
	}
}

func TestExecuteTaskTimeoutOverride(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	// The override shrinks the task's generous timeout to 1s.
	result := r.executeTask(taskset.Task{ID: "slow", Cmd: "sleep 5", Timeout: 300}, 1)

	if result.Success {
		t.Error("expected timeout failure")
	}
	if !strings.Contains(result.Error, "Timeout after 1 seconds") {
		t.Errorf("error = %q, want override timeout message", result.Error)
	}
}

func TestExecuteTaskEnvMerge(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	// Task env is added to the inherited environment, not a replacement:
	// PATH must still resolve echo.
	result := r.executeTask(taskset.Task{
		ID:  "env",
		Cmd: "echo $RUNLET_TEST_VALUE",
		Env: map[string]string{"RUNLET_TEST_VALUE": "plugged"},
	}, 0)

	if !result.Success {
		t.Fatalf("task failed: %q", result.Error)
	}
	if result.Stdout != "plugged\n" {
		t.Errorf("stdout = %q, want env value", result.Stdout)
	}
}

func TestExecuteTaskCwd(t *testing.T) {
	skipOnWindows(t)
	root := t.TempDir()
	r := NewRunner(root, nil)

	if err := os.Mkdir(filepath.Join(root, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	result := r.executeTask(taskset.Task{ID: "cwd", Cmd: "pwd", Cwd: "nested"}, 0)

	if !result.Success {
		t.Fatalf("task failed: %q", result.Error)
	}
	if !strings.HasSuffix(strings.TrimSpace(result.Stdout), "/nested") {
		t.Errorf("pwd = %q, want path ending in /nested", result.Stdout)
	}
}

func TestExecuteTaskSpawnFailure(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	// A nonexistent working directory makes the spawn itself fail.
	result := r.executeTask(taskset.Task{ID: "bad", Cmd: "true", Cwd: "no/such/dir"}, 0)

	if result.Success {
		t.Error("expected spawn failure")
	}
	if result.ExitCode != nil {
		t.Errorf("exit code = %v, want nil on spawn failure", *result.ExitCode)
	}
	if !strings.Contains(result.Error, "Failed to start command") {
		t.Errorf("error = %q, want spawn failure message", result.Error)
	}
	if result.Stdout != "" || result.Stderr != "" {
		t.Error("spawn failure should produce no output")
	}
}
