package engine

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Iron-Ham/runlet/internal/taskset"
)

// shellCommand returns the platform shell invocation for a command string.
func shellCommand(command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", command)
	}
	return exec.Command("sh", "-c", command)
}

// executeTask runs a single task to completion or timeout and returns its
// result. It has no side effects beyond the spawned child process: shared
// run state is the caller's concern.
//
// The effective timeout is timeoutOverride when positive, else the task's
// own timeout. On timeout the process is killed (not signalled gracefully)
// and any partially-buffered output is discarded; the result carries only
// the "Timeout after N seconds" error.
func (r *Runner) executeTask(task taskset.Task, timeoutOverride int) TaskResult {
	start := time.Now()

	timeoutSecs := task.Timeout
	if timeoutOverride > 0 {
		timeoutSecs = timeoutOverride
	}
	if timeoutSecs <= 0 {
		timeoutSecs = taskset.DefaultTimeoutSeconds
	}

	workDir := r.root
	if task.Cwd != "" {
		workDir = filepath.Join(r.root, task.Cwd)
	}

	cmd := shellCommand(task.Cmd)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Task env entries extend the inherited environment rather than
	// replacing it.
	if len(task.Env) > 0 {
		env := os.Environ()
		for k, v := range task.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	log := r.logger.WithTask(task.ID)
	log.Debug("task starting", "cmd", task.Cmd, "cwd", workDir, "timeout_secs", timeoutSecs)

	if err := cmd.Start(); err != nil {
		log.Error("task spawn failed", "error", err.Error())
		return TaskResult{
			ID:         task.ID,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    false,
			Error:      fmt.Sprintf("Failed to start command: %v", err),
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(time.Duration(timeoutSecs) * time.Second)
	defer timer.Stop()

	select {
	case waitErr := <-done:
		return r.finishTask(task, start, waitErr, cmd, &stdout, &stderr)

	case <-timer.C:
		_ = cmd.Process.Kill()
		<-done // reap the killed process
		log.Warn("task timed out", "timeout_secs", timeoutSecs)
		return TaskResult{
			ID:         task.ID,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    false,
			Error:      fmt.Sprintf("Timeout after %d seconds", timeoutSecs),
		}
	}
}

// finishTask builds the result for a process that exited on its own.
func (r *Runner) finishTask(task taskset.Task, start time.Time, waitErr error, cmd *exec.Cmd, stdout, stderr *bytes.Buffer) TaskResult {
	result := TaskResult{
		ID:         task.ID,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMs: time.Since(start).Milliseconds(),
	}

	log := r.logger.WithTask(task.ID)

	if waitErr != nil {
		if _, ok := waitErr.(*exec.ExitError); !ok {
			// An OS-level wait failure, not a non-zero exit.
			log.Error("task wait failed", "error", waitErr.Error())
			result.Error = fmt.Sprintf("Failed to wait for process: %v", waitErr)
			return result
		}
	}

	code := cmd.ProcessState.ExitCode()
	if code < 0 {
		// Killed by a signal outside our timeout path; no exit code exists.
		log.Warn("task terminated by signal")
		result.Error = "Terminated by signal"
		return result
	}

	result.ExitCode = &code
	result.Success = code == 0
	if !result.Success {
		result.Error = fmt.Sprintf("Exit code: %d", code)
		log.Info("task failed", "exit_code", code, "duration_ms", result.DurationMs)
	} else {
		log.Debug("task completed", "duration_ms", result.DurationMs)
	}
	return result
}
