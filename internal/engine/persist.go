package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/runlet/internal/taskset"
)

// sanitizeFilename maps a task ID onto a safe log filename: every
// character that is not alphanumeric, '-', or '_' becomes '_'. Length is
// preserved so distinct IDs rarely collide.
func sanitizeFilename(name string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return c
		case c == '-' || c == '_':
			return c
		default:
			return '_'
		}
	}, name)
}

// persistOutput writes the task's log file under outputDir and backfills
// result.OutputFile. A write failure must not abort the run: the result is
// downgraded instead, Success flips to false and the write error is
// appended to Error.
//
// Two layouts are used. When stdout looks like a JSON document (and stderr
// is empty) the log is a compact header plus the raw stdout, so structured
// task output stays machine-readable. Everything else gets the full
// sectioned layout.
func (r *Runner) persistOutput(outputDir string, task taskset.Task, result *TaskResult) {
	path := filepath.Join(outputDir, sanitizeFilename(task.ID)+".log")

	var content string
	trimmed := strings.TrimLeft(result.Stdout, " \t\r\n")
	jsonish := strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")

	if jsonish && result.Stderr == "" {
		content = fmt.Sprintf("# Task: %s | Exit: %s | Duration: %dms\n# Command: %s\n\n%s\n",
			task.ID, formatExitCode(result.ExitCode), result.DurationMs, task.Cmd, result.Stdout)
	} else {
		var sb strings.Builder
		fmt.Fprintf(&sb, "# Task: %s\n", task.ID)
		fmt.Fprintf(&sb, "# Command: %s\n", task.Cmd)
		fmt.Fprintf(&sb, "# Exit Code: %s\n", formatExitCode(result.ExitCode))
		fmt.Fprintf(&sb, "# Duration: %dms\n", result.DurationMs)
		fmt.Fprintf(&sb, "# Success: %t\n", result.Success)
		fmt.Fprintf(&sb, "\n## STDOUT:\n%s\n", result.Stdout)
		if result.Stderr != "" {
			fmt.Fprintf(&sb, "\n## STDERR:\n%s\n", result.Stderr)
		}
		content = sb.String()
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.logger.WithTask(task.ID).Error("failed to persist task output", "path", path, "error", err.Error())
		result.Success = false
		if result.Error != "" {
			result.Error += "; "
		}
		result.Error += fmt.Sprintf("Failed to write output file: %v", err)
		return
	}

	result.OutputFile = path
	r.logger.WithTask(task.ID).Debug("task output persisted", "path", path)
}

// formatExitCode renders an optional exit code for log headers.
func formatExitCode(code *int) string {
	if code == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *code)
}
