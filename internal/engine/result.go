package engine

import "time"

// SkipSentinel is the reserved error string marking a result as a
// dependency skip. It is the sole signal distinguishing "skipped" from
// "failed" in the summary accounting.
const SkipSentinel = "Skipped: dependency failed"

// TaskResult records the outcome of one task in one run. It is created
// exactly once per task and never mutated afterwards, with two exceptions:
// the persister backfills OutputFile after a successful write, and flips
// Success to false (appending to Error) when the write fails.
type TaskResult struct {
	// ID is the task ID this result belongs to.
	ID string `json:"id"`

	// ExitCode is the process exit code. Nil when the process never
	// produced one: spawn failure or timeout kill.
	ExitCode *int `json:"exit_code"`

	// Stdout is the captured standard output. Always empty after a
	// timeout: partially-buffered output is discarded.
	Stdout string `json:"stdout"`

	// Stderr is the captured standard error.
	Stderr string `json:"stderr"`

	// DurationMs is the task's wall-clock execution time in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// Success reports whether the task completed with exit code zero.
	Success bool `json:"success"`

	// Error describes the failure, if any. The exact string SkipSentinel
	// marks a dependency skip.
	Error string `json:"error,omitempty"`

	// OutputFile is the persisted log path, when output saving is enabled.
	OutputFile string `json:"output_file,omitempty"`
}

// Skipped reports whether this result represents a dependency skip.
func (r *TaskResult) Skipped() bool {
	return r.Error == SkipSentinel
}

// skippedResult builds the synthetic result recorded for a task whose
// prerequisites did not all succeed.
func skippedResult(taskID string) TaskResult {
	return TaskResult{
		ID:      taskID,
		Success: false,
		Error:   SkipSentinel,
	}
}

// ExecutionSummary aggregates a run's result list. It is derived data:
// Summarize recomputes it from the results and is never persisted
// independently of them.
type ExecutionSummary struct {
	// Total is the number of results (== tasks reached by the run).
	Total int `json:"total"`

	// Succeeded counts results with Success == true.
	Succeeded int `json:"succeeded"`

	// Failed counts genuine failures: not successful and not skipped.
	Failed int `json:"failed"`

	// Skipped counts dependency skips (SkipSentinel results).
	Skipped int `json:"skipped"`

	// TotalDurationMs is the run's wall-clock duration. Independent tasks
	// overlap, so this is not the sum of per-task durations.
	TotalDurationMs int64 `json:"total_duration_ms"`

	// OutputDir is where task logs were written, when saving was enabled.
	OutputDir string `json:"output_dir,omitempty"`
}

// Summarize computes the summary for a result list. The invariant
// Succeeded + Failed + Skipped == Total holds for any input because Failed
// is defined as the remainder.
func Summarize(results []TaskResult, elapsed time.Duration, outputDir string) ExecutionSummary {
	summary := ExecutionSummary{
		Total:           len(results),
		TotalDurationMs: elapsed.Milliseconds(),
		OutputDir:       outputDir,
	}
	for i := range results {
		switch {
		case results[i].Success:
			summary.Succeeded++
		case results[i].Skipped():
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	return summary
}
