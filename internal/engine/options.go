package engine

import "runtime"

// DefaultOutputDirName is the directory under the run root that receives
// task logs when no explicit output directory is configured.
const DefaultOutputDirName = "rundata"

// RunOptions control one engine run.
type RunOptions struct {
	// MaxParallel bounds the parallel phase's worker count.
	// 0 means one worker per available CPU.
	MaxParallel int

	// OutputDir receives per-task log files. Empty means
	// {root}/rundata.
	OutputDir string

	// SaveOutputs enables writing one log file per executed task.
	SaveOutputs bool

	// ContinueOnError keeps a worker processing the rest of its chunk
	// after a task in it fails. Failures never abort the whole run either
	// way; this only controls the failing worker's remaining chunk.
	ContinueOnError bool

	// TimeoutOverride, when positive, replaces every task's own timeout
	// (seconds).
	TimeoutOverride int

	// FilterTag restricts the run to tasks carrying this tag.
	FilterTag string

	// DryRun reports what would execute without spawning processes or
	// touching the filesystem.
	DryRun bool
}

// DefaultRunOptions returns the options used when the caller configures
// nothing: auto parallelism, output saving enabled, stop a worker's chunk
// on first failure.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		SaveOutputs: true,
	}
}

// workers resolves MaxParallel, falling back to the machine's CPU count.
func (o RunOptions) workers() int {
	if o.MaxParallel > 0 {
		return o.MaxParallel
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 4
}
