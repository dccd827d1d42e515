// Package engine executes task sets: independent tasks fan out across a
// bounded set of workers while dependent tasks run sequentially afterwards,
// consulting a completion map so that a failed prerequisite skips its
// dependents instead of aborting the run.
//
// The engine's contract is local: a task's own failure (non-zero exit,
// spawn error, or timeout) is captured in its TaskResult and never
// propagates as an error from [Runner.Execute]. Only input-level problems
// (nothing to run is fine; an uncreatable output directory is not)
// surface to the caller.
//
// Usage:
//
//	runner := engine.NewRunner(root, logger)
//	results, summary, err := runner.Execute(set, engine.DefaultRunOptions())
package engine
