package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/runlet/internal/errors"
	"github.com/Iron-Ham/runlet/internal/logging"
	"github.com/Iron-Ham/runlet/internal/taskset"
)

// Runner executes task sets against a run root directory.
type Runner struct {
	root   string
	logger *logging.Logger
}

// NewRunner creates a Runner. Task working directories resolve relative to
// root. A nil logger disables engine logging.
func NewRunner(root string, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Runner{root: root, logger: logger}
}

// Execute runs every task in the set and returns the ordered result list
// plus its summary.
//
// Independent tasks (no depends_on) run first, in parallel. Dependent
// tasks then run sequentially in their original declaration order, each
// gated on its dependencies having succeeded; a task whose prerequisites
// did not all succeed is recorded with the skip sentinel and counts as a
// failed prerequisite for tasks after it.
//
// The dependent phase is a single forward pass, not a topological sort: a
// dependent task that references another dependent task declared later in
// the list is skipped, because its dependency has not run when it is
// checked. Declaring dependents in dependency order is the caller's
// responsibility.
func (r *Runner) Execute(set *taskset.TaskSet, opts RunOptions) ([]TaskResult, ExecutionSummary, error) {
	start := time.Now()

	// Every log line of this run, including the per-task lines written by
	// the workers, carries the same run_id.
	run := &Runner{root: r.root, logger: r.logger.WithRun(newRunID(start))}
	log := run.logger

	tasks := set.Flatten()
	if opts.FilterTag != "" {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.HasTag(opts.FilterTag) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	if len(tasks) == 0 {
		log.Info("no tasks to run", "filter_tag", opts.FilterTag)
		return nil, Summarize(nil, time.Since(start), opts.OutputDir), nil
	}

	// Dry run short-circuits before any directory creation or process
	// spawn: every task is reported successful with zero duration.
	if opts.DryRun {
		results := make([]TaskResult, 0, len(tasks))
		for _, t := range tasks {
			results = append(results, TaskResult{ID: t.ID, Success: true})
		}
		return results, Summarize(results, 0, opts.OutputDir), nil
	}

	outputDir := ""
	if opts.SaveOutputs {
		outputDir = opts.OutputDir
		if outputDir == "" {
			outputDir = filepath.Join(r.root, DefaultOutputDirName)
		}
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, ExecutionSummary{}, fmt.Errorf("%w %s: %v", errors.ErrOutputDirCreate, outputDir, err)
		}
	}

	independent, dependent := partition(tasks)
	log.Info("run starting",
		"total", len(tasks),
		"independent", len(independent),
		"dependent", len(dependent),
		"max_parallel", opts.workers())

	state := newRunState(len(tasks))

	// Phase 1: fan out the independent tasks.
	run.runParallel(independent, opts, outputDir, state)

	// Phase 2: one sequential pass over the dependent tasks, in input
	// order. Skips are recorded in the completion map as failures so they
	// propagate transitively within this same pass.
	for _, task := range dependent {
		if !state.depsSatisfied(task.DependsOn) {
			log.WithTask(task.ID).Info("task skipped", "depends_on", task.DependsOn)
			state.record(skippedResult(task.ID))
			continue
		}

		result := run.executeTask(task, opts.TimeoutOverride)
		if opts.SaveOutputs && outputDir != "" {
			run.persistOutput(outputDir, task, &result)
		}
		state.record(result)
	}

	results := state.snapshot()
	summary := Summarize(results, time.Since(start), outputDir)
	log.Info("run finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration_ms", summary.TotalDurationMs)
	return results, summary, nil
}

// newRunID derives a run identifier from the run's start time. It ties
// every log line of one Execute call together in the debug log.
func newRunID(start time.Time) string {
	return fmt.Sprintf("%x", start.UnixNano())
}

// partition splits tasks into the independent and dependent phases,
// preserving relative order within each.
func partition(tasks []taskset.Task) (independent, dependent []taskset.Task) {
	for _, t := range tasks {
		if t.Independent() {
			independent = append(independent, t)
		} else {
			dependent = append(dependent, t)
		}
	}
	return independent, dependent
}
