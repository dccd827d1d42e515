package engine

import (
	"sync"

	"github.com/Iron-Ham/runlet/internal/taskset"
)

// runParallel executes the independent tasks with one worker per
// contiguous chunk. The partition is static: len/workers rounded up.
// Chunks are not rebalanced while running.
//
// A worker that hits a failure stops processing the remainder of its own
// chunk unless ContinueOnError is set; the other workers are unaffected
// and run their chunks to completion. The caller regains control only
// after every worker has been joined.
func (r *Runner) runParallel(tasks []taskset.Task, opts RunOptions, outputDir string, state *runState) {
	if len(tasks) == 0 {
		return
	}

	workers := opts.workers()
	chunkSize := (len(tasks) + workers - 1) / workers
	if chunkSize < 1 {
		chunkSize = 1
	}

	var wg sync.WaitGroup
	for start := 0; start < len(tasks); start += chunkSize {
		end := start + chunkSize
		if end > len(tasks) {
			end = len(tasks)
		}
		chunk := tasks[start:end]

		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, task := range chunk {
				result := r.executeTask(task, opts.TimeoutOverride)
				if opts.SaveOutputs && outputDir != "" {
					r.persistOutput(outputDir, task, &result)
				}
				state.record(result)

				if !result.Success && !opts.ContinueOnError {
					r.logger.WithTask(task.ID).Info("worker stopping remainder of chunk after failure")
					break
				}
			}
		}()
	}
	wg.Wait()
}
