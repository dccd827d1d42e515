package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/runlet/internal/logging"
	"github.com/Iron-Ham/runlet/internal/taskset"
)

// runOpts returns options suitable for tests: no output saving, no
// parallelism surprises.
func runOpts() RunOptions {
	return RunOptions{MaxParallel: 2}
}

func resultByID(t *testing.T, results []TaskResult, id string) TaskResult {
	t.Helper()
	for _, r := range results {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("no result for task %q in %v", id, results)
	return TaskResult{}
}

func TestExecuteFlattensGroupsAndStandalone(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	set := &taskset.TaskSet{
		Groups: []taskset.TaskGroup{
			{Name: "g", Tasks: []taskset.Task{
				{ID: "a", Cmd: "true"},
				{ID: "b", Cmd: "true"},
			}},
		},
		Tasks: []taskset.Task{{ID: "c", Cmd: "true"}},
	}

	results, summary, err := r.Execute(set, runOpts())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if summary.Total != 3 || summary.Succeeded != 3 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestExecuteTagFilter(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "a", Cmd: "true", Tags: []string{"ci"}},
		{ID: "b", Cmd: "true", Tags: []string{"local"}},
		{ID: "c", Cmd: "true", Tags: []string{"ci", "slow"}},
	}}

	opts := runOpts()
	opts.FilterTag = "ci"
	results, summary, err := r.Execute(set, opts)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(results) != 2 || summary.Total != 2 {
		t.Fatalf("expected 2 filtered results, got %d (summary %+v)", len(results), summary)
	}
	for _, res := range results {
		if res.ID == "b" {
			t.Error("task without the filter tag was run")
		}
	}
}

func TestExecuteEmptyAfterFilter(t *testing.T) {
	r := newTestRunner(t)

	set := &taskset.TaskSet{Tasks: []taskset.Task{{ID: "a", Cmd: "true"}}}
	opts := runOpts()
	opts.FilterTag = "nonexistent"
	opts.SaveOutputs = true
	opts.OutputDir = filepath.Join(t.TempDir(), "out")

	results, summary, err := r.Execute(set, opts)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(results) != 0 || summary.Total != 0 {
		t.Errorf("expected empty run, got %d results", len(results))
	}
	if _, statErr := os.Stat(opts.OutputDir); !os.IsNotExist(statErr) {
		t.Error("empty run must not create the output directory")
	}
}

func TestExecuteDryRun(t *testing.T) {
	r := newTestRunner(t)

	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "a", Cmd: "definitely-not-a-command"},
		{ID: "b", Cmd: "false", DependsOn: []string{"a"}},
	}}
	opts := runOpts()
	opts.DryRun = true
	opts.SaveOutputs = true
	opts.OutputDir = filepath.Join(t.TempDir(), "dry-out")

	results, summary, err := r.Execute(set, opts)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if !res.Success || res.ExitCode != nil || res.DurationMs != 0 || res.OutputFile != "" {
			t.Errorf("dry-run result should be a synthetic success: %+v", res)
		}
	}
	if summary.Succeeded != 2 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Errorf("summary = %+v", summary)
	}
	// Dry run short-circuits before directory creation.
	if _, statErr := os.Stat(opts.OutputDir); !os.IsNotExist(statErr) {
		t.Error("dry run must not create the output directory")
	}
}

func TestExecuteDependencySkip(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "A", Cmd: "exit 1"},
		{ID: "B", Cmd: "echo never", DependsOn: []string{"A"}},
	}}

	results, summary, err := r.Execute(set, runOpts())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	b := resultByID(t, results, "B")
	if b.Success {
		t.Error("B should not succeed")
	}
	if b.Error != SkipSentinel {
		t.Errorf("B error = %q, want the skip sentinel", b.Error)
	}
	if !b.Skipped() {
		t.Error("B should report Skipped()")
	}
	if summary.Failed != 1 || summary.Skipped != 1 || summary.Succeeded != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestExecuteDependencySuccessPath(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "A", Cmd: "exit 0"},
		{ID: "B", Cmd: "echo ran", DependsOn: []string{"A"}},
	}}

	results, summary, err := r.Execute(set, runOpts())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	b := resultByID(t, results, "B")
	if !b.Success || b.Stdout != "ran\n" {
		t.Errorf("B should have executed normally: %+v", b)
	}
	if summary.Succeeded != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestExecuteTransitiveSkip(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	// A fails; B skips because of A; C skips because B is recorded as
	// failed in the completion map within the same pass.
	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "A", Cmd: "exit 1"},
		{ID: "B", Cmd: "true", DependsOn: []string{"A"}},
		{ID: "C", Cmd: "true", DependsOn: []string{"B"}},
	}}

	results, summary, err := r.Execute(set, runOpts())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for _, id := range []string{"B", "C"} {
		res := resultByID(t, results, id)
		if !res.Skipped() {
			t.Errorf("%s should be skipped, got %+v", id, res)
		}
	}
	if summary.Failed != 1 || summary.Skipped != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestDependentPhaseIsOneForwardPass(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	// C depends on B but is declared before it. The dependent phase is a
	// single forward pass, so C is checked before B has run and is
	// skipped, while B itself then executes. This pins the documented
	// no-topological-sort behavior.
	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "A", Cmd: "true"},
		{ID: "C", Cmd: "true", DependsOn: []string{"B"}},
		{ID: "B", Cmd: "true", DependsOn: []string{"A"}},
	}}

	results, summary, err := r.Execute(set, runOpts())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if c := resultByID(t, results, "C"); !c.Skipped() {
		t.Errorf("C should be skipped by the one-pass semantics: %+v", c)
	}
	if b := resultByID(t, results, "B"); !b.Success {
		t.Errorf("B should still execute after C's skip: %+v", b)
	}
	if summary.Succeeded != 2 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestWorkerStopsChunkOnFailure(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	// One worker, one chunk: the failure stops the rest of the chunk, so
	// the trailing task produces no result at all.
	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "first", Cmd: "exit 1"},
		{ID: "second", Cmd: "echo unreachable"},
	}}
	opts := RunOptions{MaxParallel: 1}

	results, summary, err := r.Execute(set, opts)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only the failing result, got %d", len(results))
	}
	if results[0].ID != "first" || results[0].Success {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if summary.Total != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestContinueOnErrorRunsWholeChunk(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "first", Cmd: "exit 1"},
		{ID: "second", Cmd: "echo reachable"},
	}}
	opts := RunOptions{MaxParallel: 1, ContinueOnError: true}

	results, summary, err := r.Execute(set, opts)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both results, got %d", len(results))
	}
	if second := resultByID(t, results, "second"); !second.Success {
		t.Errorf("second task should have run: %+v", second)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestParallelPhaseRunsAllChunks(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	// With two workers the failing task only stops its own chunk; the
	// other chunk still completes.
	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "w1-fail", Cmd: "exit 1"},
		{ID: "w1-after", Cmd: "true"},
		{ID: "w2-a", Cmd: "true"},
		{ID: "w2-b", Cmd: "true"},
	}}
	opts := RunOptions{MaxParallel: 2}

	results, _, err := r.Execute(set, opts)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	// Chunks are [w1-fail, w1-after] and [w2-a, w2-b]; w1-after is cut.
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %v", len(results), results)
	}
	for _, id := range []string{"w2-a", "w2-b"} {
		if res := resultByID(t, results, id); !res.Success {
			t.Errorf("%s should have succeeded: %+v", id, res)
		}
	}
}

func TestExecuteSavesOutputs(t *testing.T) {
	skipOnWindows(t)
	root := t.TempDir()
	r := NewRunner(root, nil)

	set := &taskset.TaskSet{Tasks: []taskset.Task{{ID: "logme", Cmd: "echo hi"}}}
	opts := RunOptions{MaxParallel: 1, SaveOutputs: true}

	results, summary, err := r.Execute(set, opts)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	wantDir := filepath.Join(root, DefaultOutputDirName)
	if summary.OutputDir != wantDir {
		t.Errorf("summary output dir = %q, want %q", summary.OutputDir, wantDir)
	}
	res := resultByID(t, results, "logme")
	if res.OutputFile != filepath.Join(wantDir, "logme.log") {
		t.Errorf("output file = %q", res.OutputFile)
	}
	if _, err := os.Stat(res.OutputFile); err != nil {
		t.Errorf("log file missing: %v", err)
	}
}

func TestExecuteIdempotent(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "a", Cmd: "echo one"},
		{ID: "b", Cmd: "echo two", DependsOn: []string{"a"}},
	}}

	first, _, err := r.Execute(set, runOpts())
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := r.Execute(set, runOpts())
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("result counts differ: %d vs %d", len(first), len(second))
	}
	for _, id := range []string{"a", "b"} {
		f, s := resultByID(t, first, id), resultByID(t, second, id)
		if f.Success != s.Success || f.Stdout != s.Stdout || f.Error != s.Error {
			t.Errorf("run results for %s differ structurally: %+v vs %+v", id, f, s)
		}
	}
}

func TestSummaryWallClockNotSum(t *testing.T) {
	skipOnWindows(t)
	r := newTestRunner(t)

	// Two parallel 300ms sleeps: the wall clock should be well under the
	// 600ms a sequential sum would give.
	set := &taskset.TaskSet{Tasks: []taskset.Task{
		{ID: "s1", Cmd: "sleep 0.3"},
		{ID: "s2", Cmd: "sleep 0.3"},
	}}

	start := time.Now()
	_, summary, err := r.Execute(set, RunOptions{MaxParallel: 2})
	if err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)

	if summary.TotalDurationMs > elapsed.Milliseconds()+50 {
		t.Errorf("summary duration %dms exceeds observed wall clock %dms",
			summary.TotalDurationMs, elapsed.Milliseconds())
	}
}

func TestExecuteLogsCarryRunID(t *testing.T) {
	skipOnWindows(t)

	logDir := t.TempDir()
	logger, err := logging.NewLogger(logDir, logging.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(t.TempDir(), logger)

	set := &taskset.TaskSet{Tasks: []taskset.Task{{ID: "a", Cmd: "true"}}}
	if _, _, err := r.Execute(set, runOpts()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(logDir, "debug.log"))
	if err != nil {
		t.Fatalf("failed to read debug log: %v", err)
	}
	for _, msg := range []string{"run starting", "run finished"} {
		if !strings.Contains(string(data), msg) {
			t.Errorf("debug log missing %q", msg)
		}
	}
	if !strings.Contains(string(data), `"run_id"`) {
		t.Error("run-level log lines should carry a run_id attribute")
	}
}
