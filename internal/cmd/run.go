package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/runlet/internal/config"
	"github.com/Iron-Ham/runlet/internal/engine"
	"github.com/Iron-Ham/runlet/internal/errors"
	"github.com/Iron-Ham/runlet/internal/logging"
	"github.com/Iron-Ham/runlet/internal/render"
	"github.com/Iron-Ham/runlet/internal/taskset"
	"github.com/Iron-Ham/runlet/internal/util"
	"github.com/Iron-Ham/runlet/internal/watch"
)

// ErrTasksFailed is returned by the run command when at least one task
// failed and continue-on-error was not set. main maps it to a non-zero
// exit without an extra error line; the summary box already reports the
// failure counts.
var ErrTasksFailed = errors.New("one or more tasks failed")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a set of shell tasks",
	Long: `Execute shell tasks defined in JSON, passed inline or from a file.

The input accepts three shapes: a single task object, an array of task
objects, or a full task set with named groups. Independent tasks run in
parallel; tasks with depends_on run afterwards, in declaration order,
and are skipped when a dependency did not succeed.

Examples:
  # Run a single inline task
  runlet run --json '{"id": "build", "cmd": "make build"}'

  # Run a task file with 4 workers, stopping nothing on failure
  runlet run --file tasks.json --max-parallel 4 --continue-on-error

  # Preview without executing
  runlet run --file tasks.json --dry-run

  # Re-run automatically whenever the file changes
  runlet run --file tasks.json --watch`,
	RunE: runTasks,
}

var (
	runJSON        string
	runFile        string
	runMaxParallel int
	runOutputDir   string
	runNoSave      bool
	runContinue    bool
	runTimeout     int
	runTag         string
	runDryRun      bool
	runWatch       bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runJSON, "json", "", "Inline JSON task definition")
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Path to a JSON task file")
	runCmd.Flags().IntVarP(&runMaxParallel, "max-parallel", "p", 0, "Worker count for independent tasks (0 = CPU count)")
	runCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "Directory for per-task log files (default: <root>/rundata)")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "Do not write per-task log files")
	runCmd.Flags().BoolVar(&runContinue, "continue-on-error", false, "Keep a worker running its chunk after a task fails")
	runCmd.Flags().IntVarP(&runTimeout, "timeout", "t", 0, "Override every task's timeout (seconds)")
	runCmd.Flags().StringVar(&runTag, "tag", "", "Only run tasks carrying this tag")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Show what would run without executing")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Re-run when the task file changes (requires --file)")
}

func runTasks(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	root, _ := cmd.Flags().GetString("root")

	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	renderer := render.Renderer{Format: format, Pretty: cfg.Output.Pretty}

	opts := buildRunOptions(cmd, cfg)

	if runWatch {
		if runFile == "" {
			return fmt.Errorf("%w (use --file, not --json, with --watch)", errors.ErrWatchUnsupported)
		}
		return watchAndRun(root, cfg, opts, renderer, logger)
	}

	set, err := loadTaskSet()
	if err != nil {
		// Machine-readable consumers still get a rendered error item on
		// stdout before the human-readable error goes to stderr.
		if renderErr := renderer.RenderTo(render.ErrorResult("parse_error", err.Error()), os.Stdout); renderErr == nil {
			fmt.Println()
		}
		return err
	}

	summary, err := runOnce(root, set, opts, renderer, logger)
	if err != nil {
		return err
	}

	if !opts.DryRun && summary.Failed > 0 && !opts.ContinueOnError {
		return ErrTasksFailed
	}
	return nil
}

// buildLogger creates the debug logger from config. An empty log dir means
// stderr would receive JSON log lines alongside the rendered output, so
// logging is disabled in that case.
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	if cfg.Logging.Dir == "" {
		return logging.NopLogger(), nil
	}
	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.MaxSizeMB > 0 {
		return logging.NewRotatingLogger(cfg.Logging.Dir, level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
	}
	return logging.NewLogger(cfg.Logging.Dir, level)
}

// buildRunOptions layers flags over config defaults. A flag the user set
// always wins; otherwise the config value applies.
func buildRunOptions(cmd *cobra.Command, cfg *config.Config) engine.RunOptions {
	opts := engine.DefaultRunOptions()
	opts.MaxParallel = cfg.Run.MaxParallel
	opts.TimeoutOverride = cfg.Run.TimeoutSeconds
	opts.SaveOutputs = cfg.Run.SaveOutputs
	opts.OutputDir = cfg.Run.OutputDir
	opts.ContinueOnError = cfg.Run.ContinueOnError

	flags := cmd.Flags()
	if flags.Changed("max-parallel") {
		opts.MaxParallel = runMaxParallel
	}
	if flags.Changed("timeout") {
		opts.TimeoutOverride = runTimeout
	}
	if flags.Changed("output-dir") {
		opts.OutputDir = runOutputDir
	}
	if flags.Changed("continue-on-error") {
		opts.ContinueOnError = runContinue
	}
	if runNoSave {
		opts.SaveOutputs = false
	}
	opts.FilterTag = runTag
	opts.DryRun = runDryRun
	return opts
}

// loadTaskSet reads the task definition from --json or --file.
func loadTaskSet() (*taskset.TaskSet, error) {
	switch {
	case runJSON != "":
		return taskset.Parse(runJSON)
	case runFile != "":
		return taskset.ParseFile(runFile)
	default:
		return nil, fmt.Errorf("%w (use --json or --file)", errors.ErrNoTaskInput)
	}
}

// runOnce executes the set, renders results to stdout, and prints the
// summary (or dry-run preview) box to stderr.
func runOnce(root string, set *taskset.TaskSet, opts engine.RunOptions, renderer render.Renderer, logger *logging.Logger) (engine.ExecutionSummary, error) {
	if opts.DryRun {
		printDryRunBox(root, set, opts)
	}

	runner := engine.NewRunner(root, logger)
	results, summary, err := runner.Execute(set, opts)
	if err != nil {
		return engine.ExecutionSummary{}, err
	}

	if err := renderer.RenderTo(render.TaskResults(results, summary), os.Stdout); err != nil {
		return engine.ExecutionSummary{}, err
	}
	fmt.Println()

	if !opts.DryRun {
		printSummaryBox(summary)
	}
	return summary, nil
}

// watchAndRun executes once, then re-runs on every debounced change to the
// task file until interrupted. Failures never exit watch mode.
func watchAndRun(root string, cfg *config.Config, opts engine.RunOptions, renderer render.Renderer, logger *logging.Logger) error {
	rerun := func() {
		set, err := taskset.ParseFile(runFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		if _, err := runOnce(root, set, opts, renderer, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	rerun()

	watcher, err := watch.New(runFile, cfg.Watch.Debounce(), rerun, logger)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	watcher.Start()

	fmt.Fprintf(os.Stderr, "Watching %s (ctrl-c to stop)\n", runFile)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)

	boxTitleStyle = lipgloss.NewStyle().Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// boxLineWidth bounds each content line inside the stderr boxes so long
// commands and paths cannot blow out the layout.
const boxLineWidth = 72

// printSummaryBox writes the run summary to stderr, keeping stdout clean
// for the rendered result set.
func printSummaryBox(summary engine.ExecutionSummary) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, summaryBox(summary))
}

func summaryBox(summary engine.ExecutionSummary) string {
	lines := []string{
		boxTitleStyle.Render("Execution Summary"),
		fmt.Sprintf("Total: %d │ %s │ %s │ %s",
			summary.Total,
			successStyle.Render(fmt.Sprintf("✓ Succeeded: %d", summary.Succeeded)),
			failureStyle.Render(fmt.Sprintf("✗ Failed: %d", summary.Failed)),
			skippedStyle.Render(fmt.Sprintf("⊘ Skipped: %d", summary.Skipped))),
		fmt.Sprintf("Duration: %dms", summary.TotalDurationMs),
	}
	if summary.OutputDir != "" {
		lines = append(lines, mutedStyle.Render(util.TruncateString("Output: "+summary.OutputDir, boxLineWidth)))
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

// printDryRunBox writes the task preview to stderr.
func printDryRunBox(root string, set *taskset.TaskSet, opts engine.RunOptions) {
	fmt.Fprintln(os.Stderr, dryRunBox(root, set, opts))
}

func dryRunBox(root string, set *taskset.TaskSet, opts engine.RunOptions) string {
	lines := []string{
		boxTitleStyle.Render(fmt.Sprintf("DRY RUN: would execute %d task(s)", set.Len())),
	}

	for _, task := range set.Tasks {
		deps := ""
		if len(task.DependsOn) > 0 {
			deps = mutedStyle.Render(" (after: " + strings.Join(task.DependsOn, ", ") + ")")
		}
		lines = append(lines,
			util.TruncateANSI(fmt.Sprintf("[%s]%s", task.ID, deps), boxLineWidth),
			mutedStyle.Render(util.TruncateANSI("  └─ "+task.Cmd, boxLineWidth)))
	}
	for _, group := range set.Groups {
		lines = append(lines, util.TruncateANSI(fmt.Sprintf("Group %q (%d tasks, parallel=%t)",
			group.Name, len(group.Tasks), group.Parallel), boxLineWidth))
		for _, task := range group.Tasks {
			lines = append(lines, mutedStyle.Render(util.TruncateANSI(fmt.Sprintf("  [%s] %s", task.ID, task.Cmd), boxLineWidth)))
		}
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(root, engine.DefaultOutputDirName)
	}
	lines = append(lines, mutedStyle.Render(util.TruncateString("Output: "+outputDir, boxLineWidth)))

	return boxStyle.Render(strings.Join(lines, "\n"))
}
