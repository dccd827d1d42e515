// Package render defines the unified result model that command output maps
// into before rendering, and the renderer that turns a result set into one
// of the supported output formats.
package render

import (
	"github.com/Iron-Ham/runlet/internal/engine"
	"github.com/Iron-Ham/runlet/internal/util"
)

// ExcerptLimit bounds the combined output excerpt carried by a result item.
// Full output lives in the persisted log file the item points at.
const ExcerptLimit = 4096

// Kind classifies a result item.
type Kind string

const (
	// KindFlow marks an item produced by executing a task.
	KindFlow Kind = "flow"

	// KindError marks an item carrying only an error.
	KindError Kind = "error"
)

// ItemError is a coded error attached to a result item.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries item metadata.
type Meta struct {
	// Truncated reports that the item's excerpt was cut at ExcerptLimit.
	Truncated bool `json:"truncated"`
}

// ResultItem is the unit of rendered output. Every command maps its results
// into items before any format-specific rendering happens.
type ResultItem struct {
	Kind    Kind        `json:"kind"`
	Path    string      `json:"path,omitempty"`
	Excerpt string      `json:"excerpt,omitempty"`
	Data    any         `json:"data,omitempty"`
	Meta    Meta        `json:"meta"`
	Errors  []ItemError `json:"errors,omitempty"`
}

// ResultSet is an ordered collection of result items.
type ResultSet struct {
	Items []ResultItem `json:"items"`
}

// Push appends an item.
func (s *ResultSet) Push(item ResultItem) {
	s.Items = append(s.Items, item)
}

// taskData is the structured payload attached to each task item.
type taskData struct {
	TaskID     string `json:"task_id"`
	ExitCode   *int   `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// summaryData wraps the run summary for the trailing summary item.
type summaryData struct {
	Summary engine.ExecutionSummary `json:"summary"`
}

// TaskResults converts an engine run into a result set: one flow item per
// task, in result order, followed by a single summary item. Combined
// stdout/stderr is excerpted at ExcerptLimit; the item's path points at the
// persisted log file when one was written.
func TaskResults(results []engine.TaskResult, summary engine.ExecutionSummary) *ResultSet {
	set := &ResultSet{Items: make([]ResultItem, 0, len(results)+1)}

	for i := range results {
		r := &results[i]

		item := ResultItem{
			Kind: KindFlow,
			Path: r.OutputFile,
			Data: taskData{
				TaskID:     r.ID,
				ExitCode:   r.ExitCode,
				DurationMs: r.DurationMs,
				Success:    r.Success,
				Error:      r.Error,
			},
			Meta: Meta{
				Truncated: len(r.Stdout) > ExcerptLimit || len(r.Stderr) > ExcerptLimit,
			},
		}

		if r.Stdout != "" || r.Stderr != "" {
			combined := r.Stdout
			if r.Stderr != "" {
				combined += "\n[STDERR]\n" + r.Stderr
			}
			item.Excerpt = util.Excerpt(combined, ExcerptLimit)
		}
		if r.Error != "" {
			item.Errors = []ItemError{{Code: "task_error", Message: r.Error}}
		}

		set.Push(item)
	}

	set.Push(ResultItem{
		Kind: KindFlow,
		Data: summaryData{Summary: summary},
	})
	return set
}

// ErrorResult builds a single-item set carrying one coded error, for
// failures that happen before any task runs.
func ErrorResult(code, message string) *ResultSet {
	return &ResultSet{Items: []ResultItem{{
		Kind:   KindError,
		Errors: []ItemError{{Code: code, Message: message}},
	}}}
}
