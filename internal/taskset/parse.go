package taskset

import (
	"encoding/json"
	"os"

	"github.com/Iron-Ham/runlet/internal/errors"
)

// Parse turns a task definition blob into a TaskSet. Three JSON shapes are
// accepted, tried strictly in this order with the first success winning:
//
//  1. a single task object, accepted only when both id and cmd are set
//  2. an array of task objects, accepted only when non-empty and every
//     element has id and cmd
//  3. a full task set object, accepted only when tasks or groups is
//     non-empty and every task has id and cmd
//
// The order matters: a single task object is syntactically also a valid
// (degenerate) task set, so the most specific shape is tried first. Each
// attempt is validated for meaningful content before acceptance; a decode
// that merely succeeds on an empty or mismatched document falls through to
// the next shape.
func Parse(input string) (*TaskSet, error) {
	data := []byte(input)

	// Tracks whether some shape decoded cleanly but held no tasks, so the
	// final error can distinguish "empty" from "malformed".
	decodedEmpty := false

	// Shape 1: single task.
	var task Task
	if err := json.Unmarshal(data, &task); err == nil {
		if task.ID != "" && task.Cmd != "" {
			return &TaskSet{Name: "single", Tasks: []Task{task}}, nil
		}
		decodedEmpty = true
	}

	// Shape 2: array of tasks. Every element must carry id and cmd; a
	// lenient decode of partial objects does not count as a match.
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err == nil {
		if len(tasks) > 0 && allComplete(tasks) {
			return &TaskSet{Name: "tasks", Tasks: tasks}, nil
		}
		decodedEmpty = decodedEmpty || len(tasks) == 0
	}

	// Shape 3: full task set, with the same per-task completeness check.
	var set TaskSet
	if err := json.Unmarshal(data, &set); err == nil {
		if len(set.Tasks) > 0 || len(set.Groups) > 0 {
			if setComplete(&set) {
				return &set, nil
			}
		} else {
			decodedEmpty = true
		}
	}

	if decodedEmpty {
		return nil, errors.NewParseError("task definition contains no tasks", errors.ErrEmptyTaskSet)
	}
	return nil, errors.NewParseError("failed to parse task definition", nil)
}

// allComplete reports whether every task has both id and cmd set.
func allComplete(tasks []Task) bool {
	for i := range tasks {
		if tasks[i].ID == "" || tasks[i].Cmd == "" {
			return false
		}
	}
	return true
}

// setComplete reports whether every task in the set, grouped or
// standalone, has both id and cmd set.
func setComplete(set *TaskSet) bool {
	if !allComplete(set.Tasks) {
		return false
	}
	for i := range set.Groups {
		if !allComplete(set.Groups[i].Tasks) {
			return false
		}
	}
	return true
}

// ParseFile reads a task definition from path and parses it.
func ParseFile(path string) (*TaskSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewTaskError("read task file", err)
	}
	return Parse(string(data))
}
