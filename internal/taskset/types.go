package taskset

import "encoding/json"

// DefaultTimeoutSeconds is the per-task timeout applied when a task
// definition does not specify one.
const DefaultTimeoutSeconds = 300

// Task is one shell command with its scheduling metadata. A task is
// immutable once parsed; the engine never writes back into it.
type Task struct {
	// ID uniquely identifies the task within a run.
	ID string `json:"id"`

	// Cmd is the shell command to execute.
	Cmd string `json:"cmd"`

	// Cwd is the working directory, relative to the run root.
	Cwd string `json:"cwd,omitempty"`

	// Env holds environment variables added to the child's environment.
	Env map[string]string `json:"env,omitempty"`

	// Timeout is the per-task timeout in seconds (default 300).
	Timeout int `json:"timeout,omitempty"`

	// DependsOn lists task IDs that must succeed before this task runs.
	DependsOn []string `json:"depends_on,omitempty"`

	// Tags are free-form labels used for filtering.
	Tags []string `json:"tags,omitempty"`

	// Description is documentation only and has no runtime effect.
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON applies the default timeout before decoding so that an
// absent "timeout" field yields DefaultTimeoutSeconds.
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	aux := alias{Timeout: DefaultTimeoutSeconds}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Task(aux)
	return nil
}

// HasTag reports whether the task carries the given tag.
func (t *Task) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// Independent reports whether the task has no dependencies and is
// therefore eligible for the parallel phase.
func (t *Task) Independent() bool {
	return len(t.DependsOn) == 0
}

// TaskGroup organizes related tasks. Group membership is not preserved in
// results; the scheduler flattens all groups into one execution list.
type TaskGroup struct {
	// Name identifies the group.
	Name string `json:"name"`

	// Tasks are the tasks in this group, in declaration order.
	Tasks []Task `json:"tasks"`

	// Parallel is informational (default true): the scheduler already
	// parallelizes every independent task regardless of group membership.
	Parallel bool `json:"parallel"`

	// ContinueOnError is informational at group level (default false);
	// the run-level option governs worker stop behavior.
	ContinueOnError bool `json:"continue_on_error"`
}

// UnmarshalJSON applies the Parallel default (true) before decoding.
func (g *TaskGroup) UnmarshalJSON(data []byte) error {
	type alias TaskGroup
	aux := alias{Parallel: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*g = TaskGroup(aux)
	return nil
}

// TaskSet is the full declarative input for one execution run: groups plus
// standalone tasks.
type TaskSet struct {
	// Name of the task set.
	Name string `json:"name,omitempty"`

	// Groups of related tasks.
	Groups []TaskGroup `json:"groups,omitempty"`

	// Tasks are standalone tasks not belonging to any group.
	Tasks []Task `json:"tasks,omitempty"`
}

// Flatten returns every task in the set as a single ordered list: group
// tasks first (in group order), then standalone tasks. This is the order
// the scheduler executes in.
func (s *TaskSet) Flatten() []Task {
	out := make([]Task, 0, s.Len())
	for _, g := range s.Groups {
		out = append(out, g.Tasks...)
	}
	out = append(out, s.Tasks...)
	return out
}

// Len returns the total number of tasks across groups and standalone tasks.
func (s *TaskSet) Len() int {
	n := len(s.Tasks)
	for _, g := range s.Groups {
		n += len(g.Tasks)
	}
	return n
}
