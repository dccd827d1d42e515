// Package taskset defines the declarative task model and its parser.
//
// A task set is a JSON document describing shell tasks with scheduling
// metadata: dependencies, tags, timeouts, per-task environment and working
// directories. Tasks may be standalone or organized into groups; the
// execution engine flattens both into one ordered list.
//
// [Parse] accepts three input shapes so that callers can pass anything from
// a one-liner to a full structured set:
//
//	{"id": "scan", "cmd": "rg TODO src/"}
//
//	[
//	  {"id": "build", "cmd": "go build ./..."},
//	  {"id": "test", "cmd": "go test ./...", "depends_on": ["build"]}
//	]
//
//	{
//	  "name": "ci",
//	  "groups": [{"name": "lint", "tasks": [...]}],
//	  "tasks": [...]
//	}
package taskset
