// Package tasks implements the task view controller: it owns the filter,
// fetches the task list and dispatches edits to the API.
package tasks

import (
	"tasker/internal/service"
	"tasker/internal/session"
)

// EmptyMessage is shown in place of an empty list.
const EmptyMessage = "No tasks to display"

// View is everything a renderer needs. It is derived only from the session,
// the filter and the last fetched task list.
type View struct {
	State  session.State
	Email  string
	Filter service.Filter
	Tasks  []service.Task
}

// Empty reports whether the placeholder should be rendered.
func (v View) Empty() bool {
	return len(v.Tasks) == 0
}

// Counts returns the number of completed and pending tasks in the view.
func (v View) Counts() (completed, pending int) {
	for _, t := range v.Tasks {
		if t.Completed {
			completed++
		} else {
			pending++
		}
	}
	return completed, pending
}
