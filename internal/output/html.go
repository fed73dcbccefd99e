package output

import (
	"html/template"
	"io"

	"tasker/internal/service"
	"tasker/internal/tasks"
)

// html/template escapes every interpolated value for its context, so task
// content (& < > " ') can never turn into markup.
var htmlTemplate = template.Must(template.New("tasks").Funcs(template.FuncMap{
	"date": FormatTime,
	"status": func(t service.Task) string {
		if t.Completed {
			return "completed"
		}
		return "pending"
	},
}).Parse(`<div class="tasks-list" data-filter="{{.Filter}}">
{{- if .Empty}}
  <div class="no-tasks-message">{{.Message}}</div>
{{- else}}
{{- range .Tasks}}
  <div class="task-item {{status .}}" data-id="{{.ID}}">
    <div class="task-header">
      <h3 class="task-title">{{.Title}}</h3>
    </div>
    <div class="task-description">{{.Description}}</div>
    <div class="task-meta">
      <span class="task-status status-{{status .}}">{{if .Completed}}Completed{{else}}Pending{{end}}</span>
      <span class="task-date">Created: {{date .CreatedAt}}</span>
      {{- if .CompletedAt}}
      <span class="task-completed-date"> • Completed on: {{date .CompletedAt}}</span>
      {{- end}}
    </div>
  </div>
{{- end}}
{{- end}}
</div>
`))

// HTML writes v as an HTML fragment.
func HTML(w io.Writer, v tasks.View) error {
	return htmlTemplate.Execute(w, struct {
		tasks.View
		Empty   bool
		Message string
	}{
		View:    v,
		Empty:   v.Empty(),
		Message: tasks.EmptyMessage,
	})
}
