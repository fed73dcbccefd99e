package tasks_test

import (
	"context"
	"errors"
	"testing"

	"tasker/internal/service"
	"tasker/internal/session"
	"tasker/internal/tasks"
	"tasker/internal/testutil"
)

// setup returns a controller with a logged-in session for ann@example.com.
func setup(t *testing.T) (*tasks.Controller, *session.Manager, *testutil.FakeAPI, string) {
	t.Helper()
	fake := testutil.NewFakeAPI()
	fake.AddUser("ann@example.com", "password1")
	sess := session.NewManager(fake, &session.MemoryStore{}, nil)
	if err := sess.Login(context.Background(), "ann@example.com", "password1"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return tasks.NewController(fake, sess, nil), sess, fake, sess.Token()
}

func titles(v tasks.View) []string {
	var out []string
	for _, t := range v.Tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestLoad_FilterSwitching(t *testing.T) {
	c, _, fake, token := setup(t)
	fake.AddTask(token, "A", "", true)
	fake.AddTask(token, "B", "", false)
	ctx := context.Background()

	steps := []struct {
		filter service.Filter
		want   []string
	}{
		{service.FilterCompleted, []string{"A"}},
		{service.FilterPending, []string{"B"}},
		{service.FilterAll, []string{"A", "B"}},
	}
	for _, s := range steps {
		c.SetFilter(s.filter)
		v, err := c.Load(ctx)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", s.filter, err)
		}
		got := titles(v)
		if len(got) != len(s.want) {
			t.Fatalf("filter %s: expected %v, got %v", s.filter, s.want, got)
		}
		for i := range got {
			if got[i] != s.want[i] {
				t.Errorf("filter %s: expected %v, got %v", s.filter, s.want, got)
			}
		}
		if v.Filter != s.filter {
			t.Errorf("expected view filter %s, got %s", s.filter, v.Filter)
		}
	}
}

func TestLoad_EmptyList(t *testing.T) {
	c, _, _, _ := setup(t)

	v, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !v.Empty() {
		t.Error("expected empty view")
	}
	if v.Email != "ann@example.com" || v.State != session.Authenticated {
		t.Errorf("unexpected view header: %+v", v)
	}
}

func TestLoad_FailureIsLoggedAndClearsList(t *testing.T) {
	c, sess, fake, token := setup(t)
	fake.AddTask(token, "A", "", false)
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	fake.ListTasksErr = testutil.ErrInjected
	v, err := c.Load(context.Background())
	if !errors.Is(err, tasks.ErrListFailed) {
		t.Fatalf("expected ErrListFailed, got %v", err)
	}
	if !v.Empty() {
		t.Error("expected list to be replaced by an empty one")
	}
	if sess.State() != session.Authenticated {
		t.Error("non-auth failures must not end the session")
	}
}

func TestLoad_UnauthorizedEndsSession(t *testing.T) {
	c, sess, fake, token := setup(t)
	fake.RevokeToken(token)

	v, err := c.Load(context.Background())
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if sess.State() != session.Anonymous || v.State != session.Anonymous {
		t.Error("expected session to end on 401")
	}
}

func TestLoad_AnonymousSendsNothing(t *testing.T) {
	fake := testutil.NewFakeAPI()
	sess := session.NewManager(fake, &session.MemoryStore{}, nil)
	c := tasks.NewController(fake, sess, nil)

	v, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v.State != session.Anonymous || !v.Empty() {
		t.Errorf("unexpected view %+v", v)
	}
	if fake.TotalCalls() != 0 {
		t.Errorf("expected no requests, got %d", fake.TotalCalls())
	}
}

func TestCreate_BlankTitleBlocked(t *testing.T) {
	c, _, fake, _ := setup(t)
	before := fake.TotalCalls()

	for _, title := range []string{"", " ", "\t\n  "} {
		if _, err := c.Create(context.Background(), title, "desc"); !errors.Is(err, tasks.ErrTitleRequired) {
			t.Errorf("Create(%q): expected ErrTitleRequired, got %v", title, err)
		}
	}
	if fake.TotalCalls() != before {
		t.Errorf("expected no requests, got %d", fake.TotalCalls()-before)
	}
}

func TestCreate_ThenReloadShowsTaskOnce(t *testing.T) {
	c, _, fake, _ := setup(t)

	v, err := c.Create(context.Background(), "  Buy milk ", " 2 litres ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if fake.Calls("ListTasks") != 1 {
		t.Errorf("expected a reload after create, got %d list calls", fake.Calls("ListTasks"))
	}
	if len(v.Tasks) != 1 {
		t.Fatalf("expected exactly one task, got %d", len(v.Tasks))
	}
	got := v.Tasks[0]
	if got.Title != "Buy milk" || got.Description != "2 litres" {
		t.Errorf("expected trimmed fields, got %+v", got)
	}
	if got.Completed || got.CompletedAt != nil {
		t.Errorf("new task must be pending without completed date, got %+v", got)
	}
}

func TestCreate_Failure(t *testing.T) {
	c, _, fake, _ := setup(t)
	fake.CreateTaskErr = testutil.ErrInjected

	_, err := c.Create(context.Background(), "Buy milk", "")
	if !errors.Is(err, tasks.ErrCreateFailed) || !errors.Is(err, testutil.ErrInjected) {
		t.Fatalf("expected ErrCreateFailed wrapping cause, got %v", err)
	}
	if fake.Calls("ListTasks") != 0 {
		t.Error("failed create must not reload")
	}
}

func TestCreate_ReloadFailureIsSilent(t *testing.T) {
	c, _, fake, _ := setup(t)
	fake.ListTasksErr = testutil.ErrInjected

	if _, err := c.Create(context.Background(), "Buy milk", ""); err != nil {
		t.Fatalf("create should succeed even if the reload fails, got %v", err)
	}
}

func TestOpenEdit(t *testing.T) {
	c, _, fake, token := setup(t)
	task := fake.AddTask(token, "A", "desc", false)

	got, err := c.OpenEdit(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("OpenEdit failed: %v", err)
	}
	if got.Title != "A" || got.Description != "desc" {
		t.Errorf("unexpected task %+v", got)
	}

	_, err = c.OpenEdit(context.Background(), 999)
	if !errors.Is(err, tasks.ErrLoadFailed) || !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrLoadFailed wrapping ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	c, _, fake, token := setup(t)
	task := fake.AddTask(token, "A", "", false)

	v, err := c.Update(context.Background(), task.ID, service.TaskUpdate{Title: " A2 ", Description: "d", Completed: true})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(v.Tasks) != 1 || v.Tasks[0].Title != "A2" || !v.Tasks[0].Completed || v.Tasks[0].CompletedAt == nil {
		t.Errorf("unexpected view after update: %+v", v.Tasks)
	}
}

func TestUpdate_BlankTitleBlocked(t *testing.T) {
	c, _, fake, token := setup(t)
	task := fake.AddTask(token, "A", "", false)

	_, err := c.Update(context.Background(), task.ID, service.TaskUpdate{Title: "   "})
	if !errors.Is(err, tasks.ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	if fake.Calls("UpdateTask") != 0 {
		t.Error("expected no update request")
	}
}

func TestUpdate_Failure(t *testing.T) {
	c, _, fake, token := setup(t)
	task := fake.AddTask(token, "A", "", false)
	fake.UpdateTaskErr = testutil.ErrInjected

	if _, err := c.Update(context.Background(), task.ID, service.TaskUpdate{Title: "A"}); !errors.Is(err, tasks.ErrUpdateFailed) {
		t.Fatalf("expected ErrUpdateFailed, got %v", err)
	}
}

func TestDelete_Declined(t *testing.T) {
	c, _, fake, token := setup(t)
	task := fake.AddTask(token, "A", "", false)

	var asked int64
	_, deleted, err := c.Delete(context.Background(), task.ID, func(id int64) bool {
		asked = id
		return false
	})
	if err != nil || deleted {
		t.Fatalf("expected no deletion, got deleted=%v err=%v", deleted, err)
	}
	if asked != task.ID {
		t.Errorf("expected confirmation for %d, got %d", task.ID, asked)
	}
	if fake.Calls("DeleteTask") != 0 || len(fake.Tasks(token)) != 1 {
		t.Error("declined delete must leave the list unchanged")
	}
}

func TestDelete_NilConfirmerDeclines(t *testing.T) {
	c, _, fake, token := setup(t)
	task := fake.AddTask(token, "A", "", false)

	_, deleted, err := c.Delete(context.Background(), task.ID, nil)
	if err != nil || deleted {
		t.Fatalf("expected no deletion, got deleted=%v err=%v", deleted, err)
	}
	if fake.Calls("DeleteTask") != 0 || len(fake.Tasks(token)) != 1 {
		t.Error("delete without a confirmer must leave the list unchanged")
	}
}

func TestDelete_Confirmed(t *testing.T) {
	c, _, fake, token := setup(t)
	task := fake.AddTask(token, "A", "", false)
	fake.AddTask(token, "B", "", false)

	v, deleted, err := c.Delete(context.Background(), task.ID, func(int64) bool { return true })
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got deleted=%v err=%v", deleted, err)
	}
	if fake.Calls("ListTasks") != 1 {
		t.Error("expected reload after delete")
	}
	if got := titles(v); len(got) != 1 || got[0] != "B" {
		t.Errorf("expected only B left, got %v", got)
	}
}

func TestDelete_Failure(t *testing.T) {
	c, _, _, _ := setup(t)

	_, deleted, err := c.Delete(context.Background(), 42, func(int64) bool { return true })
	if deleted || !errors.Is(err, tasks.ErrDeleteFailed) {
		t.Fatalf("expected ErrDeleteFailed, got deleted=%v err=%v", deleted, err)
	}
}

func TestView_Counts(t *testing.T) {
	v := tasks.View{Tasks: []service.Task{{Completed: true}, {}, {}}}
	done, pending := v.Counts()
	if done != 1 || pending != 2 {
		t.Errorf("expected 1/2, got %d/%d", done, pending)
	}
}

func TestNewController_DefaultsToAll(t *testing.T) {
	c, _, _, _ := setup(t)

	if c.Filter() != service.FilterAll {
		t.Errorf("expected filter all, got %s", c.Filter())
	}
	c.SetFilter(service.FilterPending)
	if c.Filter() != service.FilterPending {
		t.Errorf("expected filter pending, got %s", c.Filter())
	}
}
