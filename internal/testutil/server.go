package testutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tasker/internal/service"
)

// NewServer starts an HTTP server that exposes api under /api with the same
// routes, status codes and error bodies as the task tracker API.
// The server is closed when the test ends.
func NewServer(t interface{ Cleanup(func()) }, api service.API) *httptest.Server {
	h := &apiHandler{api: api}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/user", h.register)
		r.Post("/auth/login", h.login)

		r.Get("/user", h.currentUser)
		r.Get("/tasks", h.listTasks)
		r.Post("/tasks", h.createTask)
		r.Get("/tasks/{id}", h.getTask)
		r.Put("/tasks/{id}", h.updateTask)
		r.Delete("/tasks/{id}", h.deleteTask)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type apiHandler struct {
	api service.API
}

func (h *apiHandler) register(w http.ResponseWriter, r *http.Request) {
	var creds service.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	token, err := h.api.Register(r.Context(), creds)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *apiHandler) login(w http.ResponseWriter, r *http.Request) {
	var creds service.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	token, err := h.api.Login(r.Context(), creds)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *apiHandler) currentUser(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(w, r)
	if !ok {
		return
	}
	user, err := h.api.CurrentUser(r.Context(), token)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *apiHandler) listTasks(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(w, r)
	if !ok {
		return
	}
	filter := service.FilterAll
	if s := r.URL.Query().Get("completed"); s != "" {
		completed, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid completed parameter")
			return
		}
		filter = service.FilterPending
		if completed {
			filter = service.FilterCompleted
		}
	}
	tasks, err := h.api.ListTasks(r.Context(), token, filter)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]service.Task{"tasks": tasks})
}

func (h *apiHandler) createTask(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(w, r)
	if !ok {
		return
	}
	var in service.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	task, err := h.api.CreateTask(r.Context(), token, in)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *apiHandler) getTask(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	task, err := h.api.GetTask(r.Context(), token, id)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *apiHandler) updateTask(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	var upd service.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	task, err := h.api.UpdateTask(r.Context(), token, id, upd)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *apiHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	if err := h.api.DeleteTask(r.Context(), token, id); err != nil {
		writeAPIError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		writeError(w, http.StatusUnauthorized, "authorization header must be in format: Bearer {token}")
		return "", false
	}
	return parts[1], true
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task ID")
		return 0, false
	}
	return id, true
}

func writeAPIError(w http.ResponseWriter, err error) {
	var se *service.StatusError
	if errors.As(err, &se) {
		writeError(w, se.Code, se.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
