package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/query"
	"github.com/Joseda-hg/lazytodo/internal/reminder"
	"github.com/Joseda-hg/lazytodo/internal/store"
)

type Server struct {
	store         *store.Store
	history       *db.HistoryLog
	notifications *reminder.Recorder
	logger        *slog.Logger
	now           func() time.Time
}

type taskView struct {
	model.Task
	Overdue  bool   `json:"overdue"`
	DueLabel string `json:"dueLabel,omitempty"`
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
}

type reorderRequest struct {
	SourceID model.TaskID `json:"sourceId"`
	TargetID model.TaskID `json:"targetId"`
}

func NewServer(st *store.Store, history *db.HistoryLog, notifications *reminder.Recorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, history: history, notifications: notifications, logger: logger, now: time.Now}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", s.listTasksHandler)
	mux.HandleFunc("POST /api/tasks", s.createTaskHandler)
	mux.HandleFunc("POST /api/tasks/reorder", s.reorderHandler)
	mux.HandleFunc("GET /api/tasks/{id}", s.getTaskHandler)
	mux.HandleFunc("PUT /api/tasks/{id}", s.updateTaskHandler)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.deleteTaskHandler)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", s.toggleTaskHandler)
	mux.HandleFunc("GET /api/tasks/{id}/history", s.historyHandler)
	mux.HandleFunc("GET /api/stats", s.statsHandler)
	mux.HandleFunc("GET /api/notifications", s.notificationsHandler)
	return mux
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks := query.Project(s.store.Snapshot(), filterFromRequest(r))
	now := s.now()

	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, s.viewOf(task, now))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	input, err := decodeTaskRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	task, err := s.store.Create(r.Context(), input)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.viewOf(task, s.now()))
}

func (s *Server) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Get(model.TaskID(r.PathValue("id")))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(task, s.now()))
}

func (s *Server) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	input, err := decodeTaskRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	task, err := s.store.Update(r.Context(), model.TaskID(r.PathValue("id")), input)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(task, s.now()))
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), model.TaskID(r.PathValue("id"))); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.ToggleComplete(r.Context(), model.TaskID(r.PathValue("id")))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(task, s.now()))
}

func (s *Server) reorderHandler(w http.ResponseWriter, r *http.Request) {
	var body reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.Reorder(r.Context(), body.SourceID, body.TargetID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []model.HistoryEntry{})
		return
	}
	history, err := s.history.List(r.Context(), model.TaskID(r.PathValue("id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, query.ComputeStats(s.store.Snapshot()))
}

func (s *Server) notificationsHandler(w http.ResponseWriter, _ *http.Request) {
	events := []reminder.Event{}
	if s.notifications != nil {
		events = s.notifications.Recent()
	}

	type notification struct {
		reminder.Event
		Message string `json:"message"`
	}
	payload := make([]notification, 0, len(events))
	for _, event := range events {
		payload = append(payload, notification{Event: event, Message: event.Message()})
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) viewOf(task model.Task, now time.Time) taskView {
	view := taskView{Task: task, Overdue: query.IsOverdue(task.DueDate, task.Completed, now)}
	if task.DueDate != nil {
		view.DueLabel = query.DueLabel(*task.DueDate, now)
	}
	return view
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		s.logger.Error("store operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func filterFromRequest(r *http.Request) model.Filter {
	return model.Filter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Query:    strings.TrimSpace(r.URL.Query().Get("q")),
	}
}

func decodeTaskRequest(r *http.Request) (model.TaskInput, error) {
	var body taskRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return model.TaskInput{}, err
	}
	due, err := model.ParseDue(body.DueDate, time.Local)
	if err != nil {
		return model.TaskInput{}, err
	}
	return model.TaskInput{
		Title:       body.Title,
		Description: body.Description,
		Category:    model.Category(body.Category),
		Priority:    model.Priority(body.Priority),
		DueDate:     due,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
