package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/finchrobotics/fleet-core/internal/schedule"
)

// createTaskRequest is the body of POST /api/v1/tasks.
type createTaskRequest struct {
	Instruction string `json:"instruction"`
	Site        string `json:"site"`
	DryRun      bool   `json:"dryRun"`
}

// createTaskResponse pairs the plan with its persisted record.
// Task is null for dry runs.
type createTaskResponse struct {
	Task   *schedule.Task `json:"task"`
	Plan   schedule.Plan  `json:"plan"`
	DryRun bool           `json:"dryRun"`
}

// handleCreateTask plans an instruction against the current fleet.
//
// The candidate set is the cache snapshot, optionally narrowed to a
// site. With dryRun the plan is returned without creating a task
// record; otherwise the task is persisted and returned alongside the
// plan.
//
// POST /api/v1/tasks
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		writeBadRequest(w, "instruction required")
		return
	}

	robots := schedule.FilterBySite(s.cache.SnapshotAll(), req.Site)
	plan := schedule.BuildPlan(s.extractor, req.Instruction, req.Site, robots)

	if req.DryRun {
		writeJSON(w, http.StatusOK, createTaskResponse{Task: nil, Plan: plan, DryRun: true})
		return
	}

	if s.tasks == nil {
		writeInternalError(w, "task store unavailable")
		return
	}

	task := schedule.NewTask(plan)
	if err := s.tasks.Save(r.Context(), task); err != nil {
		s.logger.Error("saving task", "task_id", task.ID, "error", err)
		writeInternalError(w, "saving task")
		return
	}

	writeJSON(w, http.StatusOK, createTaskResponse{Task: &task, Plan: plan, DryRun: false})
}

// handleListTasks returns all stored tasks, newest first.
//
// GET /api/v1/tasks
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if s.tasks == nil {
		writeInternalError(w, "task store unavailable")
		return
	}

	tasks, err := s.tasks.List(r.Context())
	if err != nil {
		s.logger.Error("listing tasks", "error", err)
		writeInternalError(w, "listing tasks")
		return
	}
	if tasks == nil {
		tasks = []schedule.Task{}
	}

	writeJSON(w, http.StatusOK, tasks)
}

// handleGetTask returns one stored task.
//
// GET /api/v1/tasks/{id}
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	if s.tasks == nil {
		writeInternalError(w, "task store unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	task, err := s.tasks.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, schedule.ErrTaskNotFound) {
			writeNotFound(w, "task not found: "+id)
			return
		}
		s.logger.Error("reading task", "task_id", id, "error", err)
		writeInternalError(w, "reading task")
		return
	}

	writeJSON(w, http.StatusOK, task)
}
