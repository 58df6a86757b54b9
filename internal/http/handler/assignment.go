package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jaekwang-park/homework-api/internal/engine"
	"github.com/jaekwang-park/homework-api/internal/model"
	"github.com/jaekwang-park/homework-api/internal/service"
)

type AssignmentHandler struct {
	svc *service.AssignmentService
	now func() time.Time
}

// NewAssignmentHandler uses now as the reference instant for overdue and
// due-date classification; nil means time.Now.
func NewAssignmentHandler(svc *service.AssignmentService, now func() time.Time) *AssignmentHandler {
	if now == nil {
		now = time.Now
	}
	return &AssignmentHandler{svc: svc, now: now}
}

type assignmentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

func (req assignmentRequest) input() (service.AssignmentInput, error) {
	due, err := service.ParseDueDate(req.DueDate)
	if err != nil {
		return service.AssignmentInput{}, err
	}
	return service.AssignmentInput{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Priority:    model.Priority(req.Priority),
		DueDate:     due,
	}, nil
}

type assignmentResponse struct {
	model.Assignment
	Due engine.DueStatus `json:"due"`
}

type listResponse struct {
	Assignments       []assignmentResponse `json:"assignments"`
	Stats             engine.Stats         `json:"stats"`
	CompletionPercent *int                 `json:"completion_percent,omitempty"`
}

func (h *AssignmentHandler) withDue(a model.Assignment, now time.Time) assignmentResponse {
	return assignmentResponse{Assignment: a, Due: engine.ClassifyDueDate(a.DueDate, now)}
}

// List handles GET /assignments?q=&filter=&sort=&tz=.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := engine.ParseFilterBy(q.Get("filter"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	sort, err := engine.ParseSortBy(q.Get("sort"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	loc, err := parseZone(q.Get(zoneParam))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	now := inZone(h.now(), loc)
	view := engine.DefaultView().WithSearch(q.Get("q")).WithFilter(filter).WithSort(sort)
	result, err := h.svc.View(r.Context(), getUserID(r), view, now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := listResponse{
		Assignments: make([]assignmentResponse, 0, len(result.Assignments)),
		Stats:       result.Stats,
	}
	for _, a := range result.Assignments {
		resp.Assignments = append(resp.Assignments, h.withDue(a, now))
	}
	if pct, ok := result.Stats.CompletionPercent(); ok {
		resp.CompletionPercent = &pct
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", http.StatusCreated)
}

func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *AssignmentHandler) save(w http.ResponseWriter, r *http.Request, targetID string, status int) {
	var req assignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input, err := req.input()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	saved, err := h.svc.Save(r.Context(), getUserID(r), targetID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, status, h.withDue(saved, h.now()))
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), getUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.withDue(a, h.now()))
}

func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), getUserID(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completedRequest struct {
	Completed *bool `json:"completed"`
}

// SetCompleted handles PATCH /assignments/{id}/completed.
func (h *AssignmentHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	var req completedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Completed == nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "completed is required")
		return
	}

	a, err := h.svc.SetCompleted(r.Context(), getUserID(r), chi.URLParam(r, "id"), *req.Completed)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.withDue(a, h.now()))
}

// Classify handles GET /assignments/classify?due=RFC3339.
func (h *AssignmentHandler) Classify(w http.ResponseWriter, r *http.Request) {
	due, err := service.ParseDueDate(r.URL.Query().Get("due"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, engine.ClassifyDueDate(due, h.now()))
}
