package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/model"
	"inkwell/internal/writing"

	"github.com/go-chi/chi/v5"
)

type ProjectHandler struct {
	Svc *writing.Coordinator
}

type projectReq struct {
	Name            *string              `json:"name"`
	Description     *string              `json:"description"`
	Status          *model.ProjectStatus `json:"status"`
	TargetWordCount *int                 `json:"targetWordCount"`
	StartDate       dateField            `json:"startDate"` // RFC3339 or YYYY-MM-DD
	DueDate         dateField            `json:"dueDate"`
	Tags            *[]string            `json:"tags"`
}

// dateField remembers whether its key was present, so that null or "" can
// clear a date while an absent key leaves it alone.
type dateField struct {
	Set   bool
	Value *string
}

func (d *dateField) UnmarshalJSON(b []byte) error {
	d.Set = true
	if string(b) == "null" {
		d.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	d.Value = &s
	return nil
}

func (d dateField) cleared() bool {
	return d.Set && (d.Value == nil || strings.TrimSpace(*d.Value) == "")
}

func (req projectReq) dates(w http.ResponseWriter) (start, due *time.Time, ok bool) {
	if start, ok = parseDate(req.StartDate.Value); !ok {
		http.Error(w, "invalid startDate", http.StatusBadRequest)
		return nil, nil, false
	}
	if due, ok = parseDate(req.DueDate.Value); !ok {
		http.Error(w, "invalid dueDate", http.StatusBadRequest)
		return nil, nil, false
	}
	return start, due, true
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req projectReq
	if !decode(w, r, &req) {
		return
	}
	start, due, ok := req.dates(w)
	if !ok {
		return
	}
	in := writing.ProjectInput{StartDate: start, DueDate: due}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.TargetWordCount != nil {
		in.TargetWordCount = *req.TargetWordCount
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
	}

	p, err := h.Svc.CreateProject(r.Context(), uid, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	ps, err := h.Svc.ListProjects(r.Context(), uid, writing.ProjectFilter{
		Status: model.ProjectStatus(q.Get("status")),
		Search: q.Get("q"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	p, err := h.Svc.GetProject(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req projectReq
	if !decode(w, r, &req) {
		return
	}
	start, due, ok := req.dates(w)
	if !ok {
		return
	}
	p, err := h.Svc.UpdateProject(r.Context(), uid, chi.URLParam(r, "id"), writing.ProjectPatch{
		Name:            req.Name,
		Description:     req.Description,
		Status:          req.Status,
		TargetWordCount: req.TargetWordCount,
		StartDate:       start,
		DueDate:         due,
		Tags:            req.Tags,
		ClearStartDate:  req.StartDate.cleared(),
		ClearDueDate:    req.DueDate.cleared(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Svc.DeleteProject(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type collaboratorReq struct {
	Email string `json:"email"`
}

func (h *ProjectHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req collaboratorReq
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Svc.AddCollaborator(r.Context(), uid, chi.URLParam(r, "id"), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	p, err := h.Svc.RemoveCollaborator(r.Context(), uid, chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
