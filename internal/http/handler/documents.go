package handler

import (
	"net/http"
	"strconv"

	"inkwell/internal/auth"
	"inkwell/internal/model"
	"inkwell/internal/writing"

	"github.com/go-chi/chi/v5"
)

type DocumentHandler struct {
	Svc *writing.Coordinator
}

type createDocumentReq struct {
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Pages     []model.Page `json:"pages"`
	Status    string       `json:"status"`
	ProjectID *string      `json:"project"`
}

type updateDocumentReq struct {
	Title         *string              `json:"title"`
	Content       *string              `json:"content"`
	Status        *string              `json:"status"`
	Notes         *string              `json:"notes"`
	Pages         *[]model.Page        `json:"pages"`
	WorldBuilding *model.WorldBuilding `json:"worldBuilding"`
}

func (h *DocumentHandler) create(w http.ResponseWriter, r *http.Request, projectID *string) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createDocumentReq
	if !decode(w, r, &req) {
		return
	}
	if projectID == nil {
		projectID = req.ProjectID
	}
	d, err := h.Svc.CreateDocument(r.Context(), writing.CreateDocumentInput{
		OwnerID:   uid,
		ProjectID: projectID,
		Title:     req.Title,
		Content:   req.Content,
		Pages:     req.Pages,
		Status:    req.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// Create handles POST /documents; the project, if any, comes from the body.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, nil)
}

// CreateInProject handles POST /projects/{id}/documents.
func (h *DocumentHandler) CreateInProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.create(w, r, &id)
}

func (h *DocumentHandler) list(w http.ResponseWriter, r *http.Request, f writing.DocumentFilter) {
	uid, _ := auth.UserIDFromContext(r.Context())
	docs, err := h.Svc.ListDocuments(r.Context(), uid, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// List serves ?project=<id> and ?standalone=true.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := writing.DocumentFilter{ProjectID: q.Get("project")}
	if v := q.Get("standalone"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid standalone", http.StatusBadRequest)
			return
		}
		f.Standalone = b
	}
	h.list(w, r, f)
}

func (h *DocumentHandler) ListInProject(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, writing.DocumentFilter{ProjectID: chi.URLParam(r, "id")})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	d, err := h.Svc.GetDocument(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req updateDocumentReq
	if !decode(w, r, &req) {
		return
	}
	d, err := h.Svc.UpdateDocument(r.Context(), uid, chi.URLParam(r, "id"), writing.DocumentPatch{
		Title:         req.Title,
		Content:       req.Content,
		Status:        req.Status,
		Notes:         req.Notes,
		Pages:         req.Pages,
		WorldBuilding: req.WorldBuilding,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Svc.DeleteDocument(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
