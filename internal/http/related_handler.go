package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gazetteer-data/internal/repository"
	"gazetteer-data/internal/service"

	"go.uber.org/zap"
)

const relatedSessionsPath = apiPrefix + "/related/sessions"

// RelatedHandler serves related-properties selection sessions.
type RelatedHandler struct {
	svc    *service.RelatedService
	logger *zap.Logger
}

func NewRelatedHandler(svc *service.RelatedService, logger *zap.Logger) *RelatedHandler {
	return &RelatedHandler{svc: svc, logger: logger}
}

// ServeHTTP routes:
//
//	POST   /related/sessions              open
//	GET    /related/sessions/{id}[/tree]  tree
//	DELETE /related/sessions/{id}         close
//	POST   /related/sessions/{id}/toggle|select|expand|reload
//	GET    /related/sessions/{id}/export
func (h *RelatedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, relatedSessionsPath), "/")
	if rest == "" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Open(w, r)
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	switch {
	case action == "" && r.Method == http.MethodDelete:
		h.Close(w, r, id)
	case (action == "" || action == "tree") && r.Method == http.MethodGet:
		h.Tree(w, r, id)
	case action == "toggle" && r.Method == http.MethodPost:
		h.Toggle(w, r, id)
	case action == "select" && r.Method == http.MethodPost:
		h.Select(w, r, id)
	case action == "expand" && r.Method == http.MethodPost:
		h.Expand(w, r, id)
	case action == "reload" && r.Method == http.MethodPost:
		h.Reload(w, r, id)
	case action == "export" && r.Method == http.MethodGet:
		h.Export(w, r, id)
	case action == "" || action == "tree" || action == "toggle" || action == "select" ||
		action == "expand" || action == "reload" || action == "export":
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *RelatedHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeJSON(w, http.StatusOK, Fail("session not found"))
	case errors.Is(err, repository.ErrPropertyNotFound):
		writeJSON(w, http.StatusOK, Fail("property not found"))
	case errors.Is(err, service.ErrStaleLoad):
		writeJSON(w, http.StatusOK, Fail("load superseded"))
	default:
		writeJSON(w, http.StatusOK, Fail(err.Error()))
	}
}

// Open handles POST /related/sessions with {usrn} or {uprn}.
func (h *RelatedHandler) Open(w http.ResponseWriter, r *http.Request) {
	var key service.LoadKey
	if err := readBodyJSON(r, maxBodyBytes, &key); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	view, err := h.svc.OpenSession(r.Context(), key)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

func (h *RelatedHandler) Close(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.CloseSession(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"session_id": id}))
}

func (h *RelatedHandler) Tree(w http.ResponseWriter, r *http.Request, id string) {
	view, err := h.svc.Tree(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// Toggle handles {uprn, modifier}.
func (h *RelatedHandler) Toggle(w http.ResponseWriter, r *http.Request, id string) {
	var payload struct {
		Uprn     uprnParam `json:"uprn"`
		Modifier bool      `json:"modifier"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	view, err := h.svc.Toggle(r.Context(), id, string(payload.Uprn), payload.Modifier)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// Select handles {mode, status}.
func (h *RelatedHandler) Select(w http.ResponseWriter, r *http.Request, id string) {
	var req service.SelectRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	view, err := h.svc.Select(r.Context(), id, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// Expand handles {uprn} to toggle one node, or {all: true} / {none: true}.
func (h *RelatedHandler) Expand(w http.ResponseWriter, r *http.Request, id string) {
	var payload struct {
		Uprn uprnParam `json:"uprn"`
		All  bool      `json:"all"`
		None bool      `json:"none"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	var view *service.TreeView
	var err error
	switch {
	case payload.All:
		view, err = h.svc.ExpandAll(r.Context(), id)
	case payload.None:
		view, err = h.svc.CollapseAll(r.Context(), id)
	default:
		view, err = h.svc.ToggleExpanded(r.Context(), id, string(payload.Uprn))
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// Reload repeats the last load, or loads a new key when the body carries one.
func (h *RelatedHandler) Reload(w http.ResponseWriter, r *http.Request, id string) {
	var key service.LoadKey
	if err := readBodyJSON(r, maxBodyBytes, &key); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	var view *service.TreeView
	var err error
	if key == (service.LoadKey{}) {
		view, err = h.svc.Reload(r.Context(), id)
	} else {
		view, err = h.svc.Load(r.Context(), id, key)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// Export streams the session as an xlsx workbook.
func (h *RelatedHandler) Export(w http.ResponseWriter, r *http.Request, id string) {
	data, err := h.svc.Export(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	b, err := GenerateRelatedExport(data)
	if err != nil {
		h.logger.Error("Failed to generate related-properties export", zap.String("session_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to generate export"))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=related-properties-%s.xlsx", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
