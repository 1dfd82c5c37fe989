package httpapi

import (
	"net/http"

	"gazetteer-data/internal/service"

	"go.uber.org/zap"
)

// WizardHandler serves the address wizard's tab-change and range operations.
type WizardHandler struct {
	svc    *service.WizardService
	logger *zap.Logger
}

func NewWizardHandler(svc *service.WizardService, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{svc: svc, logger: logger}
}

// Reconcile handles POST /gazetteer/api/v1/wizard/reconcile
func (h *WizardHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req service.ReconcileRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	resp, err := h.svc.ReconcileOnTabChange(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// AddressList handles POST /gazetteer/api/v1/wizard/address-list
func (h *WizardHandler) AddressList(w http.ResponseWriter, r *http.Request) {
	var req service.RebuildRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	resp, err := h.svc.RebuildAddressList(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Validate handles POST /gazetteer/api/v1/wizard/validate
func (h *WizardHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req service.ValidateRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	resp, err := h.svc.ValidateAddress(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
