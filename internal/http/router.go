package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

const apiPrefix = "/gazetteer/api/v1"

// Router wraps the standard library mux.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterHealthRoutes adds the liveness probe.
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
	})
}

// RegisterWizardRoutes adds the bilingual address wizard endpoints.
func (r *Router) RegisterWizardRoutes(h *WizardHandler) {
	r.Handle(apiPrefix+"/wizard/reconcile", postOnly(h.Reconcile))
	r.Handle(apiPrefix+"/wizard/address-list", postOnly(h.AddressList))
	r.Handle(apiPrefix+"/wizard/validate", postOnly(h.Validate))
}

// RegisterRelatedRoutes adds the related-properties session endpoints.
func (r *Router) RegisterRelatedRoutes(h *RelatedHandler) {
	r.Handle(apiPrefix+"/related/sessions", h.ServeHTTP)
	r.Handle(apiPrefix+"/related/sessions/", h.ServeHTTP)
}

// RegisterLookupRoutes adds lookup read and import endpoints.
func (r *Router) RegisterLookupRoutes(h *LookupsHandler) {
	r.Handle(apiPrefix+"/lookups", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.List(w, req)
	})
	r.Handle(apiPrefix+"/lookups/import", postOnly(h.Import))
	r.Handle(apiPrefix+"/lookups/template", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Template(w, req)
	})
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterEventRoutes adds the event stream replay endpoint.
func (r *Router) RegisterEventRoutes(h *EventsHandler) {
	r.Handle(apiPrefix+"/events", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.List(w, req)
	})
}
