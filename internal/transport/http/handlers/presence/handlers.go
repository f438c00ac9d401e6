package presencehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"flexitime/internal/domain/presence"
	"flexitime/internal/transport/http/api"
	"flexitime/internal/transport/http/middleware"
)

type Handler struct {
	Service *presence.Service
}

func NewHandler(service *presence.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/presence-types", h.handleCatalog)
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	types, err := h.Service.Catalog(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "presence_types_failed", "failed to list presence types", reqID)
		return
	}
	api.Success(w, types, reqID)
}
