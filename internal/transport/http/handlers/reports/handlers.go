package reportshandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"flexitime/internal/domain/auth"
	"flexitime/internal/domain/rollcall"
	"flexitime/internal/transport/http/api"
	"flexitime/internal/transport/http/middleware"
)

type Handler struct {
	Service    *rollcall.Service
	ReportsDir string
}

func NewHandler(service *rollcall.Service, reportsDir string) *Handler {
	return &Handler{Service: service, ReportsDir: reportsDir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleHR, auth.RoleApprover))
		r.Get("/leave-planning", h.handleLeavePlanning)
		r.Get("/leave-planning/pdf", h.handleLeavePlanningPDF)
	})
}

func (h *Handler) summary(r *http.Request) (*rollcall.PlanningSummary, error) {
	user, _ := middleware.GetUser(r.Context())
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	scope := r.URL.Query().Get("scope")
	return h.Service.PlanningSummary(r.Context(), user, year, scope)
}

func (h *Handler) handleLeavePlanning(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	summary, err := h.summary(r)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build leave planning summary", reqID)
		return
	}
	api.Success(w, summary, reqID)
}

func (h *Handler) handleLeavePlanningPDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	summary, err := h.summary(r)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build leave planning summary", reqID)
		return
	}

	path, err := h.Service.PlanningSummaryPDF(summary, h.ReportsDir)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "pdf_failed", "failed to render leave planning pdf", reqID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-planning.pdf"`)
	http.ServeFile(w, r, path)
}
