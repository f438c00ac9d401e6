package rollcallhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"flexitime/internal/domain/presence"
	"flexitime/internal/domain/rollcall"
	"flexitime/internal/transport/http/api"
	"flexitime/internal/transport/http/middleware"
	"flexitime/internal/transport/http/shared"
)

type Handler struct {
	Service       *rollcall.Service
	Presence      *presence.Service
	WindowMaxDays int
}

func NewHandler(service *rollcall.Service, presenceSvc *presence.Service, windowMaxDays int) *Handler {
	return &Handler{Service: service, Presence: presenceSvc, WindowMaxDays: windowMaxDays}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/roll-call", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/events", h.handleGetEvents)
		r.Get("/editable-employees", h.handleEditableEmployees)
		r.Get("/presence-types", h.handleAvailablePresenceTypes)
		r.Get("/pending-review-count", h.handlePendingReviewCount)
		r.Post("/entries", h.handleSaveEntry)
		r.Post("/entries/split", h.handleSaveSplitEntry)
		r.Post("/entries/bulk", h.handleSaveBulk)
		r.Post("/entries/bulk-split", h.handleSaveBulkSplit)
		r.Post("/entries/bulk-delete", h.handleDeleteBulk)
	})
}

// failDomain maps service errors onto HTTP statuses. Domain sentinel messages
// are written through so users see actionable text.
func failDomain(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, rollcall.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, rollcall.ErrNoEmployeeRecord):
		api.Fail(w, http.StatusForbidden, "no_employee_record", err.Error(), reqID)
	case errors.Is(err, rollcall.ErrEntryLocked):
		api.Fail(w, http.StatusConflict, "entry_locked", err.Error(), reqID)
	case errors.Is(err, rollcall.ErrApprovedLeaveExists):
		api.Fail(w, http.StatusConflict, "approved_leave_exists", err.Error(), reqID)
	case errors.Is(err, rollcall.ErrHoursRecorded):
		api.Fail(w, http.StatusConflict, "hours_recorded", err.Error(), reqID)
	case errors.Is(err, rollcall.ErrLeaveAppRequired):
		api.Fail(w, http.StatusUnprocessableEntity, "leave_application_required", err.Error(), reqID)
	case errors.Is(err, rollcall.ErrPresenceTypeNotFound):
		api.Fail(w, http.StatusBadRequest, "presence_type_not_found", err.Error(), reqID)
	case errors.Is(err, rollcall.ErrInvalidDateRange):
		api.Fail(w, http.StatusBadRequest, "invalid_date_range", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", reqID)
	}
}

func (h *Handler) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	from, err := shared.ParseDate(r.URL.Query().Get("fromDate"))
	if err != nil || from.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "fromDate is required as YYYY-MM-DD", reqID)
		return
	}
	to, err := shared.ParseDate(r.URL.Query().Get("toDate"))
	if err != nil || to.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "toDate is required as YYYY-MM-DD", reqID)
		return
	}
	if to.Before(from) {
		api.Fail(w, http.StatusBadRequest, "invalid_date_range", "toDate must not precede fromDate", reqID)
		return
	}
	if h.WindowMaxDays > 0 && int(to.Sub(from).Hours()/24)+1 > h.WindowMaxDays {
		api.Fail(w, http.StatusBadRequest, "window_too_large", "requested date window exceeds the maximum", reqID)
		return
	}

	filters := rollcall.EmployeeFilters{
		Company:    r.URL.Query().Get("company"),
		Department: r.URL.Query().Get("department"),
	}
	result, err := h.Service.GetEvents(r.Context(), user, from, to, filters)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleEditableEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	result, err := h.Service.EditableEmployees(r.Context(), user)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAvailablePresenceTypes(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	employeeID := r.URL.Query().Get("employee")
	if employeeID == "" {
		employeeID = user.EmployeeID
	}
	if employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_employee", "employee is required", reqID)
		return
	}

	date, err := shared.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD", reqID)
		return
	}
	if date.IsZero() {
		date = time.Now()
	}

	types, err := h.Presence.AvailableTypes(r.Context(), employeeID, date)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, types, reqID)
}

func (h *Handler) handlePendingReviewCount(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	result, err := h.Service.PendingReviewCount(r.Context(), user)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

type saveEntryRequest struct {
	Employee     string `json:"employee"`
	Date         string `json:"date"`
	PresenceType string `json:"presenceType"`
	IsHalfDay    bool   `json:"isHalfDay"`
}

func (h *Handler) handleSaveEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload saveEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.Employee == "" || payload.Date == "" || payload.PresenceType == "" {
		api.Fail(w, http.StatusBadRequest, "missing_fields", "employee, date and presenceType are required", reqID)
		return
	}

	entry, err := h.Service.SaveEntry(r.Context(), user, payload.Employee, payload.Date, payload.PresenceType, payload.IsHalfDay)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, entry, reqID)
}

type saveSplitEntryRequest struct {
	Employee       string `json:"employee"`
	Date           string `json:"date"`
	AMPresenceType string `json:"amPresenceType"`
	PMPresenceType string `json:"pmPresenceType"`
}

func (h *Handler) handleSaveSplitEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload saveSplitEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.Employee == "" || payload.Date == "" || payload.AMPresenceType == "" || payload.PMPresenceType == "" {
		api.Fail(w, http.StatusBadRequest, "missing_fields", "employee, date, amPresenceType and pmPresenceType are required", reqID)
		return
	}

	entry, err := h.Service.SaveSplitEntry(r.Context(), user, payload.Employee, payload.Date, payload.AMPresenceType, payload.PMPresenceType)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, entry, reqID)
}

type bulkSaveRequest struct {
	Entries      []rollcall.CellRef `json:"entries"`
	PresenceType string             `json:"presenceType"`
	DayPart      string             `json:"dayPart"`
}

func (h *Handler) handleSaveBulk(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload bulkSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if len(payload.Entries) == 0 || payload.PresenceType == "" {
		api.Fail(w, http.StatusBadRequest, "missing_fields", "entries and presenceType are required", reqID)
		return
	}
	switch payload.DayPart {
	case "", "full", "am", "pm":
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_day_part", "dayPart must be full, am or pm", reqID)
		return
	}

	result, err := h.Service.SaveBulk(r.Context(), user, payload.Entries, payload.PresenceType, payload.DayPart)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, result, reqID)
}

type bulkSplitSaveRequest struct {
	Entries        []rollcall.CellRef `json:"entries"`
	AMPresenceType string             `json:"amPresenceType"`
	PMPresenceType string             `json:"pmPresenceType"`
}

func (h *Handler) handleSaveBulkSplit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload bulkSplitSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if len(payload.Entries) == 0 || payload.AMPresenceType == "" || payload.PMPresenceType == "" {
		api.Fail(w, http.StatusBadRequest, "missing_fields", "entries, amPresenceType and pmPresenceType are required", reqID)
		return
	}

	result, err := h.Service.SaveBulkSplit(r.Context(), user, payload.Entries, payload.AMPresenceType, payload.PMPresenceType)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, result, reqID)
}

type bulkDeleteRequest struct {
	Entries []rollcall.CellRef `json:"entries"`
}

func (h *Handler) handleDeleteBulk(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if len(payload.Entries) == 0 {
		api.Fail(w, http.StatusBadRequest, "missing_fields", "entries are required", reqID)
		return
	}

	result, err := h.Service.DeleteBulk(r.Context(), user, payload.Entries)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	api.Success(w, result, reqID)
}
