package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"flexitime/internal/domain/auth"
	"flexitime/internal/platform/requestctx"
	"flexitime/internal/transport/http/api"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	Store  *auth.Store
	Secret string
}

func NewHandler(store *auth.Store, secret string) *Handler {
	return &Handler{Store: store, Secret: secret}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string `json:"token"`
	UserID     string `json:"userId"`
	EmployeeID string `json:"employeeId,omitempty"`
	Role       string `json:"role"`
	ExpiresAt  string `json:"expiresAt"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	user, err := h.Store.FindUserByEmail(r.Context(), payload.Email)
	if errors.Is(err, auth.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}

	expiresAt := time.Now().Add(tokenTTL)
	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:     user.ID,
		EmployeeID: user.EmployeeID,
		RoleName:   user.RoleName,
	}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, loginResponse{
		Token:      token,
		UserID:     user.ID,
		EmployeeID: user.EmployeeID,
		Role:       user.RoleName,
		ExpiresAt:  expiresAt.UTC().Format(time.RFC3339),
	}, requestctx.GetRequestID(r.Context()))
}
