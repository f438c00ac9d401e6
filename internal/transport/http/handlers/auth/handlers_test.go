package authhandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"flexitime/internal/domain/auth"
	"flexitime/internal/transport/http/api"
)

const findUserQuery = `
    SELECT id, email, password_hash, role, employee_id
    FROM users
    WHERE email = $1
  `

func newLoginHandler(t *testing.T) (*Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewHandler(auth.NewStore(mock), "test-secret"), mock
}

func doLogin(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) api.Envelope {
	t.Helper()
	var envelope api.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func TestHandleLoginSuccess(t *testing.T) {
	h, mock := newLoginHandler(t)

	hash, err := auth.HashPassword("Stronger123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	rows := pgxmock.NewRows([]string{"id", "email", "password_hash", "role", "employee_id"}).
		AddRow("u1", "avery@example.com", hash, auth.RoleHR, "e1")
	mock.ExpectQuery(regexp.QuoteMeta(findUserQuery)).
		WithArgs("avery@example.com").
		WillReturnRows(rows)

	rec := doLogin(h, `{"email":"avery@example.com","password":"Stronger123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	if !envelope.Success {
		t.Fatalf("expected success envelope, got %+v", envelope)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data payload: %T", envelope.Data)
	}
	if data["userId"] != "u1" || data["employeeId"] != "e1" || data["role"] != auth.RoleHR {
		t.Fatalf("unexpected login data: %+v", data)
	}

	token, _ := data["token"].(string)
	claims, err := auth.ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != "u1" || claims.EmployeeID != "e1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHandleLoginUnknownUser(t *testing.T) {
	h, mock := newLoginHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(findUserQuery)).
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "role", "employee_id"}))

	rec := doLogin(h, `{"email":"nobody@example.com","password":"whatever"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Success || envelope.Error == nil || envelope.Error.Code != "invalid_credentials" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestHandleLoginWrongPassword(t *testing.T) {
	h, mock := newLoginHandler(t)

	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	rows := pgxmock.NewRows([]string{"id", "email", "password_hash", "role", "employee_id"}).
		AddRow("u1", "avery@example.com", hash, auth.RoleEmployee, "e1")
	mock.ExpectQuery(regexp.QuoteMeta(findUserQuery)).
		WithArgs("avery@example.com").
		WillReturnRows(rows)

	rec := doLogin(h, `{"email":"avery@example.com","password":"battery-staple"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error == nil || envelope.Error.Code != "invalid_credentials" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestHandleLoginBadPayload(t *testing.T) {
	h, _ := newLoginHandler(t)

	rec := doLogin(h, `{"email":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error == nil || envelope.Error.Code != "invalid_payload" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}
