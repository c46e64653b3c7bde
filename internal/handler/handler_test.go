package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/config"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

const testSecret = "test-secret"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	return h
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func signedToken(t *testing.T, secret string, sub string, role domain.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	ss, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return ss
}

func TestBadRequestTranslatesValidationErrors(t *testing.T) {
	h := newTestHandler(t)

	req := struct {
		LeaveType string `json:"leaveType" validate:"required,oneof=casual sick"`
	}{LeaveType: "holiday"}

	rec := httptest.NewRecorder()
	h.badRequest(rec, httptest.NewRequest(http.MethodPost, "/", nil), h.validate.Struct(req))

	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "leaveType must be one of [casual sick]", resp.Message)
}

func TestValidationFailedCarriesKind(t *testing.T) {
	h := newTestHandler(t)
	verr := &timesheet.ValidationError{Errors: []timesheet.FieldError{
		{Field: "start_time", Message: "time overlaps with an existing entry (09:00-11:00)", Kind: timesheet.KindOverlap},
		{Field: "notes", Message: "notes is too long", Kind: timesheet.KindField},
	}}

	rec := httptest.NewRecorder()
	h.validationFailed(rec, httptest.NewRequest(http.MethodPost, "/entries", nil), verr)

	resp := decode(t, rec)
	assert.False(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "overlap", data["kind"])
	assert.Len(t, data["errors"], 2)
}

func TestInternalServerErrorHidesDetail(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.internalServerError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.NotContains(t, resp.Message, "password")
}

func TestAuth(t *testing.T) {
	h := newTestHandler(t)
	sub := uuid.NewString()

	var gotSub, gotRole any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = r.Context().Value(SubCtxKey)
		gotRole = r.Context().Value(RoleCtxKey)
		h.successResponse(w, r, "ok", nil)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, sub, domain.RoleManager))
		rec := httptest.NewRecorder()
		h.auth(next).ServeHTTP(rec, req)

		assert.True(t, decode(t, rec).Success)
		assert.Equal(t, sub, gotSub)
		assert.Equal(t, "manager", gotRole)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: signedToken(t, testSecret, sub, domain.RoleMember)})
		rec := httptest.NewRecorder()
		h.auth(next).ServeHTTP(rec, req)

		assert.True(t, decode(t, rec).Success)
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "other", sub, domain.RoleMember))
		rec := httptest.NewRecorder()
		h.auth(next).ServeHTTP(rec, req)

		resp := decode(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "invalid token", resp.Message)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.auth(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "not signed in", decode(t, rec).Message)
	})
}

func TestRequiredRole(t *testing.T) {
	h := newTestHandler(t)
	mw := h.RequiredRole([]domain.Role{domain.RoleOrgAdmin})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.successResponse(w, r, "ok", nil)
	})

	for role, allowed := range map[domain.Role]bool{domain.RoleOrgAdmin: true, domain.RoleManager: false, "": false} {
		req := httptest.NewRequest(http.MethodPut, "/approval-settings", nil)
		req = req.WithContext(contextWithRole(req, string(role)))
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, req)

		assert.Equal(t, allowed, decode(t, rec).Success, role)
	}
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decode(t, rec).Success)
}
