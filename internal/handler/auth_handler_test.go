package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/eduapp/internal/auth"
	"github.com/hitoshi/eduapp/internal/middleware"
	"github.com/hitoshi/eduapp/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	signUpFn         func(ctx context.Context, email, password string) (*auth.Result, error)
	signInFn         func(ctx context.Context, email, password string) (*auth.Result, error)
	signOutFn        func(ctx context.Context, sessionID string) error
	changePasswordFn func(ctx context.Context, sessionID, userID, currentPassword, newPassword string) error
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockAuthService) SignUp(ctx context.Context, email, password string) (*auth.Result, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password string) (*auth.Result, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) SignOut(ctx context.Context, sessionID string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) ChangePassword(ctx context.Context, sessionID, userID, currentPassword, newPassword string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, sessionID, userID, currentPassword, newPassword)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, sessionID)
	}
	return nil, auth.ErrSessionNotFound
}

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{SessionMaxAge: 86400}
}

func successResult(email string) *auth.Result {
	return &auth.Result{
		Session: &model.Session{
			ID:        "session-id-abc",
			UserID:    "user-id-123",
			ExpiresAt: time.Now().Add(24 * time.Hour),
		},
		User: &model.User{ID: "user-id-123", Email: email},
	}
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeErrorBody(t *testing.T, resp *http.Response) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// --- テスト ---

func TestAuthHandler_SignUp_Success_SetsCookie(t *testing.T) {
	var gotEmail, gotPassword string
	svc := &mockAuthService{
		signUpFn: func(ctx context.Context, email, password string) (*auth.Result, error) {
			gotEmail, gotPassword = email, password
			return successResult("taro@example.com"), nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"Taro@Example.com","password":"secret1"}`))
	w := httptest.NewRecorder()

	h.SignUp(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if gotEmail != "Taro@Example.com" || gotPassword != "secret1" {
		t.Errorf("service called with (%q, %q)", gotEmail, gotPassword)
	}

	cookie := findCookie(resp, middleware.SessionCookieName)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	if cookie.Value != "session-id-abc" {
		t.Errorf("cookie value = %q, want %q", cookie.Value, "session-id-abc")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if cookie.MaxAge != 86400 {
		t.Errorf("cookie MaxAge = %d, want 86400", cookie.MaxAge)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.ID != "user-id-123" || body.Email != "taro@example.com" {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_SignUp_ServiceError_MapsStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"メール重複", model.NewEmailAlreadyInUseError(), http.StatusConflict, model.ErrCodeEmailAlreadyInUse},
		{"メール形式", model.NewInvalidEmailError(), http.StatusBadRequest, model.ErrCodeInvalidEmail},
		{"弱いパスワード", fmt.Errorf("wrapped: %w", model.NewWeakPasswordError(6)), http.StatusBadRequest, model.ErrCodeWeakPassword},
		{"内部エラー", errors.New("db down"), http.StatusInternalServerError, model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				signUpFn: func(ctx context.Context, email, password string) (*auth.Result, error) {
					return nil, tt.err
				},
			}
			h := NewAuthHandler(svc, testAuthConfig())

			req := httptest.NewRequest(http.MethodPost, "/auth/signup",
				strings.NewReader(`{"email":"a@b.com","password":"secret1"}`))
			w := httptest.NewRecorder()
			h.SignUp(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if body := decodeErrorBody(t, resp); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if findCookie(resp, middleware.SessionCookieName) != nil {
				t.Error("session cookie should not be set on error")
			}
		})
	}
}

func TestAuthHandler_SignUp_InvalidJSON_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()
	h.SignUp(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if body := decodeErrorBody(t, resp); body.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidRequest)
	}
}

func TestAuthHandler_SignIn_Success(t *testing.T) {
	svc := &mockAuthService{
		signInFn: func(ctx context.Context, email, password string) (*auth.Result, error) {
			return successResult(email), nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/signin",
		strings.NewReader(`{"email":"a@b.com","password":"secret1"}`))
	w := httptest.NewRecorder()
	h.SignIn(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if findCookie(resp, middleware.SessionCookieName) == nil {
		t.Error("expected session cookie")
	}
}

func TestAuthHandler_SignIn_WrongPassword_IsNotUnauthorized(t *testing.T) {
	svc := &mockAuthService{
		signInFn: func(ctx context.Context, email, password string) (*auth.Result, error) {
			return nil, model.NewWrongPasswordError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/signin",
		strings.NewReader(`{"email":"a@b.com","password":"wrong!"}`))
	w := httptest.NewRecorder()
	h.SignIn(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if body := decodeErrorBody(t, resp); body.Code != model.ErrCodeWrongPassword {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeWrongPassword)
	}
}

func TestAuthHandler_SignOut_DeletesSessionAndClearsCookie(t *testing.T) {
	var deletedID string
	svc := &mockAuthService{
		signOutFn: func(ctx context.Context, sessionID string) error {
			deletedID = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-to-delete"})
	w := httptest.NewRecorder()
	h.SignOut(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if deletedID != "session-to-delete" {
		t.Errorf("SignOut called with %q, want %q", deletedID, "session-to-delete")
	}

	cookie := findCookie(resp, middleware.SessionCookieName)
	if cookie == nil {
		t.Fatal("expected cookie clearing header")
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("cookie MaxAge = %d, want negative", cookie.MaxAge)
	}
}

func TestAuthHandler_SignOut_WithoutCookie_StillSucceeds(t *testing.T) {
	called := false
	svc := &mockAuthService{
		signOutFn: func(ctx context.Context, sessionID string) error {
			called = true
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	w := httptest.NewRecorder()
	h.SignOut(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if called {
		t.Error("SignOut should not be called without a session cookie")
	}
}

func TestAuthHandler_SignOut_ServiceError_StillClearsCookie(t *testing.T) {
	svc := &mockAuthService{
		signOutFn: func(ctx context.Context, sessionID string) error {
			return errors.New("db error")
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "s1"})
	w := httptest.NewRecorder()
	h.SignOut(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if findCookie(resp, middleware.SessionCookieName) == nil {
		t.Error("expected cookie clearing header")
	}
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			if sessionID != "valid" {
				return nil, auth.ErrSessionNotFound
			}
			return &model.User{ID: "u1", Email: "a@b.com"}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	tests := []struct {
		name       string
		cookie     string
		wantStatus int
	}{
		{"Cookieなし", "", http.StatusUnauthorized},
		{"無効なセッション", "expired", http.StatusUnauthorized},
		{"有効なセッション", "valid", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			h.Me(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if body := decodeErrorBody(t, resp); body.Code != model.ErrCodeUnauthorized {
					t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
				}
				return
			}
			var body userResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.ID != "u1" || body.Email != "a@b.com" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestAuthHandler_ChangePassword_Success(t *testing.T) {
	var got [4]string
	svc := &mockAuthService{
		changePasswordFn: func(ctx context.Context, sessionID, userID, currentPassword, newPassword string) error {
			got = [4]string{sessionID, userID, currentPassword, newPassword}
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/account/password",
		strings.NewReader(`{"current_password":"old-secret","new_password":"new-secret"}`))
	req = req.WithContext(middleware.ContextWithSession(req.Context(), "u1", "s1"))
	w := httptest.NewRecorder()
	h.ChangePassword(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	want := [4]string{"s1", "u1", "old-secret", "new-secret"}
	if got != want {
		t.Errorf("service called with %v, want %v", got, want)
	}
}

func TestAuthHandler_ChangePassword_WithoutSession_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/account/password",
		strings.NewReader(`{"current_password":"a","new_password":"b"}`))
	w := httptest.NewRecorder()
	h.ChangePassword(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandler_ChangePassword_WrongCurrentPassword_Returns400(t *testing.T) {
	svc := &mockAuthService{
		changePasswordFn: func(ctx context.Context, sessionID, userID, currentPassword, newPassword string) error {
			return model.NewWrongPasswordError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/account/password",
		strings.NewReader(`{"current_password":"bad","new_password":"new-secret"}`))
	req = req.WithContext(middleware.ContextWithSession(req.Context(), "u1", "s1"))
	w := httptest.NewRecorder()
	h.ChangePassword(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if body := decodeErrorBody(t, resp); body.Code != model.ErrCodeWrongPassword {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeWrongPassword)
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeInvalidEmail, http.StatusBadRequest},
		{model.ErrCodeWrongPassword, http.StatusBadRequest},
		{model.ErrCodeWeakPassword, http.StatusBadRequest},
		{model.ErrCodeInvalidCredential, http.StatusBadRequest},
		{model.ErrCodeInvalidDocument, http.StatusBadRequest},
		{model.ErrCodeInvalidRequest, http.StatusBadRequest},
		{model.ErrCodeUnauthorized, http.StatusUnauthorized},
		{model.ErrCodeUserDisabled, http.StatusForbidden},
		{model.ErrCodePermissionDenied, http.StatusForbidden},
		{model.ErrCodeOperationNotAllowed, http.StatusForbidden},
		{model.ErrCodeUserNotFound, http.StatusNotFound},
		{model.ErrCodeDocumentNotFound, http.StatusNotFound},
		{model.ErrCodeEmailAlreadyInUse, http.StatusConflict},
		{model.ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code})
			if got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
