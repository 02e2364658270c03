package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/eduapp/internal/model"
)

// --- モック定義 ---

type mockSessionRepository struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// validSessionRepo は指定IDのみ有効なセッションを返すモックを生成する。
func validSessionRepo(sessionID, userID string) *mockSessionRepository {
	return &mockSessionRepository{
		findByIDFn: func(_ context.Context, id string) (*model.Session, error) {
			if id == sessionID {
				return &model.Session{
					ID:        sessionID,
					UserID:    userID,
					ExpiresAt: time.Now().Add(1 * time.Hour),
				}, nil
			}
			return nil, nil
		},
	}
}

func assertUnauthorizedBody(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
	}
}

// --- テスト ---

func TestSessionMiddleware_ValidSession_InjectsUserAndSessionID(t *testing.T) {
	mw := NewSessionMiddleware(validSessionRepo("valid-session-id", "user-123"))

	var capturedUserID, capturedSessionID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		capturedUserID, err = UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedSessionID, err = SessionIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedUserID != "user-123" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-123")
	}
	if capturedSessionID != "valid-session-id" {
		t.Errorf("sessionID = %q, want %q", capturedSessionID, "valid-session-id")
	}
}

func TestSessionMiddleware_Unauthorized(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
		repo   *mockSessionRepository
	}{
		{
			name: "no cookie",
			repo: &mockSessionRepository{},
		},
		{
			name:   "empty cookie",
			cookie: &http.Cookie{Name: SessionCookieName, Value: ""},
			repo:   &mockSessionRepository{},
		},
		{
			name:   "expired or unknown session",
			cookie: &http.Cookie{Name: SessionCookieName, Value: "expired"},
			repo:   &mockSessionRepository{},
		},
		{
			name:   "repository error",
			cookie: &http.Cookie{Name: SessionCookieName, Value: "any"},
			repo: &mockSessionRepository{
				findByIDFn: func(context.Context, string) (*model.Session, error) {
					return nil, errors.New("db down")
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewSessionMiddleware(tt.repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assertUnauthorizedBody(t, w)
			if called {
				t.Error("next handler should not be called")
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
	if _, err := SessionIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}

	ctx := ContextWithSession(context.Background(), "user-1", "session-1")
	if id, _ := UserIDFromContext(ctx); id != "user-1" {
		t.Errorf("UserIDFromContext = %q, want %q", id, "user-1")
	}
	if id, _ := SessionIDFromContext(ctx); id != "session-1" {
		t.Errorf("SessionIDFromContext = %q, want %q", id, "session-1")
	}
}
