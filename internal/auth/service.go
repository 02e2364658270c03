// Package auth はメールアドレスとパスワードによる認証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/eduapp/internal/credential"
	"github.com/hitoshi/eduapp/internal/metrics"
	"github.com/hitoshi/eduapp/internal/model"
	"github.com/hitoshi/eduapp/internal/repository"
	"github.com/hitoshi/eduapp/internal/validate"
)

// ErrSessionNotFound はセッションが存在しないか期限切れの場合のエラー。
var ErrSessionNotFound = errors.New("session not found or expired")

// PasswordHasher はパスワードハッシュ化のインターフェース。
type PasswordHasher interface {
	Hash(password string) (hash string, version string, err error)
	Verify(hash, password string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Result はサインアップ・サインインの結果。
type Result struct {
	Session *model.Session
	User    *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      PasswordHasher
	metrics     metrics.MetricsCollector
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher PasswordHasher,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		metrics:     collector,
		config:      config,
		now:         time.Now,
	}
}

// SignUp はアカウントを作成し、セッションを発行する。
func (s *Service) SignUp(ctx context.Context, email, password string) (*Result, error) {
	res, err := s.signUp(ctx, email, password)
	s.record("signup", err)
	return res, err
}

func (s *Service) signUp(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	if !validate.Email(email) {
		return nil, model.NewInvalidEmailError()
	}
	if !validate.Password(password) {
		return nil, model.NewWeakPasswordError(validate.MinPasswordLength)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailAlreadyInUseError()
	}

	hash, version, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, credential.ErrPasswordTooShort) {
			return nil, model.NewWeakPasswordError(validate.MinPasswordLength)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		HashVersion:  version,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// FindByEmailとCreateの間に同じメールアドレスで登録された場合
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, model.NewEmailAlreadyInUseError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user signed up", slog.String("user_id", user.ID))
	return &Result{Session: session, User: user}, nil
}

// SignIn はメールアドレスとパスワードで認証し、セッションを発行する。
func (s *Service) SignIn(ctx context.Context, email, password string) (*Result, error) {
	res, err := s.signIn(ctx, email, password)
	s.record("signin", err)
	return res, err
}

func (s *Service) signIn(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	if !validate.Email(email) {
		return nil, model.NewInvalidEmailError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	if user.Disabled {
		return nil, model.NewUserDisabledError()
	}
	if err := s.verify(user, password); err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user signed in", slog.String("user_id", user.ID))
	return &Result{Session: session, User: user}, nil
}

// SignOut はセッションを破棄する。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	err := s.signOut(ctx, sessionID)
	s.record("signout", err)
	return err
}

func (s *Service) signOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user signed out")
	return nil
}

// ChangePassword は現在のパスワードで再認証したうえでパスワードを変更する。
// 変更後は呼び出し元セッション以外のセッションを失効させる。
func (s *Service) ChangePassword(ctx context.Context, sessionID, userID, currentPassword, newPassword string) error {
	err := s.changePassword(ctx, sessionID, userID, currentPassword, newPassword)
	s.record("change_password", err)
	return err
}

func (s *Service) changePassword(ctx context.Context, sessionID, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	if user.Disabled {
		return model.NewUserDisabledError()
	}

	// 再認証
	if err := s.verify(user, currentPassword); err != nil {
		return err
	}
	if !validate.Password(newPassword) {
		return model.NewWeakPasswordError(validate.MinPasswordLength)
	}

	hash, version, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash, version); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	// 他端末のセッション失効の失敗は変更自体を失敗にしない
	if err := s.sessionRepo.DeleteOthers(ctx, user.ID, sessionID); err != nil {
		slog.Warn("failed to revoke other sessions",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("password changed", slog.String("user_id", user.ID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}

	return user, nil
}

// verify はパスワードを照合する。不一致の場合はWRONG_PASSWORDを返す。
func (s *Service) verify(user *model.User, password string) error {
	err := s.hasher.Verify(user.PasswordHash, password)
	if err == nil {
		return nil
	}
	if errors.Is(err, credential.ErrMismatch) {
		return model.NewWrongPasswordError()
	}
	return fmt.Errorf("failed to verify password: %w", err)
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// record は操作結果をメトリクスに記録する。
func (s *Service) record(operation string, err error) {
	s.metrics.RecordAuthEvent(operation, resultLabel(err))
}

// resultLabel はエラーをメトリクスの結果ラベルに変換する。
func resultLabel(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return model.ErrCodeInternal
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
