package screen

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/eduapp/internal/backend"
	"github.com/hitoshi/eduapp/internal/model"
	"github.com/hitoshi/eduapp/internal/validate"
)

// Clock は現在時刻を返す。テストでは固定時刻を注入する。
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// LoginForm はログイン画面の入力。
type LoginForm struct {
	Email    string
	Password string
}

// Login はログイン画面のコントローラー。
type Login struct {
	auth backend.Auth
}

// NewLogin はLoginを生成する。
func NewLogin(auth backend.Auth) *Login {
	return &Login{auth: auth}
}

// Submit は入力を検証し、サインインする。
// 成功時の画面遷移はセッション変更の通知によって行われる。
func (l *Login) Submit(ctx context.Context, f LoginForm) error {
	if !validate.Required(f.Email, f.Password) {
		return invalid(msgRequired)
	}
	email := strings.TrimSpace(f.Email)
	if !validate.Email(email) {
		return invalid(msgInvalidEmail)
	}

	if _, err := l.auth.SignIn(ctx, email, f.Password); err != nil {
		slog.Warn("sign in failed", slog.String("error", err.Error()))
		return failed(OpSignIn, err)
	}
	return nil
}

// RegisterForm はユーザー登録画面の入力。
type RegisterForm struct {
	Name           string
	Email          string
	Password       string
	Degree         string
	GraduationYear string
}

// Register はユーザー登録画面のコントローラー。
type Register struct {
	auth  backend.Auth
	docs  backend.Documents
	clock Clock
}

// NewRegister はRegisterを生成する。
func NewRegister(auth backend.Auth, docs backend.Documents, clock Clock) *Register {
	return &Register{auth: auth, docs: docs, clock: clock}
}

// Submit は入力を検証し、アカウントを作成してプロフィールを保存する。
// アカウント作成の通知で画面が切り替わってもプロフィールの書き込みは中断しない。
func (r *Register) Submit(ctx context.Context, f RegisterForm) error {
	if !validate.Required(f.Name, f.Email, f.Password, f.Degree, f.GraduationYear) {
		return invalid(msgRequired)
	}
	email := strings.TrimSpace(f.Email)
	if !validate.Email(email) {
		return invalid(msgInvalidEmail)
	}
	if !validate.Password(f.Password) {
		return invalid(msgShortPassword)
	}
	now := r.clock.now()
	year, ok := validate.ParseGraduationYear(f.GraduationYear, now)
	if !ok {
		return invalid(msgInvalidYear)
	}

	s, err := r.auth.CreateAccount(ctx, email, f.Password)
	if err != nil {
		slog.Warn("account creation failed", slog.String("error", err.Error()))
		return failed(OpRegister, err)
	}

	profile := model.NewRegisteredProfile(f.Name, email, f.Degree, year, now)
	if err := r.docs.Set(context.WithoutCancel(ctx), model.UsersCollection, s.UserID, profile.Fields()); err != nil {
		slog.Error("failed to save registered profile",
			slog.String("user_id", s.UserID),
			slog.String("error", err.Error()),
		)
		return failed(OpSaveRegisteredProfile, err)
	}

	slog.Info("user registered", slog.String("user_id", s.UserID))
	return nil
}
