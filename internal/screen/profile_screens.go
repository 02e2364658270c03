package screen

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/eduapp/internal/backend"
	"github.com/hitoshi/eduapp/internal/model"
	"github.com/hitoshi/eduapp/internal/session"
	"github.com/hitoshi/eduapp/internal/validate"
)

const (
	fallbackName = "ユーザー"
	notSet       = "未設定"
)

// ProfileView はホーム画面に表示するプロフィール。
type ProfileView struct {
	Name           string
	Email          string
	Degree         string
	GraduationYear string
	Fallback       bool // ドキュメントがなくセッション情報から組み立てた場合true
}

// FallbackProfile はプロフィールドキュメントがない場合の表示内容を返す。
func FallbackProfile(s session.Session) ProfileView {
	return ProfileView{
		Name:           fallbackName,
		Email:          s.Email,
		Degree:         notSet,
		GraduationYear: notSet,
		Fallback:       true,
	}
}

func newProfileView(p model.Profile, s session.Session) ProfileView {
	v := ProfileView{
		Name:           orNotSet(p.Name),
		Email:          p.Email,
		Degree:         orNotSet(p.Degree),
		GraduationYear: notSet,
	}
	if v.Email == "" {
		v.Email = s.Email
	}
	if p.GraduationYear != 0 {
		v.GraduationYear = strconv.Itoa(p.GraduationYear)
	}
	return v
}

func orNotSet(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSet
	}
	return s
}

// Home はホーム画面のコントローラー。
type Home struct {
	auth    backend.Auth
	docs    backend.Documents
	session session.Session
}

// NewHome はHomeを生成する。
func NewHome(auth backend.Auth, docs backend.Documents, s session.Session) *Home {
	return &Home{auth: auth, docs: docs, session: s}
}

// Load は自分のプロフィールを読み込む。
func (h *Home) Load(ctx context.Context) (ProfileView, error) {
	doc, err := h.docs.Get(ctx, model.UsersCollection, h.session.UserID)
	if err != nil {
		slog.Error("failed to load profile", slog.String("error", err.Error()))
		return ProfileView{}, failed(OpLoadProfile, err)
	}
	if doc == nil {
		return FallbackProfile(h.session), nil
	}
	return newProfileView(model.ProfileFromFields(doc.Fields), h.session), nil
}

// SignOut はサインアウトする。確認は画面側で行う。
func (h *Home) SignOut(ctx context.Context) error {
	if err := h.auth.SignOut(ctx); err != nil {
		slog.Error("sign out failed", slog.String("error", err.Error()))
		return failed(OpSignOut, err)
	}
	return nil
}

// ProfileForm はプロフィール編集フォームの入力。
type ProfileForm struct {
	Name           string
	Degree         string
	GraduationYear string
}

// PasswordForm はパスワード変更フォームの入力。
type PasswordForm struct {
	Current string
	New     string
	Confirm string
}

// EditProfile はプロフィール編集画面のコントローラー。
type EditProfile struct {
	auth    backend.Auth
	docs    backend.Documents
	session session.Session
	clock   Clock
}

// NewEditProfile はEditProfileを生成する。
func NewEditProfile(auth backend.Auth, docs backend.Documents, s session.Session, clock Clock) *EditProfile {
	return &EditProfile{auth: auth, docs: docs, session: s, clock: clock}
}

// Load は編集フォームの初期値を読み込む。ドキュメントがない場合は空のフォームを返す。
func (e *EditProfile) Load(ctx context.Context) (ProfileForm, error) {
	doc, err := e.docs.Get(ctx, model.UsersCollection, e.session.UserID)
	if err != nil {
		slog.Error("failed to load profile for edit", slog.String("error", err.Error()))
		return ProfileForm{}, failed(OpLoadProfile, err)
	}
	if doc == nil {
		return ProfileForm{}, nil
	}

	p := model.ProfileFromFields(doc.Fields)
	form := ProfileForm{Name: p.Name, Degree: p.Degree}
	if p.GraduationYear != 0 {
		form.GraduationYear = strconv.Itoa(p.GraduationYear)
	}
	return form, nil
}

// Save は入力を検証し、プロフィールを更新する。
func (e *EditProfile) Save(ctx context.Context, f ProfileForm) error {
	if !validate.Required(f.Name, f.Degree, f.GraduationYear) {
		return invalid(msgRequired)
	}
	now := e.clock.now()
	year, ok := validate.ParseGraduationYear(f.GraduationYear, now)
	if !ok {
		return invalid(msgInvalidYear)
	}

	fields := model.Fields{
		model.FieldName:           strings.TrimSpace(f.Name),
		model.FieldDegree:         strings.TrimSpace(f.Degree),
		model.FieldGraduationYear: year,
		model.FieldUpdatedAt:      now.UTC().Format(time.RFC3339),
	}
	if err := e.docs.Update(ctx, model.UsersCollection, e.session.UserID, fields); err != nil {
		slog.Error("failed to update profile", slog.String("error", err.Error()))
		return failed(OpSaveProfile, err)
	}
	return nil
}

// ChangePassword は入力を検証し、現在のパスワードで再認証したうえでパスワードを変更する。
func (e *EditProfile) ChangePassword(ctx context.Context, f PasswordForm) error {
	if f.Current == "" || f.New == "" || f.Confirm == "" {
		return invalid(msgPasswordRequired)
	}
	if !validate.Password(f.New) {
		return invalid(msgShortNewPassword)
	}
	if f.New != f.Confirm {
		return invalid(msgPasswordMismatch)
	}

	if err := e.auth.ChangePassword(ctx, f.Current, f.New); err != nil {
		slog.Warn("password change failed", slog.String("error", err.Error()))
		return failed(OpChangePassword, err)
	}
	return nil
}
