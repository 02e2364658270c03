package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hitoshi/eduapp/internal/navigation"
	"github.com/hitoshi/eduapp/internal/screen"
)

// view はマウント中の画面。コマンドの結果はルートがマウントIDを確認してから渡す。
type view interface {
	screen() navigation.Screen
	init() tea.Cmd
	update(msg tea.Msg) tea.Cmd
	render(st styles) string
	help() string
	// capturesText は数字や英字のキーを入力欄に渡すかを返す。
	capturesText() bool
}

type splashView struct{}

func (splashView) screen() navigation.Screen { return navigation.ScreenSplash }
func (splashView) init() tea.Cmd { return nil }
func (splashView) update(tea.Msg) tea.Cmd { return nil }
func (splashView) help() string { return "" }
func (splashView) capturesText() bool { return false }

func (splashView) render(st styles) string {
	return st.title.Render("eduapp") + "\n\n" + st.faint.Render("読み込み中...")
}

const (
	loginEmail = iota
	loginPassword
)

type loginView struct {
	ctx  context.Context
	ctrl *screen.Login
	keys KeyMap
	form *form
	busy bool
}

func newLoginView(ctx context.Context, ctrl *screen.Login, keys KeyMap) *loginView {
	return &loginView{
		ctx:  ctx,
		ctrl: ctrl,
		keys: keys,
		form: newForm(
			field{label: "メールアドレス", placeholder: "you@example.com"},
			field{label: "パスワード", secret: true},
		),
	}
}

func (v *loginView) screen() navigation.Screen { return navigation.ScreenLogin }
func (v *loginView) init() tea.Cmd { return nil }
func (v *loginView) capturesText() bool { return true }

func (v *loginView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case signedInMsg:
		v.busy = false
		if msg.err != nil {
			return showError(msg.err)
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.ToRegister):
			return navigate(navigation.ScreenRegister)
		case key.Matches(msg, v.keys.Next):
			v.form.next()
			return nil
		case key.Matches(msg, v.keys.Prev):
			v.form.prev()
			return nil
		case key.Matches(msg, v.keys.Submit):
			return v.submit()
		}
	}
	return v.form.update(msg)
}

func (v *loginView) submit() tea.Cmd {
	if v.busy {
		return nil
	}
	v.busy = true
	ctx, ctrl := v.ctx, v.ctrl
	in := screen.LoginForm{
		Email:    v.form.value(loginEmail),
		Password: v.form.value(loginPassword),
	}
	return func() tea.Msg {
		return signedInMsg{err: ctrl.Submit(ctx, in)}
	}
}

func (v *loginView) render(st styles) string {
	var b strings.Builder
	b.WriteString(st.title.Render("ログイン"))
	b.WriteString("\n\n")
	b.WriteString(v.form.render(st, true))
	if v.busy {
		b.WriteString("\n" + st.faint.Render("サインイン中..."))
	}
	return b.String()
}

func (v *loginView) help() string {
	return helpLine(v.keys.Submit, v.keys.Next, v.keys.ToRegister, v.keys.Quit)
}

const (
	registerName = iota
	registerEmail
	registerPassword
	registerDegree
	registerYear
)

type registerView struct {
	ctx  context.Context
	ctrl *screen.Register
	keys KeyMap
	form *form
	busy bool
}

func newRegisterView(ctx context.Context, ctrl *screen.Register, keys KeyMap) *registerView {
	return &registerView{
		ctx:  ctx,
		ctrl: ctrl,
		keys: keys,
		form: newForm(
			field{label: "名前", placeholder: "山田 太郎"},
			field{label: "メールアドレス", placeholder: "you@example.com"},
			field{label: "パスワード", placeholder: "6文字以上", secret: true},
			field{label: "学位", placeholder: "情報工学"},
			field{label: "卒業年", placeholder: "2024", limit: 4},
		),
	}
}

func (v *registerView) screen() navigation.Screen { return navigation.ScreenRegister }
func (v *registerView) init() tea.Cmd { return nil }
func (v *registerView) capturesText() bool { return true }

func (v *registerView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case registeredMsg:
		v.busy = false
		if msg.err != nil {
			return showError(msg.err)
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			return navigate(navigation.ScreenLogin)
		case key.Matches(msg, v.keys.Next):
			v.form.next()
			return nil
		case key.Matches(msg, v.keys.Prev):
			v.form.prev()
			return nil
		case key.Matches(msg, v.keys.Submit):
			return v.submit()
		}
	}
	return v.form.update(msg)
}

func (v *registerView) submit() tea.Cmd {
	if v.busy {
		return nil
	}
	v.busy = true
	ctx, ctrl := v.ctx, v.ctrl
	in := screen.RegisterForm{
		Name:           v.form.value(registerName),
		Email:          v.form.value(registerEmail),
		Password:       v.form.value(registerPassword),
		Degree:         v.form.value(registerDegree),
		GraduationYear: v.form.value(registerYear),
	}
	return func() tea.Msg {
		return registeredMsg{err: ctrl.Submit(ctx, in)}
	}
}

func (v *registerView) render(st styles) string {
	var b strings.Builder
	b.WriteString(st.title.Render("ユーザー登録"))
	b.WriteString("\n\n")
	b.WriteString(v.form.render(st, true))
	if v.busy {
		b.WriteString("\n" + st.faint.Render("登録中..."))
	}
	return b.String()
}

func (v *registerView) help() string {
	return helpLine(v.keys.Submit, v.keys.Next, v.keys.Back, v.keys.Quit)
}
