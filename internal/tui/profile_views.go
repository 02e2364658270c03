package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hitoshi/eduapp/internal/navigation"
	"github.com/hitoshi/eduapp/internal/screen"
)

type homeView struct {
	ctx        context.Context
	ctrl       *screen.Home
	keys       KeyMap
	profile    screen.ProfileView
	loaded     bool
	loading    bool
	confirming bool
	busy       bool
}

func newHomeView(ctx context.Context, ctrl *screen.Home, keys KeyMap) *homeView {
	return &homeView{ctx: ctx, ctrl: ctrl, keys: keys}
}

func (v *homeView) screen() navigation.Screen { return navigation.ScreenHome }
func (v *homeView) init() tea.Cmd { return v.load() }
func (v *homeView) capturesText() bool { return false }

func (v *homeView) load() tea.Cmd {
	v.loading = true
	ctx, ctrl := v.ctx, v.ctrl
	return func() tea.Msg {
		p, err := ctrl.Load(ctx)
		return profileLoadedMsg{view: p, err: err}
	}
}

func (v *homeView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		v.loading = false
		if msg.err != nil {
			return showError(msg.err)
		}
		v.profile = msg.view
		v.loaded = true
		return nil

	case signedOutMsg:
		v.busy = false
		if msg.err != nil {
			return showError(msg.err)
		}
		return nil

	case tea.KeyMsg:
		if v.confirming {
			switch {
			case key.Matches(msg, v.keys.Confirm):
				v.confirming = false
				return v.signOut()
			case key.Matches(msg, v.keys.Cancel):
				v.confirming = false
			}
			return nil
		}
		switch {
		case key.Matches(msg, v.keys.Refresh):
			if v.loading {
				return nil
			}
			return v.load()
		case key.Matches(msg, v.keys.Edit):
			return navigate(navigation.ScreenEditProfile)
		case key.Matches(msg, v.keys.SignOut):
			if !v.busy {
				v.confirming = true
			}
		}
	}
	return nil
}

func (v *homeView) signOut() tea.Cmd {
	v.busy = true
	ctx, ctrl := v.ctx, v.ctrl
	return func() tea.Msg {
		return signedOutMsg{err: ctrl.SignOut(ctx)}
	}
}

func (v *homeView) render(st styles) string {
	var b strings.Builder
	b.WriteString(st.title.Render("プロフィール"))
	b.WriteString("\n\n")

	switch {
	case v.loading && !v.loaded:
		b.WriteString(st.faint.Render("読み込み中..."))
	case !v.loaded:
		b.WriteString(st.faint.Render("プロフィールを表示できません。r で再読み込みしてください"))
	default:
		rows := []struct{ label, value string }{
			{"名前", v.profile.Name},
			{"メールアドレス", v.profile.Email},
			{"学位", v.profile.Degree},
			{"卒業年", v.profile.GraduationYear},
		}
		var card strings.Builder
		for i, r := range rows {
			if i > 0 {
				card.WriteString("\n")
			}
			card.WriteString(st.label.Render(r.label) + st.value.Render(r.value))
		}
		b.WriteString(st.card.Render(card.String()))
		if v.profile.Fallback {
			b.WriteString("\n" + st.faint.Render("プロフィールが未登録です。e で編集できます"))
		}
	}

	if v.confirming {
		b.WriteString("\n\n" + st.alertError.Render("サインアウトしますか？ (y/n)"))
	}
	return b.String()
}

func (v *homeView) help() string {
	return helpLine(v.keys.Refresh, v.keys.Edit, v.keys.SignOut, v.keys.TabEdit, v.keys.QuitRune)
}

const (
	profileName = iota
	profileDegree
	profileYear
)

const (
	passwordCurrent = iota
	passwordNew
	passwordConfirm
)

type editProfileView struct {
	ctx          context.Context
	ctrl         *screen.EditProfile
	keys         KeyMap
	profile      *form
	password     *form
	showPassword bool
	loading      bool
	busy         bool
}

func newEditProfileView(ctx context.Context, ctrl *screen.EditProfile, keys KeyMap) *editProfileView {
	v := &editProfileView{
		ctx:  ctx,
		ctrl: ctrl,
		keys: keys,
		profile: newForm(
			field{label: "名前"},
			field{label: "学位"},
			field{label: "卒業年", limit: 4},
		),
		password: newForm(
			field{label: "現在のパスワード", secret: true},
			field{label: "新しいパスワード", placeholder: "6文字以上", secret: true},
			field{label: "確認", secret: true},
		),
	}
	v.password.blur()
	return v
}

func (v *editProfileView) screen() navigation.Screen { return navigation.ScreenEditProfile }
func (v *editProfileView) capturesText() bool { return true }

func (v *editProfileView) init() tea.Cmd {
	v.loading = true
	ctx, ctrl := v.ctx, v.ctrl
	return func() tea.Msg {
		f, err := ctrl.Load(ctx)
		return profileFormLoadedMsg{form: f, err: err}
	}
}

func (v *editProfileView) active() *form {
	if v.showPassword {
		return v.password
	}
	return v.profile
}

func (v *editProfileView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case profileFormLoadedMsg:
		v.loading = false
		if msg.err != nil {
			return showError(msg.err)
		}
		v.profile.setValue(profileName, msg.form.Name)
		v.profile.setValue(profileDegree, msg.form.Degree)
		v.profile.setValue(profileYear, msg.form.GraduationYear)
		return nil

	case profileSavedMsg:
		v.busy = false
		if msg.err != nil {
			return showError(msg.err)
		}
		done := &alert{kind: alertInfo, text: "プロフィールを更新しました"}
		return func() tea.Msg { return navigateMsg{to: navigation.ScreenHome, alert: done} }

	case passwordChangedMsg:
		v.busy = false
		if msg.err != nil {
			return showError(msg.err)
		}
		v.password.reset()
		v.togglePassword()
		return showInfo("パスワードを変更しました")

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			return navigate(navigation.ScreenHome)
		case key.Matches(msg, v.keys.TogglePassword):
			v.togglePassword()
			return nil
		case key.Matches(msg, v.keys.Next):
			v.active().next()
			return nil
		case key.Matches(msg, v.keys.Prev):
			v.active().prev()
			return nil
		case key.Matches(msg, v.keys.Submit):
			return v.submit()
		}
	}
	return v.active().update(msg)
}

func (v *editProfileView) togglePassword() {
	v.showPassword = !v.showPassword
	if v.showPassword {
		v.profile.blur()
		v.password.setFocus(0)
		return
	}
	v.password.blur()
	v.profile.setFocus(v.profile.focus)
}

func (v *editProfileView) submit() tea.Cmd {
	if v.busy || v.loading {
		return nil
	}
	v.busy = true
	ctx, ctrl := v.ctx, v.ctrl

	if v.showPassword {
		in := screen.PasswordForm{
			Current: v.password.value(passwordCurrent),
			New:     v.password.value(passwordNew),
			Confirm: v.password.value(passwordConfirm),
		}
		return func() tea.Msg {
			return passwordChangedMsg{err: ctrl.ChangePassword(ctx, in)}
		}
	}

	in := screen.ProfileForm{
		Name:           v.profile.value(profileName),
		Degree:         v.profile.value(profileDegree),
		GraduationYear: v.profile.value(profileYear),
	}
	return func() tea.Msg {
		return profileSavedMsg{err: ctrl.Save(ctx, in)}
	}
}

func (v *editProfileView) render(st styles) string {
	var b strings.Builder
	b.WriteString(st.title.Render("プロフィール編集"))
	b.WriteString("\n\n")
	if v.loading {
		b.WriteString(st.faint.Render("読み込み中...") + "\n")
	}
	b.WriteString(v.profile.render(st, !v.showPassword))

	if v.showPassword {
		b.WriteString("\n" + st.title.Render("パスワード変更") + "\n\n")
		b.WriteString(v.password.render(st, true))
	}
	if v.busy {
		b.WriteString("\n" + st.faint.Render("保存中..."))
	}
	return b.String()
}

func (v *editProfileView) help() string {
	return helpLine(v.keys.Submit, v.keys.Next, v.keys.TogglePassword, v.keys.Back, v.keys.Quit)
}
