package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hitoshi/eduapp/internal/navigation"
	"github.com/hitoshi/eduapp/internal/screen"
	"github.com/hitoshi/eduapp/internal/session"
)

// SessionChangedMsg はセッション変更の通知。ObserverのリスナーからProgram.Sendで送る。
type SessionChangedMsg struct {
	Session session.Session
}

type splashDoneMsg struct{}

// scopedMsg は画面が発行したコマンドの結果。マウントIDが現在の画面と異なれば破棄する。
type scopedMsg struct {
	mountID int
	msg     tea.Msg
}

// navigateMsg は同じグラフ内での画面遷移の要求。
type navigateMsg struct {
	to    navigation.Screen
	alert *alert
}

type alertKind int

const (
	alertError alertKind = iota
	alertInfo
)

type alert struct {
	kind alertKind
	text string
}

type alertMsg struct {
	alert alert
}

// 画面ごとの結果メッセージ
type (
	signedInMsg struct{ err error }

	// registeredMsg は登録画面がアンマウントされた後も処理する。
	registeredMsg struct{ err error }

	profileLoadedMsg struct {
		view screen.ProfileView
		err  error
	}

	signedOutMsg struct{ err error }

	profileFormLoadedMsg struct {
		form screen.ProfileForm
		err  error
	}

	profileSavedMsg struct{ err error }

	passwordChangedMsg struct{ err error }
)

func navigate(to navigation.Screen) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to} }
}

func showError(err error) tea.Cmd {
	a := errorAlert(err)
	return func() tea.Msg { return alertMsg{alert: a} }
}

func showInfo(text string) tea.Cmd {
	return func() tea.Msg { return alertMsg{alert: alert{kind: alertInfo, text: text}} }
}

// errorAlert は画面のエラーを表示用の警告に変換する。
func errorAlert(err error) alert {
	var screenErr *screen.Error
	if errors.As(err, &screenErr) {
		return alert{kind: alertError, text: screenErr.Message}
	}
	return alert{kind: alertError, text: "エラーが発生しました"}
}
