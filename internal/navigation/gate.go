// Package navigation は認証状態から表示する画面グラフを選ぶゲートを提供する。
package navigation

import (
	"slices"

	"github.com/hitoshi/eduapp/internal/session"
)

// Screen は画面の識別子。
type Screen int

const (
	ScreenSplash Screen = iota
	ScreenLogin
	ScreenRegister
	ScreenHome
	ScreenEditProfile
)

func (s Screen) String() string {
	switch s {
	case ScreenSplash:
		return "splash"
	case ScreenLogin:
		return "login"
	case ScreenRegister:
		return "register"
	case ScreenHome:
		return "home"
	case ScreenEditProfile:
		return "edit_profile"
	default:
		return "unknown"
	}
}

// GraphKind は画面グラフの種別。
type GraphKind int

const (
	GraphSplash GraphKind = iota
	GraphUnauthenticated
	GraphAuthenticated
)

func (k GraphKind) String() string {
	switch k {
	case GraphSplash:
		return "splash"
	case GraphUnauthenticated:
		return "unauthenticated"
	case GraphAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Graph は現在到達可能な画面の集合と入口の画面。
type Graph struct {
	Kind    GraphKind
	Entry   Screen
	screens []Screen
	tabs    []Screen
}

var (
	splashGraph = Graph{
		Kind:    GraphSplash,
		Entry:   ScreenSplash,
		screens: []Screen{ScreenSplash},
	}
	unauthenticatedGraph = Graph{
		Kind:    GraphUnauthenticated,
		Entry:   ScreenLogin,
		screens: []Screen{ScreenLogin, ScreenRegister},
	}
	authenticatedGraph = Graph{
		Kind:    GraphAuthenticated,
		Entry:   ScreenHome,
		screens: []Screen{ScreenHome, ScreenEditProfile},
		tabs:    []Screen{ScreenHome, ScreenEditProfile},
	}
)

// Gate は読み込み中フラグとセッションから画面グラフを選ぶ。
// 読み込み中はセッションに関わらずスプラッシュを返す。
// 認証済みのときのみ認証済みグラフを返す。
func Gate(loading bool, s session.Session) Graph {
	switch {
	case loading:
		return splashGraph
	case s.IsAuthenticated():
		return authenticatedGraph
	default:
		return unauthenticatedGraph
	}
}

// Reachable はscreenがこのグラフ内にあるかを返す。
func (g Graph) Reachable(screen Screen) bool {
	return slices.Contains(g.screens, screen)
}

// Screens はグラフ内の画面を返す。
func (g Graph) Screens() []Screen {
	return slices.Clone(g.screens)
}

// Tabs はタブバーに並べる画面を返す。タブを持つのは認証済みグラフのみ。
func (g Graph) Tabs() []Screen {
	return slices.Clone(g.tabs)
}
