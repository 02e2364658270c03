package navigation

import (
	"testing"
	"testing/quick"

	"github.com/hitoshi/eduapp/internal/session"
)

func TestGate_Loading_AlwaysSplash(t *testing.T) {
	f := func(userID, email string) bool {
		g := Gate(true, session.Session{UserID: userID, Email: email})
		return g.Kind == GraphSplash && g.Entry == ScreenSplash
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestGate_Anonymous_EntryIsLogin(t *testing.T) {
	f := func(email string) bool {
		g := Gate(false, session.Session{Email: email})
		return g.Kind == GraphUnauthenticated && g.Entry == ScreenLogin
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestGate_Authenticated_DefaultTabHome(t *testing.T) {
	f := func(userID, email string) bool {
		if userID == "" {
			userID = "u"
		}
		g := Gate(false, session.Authenticated(userID, email))
		return g.Kind == GraphAuthenticated &&
			g.Entry == ScreenHome &&
			g.Reachable(ScreenEditProfile) &&
			!g.Reachable(ScreenLogin)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestGate_Reachability(t *testing.T) {
	tests := []struct {
		name      string
		loading   bool
		session   session.Session
		reachable []Screen
		hidden    []Screen
	}{
		{
			name:      "読み込み中",
			loading:   true,
			session:   session.Authenticated("u1", "a@b.com"),
			reachable: []Screen{ScreenSplash},
			hidden:    []Screen{ScreenLogin, ScreenRegister, ScreenHome, ScreenEditProfile},
		},
		{
			name:      "未認証",
			session:   session.Anonymous(),
			reachable: []Screen{ScreenLogin, ScreenRegister},
			hidden:    []Screen{ScreenSplash, ScreenHome, ScreenEditProfile},
		},
		{
			name:      "認証済み",
			session:   session.Authenticated("u1", "a@b.com"),
			reachable: []Screen{ScreenHome, ScreenEditProfile},
			hidden:    []Screen{ScreenSplash, ScreenLogin, ScreenRegister},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Gate(tt.loading, tt.session)
			for _, s := range tt.reachable {
				if !g.Reachable(s) {
					t.Errorf("%s should be reachable in %s graph", s, g.Kind)
				}
			}
			for _, s := range tt.hidden {
				if g.Reachable(s) {
					t.Errorf("%s should not be reachable in %s graph", s, g.Kind)
				}
			}
		})
	}
}

func TestGraph_Tabs(t *testing.T) {
	if tabs := Gate(false, session.Anonymous()).Tabs(); len(tabs) != 0 {
		t.Errorf("unauthenticated tabs = %v, want none", tabs)
	}
	if tabs := Gate(true, session.Anonymous()).Tabs(); len(tabs) != 0 {
		t.Errorf("splash tabs = %v, want none", tabs)
	}

	tabs := Gate(false, session.Authenticated("u1", "a@b.com")).Tabs()
	if len(tabs) != 2 || tabs[0] != ScreenHome || tabs[1] != ScreenEditProfile {
		t.Errorf("authenticated tabs = %v, want [home edit_profile]", tabs)
	}

	// 返り値を書き換えてもグラフに影響しない
	tabs[0] = ScreenLogin
	if got := Gate(false, session.Authenticated("u1", "a@b.com")).Tabs(); got[0] != ScreenHome {
		t.Errorf("Tabs() should return a copy, got %v", got)
	}
}

func TestScreen_String(t *testing.T) {
	tests := map[Screen]string{
		ScreenSplash:      "splash",
		ScreenLogin:       "login",
		ScreenRegister:    "register",
		ScreenHome:        "home",
		ScreenEditProfile: "edit_profile",
		Screen(99):        "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Screen(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
