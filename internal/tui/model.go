// Package tui はbubbleteaによる端末クライアントを提供する。
// ルートのModelがセッションと読み込み中フラグからナビゲーションゲートを評価し、
// グラフが変わるたびに入口の画面をマウントし直す。
package tui

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hitoshi/eduapp/internal/backend"
	"github.com/hitoshi/eduapp/internal/navigation"
	"github.com/hitoshi/eduapp/internal/screen"
	"github.com/hitoshi/eduapp/internal/session"
)

// DefaultSplashDuration はスプラッシュ画面の表示時間の既定値。
const DefaultSplashDuration = 3 * time.Second

// Config はModelの依存関係。
type Config struct {
	Auth      backend.Auth
	Documents backend.Documents

	// Session は起動時点のセッション。以降の変更はSessionChangedMsgで届ける。
	Session        session.Session
	SplashDuration time.Duration
	Clock          screen.Clock
	Keys           *KeyMap
	Theme          *Theme
}

// Model はクライアントのルートモデル。
type Model struct {
	cfg    Config
	keys   KeyMap
	styles styles

	loading   bool
	session   session.Session
	graph     navigation.Graph
	graphUser string

	mounted view
	mountID int
	cancel  context.CancelFunc

	alert *alert
	width int

	splash    *time.Timer
	done      chan struct{}
	closeOnce sync.Once
}

// New はModelを生成する。スプラッシュ画面がマウントされた状態で始まる。
func New(cfg Config) *Model {
	if cfg.SplashDuration <= 0 {
		cfg.SplashDuration = DefaultSplashDuration
	}
	keys := DefaultKeyMap
	if cfg.Keys != nil {
		keys = *cfg.Keys
	}
	theme := DefaultTheme
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}

	m := &Model{
		cfg:     cfg,
		keys:    keys,
		styles:  newStyles(theme),
		loading: true,
		session: cfg.Session,
		done:    make(chan struct{}),
	}
	m.graph = navigation.Gate(m.loading, m.session)
	m.mount(m.graph.Entry)
	return m
}

// Init はスプラッシュのタイマーを開始する。
func (m *Model) Init() tea.Cmd {
	m.splash = time.NewTimer(m.cfg.SplashDuration)
	timer, done := m.splash, m.done
	return func() tea.Msg {
		select {
		case <-timer.C:
			return splashDoneMsg{}
		case <-done:
			return nil
		}
	}
}

// Close はスプラッシュのタイマーを止め、マウント中の画面のコンテキストをキャンセルする。
// 冪等。Programの終了後に呼ぶ。
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		if m.splash != nil {
			m.splash.Stop()
		}
		close(m.done)
		if m.cancel != nil {
			m.cancel()
		}
	})
}

// Screen はマウント中の画面を返す。
func (m *Model) Screen() navigation.Screen {
	return m.mounted.screen()
}

// Graph は現在の画面グラフを返す。
func (m *Model) Graph() navigation.Graph {
	return m.graph
}

// Update はtea.Modelを実装する。
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case SessionChangedMsg:
		m.session = msg.Session
		return m, m.route()

	case splashDoneMsg:
		if !m.loading {
			return m, nil
		}
		m.loading = false
		return m, m.route()

	case scopedMsg:
		if msg.mountID != m.mountID {
			return m, m.handleStale(msg)
		}
		return m, m.handleScoped(msg.msg)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, m.scope(m.mounted.update(msg))
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.alert = nil

	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}

	runeKey := msg.Type == tea.KeyRunes
	if runeKey && m.mounted.capturesText() {
		return m.scope(m.mounted.update(msg))
	}

	if key.Matches(msg, m.keys.QuitRune) {
		return tea.Quit
	}
	if m.graph.Kind == navigation.GraphAuthenticated {
		switch {
		case key.Matches(msg, m.keys.TabHome):
			return m.switchTab(navigation.ScreenHome)
		case key.Matches(msg, m.keys.TabEdit):
			return m.switchTab(navigation.ScreenEditProfile)
		}
	}
	return m.scope(m.mounted.update(msg))
}

func (m *Model) switchTab(s navigation.Screen) tea.Cmd {
	if m.mounted.screen() == s {
		return nil
	}
	return m.mount(s)
}

// handleScoped はマウント中の画面が発行したメッセージを処理する。
func (m *Model) handleScoped(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case navigateMsg:
		if !m.graph.Reachable(msg.to) {
			slog.Warn("navigation outside current graph",
				slog.String("screen", msg.to.String()),
				slog.String("graph", m.graph.Kind.String()),
			)
			return nil
		}
		cmd := m.mount(msg.to)
		m.alert = msg.alert
		return cmd

	case alertMsg:
		a := msg.alert
		m.alert = &a
		return nil
	}
	return m.scope(m.mounted.update(msg))
}

// handleStale はアンマウント済みの画面から届いたメッセージを処理する。
// 登録結果だけは、アカウント作成の通知で画面が切り替わった後に届くため破棄しない。
func (m *Model) handleStale(msg scopedMsg) tea.Cmd {
	if r, ok := msg.msg.(registeredMsg); ok {
		if r.err != nil {
			a := errorAlert(r.err)
			m.alert = &a
			return nil
		}
		// プロフィールの書き込み前に読み込んだホーム画面を更新する
		if home, ok := m.mounted.(*homeView); ok {
			return m.scope(home.load())
		}
		return nil
	}

	slog.Debug("dropped result from unmounted screen",
		slog.Int("mount_id", msg.mountID),
		slog.Int("current_mount_id", m.mountID),
	)
	return nil
}

// route はナビゲーションゲートを評価し、グラフが変わった場合は入口の画面をマウントする。
func (m *Model) route() tea.Cmd {
	g := navigation.Gate(m.loading, m.session)
	sameUser := g.Kind != navigation.GraphAuthenticated || m.graphUser == m.session.UserID
	if g.Kind == m.graph.Kind && sameUser {
		return nil
	}

	slog.Info("navigation graph changed",
		slog.String("from", m.graph.Kind.String()),
		slog.String("to", g.Kind.String()),
	)
	m.graph = g
	m.graphUser = m.session.UserID
	m.alert = nil
	return m.mount(g.Entry)
}

// mount は現在の画面をアンマウントし、新しい画面をマウントする。
// 前の画面のコンテキストはキャンセルされ、その画面の結果は以降破棄される。
func (m *Model) mount(s navigation.Screen) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mountID++
	m.mounted = m.newView(ctx, s)
	return m.scope(m.mounted.init())
}

func (m *Model) newView(ctx context.Context, s navigation.Screen) view {
	switch s {
	case navigation.ScreenLogin:
		return newLoginView(ctx, screen.NewLogin(m.cfg.Auth), m.keys)
	case navigation.ScreenRegister:
		return newRegisterView(ctx, screen.NewRegister(m.cfg.Auth, m.cfg.Documents, m.cfg.Clock), m.keys)
	case navigation.ScreenHome:
		return newHomeView(ctx, screen.NewHome(m.cfg.Auth, m.cfg.Documents, m.session), m.keys)
	case navigation.ScreenEditProfile:
		return newEditProfileView(ctx, screen.NewEditProfile(m.cfg.Auth, m.cfg.Documents, m.session, m.cfg.Clock), m.keys)
	default:
		return splashView{}
	}
}

// scope は画面が返したコマンドの結果に現在のマウントIDを付ける。
func (m *Model) scope(cmd tea.Cmd) tea.Cmd {
	return scoped(m.mountID, cmd)
}

func scoped(id int, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		msg := cmd()
		switch msg := msg.(type) {
		case nil:
			return nil
		case tea.BatchMsg:
			wrapped := make(tea.BatchMsg, 0, len(msg))
			for _, c := range msg {
				wrapped = append(wrapped, scoped(id, c))
			}
			return wrapped
		}
		return scopedMsg{mountID: id, msg: msg}
	}
}

// View はtea.Modelを実装する。
func (m *Model) View() string {
	var b strings.Builder

	if tabs := m.graph.Tabs(); len(tabs) > 0 {
		b.WriteString(m.renderTabs(tabs))
		b.WriteString("\n\n")
	}

	b.WriteString(m.mounted.render(m.styles))
	b.WriteString("\n\n")

	if m.alert != nil {
		style := m.styles.alertError
		if m.alert.kind == alertInfo {
			style = m.styles.alertInfo
		}
		b.WriteString(style.Render(m.alert.text))
		b.WriteString("\n")
	}

	if h := m.mounted.help(); h != "" {
		b.WriteString(m.styles.faint.Render(h))
		b.WriteString("\n")
	}

	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}

func (m *Model) renderTabs(tabs []navigation.Screen) string {
	labels := map[navigation.Screen]string{
		navigation.ScreenHome:        "1 ホーム",
		navigation.ScreenEditProfile: "2 プロフィール編集",
	}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		style := m.styles.tabInactive
		if t == m.mounted.screen() {
			style = m.styles.tabActive
		}
		parts = append(parts, style.Render(labels[t]))
	}
	return strings.Join(parts, "   ")
}
