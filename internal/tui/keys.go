package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap はクライアントのキー割り当て。
type KeyMap struct {
	Quit     key.Binding // 常に有効
	QuitRune key.Binding // 入力欄のない画面でのみ有効

	// 認証済みグラフのタブ
	TabHome key.Binding
	TabEdit key.Binding

	// フォーム
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Back   key.Binding

	ToRegister     key.Binding
	TogglePassword key.Binding

	// ホーム
	Refresh key.Binding
	Edit    key.Binding
	SignOut key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap は既定のキー割り当て。
// 数字のタブキーは入力欄のある画面では文字入力として扱うため、F1/F2でも切り替えられる。
var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "終了"),
	),
	QuitRune: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "終了"),
	),
	TabHome: key.NewBinding(
		key.WithKeys("1", "f1"),
		key.WithHelp("1", "ホーム"),
	),
	TabEdit: key.NewBinding(
		key.WithKeys("2", "f2"),
		key.WithHelp("2", "プロフィール編集"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "次の項目"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("S-tab", "前の項目"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "送信"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "戻る"),
	),
	ToRegister: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "新規登録"),
	),
	TogglePassword: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("C-p", "パスワード変更"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "再読み込み"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "編集"),
	),
	SignOut: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "サインアウト"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "はい"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n", "いいえ"),
	),
}

// helpLine はキーのヘルプを1行にまとめる。
func helpLine(bindings ...key.Binding) string {
	var line string
	for i, b := range bindings {
		if i > 0 {
			line += "  "
		}
		h := b.Help()
		line += h.Key + " " + h.Desc
	}
	return line
}
