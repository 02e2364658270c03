package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field struct {
	label       string
	placeholder string
	secret      bool
	limit       int
}

// form はラベル付きの入力欄の並びとフォーカス位置を持つ。
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

func newForm(fields ...field) *form {
	f := &form{}
	for _, fd := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = fd.placeholder
		in.CharLimit = fd.limit
		if in.CharLimit == 0 {
			in.CharLimit = 128
		}
		if fd.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		in.Cursor.SetMode(cursor.CursorStatic)
		f.labels = append(f.labels, fd.label)
		f.inputs = append(f.inputs, in)
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *form) next() { f.setFocus(f.focus + 1) }

func (f *form) prev() { f.setFocus(f.focus - 1) }

func (f *form) blur() {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
}

// update はフォーカス中の入力欄にメッセージを渡す。
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) value(i int) string { return f.inputs[i].Value() }

func (f *form) setValue(i int, s string) { f.inputs[i].SetValue(s) }

func (f *form) reset() {
	for j := range f.inputs {
		f.inputs[j].Reset()
	}
	f.setFocus(0)
}

func (f *form) render(st styles, active bool) string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := st.label.Render(f.labels[i])
		if active && i == f.focus {
			label = st.focused.Render(f.labels[i])
		}
		b.WriteString(label)
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	return b.String()
}
