package backend

import (
	"sync"

	"github.com/hitoshi/eduapp/internal/session"
)

// Notifier はセッション変更をリスナーに配信する。
// 新しいリスナーには登録直後に現在値を届ける。配信は登録・変更の順に直列化される。
type Notifier struct {
	emitMu sync.Mutex // 配信の直列化

	mu        sync.Mutex
	current   session.Session
	listeners map[int]session.Listener
	nextID    int
}

// NewNotifier はNotifierを生成する。初期値は未認証。
func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]session.Listener)}
}

// Subscribe はリスナーを登録し、現在のセッションを直ちに届ける。
func (n *Notifier) Subscribe(l session.Listener) func() {
	n.emitMu.Lock()
	defer n.emitMu.Unlock()

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = l
	current := n.current
	n.mu.Unlock()

	l(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// Current は現在のセッションを返す。
func (n *Notifier) Current() session.Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Set はセッションを更新し、変化があれば全リスナーに配信する。
func (n *Notifier) Set(s session.Session) {
	n.emitMu.Lock()
	defer n.emitMu.Unlock()

	n.mu.Lock()
	if n.current == s {
		n.mu.Unlock()
		return
	}
	n.current = s
	listeners := make([]session.Listener, 0, len(n.listeners))
	for _, l := range n.listeners {
		listeners = append(listeners, l)
	}
	n.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}
