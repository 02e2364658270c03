// Package session はクライアントが保持する認証状態と、その変更を購読するObserverを提供する。
package session

import (
	"errors"
	"sync"
)

// Session はクライアントから見た現在の認証状態。
// ゼロ値は未認証（Anonymous）を表す。
type Session struct {
	UserID string
	Email  string
}

// Anonymous は未認証状態を返す。
func Anonymous() Session {
	return Session{}
}

// Authenticated は認証済み状態を返す。
func Authenticated(userID, email string) Session {
	return Session{UserID: userID, Email: email}
}

// IsAuthenticated は認証済みかを返す。
func (s Session) IsAuthenticated() bool {
	return s.UserID != ""
}

// Listener はセッション変更の通知を受け取る関数。
type Listener func(Session)

// Source はセッション変更を配信する認証バックエンド側の口。
// 新しいリスナーには登録直後に現在のセッションを1回届け、以降は変更を順に届ける。
// 返り値の関数で登録を解除する。
type Source interface {
	Subscribe(Listener) (unsubscribe func())
}

var (
	// ErrAlreadyStarted はStartが2回呼ばれた場合のエラー。
	ErrAlreadyStarted = errors.New("session observer already started")
	// ErrClosed はClose済みのObserverを開始しようとした場合のエラー。
	ErrClosed = errors.New("session observer closed")
)

type reader struct {
	id int
	fn Listener
}

// Observer は認証バックエンドにリスナーを1つだけ登録し、現在のセッションを保持する。
// 書き込むのはStartで登録したリスナーのみ。読み手への通知はロックの外で行うため、
// 通知コールバックの中からCurrentを呼んでもよい。
type Observer struct {
	src Source

	mu          sync.RWMutex
	current     Session
	started     bool
	closed      bool
	unsubscribe func()
	readers     []reader
	nextID      int
}

// NewObserver はObserverを生成する。Startを呼ぶまでバックエンドには登録しない。
func NewObserver(src Source) *Observer {
	return &Observer{src: src}
}

// Start はバックエンドにリスナーを登録する。
func (o *Observer) Start() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.started {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.started = true
	o.mu.Unlock()

	// Sourceは登録中に現在値を届けるため、ロックを持たずに呼び出す
	unsubscribe := o.src.Subscribe(o.update)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		unsubscribe()
		return ErrClosed
	}
	o.unsubscribe = unsubscribe
	o.mu.Unlock()
	return nil
}

// Current は現在のセッションを返す。
func (o *Observer) Current() Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// Subscribe は読み手を登録する。登録時点の値は届けず、以降の変更のみ通知する。
// 返り値の関数は何度呼んでもよい。
func (o *Observer) Subscribe(fn Listener) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return func() {}
	}

	id := o.nextID
	o.nextID++
	o.readers = append(o.readers, reader{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { o.removeReader(id) })
	}
}

func (o *Observer) removeReader(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, r := range o.readers {
		if r.id == id {
			o.readers = append(o.readers[:i:i], o.readers[i+1:]...)
			return
		}
	}
}

// Close はバックエンドの登録を解除し、読み手を破棄する。冪等。
func (o *Observer) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.readers = nil
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// update はバックエンドから届いたセッションを反映し、値が変わった場合のみ読み手に通知する。
func (o *Observer) update(s Session) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	changed := o.current != s
	o.current = s
	readers := make([]reader, len(o.readers))
	copy(readers, o.readers)
	o.mu.Unlock()

	if !changed {
		return
	}
	for _, r := range readers {
		r.fn(s)
	}
}
