// Package backend は認証・ドキュメントバックエンドへのクライアントを提供する。
// 画面はAuthとDocumentsのインターフェース経由でのみバックエンドと通信する。
package backend

import (
	"context"

	"github.com/hitoshi/eduapp/internal/model"
	"github.com/hitoshi/eduapp/internal/session"
)

// Auth は認証バックエンドの操作。
// サインイン・アカウント作成・サインアウト・セッション失効の結果はSubscribeで通知される。
type Auth interface {
	SignIn(ctx context.Context, email, password string) (session.Session, error)
	CreateAccount(ctx context.Context, email, password string) (session.Session, error)
	SignOut(ctx context.Context) error
	// ChangePassword は現在のパスワードで再認証してからパスワードを変更する。
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	Subscribe(l session.Listener) (unsubscribe func())
	Current() session.Session
}

// Documents はドキュメントバックエンドの操作。
type Documents interface {
	// Get はドキュメントを返す。存在しない場合は (nil, nil) を返す。
	Get(ctx context.Context, collection, key string) (*model.Document, error)
	Set(ctx context.Context, collection, key string, fields model.Fields) error
	Update(ctx context.Context, collection, key string, fields model.Fields) error
}
