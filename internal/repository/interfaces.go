// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/eduapp/internal/model"
)

// ErrEmailTaken はメールアドレスが既に登録されている場合のエラー。
var ErrEmailTaken = errors.New("email already registered")

// ErrNotFound は更新対象が存在しない場合のエラー。
var ErrNotFound = errors.New("record not found")

// UserRepository はアカウントデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrEmailTakenを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdatePassword はパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash, hashVersion string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteOthers は指定ユーザーのセッションのうちkeepID以外を全て削除する。
	// パスワード変更時に他の端末のセッションを失効させるために使用する。
	DeleteOthers(ctx context.Context, userID, keepID string) error
}

// DocumentRepository はドキュメントの永続化インターフェース。
type DocumentRepository interface {
	// Get は(collection, key)のドキュメントを取得する。見つからない場合はnilを返す。
	Get(ctx context.Context, collection, key string) (*model.Document, error)

	// Set はドキュメントを作成、または全フィールドを置き換える。
	Set(ctx context.Context, collection, key string, fields model.Fields) error

	// Merge は既存ドキュメントにフィールドをマージする。
	// ドキュメントが存在しない場合はErrNotFoundを返す。
	Merge(ctx context.Context, collection, key string, fields model.Fields) error
}
