// Package model はドメインモデルを定義する。
package model

import "time"

// User は認証バックエンドに登録されたアカウントを表す。
// プロフィール情報はusersコレクションのドキュメントとして別に保持する。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	HashVersion  string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
