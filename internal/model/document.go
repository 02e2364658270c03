package model

import "time"

// UsersCollection はユーザープロフィールを格納するコレクション名。
const UsersCollection = "users"

// Fields はドキュメントのフィールド名から値へのマッピング。
// 値は文字列・数値・真偽値のいずれか。
type Fields map[string]any

// Document はドキュメントストアに保存される1件のレコードを表す。
// (Collection, Key) の組で一意に識別される。
type Document struct {
	Collection string
	Key        string
	Fields     Fields
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
