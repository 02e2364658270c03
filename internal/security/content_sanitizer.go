// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer はドキュメントに保存される文字列フィールドからHTMLを取り除き、
// プレーンテキストとして保存させる。
// クライアントがWebビューで表示する場合でもスクリプトが混入しないようにする。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/eduapp/internal/model"
)

// ContentSanitizer は文字列サニタイズ機能のインターフェースを定義する。
// ドキュメントの保存前に使用される。
type ContentSanitizer interface {
	// SanitizeText は全てのHTMLタグを除去したプレーンテキストを返す。
	// script, styleタグは内容ごと除去される。
	// 実体参照は元の文字に戻すため、"R&D" はそのまま保存される。
	SanitizeText(s string) string

	// SanitizeFields は文字列値のみをサニタイズした新しいFieldsを返す。
	// 数値・真偽値はそのまま残す。入力は変更しない。
	SanitizeFields(fields model.Fields) model.Fields
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので全リクエストで共有する。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses は実体参照の多重エンコードを剥がす回数の上限。
const maxSanitizePasses = 8

// SanitizeText は全てのHTMLを除去したプレーンテキストを返す。
// 実体参照を戻した結果にタグが現れることがあるため、出力が変わらなくなるまで繰り返す。
func (s *contentSanitizer) SanitizeText(raw string) string {
	out := raw
	for i := 0; i < maxSanitizePasses; i++ {
		if out == "" {
			return ""
		}
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return out
		}
		out = next
	}
	// 上限に達した場合はエスケープしたまま返す
	return s.policy.Sanitize(out)
}

// SanitizeFields は文字列フィールドをサニタイズする。
func (s *contentSanitizer) SanitizeFields(fields model.Fields) model.Fields {
	if fields == nil {
		return nil
	}
	out := make(model.Fields, len(fields))
	for k, v := range fields {
		if str, ok := v.(string); ok {
			out[k] = s.SanitizeText(str)
			continue
		}
		out[k] = v
	}
	return out
}

var _ ContentSanitizer = (*contentSanitizer)(nil)
