// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, document, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidEmail        = "INVALID_EMAIL"
	ErrCodeWrongPassword       = "WRONG_PASSWORD"
	ErrCodeWeakPassword        = "WEAK_PASSWORD"
	ErrCodeInvalidCredential   = "INVALID_CREDENTIAL"
	ErrCodeEmailAlreadyInUse   = "EMAIL_ALREADY_IN_USE"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeUserDisabled        = "USER_DISABLED"
	ErrCodeOperationNotAllowed = "OPERATION_NOT_ALLOWED"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeDocumentNotFound    = "DOCUMENT_NOT_FOUND"
	ErrCodePermissionDenied    = "PERMISSION_DENIED"
	ErrCodeInvalidDocument     = "INVALID_DOCUMENT"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// HasCode はerrのチェーンに指定コードのAPIErrorが含まれるかを返す。
func HasCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "メールアドレスの形式が正しくありません。",
		Category: "validation",
		Action:   "name@example.com の形式で入力してください。",
	}
}

// NewWrongPasswordError はパスワード不一致エラーを生成する。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongPassword,
		Message:  "パスワードが正しくありません。",
		Category: "auth",
		Action:   "パスワードを確認して再度入力してください。",
	}
}

// NewWeakPasswordError はパスワード強度不足エラーを生成する。
func NewWeakPasswordError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("パスワードは%d文字以上である必要があります。", minLength),
		Category: "validation",
		Action:   "より長いパスワードを設定してください。",
	}
}

// NewEmailAlreadyInUseError はメールアドレス重複エラーを生成する。
func NewEmailAlreadyInUseError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyInUse,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログイン画面からログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "メールアドレスを確認するか、新規登録してください。",
	}
}

// NewUserDisabledError は無効化されたユーザーのエラーを生成する。
func NewUserDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeUserDisabled,
		Message:  "このユーザーは無効化されています。",
		Category: "auth",
		Action:   "管理者に問い合わせてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewDocumentNotFoundError はドキュメント未検出エラーを生成する。
func NewDocumentNotFoundError(collection, key string) *APIError {
	return &APIError{
		Code:     ErrCodeDocumentNotFound,
		Message:  fmt.Sprintf("ドキュメントが見つかりません: %s/%s", collection, key),
		Category: "document",
		Action:   "ドキュメントを作成してから更新してください。",
	}
}

// NewPermissionDeniedError はアクセス規則違反エラーを生成する。
func NewPermissionDeniedError() *APIError {
	return &APIError{
		Code:     ErrCodePermissionDenied,
		Message:  "このドキュメントへのアクセス権がありません。",
		Category: "document",
		Action:   "自分のプロフィールのみ参照・更新できます。",
	}
}

// NewInvalidDocumentError は不正なフィールド値のエラーを生成する。
func NewInvalidDocumentError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDocument,
		Message:  fmt.Sprintf("ドキュメントの内容が不正です: %s", reason),
		Category: "validation",
		Action:   "フィールドには文字列・数値・真偽値のみ指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストの形式が正しくありません。",
		Category: "validation",
		Action:   "JSON形式で送信してください。",
	}
}
