// Package screen は各画面の入力検証とバックエンド呼び出しを行うコントローラーを提供する。
// バックエンドの失敗は呼び出し元で表示用メッセージに変換し、それ以上は伝播させない。
package screen

import (
	"errors"

	"github.com/hitoshi/eduapp/internal/model"
)

// Operation はメッセージの文脈となる画面操作。
type Operation int

const (
	OpSignIn Operation = iota
	OpRegister
	OpSaveRegisteredProfile
	OpLoadProfile
	OpSaveProfile
	OpChangePassword
	OpSignOut
)

// Error は画面に表示するメッセージを持つエラー。
// Causeはバックエンドの元のエラーで、入力検証エラーの場合はnil。
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// 入力検証メッセージ
const (
	msgRequired         = "すべての項目を入力してください"
	msgInvalidEmail     = "有効なメールアドレスを入力してください"
	msgShortPassword    = "パスワードは6文字以上で入力してください"
	msgInvalidYear      = "有効な卒業年を入力してください"
	msgPasswordRequired = "パスワード欄をすべて入力してください"
	msgShortNewPassword = "新しいパスワードは6文字以上で入力してください"
	msgPasswordMismatch = "パスワードが一致しません"
)

func invalid(message string) error {
	return &Error{Message: message}
}

func failed(op Operation, err error) error {
	return &Error{Message: UserMessage(op, err), Cause: err}
}

// 操作ごとの既定メッセージ。コードで判別できない失敗に使う。
var defaultMessages = map[Operation]string{
	OpSignIn:                "サインインに失敗しました",
	OpRegister:              "ユーザー登録に失敗しました",
	OpSaveRegisteredProfile: "アカウントは作成されましたが、プロフィールを保存できませんでした",
	OpLoadProfile:           "ユーザー情報を読み込めませんでした",
	OpSaveProfile:           "プロフィールを更新できませんでした",
	OpChangePassword:        "パスワードの変更に失敗しました",
	OpSignOut:               "サインアウトできませんでした",
}

// UserMessage はバックエンドのエラーを操作に応じた表示用メッセージに変換する。
// 認証操作はエラーコードごとに文言を変え、未知のコードではサーバーのメッセージを使う。
// ドキュメント操作とサインアウトは常に操作ごとの既定メッセージを返す。
func UserMessage(op Operation, err error) string {
	fallback, ok := defaultMessages[op]
	if !ok {
		fallback = "エラーが発生しました"
	}

	switch op {
	case OpSignIn, OpRegister, OpChangePassword:
	default:
		return fallback
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return fallback
	}

	switch apiErr.Code {
	case model.ErrCodeInvalidEmail:
		return "メールアドレスの形式が正しくありません"
	case model.ErrCodeUserDisabled:
		return "このアカウントは無効化されています"
	case model.ErrCodeUserNotFound:
		return "ユーザーが見つかりません"
	case model.ErrCodeWrongPassword:
		if op == OpChangePassword {
			return "現在のパスワードが正しくありません"
		}
		return "パスワードが正しくありません"
	case model.ErrCodeInvalidCredential:
		return "認証情報が正しくありません"
	case model.ErrCodeEmailAlreadyInUse:
		return "このメールアドレスは既に登録されています"
	case model.ErrCodeOperationNotAllowed:
		return "この操作は許可されていません"
	case model.ErrCodeWeakPassword:
		if op == OpChangePassword {
			return "新しいパスワードが弱すぎます"
		}
		return "パスワードが弱すぎます"
	case model.ErrCodeRateLimitExceeded:
		return "試行回数が多すぎます。しばらく待ってから再度お試しください"
	}

	if apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
