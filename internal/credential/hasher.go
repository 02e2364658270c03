// Package credential はパスワードのハッシュ化と照合を提供する。
package credential

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/eduapp/internal/validate"
)

// HashVersionBcrypt はbcryptで生成したハッシュのバージョン識別子。
const HashVersionBcrypt = "bcrypt"

// ErrPasswordTooShort はパスワードが最小文字数に満たない場合のエラー。
var ErrPasswordTooShort = errors.New("password too short")

// ErrMismatch はパスワードがハッシュと一致しない場合のエラー。
var ErrMismatch = errors.New("password does not match")

// Hasher はパスワードハッシュの生成と照合を行う。
// Costはテストで下げられるようにフィールドとして持つ。
type Hasher struct {
	Cost int
}

// NewHasher はbcryptのデフォルトコストでHasherを生成する。
func NewHasher() *Hasher {
	return &Hasher{Cost: bcrypt.DefaultCost}
}

// Hash は平文パスワードをハッシュ化し、ハッシュとバージョンを返す。
func (h *Hasher) Hash(password string) (hash string, version string, err error) {
	if !validate.Password(password) {
		return "", "", ErrPasswordTooShort
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", "", err
	}

	return string(b), HashVersionBcrypt, nil
}

// Verify は平文パスワードと保存済みハッシュを照合する。
// 一致しない場合はErrMismatchを返す。
func (h *Hasher) Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
