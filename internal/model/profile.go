package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// プロフィールドキュメントのフィールド名
const (
	FieldName           = "name"
	FieldEmail          = "email"
	FieldDegree         = "degree"
	FieldGraduationYear = "graduationYear"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"
)

// Profile はusersコレクションに保存される学歴プロフィール。
// GraduationYearが0の場合は未設定を表す。
type Profile struct {
	Name           string
	Email          string
	Degree         string
	GraduationYear int
	CreatedAt      string
	UpdatedAt      string
}

// NewRegisteredProfile は登録時に書き込むプロフィールを生成する。
// 名前と学位は前後の空白を除去し、メールアドレスは小文字に正規化する。
func NewRegisteredProfile(name, email, degree string, graduationYear int, now time.Time) Profile {
	return Profile{
		Name:           strings.TrimSpace(name),
		Email:          strings.ToLower(email),
		Degree:         strings.TrimSpace(degree),
		GraduationYear: graduationYear,
		CreatedAt:      now.UTC().Format(time.RFC3339),
	}
}

// Fields はプロフィールをドキュメントのフィールドに変換する。
// 空のタイムスタンプは出力しない。
func (p Profile) Fields() Fields {
	f := Fields{
		FieldName:           p.Name,
		FieldEmail:          p.Email,
		FieldDegree:         p.Degree,
		FieldGraduationYear: p.GraduationYear,
	}
	if p.CreatedAt != "" {
		f[FieldCreatedAt] = p.CreatedAt
	}
	if p.UpdatedAt != "" {
		f[FieldUpdatedAt] = p.UpdatedAt
	}
	return f
}

// ProfileFromFields はドキュメントのフィールドからプロフィールを組み立てる。
// 欠けているフィールドはゼロ値のままにする。
func ProfileFromFields(f Fields) Profile {
	return Profile{
		Name:           stringField(f, FieldName),
		Email:          stringField(f, FieldEmail),
		Degree:         stringField(f, FieldDegree),
		GraduationYear: intField(f, FieldGraduationYear),
		CreatedAt:      stringField(f, FieldCreatedAt),
		UpdatedAt:      stringField(f, FieldUpdatedAt),
	}
}

func stringField(f Fields, name string) string {
	s, _ := f[name].(string)
	return s
}

// intField はJSONデコード由来のfloat64や文字列で保存された年も受け付ける。
func intField(f Fields, name string) int {
	switch v := f[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.Trunc(v) == v {
			return int(v)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return 0
}
