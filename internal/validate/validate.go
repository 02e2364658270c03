// Package validate は入力値の検証ルールを提供する。
// クライアントの画面とバックエンドの認証サービスで同じルールを共有する。
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

// MinGraduationYear は卒業年として受け付ける最小の年。
const MinGraduationYear = 1950

// GraduationYearLookahead は現在年から先に受け付ける年数。
const GraduationYearLookahead = 10

// emailPart は空白と@以外の文字の並び。空白にはIMEの全角スペースやノーブレークスペースも含める。
const emailPart = `[^\s\v\p{Z}\x{FEFF}@]+`

var emailPattern = regexp.MustCompile(`^` + emailPart + `@` + emailPart + `\.` + emailPart + `$`)

// Required は全ての値が空白を除いて空でないかを返す。
func Required(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Email はメールアドレスの形式が正しいかを返す。
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Password はパスワードが最小文字数を満たすかを返す。
// 文字数はバイト数ではなく文字単位で数える。
func Password(s string) bool {
	return utf8.RuneCountInString(s) >= MinPasswordLength
}

// GraduationYear は卒業年が [1950, 現在年+10] の範囲内かを返す。
func GraduationYear(year int, now time.Time) bool {
	return year >= MinGraduationYear && year <= now.Year()+GraduationYearLookahead
}

// ParseGraduationYear は入力文字列を卒業年として解釈する。
// 整数でない、または範囲外の場合はfalseを返す。
func ParseGraduationYear(s string, now time.Time) (int, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	if !GraduationYear(year, now) {
		return 0, false
	}
	return year, true
}
