// eduapp は学歴プロフィールアプリのAPIサーバー・ワーカー・端末クライアントを1つにまとめたバイナリ。
//
//	eduapp serve        APIサーバー（既定）
//	eduapp worker       期限切れセッションのクリーンアップ
//	eduapp migrate      データベースマイグレーション
//	eduapp healthcheck  コンテナ用ヘルスチェック
//	eduapp client       端末クライアント
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/eduapp/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
