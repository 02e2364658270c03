// Package document はユーザーごとのドキュメント（プロフィール）の読み書きを提供する。
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/eduapp/internal/metrics"
	"github.com/hitoshi/eduapp/internal/model"
	"github.com/hitoshi/eduapp/internal/repository"
	"github.com/hitoshi/eduapp/internal/security"
)

const (
	maxFieldNameLength = 64
	maxStringLength    = 4096
	maxFields          = 64
)

// Service はドキュメント操作のサービス層。
// アクセス規則: コレクション "users" のうち、キーが呼び出し元のユーザーIDと一致するものだけ読み書きできる。
type Service struct {
	repo      repository.DocumentRepository
	sanitizer security.ContentSanitizer
	metrics   metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.DocumentRepository,
	sanitizer security.ContentSanitizer,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		metrics:   collector,
	}
}

// Get はドキュメントを取得する。存在しない場合はDOCUMENT_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, userID, collection, key string) (*model.Document, error) {
	doc, err := s.get(ctx, userID, collection, key)
	s.record("get", err)
	return doc, err
}

func (s *Service) get(ctx context.Context, userID, collection, key string) (*model.Document, error) {
	if err := authorize(userID, collection, key); err != nil {
		return nil, err
	}

	doc, err := s.repo.Get(ctx, collection, key)
	if err != nil {
		return nil, fmt.Errorf("ドキュメントの取得に失敗しました: %w", err)
	}
	if doc == nil {
		return nil, model.NewDocumentNotFoundError(collection, key)
	}
	return doc, nil
}

// Set はドキュメントを作成、または全フィールドを置き換える。
func (s *Service) Set(ctx context.Context, userID, collection, key string, fields model.Fields) error {
	err := s.set(ctx, userID, collection, key, fields)
	s.record("set", err)
	return err
}

func (s *Service) set(ctx context.Context, userID, collection, key string, fields model.Fields) error {
	if err := authorize(userID, collection, key); err != nil {
		return err
	}
	if fields == nil {
		fields = model.Fields{}
	}
	if err := validateFields(fields); err != nil {
		return err
	}

	clean, err := s.sanitize(fields)
	if err != nil {
		return err
	}
	if err := s.repo.Set(ctx, collection, key, clean); err != nil {
		return fmt.Errorf("ドキュメントの保存に失敗しました: %w", err)
	}
	return nil
}

// Update は既存ドキュメントにフィールドをマージする。
// ドキュメントが存在しない場合はDOCUMENT_NOT_FOUNDを返す。
func (s *Service) Update(ctx context.Context, userID, collection, key string, fields model.Fields) error {
	err := s.update(ctx, userID, collection, key, fields)
	s.record("update", err)
	return err
}

func (s *Service) update(ctx context.Context, userID, collection, key string, fields model.Fields) error {
	if err := authorize(userID, collection, key); err != nil {
		return err
	}
	if len(fields) == 0 {
		return model.NewInvalidDocumentError("更新するフィールドがありません")
	}
	if err := validateFields(fields); err != nil {
		return err
	}

	clean, err := s.sanitize(fields)
	if err != nil {
		return err
	}
	err = s.repo.Merge(ctx, collection, key, clean)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewDocumentNotFoundError(collection, key)
	}
	if err != nil {
		return fmt.Errorf("ドキュメントの更新に失敗しました: %w", err)
	}
	return nil
}

// authorize はアクセス規則を検証する。
func authorize(userID, collection, key string) error {
	if userID == "" || collection != model.UsersCollection || key != userID {
		return model.NewPermissionDeniedError()
	}
	return nil
}

// sanitize は文字列フィールドからHTMLを除去する。
// 入力が空でないのに除去後に空になる値（"<Diana>" など）は保存せずINVALID_DOCUMENTを返す。
func (s *Service) sanitize(fields model.Fields) (model.Fields, error) {
	clean := s.sanitizer.SanitizeFields(fields)
	for name, v := range fields {
		raw, ok := v.(string)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if out, _ := clean[name].(string); strings.TrimSpace(out) == "" {
			return nil, model.NewInvalidDocumentError(fmt.Sprintf("%s にはタグ以外の文字を入力してください", name))
		}
	}
	return clean, nil
}

// validateFields はフィールド名と値の型を検証する。
// 値は文字列・数値・真偽値のみ許可し、nullやネストした値は拒否する。
func validateFields(fields model.Fields) error {
	if len(fields) > maxFields {
		return model.NewInvalidDocumentError(fmt.Sprintf("フィールド数は%d以下にしてください", maxFields))
	}
	for name, v := range fields {
		if name == "" || utf8.RuneCountInString(name) > maxFieldNameLength {
			return model.NewInvalidDocumentError(fmt.Sprintf("フィールド名が不正です: %q", name))
		}
		switch val := v.(type) {
		case string:
			if utf8.RuneCountInString(val) > maxStringLength {
				return model.NewInvalidDocumentError(fmt.Sprintf("%s が長すぎます", name))
			}
		case bool, float64, float32, int, int32, int64:
		default:
			return model.NewInvalidDocumentError(fmt.Sprintf("%s の値の型 %T は保存できません", name, v))
		}
	}
	return nil
}

// record は操作結果をメトリクスに記録する。
func (s *Service) record(operation string, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = model.ErrCodeInternal
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			result = apiErr.Code
		}
	}
	s.metrics.RecordDocumentOp(operation, result)
}
