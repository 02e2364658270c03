package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/eduapp/internal/model"
)

// PostgresDocumentRepo はPostgreSQLのJSONBカラムを使用したドキュメントリポジトリ。
type PostgresDocumentRepo struct {
	db *sql.DB
}

// NewPostgresDocumentRepo はPostgresDocumentRepoを生成する。
func NewPostgresDocumentRepo(db *sql.DB) *PostgresDocumentRepo {
	return &PostgresDocumentRepo{db: db}
}

// Get は(collection, key)のドキュメントを取得する。見つからない場合はnilを返す。
func (r *PostgresDocumentRepo) Get(ctx context.Context, collection, key string) (*model.Document, error) {
	doc := &model.Document{Collection: collection, Key: key}
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT fields, created_at, updated_at FROM documents WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&raw, &doc.CreatedAt, &doc.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if err := json.Unmarshal(raw, &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode document fields: %w", err)
	}
	return doc, nil
}

// Set はドキュメントを作成、または全フィールドを置き換える。
// 置き換え時もcreated_atは保持する。
func (r *PostgresDocumentRepo) Set(ctx context.Context, collection, key string, fields model.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document fields: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (collection, key, fields, created_at, updated_at)
		 VALUES ($1, $2, $3::jsonb, now(), now())
		 ON CONFLICT (collection, key)
		 DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()`,
		collection, key, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

// Merge は既存ドキュメントにフィールドをマージする（同名フィールドは上書き）。
func (r *PostgresDocumentRepo) Merge(ctx context.Context, collection, key string, fields model.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document fields: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET fields = fields || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND key = $2`,
		collection, key, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to merge document: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ DocumentRepository = (*PostgresDocumentRepo)(nil)
