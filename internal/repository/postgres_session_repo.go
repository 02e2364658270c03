package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/eduapp/internal/model"
)

// PostgresSessionRepo はsessionsテーブルにログインセッションを保存する。
// 期限切れ行の削除はcleanupジョブが担う。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

const sessionColumns = `id, user_id, expires_at, created_at`

// Create はサインイン・登録時に発行したセッションを保存する。
func (r *PostgresSessionRepo) Create(ctx context.Context, s *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4)`,
		s.ID, s.UserID, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session %s for user %s: %w", maskSessionID(s.ID), s.UserID, err)
	}
	return nil
}

// FindByID は有効期限内のセッションを返す。無い場合はnil, nil。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to find session %s: %w", maskSessionID(id), err)
	}
	return &s, nil
}

// DeleteByID はサインアウトしたセッションを削除する。存在しなくてもエラーにしない。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", maskSessionID(id), err)
	}
	return nil
}

// DeleteOthers はパスワード変更後に他端末のセッションを失効させる。
func (r *PostgresSessionRepo) DeleteOthers(ctx context.Context, userID, keepID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND id <> $2`,
		userID, keepID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions of user %s: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Info("revoked other sessions", slog.String("user_id", userID), slog.Int64("count", n))
	}
	return nil
}

// maskSessionID はログやエラーに出すセッションIDを先頭8文字に切り詰める。
func maskSessionID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

var _ SessionRepository = (*PostgresSessionRepo)(nil)
