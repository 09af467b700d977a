package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/collabifyy/internal/model"
)

// sessionPayload はsessions.sessカラムに保存するJSONの形式。
type sessionPayload struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func encodeSessionPayload(session *model.Session) ([]byte, error) {
	return json.Marshal(sessionPayload{
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
	})
}

func decodeSessionPayload(id string, data []byte, expiresAt time.Time) (*model.Session, error) {
	var p sessionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode session payload: %w", err)
	}
	return &model.Session{
		ID:        id,
		UserID:    p.UserID,
		ExpiresAt: expiresAt,
		CreatedAt: p.CreatedAt,
	}, nil
}

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	payload, err := encodeSessionPayload(session)
	if err != nil {
		return fmt.Errorf("failed to encode session payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (sid, sess, expire) VALUES ($1, $2, $3)`,
		session.ID, payload, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var (
		data      []byte
		expiresAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT sess, expire FROM sessions WHERE sid = $1 AND expire > now()`,
		id,
	).Scan(&data, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return decodeSessionPayload(id, data, expiresAt)
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE sid = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expire <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var (
	_ SessionRepository = (*PostgresSessionRepo)(nil)
	_ SessionPruner     = (*PostgresSessionRepo)(nil)
)
