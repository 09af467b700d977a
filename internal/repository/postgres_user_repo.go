package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/collabifyy/internal/model"
)

const userColumns = `id, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
	COALESCE(profile_image_url, ''), created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.ProfileImageURL, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// Upsert はIDをキーにユーザーを作成または更新する。
// 空文字列のフィールドはNULLとして保存する。
// created_atは初回作成時のみ設定され、更新時はupdated_atのみ進める。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	saved := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), now(), now())
		 ON CONFLICT (id) DO UPDATE SET
		     email = EXCLUDED.email,
		     first_name = EXCLUDED.first_name,
		     last_name = EXCLUDED.last_name,
		     profile_image_url = EXCLUDED.profile_image_url,
		     updated_at = now()
		 RETURNING `+userColumns,
		user.ID, user.Email, user.FirstName, user.LastName, user.ProfileImageURL,
	).Scan(&saved.ID, &saved.Email, &saved.FirstName, &saved.LastName,
		&saved.ProfileImageURL, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return saved, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
