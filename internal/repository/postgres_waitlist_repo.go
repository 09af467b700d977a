package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/collabifyy/internal/model"
)

// ウェイトリストテーブルの一意制約名。マイグレーションの定義と一致させること。
const (
	waitlistEmailConstraint  = "waitlist_email_key"
	waitlistUserIDConstraint = "waitlist_user_id_key"

	pqUniqueViolation = pq.ErrorCode("23505")
)

const waitlistColumns = `id, user_id, user_type, name, email, company_or_handle, message, created_at`

// PostgresWaitlistRepo はPostgreSQLを使用したウェイトリストリポジトリ。
type PostgresWaitlistRepo struct {
	db *sql.DB
}

// NewPostgresWaitlistRepo はPostgresWaitlistRepoを生成する。
func NewPostgresWaitlistRepo(db *sql.DB) *PostgresWaitlistRepo {
	return &PostgresWaitlistRepo{db: db}
}

// Create は登録を作成する。
// 一意制約違反は制約名に応じてErrWaitlistEmailTakenまたはErrWaitlistUserExistsに変換する。
func (r *PostgresWaitlistRepo) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO waitlist (`+waitlistColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.UserID, string(entry.UserType), entry.Name, entry.Email,
		entry.CompanyOrHandle, entry.Message, entry.CreatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return nil
}

// FindByUserID はユーザーIDで登録を取得する。見つからない場合はnilを返す。
func (r *PostgresWaitlistRepo) FindByUserID(ctx context.Context, userID string) (*model.WaitlistEntry, error) {
	entry, err := r.findOne(ctx, `SELECT `+waitlistColumns+` FROM waitlist WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find waitlist entry by user ID: %w", err)
	}
	return entry, nil
}

// FindByEmail はメールアドレスで登録を取得する。見つからない場合はnilを返す。
func (r *PostgresWaitlistRepo) FindByEmail(ctx context.Context, email string) (*model.WaitlistEntry, error) {
	entry, err := r.findOne(ctx, `SELECT `+waitlistColumns+` FROM waitlist WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find waitlist entry by email: %w", err)
	}
	return entry, nil
}

func (r *PostgresWaitlistRepo) findOne(ctx context.Context, query string, arg string) (*model.WaitlistEntry, error) {
	entry := &model.WaitlistEntry{}
	var userType string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&entry.ID, &entry.UserID, &userType, &entry.Name, &entry.Email,
		&entry.CompanyOrHandle, &entry.Message, &entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry.UserType = model.UserType(userType)
	return entry, nil
}

// mapUniqueViolation はPostgreSQLの一意制約違反をリポジトリのエラーに変換する。
// 対象外のエラーの場合はnilを返す。
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return nil
	}
	switch pqErr.Constraint {
	case waitlistEmailConstraint:
		return ErrWaitlistEmailTaken
	case waitlistUserIDConstraint:
		return ErrWaitlistUserExists
	default:
		return nil
	}
}

// compile-time interface check
var _ WaitlistRepository = (*PostgresWaitlistRepo)(nil)
