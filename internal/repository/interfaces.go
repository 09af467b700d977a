// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/collabifyy/internal/model"
)

// ウェイトリストの一意制約違反を表すエラー。
// 事前チェックをすり抜けた同時登録はDBの制約違反としてこれらに変換される。
var (
	ErrWaitlistEmailTaken = errors.New("waitlist email already registered")
	ErrWaitlistUserExists = errors.New("waitlist entry already exists for user")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Upsert はIDをキーにユーザーを作成または更新する。
	// 既存ユーザーの場合はemail、氏名、プロフィール画像とupdated_atのみを更新する。
	// 1回の呼び出しにつき書き込みは1文のみ。
	Upsert(ctx context.Context, user *model.User) (*model.User, error)
}

// WaitlistRepository はウェイトリスト登録の永続化インターフェース。
type WaitlistRepository interface {
	// Create は登録を作成する。
	// emailまたはuser_idの一意制約違反はErrWaitlistEmailTaken / ErrWaitlistUserExistsを返す。
	Create(ctx context.Context, entry *model.WaitlistEntry) error

	// FindByUserID はユーザーIDで登録を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.WaitlistEntry, error)

	// FindByEmail はメールアドレスで登録を取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.WaitlistEntry, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// SessionPruner は期限切れセッションの削除インターフェース。
type SessionPruner interface {
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
