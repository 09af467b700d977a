package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/collabifyy/internal/model"
)

const redisSessionKeyPrefix = "sess:"

// RedisSessionClient はRedisSessionRepoが必要とするRedisコマンドの部分集合。
// *redis.Client がこれを満たす。
type RedisSessionClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisSessionValue はRedisに保存するセッションの形式。
// 期限切れの判定はキーのTTLに任せるが、参照時の境界条件のためexpireも保持する。
type redisSessionValue struct {
	Sess   json.RawMessage `json:"sess"`
	Expire time.Time       `json:"expire"`
}

// RedisSessionRepo はRedisを使用したセッションリポジトリ。
// SESSION_BACKEND=redis の場合にPostgresSessionRepoの代わりに使用する。
// 期限切れキーはRedisが削除するため、SessionPrunerは実装しない。
type RedisSessionRepo struct {
	client RedisSessionClient
	now    func() time.Time
}

// NewRedisSessionRepo はRedisSessionRepoを生成する。
func NewRedisSessionRepo(client RedisSessionClient) *RedisSessionRepo {
	return &RedisSessionRepo{client: client, now: time.Now}
}

// Create はセッションを有効期限付きで保存する。
func (r *RedisSessionRepo) Create(ctx context.Context, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("failed to create session: already expired")
	}

	payload, err := encodeSessionPayload(session)
	if err != nil {
		return fmt.Errorf("failed to encode session payload: %w", err)
	}
	value, err := json.Marshal(redisSessionValue{Sess: payload, Expire: session.ExpiresAt})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := r.client.Set(ctx, redisSessionKeyPrefix+session.ID, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。存在しないか期限切れの場合はnilを返す。
func (r *RedisSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	raw, err := r.client.Get(ctx, redisSessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	var value redisSessionValue
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if !r.now().Before(value.Expire) {
		return nil, nil
	}

	return decodeSessionPayload(id, value.Sess, value.Expire)
}

// DeleteByID は指定IDのセッションを削除する。
func (r *RedisSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisSessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// compile-time interface check
var (
	_ SessionRepository  = (*RedisSessionRepo)(nil)
	_ RedisSessionClient = (*redis.Client)(nil)
)
