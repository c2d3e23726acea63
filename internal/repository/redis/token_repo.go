package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrExtendFailed     = errors.New("token extend failed")
	ErrTokenDeleted     = errors.New("token delete failed")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenExpire = time.Minute * 30
)

// UserTokenRepository 登录态 token 存取，单点登录用
type UserTokenRepository struct {
	rdb *redis.Client
}

func NewUserTokenRepository(rdb *redis.Client) *UserTokenRepository {
	return &UserTokenRepository{rdb: rdb}
}

func tokenKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

func (r *UserTokenRepository) AddUserToken(ctx context.Context, userID uint64, token string) error {
	if err := r.rdb.Set(ctx, tokenKey(userID), token, UserTokenExpire).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *UserTokenRepository) GetUserToken(ctx context.Context, userID uint64) (string, error) {
	token, err := r.rdb.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// ExtendUserToken 每次校验通过后滚动续期
func (r *UserTokenRepository) ExtendUserToken(ctx context.Context, userID uint64) error {
	if err := r.rdb.Expire(ctx, tokenKey(userID), UserTokenExpire).Err(); err != nil {
		return ErrExtendFailed
	}
	return nil
}

func (r *UserTokenRepository) DeleteUserToken(ctx context.Context, userID uint64) error {
	if err := r.rdb.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return ErrTokenDeleted
	}
	return nil
}
