// FILE: internal/repository/implementation/redis_preference_repository_impl.go
// Preferences shared across machines through Redis
package implementation

import (
	"context"
	"errors"

	"shabdsetu-client/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const preferenceKeyPrefix = "shabdsetu:prefs:"

type redisPreferenceRepository struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisPreferenceRepository scopes keys by namespace so several
// installs can share one Redis.
func NewRedisPreferenceRepository(rdb *redis.Client, namespace string) contract.PreferenceRepository {
	return &redisPreferenceRepository{rdb: rdb, namespace: namespace}
}

func (r *redisPreferenceRepository) key(k string) string {
	if r.namespace == "" {
		return preferenceKeyPrefix + k
	}
	return preferenceKeyPrefix + r.namespace + ":" + k
}

func (r *redisPreferenceRepository) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *redisPreferenceRepository) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, r.key(key), value, 0).Err()
}

func (r *redisPreferenceRepository) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}
