package persistence

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/logger"
)

const userCacheKeyPrefix = "mediahub:user:"

// cachedUserRepo serves identity lookups from Redis. Cached users never carry a
// password hash, so FindByEmail always goes to the underlying repository.
type cachedUserRepo struct {
	next   user.Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedUserRepo(next user.Repository, rdb *redis.Client, ttl time.Duration, log logger.Logger) user.Repository {
	return &cachedUserRepo{next: next, rdb: rdb, ttl: ttl, logger: log}
}

func userCacheKey(id uuid.UUID) string {
	return userCacheKeyPrefix + id.String()
}

func (r *cachedUserRepo) Save(ctx context.Context, u *user.User) error {
	return r.next.Save(ctx, u)
}

func (r *cachedUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *cachedUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	users, err := r.FindByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if u, ok := users[id]; ok {
		return u, nil
	}
	return r.next.FindByID(ctx, id)
}

func (r *cachedUserRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	found := make(map[uuid.UUID]*user.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userCacheKey(id)
	}

	missing := make([]uuid.UUID, 0, len(ids))
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.Warn("user cache read failed, falling back to database", zap.Error(err))
		missing = append(missing, ids...)
	} else {
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var u user.User
			if err := json.Unmarshal([]byte(s), &u); err != nil {
				missing = append(missing, ids[i])
				continue
			}
			found[u.ID] = &u
		}
	}

	if len(missing) == 0 {
		return found, nil
	}

	loaded, err := r.next.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	pipe := r.rdb.Pipeline()
	for id, u := range loaded {
		found[id] = u
		b, err := json.Marshal(u)
		if err != nil {
			continue
		}
		pipe.Set(ctx, userCacheKey(id), b, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("user cache write failed", zap.Error(err))
	}
	return found, nil
}
