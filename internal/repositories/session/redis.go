package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	"github.com/SscSPs/pix_backend/internal/utils"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "session:"
	scanBatch = 200
)

// redisSession is the stored value. The token itself only appears hashed in the key.
type redisSession struct {
	CPF      string    `json:"cpf"`
	IssuedAt time.Time `json:"issued_at"`
}

// RedisRepository stores sessions as JSON values with a TTL, so instances behind a
// load balancer share logins.
type RedisRepository struct {
	client *goredis.Client
	ttl    time.Duration
}

var _ portsrepo.SessionRepository = (*RedisRepository)(nil)

// NewRedisRepository creates a session store on client. Keys expire after ttl; pass 0 to
// rely on sweeping alone.
func NewRedisRepository(client *goredis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return keyPrefix + utils.HashToken(token)
}

func (r *RedisRepository) SaveSession(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(redisSession{CPF: session.CPF, IssuedAt: session.IssuedAt.UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.Token), data, r.ttl).Err(); err != nil {
		return apperrors.NewAppError(500, "failed to save session", err)
	}
	return nil
}

func (r *RedisRepository) FindSession(ctx context.Context, token string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to load session", err)
	}
	var stored redisSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &domain.Session{Token: token, CPF: stored.CPF, IssuedAt: stored.IssuedAt}, nil
}

func (r *RedisRepository) DeleteSession(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Del(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to delete session", err)
	}
	return n > 0, nil
}

// DeleteSessionsIssuedBefore scans the session keyspace. Key TTLs normally clear expired
// sessions first, so this mostly catches keys written without one.
func (r *RedisRepository) DeleteSessionsIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				continue
			}
			return removed, apperrors.NewAppError(500, "failed to read session during sweep", err)
		}
		var stored redisSession
		if err := json.Unmarshal(data, &stored); err != nil || stored.IssuedAt.Before(cutoff) {
			n, err := r.client.Del(ctx, key).Result()
			if err != nil {
				return removed, apperrors.NewAppError(500, "failed to delete session during sweep", err)
			}
			removed += n
		}
	}
	if err := iter.Err(); err != nil {
		return removed, apperrors.NewAppError(500, "failed to scan sessions", err)
	}
	return removed, nil
}
