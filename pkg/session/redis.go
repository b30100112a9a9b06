package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis.
//
// Key layout:
//
//	{prefix}:tok:{token}  session JSON, expires with the session
//	{prefix}:id:{id}      current token for a session ID
//	{prefix}:user:{uid}   set of session IDs owned by a user
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures the Redis store.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default: "session".
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// NewRedisStore creates a Redis-backed session store.
// The client should be obtained from pkg/redis.Open.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	r := &RedisStore{client: client, prefix: "session"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create persists a new session.
func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}
	return r.write(ctx, s, "")
}

// Get retrieves a session by its token.
func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	data, err := r.client.Get(ctx, r.tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	if s.IsExpired() {
		return nil, ErrExpired
	}

	return &s, nil
}

// Update saves changes to an existing session.
// A changed token invalidates the previous one.
func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}

	prev, err := r.client.Get(ctx, r.idKey(s.ID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}

	return r.write(ctx, s, prev)
}

// Delete removes a session by its ID.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	token, err := r.client.Get(ctx, r.idKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	var userID string
	if data, err := r.client.Get(ctx, r.tokenKey(token)).Bytes(); err == nil {
		var s Session
		if json.Unmarshal(data, &s) == nil && s.UserID != nil {
			userID = *s.UserID
		}
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.tokenKey(token), r.idKey(id))
		if userID != "" {
			pipe.SRem(ctx, r.userKey(userID), id)
		}
		return nil
	})
	return err
}

// DeleteByUserID removes all sessions that belong to userID.
func (r *RedisStore) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
	}

	return r.client.Del(ctx, r.userKey(userID)).Err()
}

// write stores s and its indices atomically. prevToken, when different from
// s.Token, is removed in the same transaction.
func (r *RedisStore) write(ctx context.Context, s *Session, prevToken string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if prevToken != "" && prevToken != s.Token {
			pipe.Del(ctx, r.tokenKey(prevToken))
		}
		pipe.Set(ctx, r.tokenKey(s.Token), data, ttl)
		pipe.Set(ctx, r.idKey(s.ID), s.Token, ttl)
		if s.UserID != nil && *s.UserID != "" {
			pipe.SAdd(ctx, r.userKey(*s.UserID), s.ID)
			pipe.Expire(ctx, r.userKey(*s.UserID), ttl)
		}
		return nil
	})
	return err
}

func (r *RedisStore) tokenKey(token string) string { return r.prefix + ":tok:" + token }
func (r *RedisStore) idKey(id string) string       { return r.prefix + ":id:" + id }
func (r *RedisStore) userKey(uid string) string    { return r.prefix + ":user:" + uid }

var _ Store = (*RedisStore)(nil)
