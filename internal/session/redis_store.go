package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis. Sessions are JSON blobs under
// session:<id> with a sliding TTL; a per-user set under
// user_sessions:<user> supports ListForUser.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

func (r *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (r *RedisStore) userKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (*State, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session from Redis: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	return &state, nil
}

func (r *RedisStore) Put(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(state.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}

	if state.UserID != "" {
		if err := r.client.SAdd(ctx, r.userKey(state.UserID), state.SessionID).Err(); err != nil {
			return fmt.Errorf("failed to index session for user: %w", err)
		}
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	// Look the session up first so the user index can be cleaned.
	state, err := r.Get(ctx, sessionID)
	if err != nil && err != ErrNotFound {
		return err
	}

	if err := r.client.Del(ctx, r.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if state != nil && state.UserID != "" {
		if err := r.client.SRem(ctx, r.userKey(state.UserID), sessionID).Err(); err != nil {
			return fmt.Errorf("failed to unindex session: %w", err)
		}
	}
	return nil
}

func (r *RedisStore) ListForUser(ctx context.Context, userID string) ([]*State, error) {
	ids, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for user: %w", err)
	}

	var states []*State
	for _, id := range ids {
		state, err := r.Get(ctx, id)
		if err == ErrNotFound {
			// Expired under TTL; drop the stale index entry.
			r.client.SRem(ctx, r.userKey(userID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
