package session

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheStore implements Store on an in-process go-cache. It is the
// default when no Redis URL is configured, and the store of choice in
// tests.
type CacheStore struct {
	cache *cache.Cache
}

func NewCacheStore(ttl, cleanupInterval time.Duration) *CacheStore {
	return &CacheStore{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (c *CacheStore) Get(_ context.Context, sessionID string) (*State, error) {
	if x, found := c.cache.Get(sessionID); found {
		return x.(*State), nil
	}
	return nil, ErrNotFound
}

func (c *CacheStore) Put(_ context.Context, state *State) error {
	c.cache.Set(state.SessionID, state, cache.DefaultExpiration)
	return nil
}

func (c *CacheStore) Delete(_ context.Context, sessionID string) error {
	c.cache.Delete(sessionID)
	return nil
}

func (c *CacheStore) ListForUser(_ context.Context, userID string) ([]*State, error) {
	var states []*State
	for _, item := range c.cache.Items() {
		state, ok := item.Object.(*State)
		if !ok || state.UserID != userID {
			continue
		}
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].StartedAt.Equal(states[j].StartedAt) {
			return states[i].SessionID < states[j].SessionID
		}
		return states[i].StartedAt.Before(states[j].StartedAt)
	})
	return states, nil
}
