package service

import (
	"context"
	"sync"
	"time"
)

// NegativeLookupCacheStore remembers keys that were recently looked up and not found, so
// repeated lookups of unknown ids skip the database.
type NegativeLookupCacheStore interface {
	Get(ctx context.Context, namespace, key string) (bool, error)
	Set(ctx context.Context, namespace, key string, ttl time.Duration) error
	InvalidateNamespace(ctx context.Context, namespace string) error
}

type NoopNegativeLookupCacheStore struct{}

func NewNoopNegativeLookupCacheStore() *NoopNegativeLookupCacheStore {
	return &NoopNegativeLookupCacheStore{}
}

func (NoopNegativeLookupCacheStore) Get(context.Context, string, string) (bool, error) {
	return false, nil
}

func (NoopNegativeLookupCacheStore) Set(context.Context, string, string, time.Duration) error {
	return nil
}

func (NoopNegativeLookupCacheStore) InvalidateNamespace(context.Context, string) error {
	return nil
}

type negativeEntryKey struct {
	namespace string
	key       string
}

// InMemoryNegativeLookupCacheStore is process-local. Expired entries are dropped on read.
type InMemoryNegativeLookupCacheStore struct {
	mu      sync.Mutex
	entries map[negativeEntryKey]time.Time
	now     func() time.Time
}

func NewInMemoryNegativeLookupCacheStore() *InMemoryNegativeLookupCacheStore {
	return &InMemoryNegativeLookupCacheStore{
		entries: make(map[negativeEntryKey]time.Time),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryNegativeLookupCacheStore) Get(_ context.Context, namespace, key string) (bool, error) {
	k := negativeEntryKey{namespace: namespace, key: key}
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.entries[k]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.entries, k)
		return false, nil
	}
	return true, nil
}

func (s *InMemoryNegativeLookupCacheStore) Set(_ context.Context, namespace, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[negativeEntryKey{namespace: namespace, key: key}] = s.now().Add(ttl)
	return nil
}

func (s *InMemoryNegativeLookupCacheStore) InvalidateNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if k.namespace == namespace {
			delete(s.entries, k)
		}
	}
	return nil
}

// Prune drops every expired entry and returns how many were removed.
func (s *InMemoryNegativeLookupCacheStore) Prune() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}
