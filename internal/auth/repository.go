package auth

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateKeyName is returned when a key with the same name already exists.
var ErrDuplicateKeyName = errors.New("api key name already exists")

// KeyRepository stores API keys.
type KeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	FindByPrefix(ctx context.Context, prefix string) ([]APIKey, error)
	CountAll(ctx context.Context) (int, error)
}

// MemoryKeyRepository is a KeyRepository held in process memory.
type MemoryKeyRepository struct {
	mu   sync.RWMutex
	keys []APIKey
}

// NewMemoryKeyRepository creates an empty MemoryKeyRepository.
func NewMemoryKeyRepository() *MemoryKeyRepository {
	return &MemoryKeyRepository{}
}

// Create stores key, assigning its ID and CreatedAt when unset.
func (r *MemoryKeyRepository) Create(_ context.Context, key *APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range r.keys {
		if k.Name == key.Name {
			return ErrDuplicateKeyName
		}
	}

	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	stored := *key
	stored.Scopes = slices.Clone(key.Scopes)
	r.keys = append(r.keys, stored)
	return nil
}

// FindByPrefix returns every key whose prefix matches.
func (r *MemoryKeyRepository) FindByPrefix(_ context.Context, prefix string) ([]APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []APIKey
	for _, k := range r.keys {
		if k.Prefix == prefix {
			k.Scopes = slices.Clone(k.Scopes)
			out = append(out, k)
		}
	}
	return out, nil
}

// CountAll returns the number of stored keys.
func (r *MemoryKeyRepository) CountAll(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys), nil
}
