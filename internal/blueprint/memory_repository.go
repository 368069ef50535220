package blueprint

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/blueprints/internal/geometry"
)

// MemoryRepository implements Repository in process memory.
// All writes hold the exclusive lock, so creates are atomic with their
// existence check and appends to one key are totally ordered.
type MemoryRepository struct {
	mu         sync.RWMutex
	blueprints map[Key]*Blueprint
	now        func() time.Time
}

// NewMemoryRepository creates an empty in-memory Repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		blueprints: make(map[Key]*Blueprint),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a copy of bp and fills in its ID and timestamps.
func (r *MemoryRepository) Create(_ context.Context, bp *Blueprint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := bp.Key()
	if _, exists := r.blueprints[key]; exists {
		return alreadyExistsErr(bp.Author, bp.Name)
	}

	now := r.now()
	bp.ID = uuid.New()
	bp.CreatedAt = now
	bp.UpdatedAt = now

	r.blueprints[key] = bp.Clone()
	return nil
}

// Get returns a copy of the blueprint stored under (author, name).
func (r *MemoryRepository) Get(_ context.Context, author, name string) (*Blueprint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bp, ok := r.blueprints[Key{Author: author, Name: name}]
	if !ok {
		return nil, notFoundErr(author, name)
	}
	return bp.Clone(), nil
}

// ListByAuthor returns copies of every blueprint owned by author.
func (r *MemoryRepository) ListByAuthor(_ context.Context, author string) ([]Blueprint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Blueprint
	for key, bp := range r.blueprints {
		if key.Author == author {
			out = append(out, *bp.Clone())
		}
	}
	if len(out) == 0 {
		return nil, noBlueprintsErr(author)
	}

	sortByKey(out)
	return out, nil
}

// List returns copies of every stored blueprint.
func (r *MemoryRepository) List(_ context.Context) ([]Blueprint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Blueprint, 0, len(r.blueprints))
	for _, bp := range r.blueprints {
		out = append(out, *bp.Clone())
	}

	sortByKey(out)
	return out, nil
}

// Count returns the number of stored blueprints.
func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blueprints), nil
}

// AppendPoint adds p to the end of the blueprint's point sequence.
func (r *MemoryRepository) AppendPoint(_ context.Context, author, name string, p geometry.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bp, ok := r.blueprints[Key{Author: author, Name: name}]
	if !ok {
		return notFoundErr(author, name)
	}

	bp.Points = append(bp.Points, p)
	bp.UpdatedAt = r.now()
	return nil
}
