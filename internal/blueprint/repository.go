package blueprint

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/daap14/blueprints/internal/geometry"
)

// ErrBlueprintNotFound is returned when no blueprint matches the requested key,
// or when an author has no blueprints at all.
var ErrBlueprintNotFound = errors.New("blueprint not found")

// ErrBlueprintAlreadyExists is returned when a blueprint with the same author and name already exists.
var ErrBlueprintAlreadyExists = errors.New("blueprint already exists")

// ErrPersistenceFailure is returned when an external backend fails to read or write.
var ErrPersistenceFailure = errors.New("persistence failure")

// Repository stores blueprints keyed by (author, name).
// Blueprints are never renamed or deleted; AppendPoint is the only mutation.
// Every returned Blueprint is a copy the caller may modify freely.
type Repository interface {
	Create(ctx context.Context, bp *Blueprint) error
	Get(ctx context.Context, author, name string) (*Blueprint, error)
	ListByAuthor(ctx context.Context, author string) ([]Blueprint, error)
	List(ctx context.Context) ([]Blueprint, error)
	Count(ctx context.Context) (int, error)
	AppendPoint(ctx context.Context, author, name string, p geometry.Point) error
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceFailure, err)
}

func notFoundErr(author, name string) error {
	return fmt.Errorf("%w: %s/%s", ErrBlueprintNotFound, author, name)
}

func noBlueprintsErr(author string) error {
	return fmt.Errorf("%w: no blueprints for author %s", ErrBlueprintNotFound, author)
}

func alreadyExistsErr(author, name string) error {
	return fmt.Errorf("%w: %s/%s", ErrBlueprintAlreadyExists, author, name)
}

// sortByKey orders blueprints by author, then name.
func sortByKey(bps []Blueprint) {
	sort.Slice(bps, func(i, j int) bool {
		if bps[i].Author != bps[j].Author {
			return bps[i].Author < bps[j].Author
		}
		return bps[i].Name < bps[j].Name
	})
}
