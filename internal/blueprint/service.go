package blueprint

import (
	"context"
	"log/slog"

	"github.com/daap14/blueprints/internal/filter"
	"github.com/daap14/blueprints/internal/geometry"
)

// Service exposes the blueprint operations used by the HTTP layer.
// The filter is fixed at construction and only applied to single-blueprint reads;
// listings always reflect the stored points.
type Service struct {
	repo   Repository
	filter filter.Kind
}

// NewService creates a new blueprint Service.
func NewService(repo Repository, f filter.Kind) *Service {
	return &Service{
		repo:   repo,
		filter: f,
	}
}

// Filter returns the filter applied by GetBlueprint.
func (s *Service) Filter() filter.Kind {
	return s.filter
}

// AddBlueprint stores a new blueprint. It fails with ErrBlueprintAlreadyExists
// if (author, name) is taken.
func (s *Service) AddBlueprint(ctx context.Context, author, name string, points []geometry.Point) (*Blueprint, error) {
	bp := &Blueprint{
		Author: author,
		Name:   name,
		Points: geometry.Clone(points),
	}
	if err := s.repo.Create(ctx, bp); err != nil {
		return nil, err
	}

	slog.Debug("blueprint created", "author", author, "name", name, "points", len(points))
	return bp, nil
}

// GetAllBlueprints returns every stored blueprint, unfiltered.
func (s *Service) GetAllBlueprints(ctx context.Context) ([]Blueprint, error) {
	return s.repo.List(ctx)
}

// GetBlueprintsByAuthor returns the author's blueprints, unfiltered.
func (s *Service) GetBlueprintsByAuthor(ctx context.Context, author string) ([]Blueprint, error) {
	return s.repo.ListByAuthor(ctx, author)
}

// GetBlueprint returns one blueprint with the configured filter applied to its points.
func (s *Service) GetBlueprint(ctx context.Context, author, name string) (*Blueprint, error) {
	bp, err := s.repo.Get(ctx, author, name)
	if err != nil {
		return nil, err
	}

	bp.Points = s.filter.Apply(bp.Points)
	return bp, nil
}

// AddPoint appends (x, y) to an existing blueprint.
func (s *Service) AddPoint(ctx context.Context, author, name string, x, y int) error {
	if err := s.repo.AppendPoint(ctx, author, name, geometry.Pt(x, y)); err != nil {
		return err
	}

	slog.Debug("blueprint point added", "author", author, "name", name, "x", x, "y", y)
	return nil
}
