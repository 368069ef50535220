package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/daap14/blueprints/internal/blueprint"
	"github.com/daap14/blueprints/internal/geometry"
)

// instrumentedRepository wraps a blueprint.Repository and records every call.
type instrumentedRepository struct {
	next    blueprint.Repository
	metrics *Metrics
}

// InstrumentRepository returns a Repository that records operation outcomes
// and latency on m before delegating to repo. Errors pass through untouched.
func InstrumentRepository(repo blueprint.Repository, m *Metrics) blueprint.Repository {
	return &instrumentedRepository{next: repo, metrics: m}
}

func (r *instrumentedRepository) observe(op string, start time.Time, err error) {
	r.metrics.StoreOperations.WithLabelValues(op, outcome(err)).Inc()
	r.metrics.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, blueprint.ErrBlueprintNotFound):
		return "not_found"
	case errors.Is(err, blueprint.ErrBlueprintAlreadyExists):
		return "already_exists"
	default:
		return "error"
	}
}

func (r *instrumentedRepository) Create(ctx context.Context, bp *blueprint.Blueprint) (err error) {
	defer func(start time.Time) { r.observe("create", start, err) }(time.Now())
	return r.next.Create(ctx, bp)
}

func (r *instrumentedRepository) Get(ctx context.Context, author, name string) (bp *blueprint.Blueprint, err error) {
	defer func(start time.Time) { r.observe("get", start, err) }(time.Now())
	return r.next.Get(ctx, author, name)
}

func (r *instrumentedRepository) ListByAuthor(ctx context.Context, author string) (bps []blueprint.Blueprint, err error) {
	defer func(start time.Time) { r.observe("list_by_author", start, err) }(time.Now())
	return r.next.ListByAuthor(ctx, author)
}

func (r *instrumentedRepository) List(ctx context.Context) (bps []blueprint.Blueprint, err error) {
	defer func(start time.Time) { r.observe("list", start, err) }(time.Now())
	return r.next.List(ctx)
}

func (r *instrumentedRepository) Count(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { r.observe("count", start, err) }(time.Now())
	return r.next.Count(ctx)
}

func (r *instrumentedRepository) AppendPoint(ctx context.Context, author, name string, p geometry.Point) (err error) {
	defer func(start time.Time) { r.observe("append_point", start, err) }(time.Now())
	return r.next.AppendPoint(ctx, author, name, p)
}
