package blueprint_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/daap14/blueprints/internal/blueprint"
	"github.com/daap14/blueprints/internal/geometry"
)

// runRepositoryContract exercises the behaviour every Repository must share.
// newRepo must return an empty repository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) blueprint.Repository) {
	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		bp := newTestBlueprint("john", "house", geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 0))
		require.NoError(t, repo.Create(ctx, bp))

		assert.NotEqual(t, uuid.Nil, bp.ID)
		assert.False(t, bp.CreatedAt.IsZero())
		assert.False(t, bp.UpdatedAt.IsZero())

		found, err := repo.Get(ctx, "john", "house")
		require.NoError(t, err)
		assert.Equal(t, bp.ID, found.ID)
		assert.Equal(t, "john", found.Author)
		assert.Equal(t, "house", found.Name)
		assert.Equal(t, []geometry.Point{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 0)}, found.Points)
	})

	t.Run("create with no points", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, newTestBlueprint("jane", "empty")))

		found, err := repo.Get(ctx, "jane", "empty")
		require.NoError(t, err)
		assert.Empty(t, found.Points)
	})

	t.Run("duplicate key keeps first entry", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "house", geometry.Pt(1, 1))))

		err := repo.Create(ctx, newTestBlueprint("john", "house", geometry.Pt(9, 9), geometry.Pt(8, 8)))
		assert.ErrorIs(t, err, blueprint.ErrBlueprintAlreadyExists)

		found, err := repo.Get(ctx, "john", "house")
		require.NoError(t, err)
		assert.Equal(t, []geometry.Point{geometry.Pt(1, 1)}, found.Points)
	})

	t.Run("same name different author", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "house")))
		require.NoError(t, repo.Create(ctx, newTestBlueprint("jane", "house")))
	})

	t.Run("get not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(context.Background(), "nobody", "nothing")
		assert.ErrorIs(t, err, blueprint.ErrBlueprintNotFound)
	})

	t.Run("list by author", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "house", geometry.Pt(0, 0))))
		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "garage")))
		require.NoError(t, repo.Create(ctx, newTestBlueprint("jane", "garden")))

		bps, err := repo.ListByAuthor(ctx, "john")
		require.NoError(t, err)
		require.Len(t, bps, 2)
		assert.Equal(t, "garage", bps[0].Name)
		assert.Equal(t, "house", bps[1].Name)
		assert.Equal(t, []geometry.Point{geometry.Pt(0, 0)}, bps[1].Points)
	})

	t.Run("list by unknown author is not found", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "house")))

		_, err := repo.ListByAuthor(ctx, "nobody")
		assert.ErrorIs(t, err, blueprint.ErrBlueprintNotFound)
	})

	t.Run("list all", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		bps, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, bps)

		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "house")))
		require.NoError(t, repo.Create(ctx, newTestBlueprint("jane", "garden", geometry.Pt(2, 2))))

		bps, err = repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, bps, 2)
		assert.Equal(t, "jane", bps[0].Author)
		assert.Equal(t, []geometry.Point{geometry.Pt(2, 2)}, bps[0].Points)
		assert.Equal(t, "john", bps[1].Author)
	})

	t.Run("append preserves order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "house")))
		require.NoError(t, repo.AppendPoint(ctx, "john", "house", geometry.Pt(1, 1)))
		require.NoError(t, repo.AppendPoint(ctx, "john", "house", geometry.Pt(2, 2)))
		require.NoError(t, repo.AppendPoint(ctx, "john", "house", geometry.Pt(3, 3)))

		found, err := repo.Get(ctx, "john", "house")
		require.NoError(t, err)
		assert.Equal(t, []geometry.Point{geometry.Pt(1, 1), geometry.Pt(2, 2), geometry.Pt(3, 3)}, found.Points)
	})

	t.Run("coordinates beyond 32 bits round-trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const wide = math.MaxInt32 + 1
		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "wide", geometry.Pt(wide, -wide))))
		require.NoError(t, repo.AppendPoint(ctx, "john", "wide", geometry.Pt(-3000000000, 3000000000)))

		found, err := repo.Get(ctx, "john", "wide")
		require.NoError(t, err)
		assert.Equal(t, []geometry.Point{geometry.Pt(wide, -wide), geometry.Pt(-3000000000, 3000000000)}, found.Points)
	})

	t.Run("count", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "house", geometry.Pt(1, 1))))
		require.NoError(t, repo.Create(ctx, newTestBlueprint("jane", "garden")))
		assert.ErrorIs(t, repo.Create(ctx, newTestBlueprint("john", "house")), blueprint.ErrBlueprintAlreadyExists)
		require.NoError(t, repo.AppendPoint(ctx, "john", "house", geometry.Pt(2, 2)))

		n, err = repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("append not found", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.AppendPoint(context.Background(), "nobody", "nothing", geometry.Pt(1, 1))
		assert.ErrorIs(t, err, blueprint.ErrBlueprintNotFound)
	})

	t.Run("returned points are snapshots", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		bp := newTestBlueprint("john", "house", geometry.Pt(1, 1), geometry.Pt(2, 2))
		require.NoError(t, repo.Create(ctx, bp))
		bp.Points[0] = geometry.Pt(99, 99)

		found, err := repo.Get(ctx, "john", "house")
		require.NoError(t, err)
		found.Points[1] = geometry.Pt(42, 42)
		_ = append(found.Points[:1], geometry.Pt(7, 7))

		listed, err := repo.List(ctx)
		require.NoError(t, err)
		listed[0].Points[0] = geometry.Pt(-1, -1)

		again, err := repo.Get(ctx, "john", "house")
		require.NoError(t, err)
		assert.Equal(t, []geometry.Point{geometry.Pt(1, 1), geometry.Pt(2, 2)}, again.Points)
	})

	t.Run("keys with separators do not collide", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, newTestBlueprint("a:b", "c", geometry.Pt(1, 1))))
		require.NoError(t, repo.Create(ctx, newTestBlueprint("a", "b:c", geometry.Pt(2, 2))))
		require.NoError(t, repo.Create(ctx, newTestBlueprint("a", "b:points", geometry.Pt(3, 3))))
		require.NoError(t, repo.Create(ctx, newTestBlueprint("a", "b", geometry.Pt(4, 4))))

		found, err := repo.Get(ctx, "a", "b")
		require.NoError(t, err)
		assert.Equal(t, []geometry.Point{geometry.Pt(4, 4)}, found.Points)

		found, err = repo.Get(ctx, "a:b", "c")
		require.NoError(t, err)
		assert.Equal(t, []geometry.Point{geometry.Pt(1, 1)}, found.Points)
	})

	t.Run("concurrent create has exactly one winner", func(t *testing.T) {
		const rounds = 20
		const contenders = 16

		for round := 0; round < rounds; round++ {
			repo := newRepo(t)
			ctx := context.Background()
			name := fmt.Sprintf("race-%d", round)

			var mu sync.Mutex
			successes, conflicts := 0, 0

			var g errgroup.Group
			for i := 0; i < contenders; i++ {
				g.Go(func() error {
					if rand.Intn(2) == 0 {
						runtime.Gosched()
					}
					err := repo.Create(ctx, newTestBlueprint("racer", name, geometry.Pt(i, i)))

					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						successes++
					case errors.Is(err, blueprint.ErrBlueprintAlreadyExists):
						conflicts++
					default:
						return err
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())

			assert.Equal(t, 1, successes, "round %d", round)
			assert.Equal(t, contenders-1, conflicts, "round %d", round)
		}
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		const writers = 8
		const perWriter = 25

		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTestBlueprint("john", "busy")))

		var g errgroup.Group
		for w := 0; w < writers; w++ {
			g.Go(func() error {
				for i := 0; i < perWriter; i++ {
					if err := repo.AppendPoint(ctx, "john", "busy", geometry.Pt(w, i)); err != nil {
						return err
					}
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		found, err := repo.Get(ctx, "john", "busy")
		require.NoError(t, err)
		require.Len(t, found.Points, writers*perWriter)

		// Each writer's own points must appear in submission order, and none twice.
		next := make(map[int]int)
		for _, p := range found.Points {
			assert.Equal(t, next[p.X], p.Y, "writer %d out of order", p.X)
			next[p.X] = p.Y + 1
		}
		for w := 0; w < writers; w++ {
			assert.Equal(t, perWriter, next[w])
		}
	})
}

func newTestBlueprint(author, name string, pts ...geometry.Point) *blueprint.Blueprint {
	return &blueprint.Blueprint{
		Author: author,
		Name:   name,
		Points: pts,
	}
}
