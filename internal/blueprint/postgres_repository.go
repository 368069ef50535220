package blueprint

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daap14/blueprints/internal/geometry"
)

// PostgresRepository implements Repository using pgxpool.
// Points live in blueprint_points, ordered by position.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// allColumns is the ordered list of columns scanned from the blueprints table.
const allColumns = `id, author, name, created_at, updated_at`

// readOnly gives reads a single consistent snapshot across both tables.
var readOnly = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// scanBlueprint scans a single Blueprint (without points) from a row.
func scanBlueprint(row pgx.Row) (*Blueprint, error) {
	var bp Blueprint
	err := row.Scan(&bp.ID, &bp.Author, &bp.Name, &bp.CreatedAt, &bp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlueprintNotFound
		}
		return nil, fmt.Errorf("scanning blueprint row: %w", err)
	}
	return &bp, nil
}

// Create inserts the blueprint and its points in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, bp *Blueprint) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return persistenceErr("beginning create transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`
		INSERT INTO blueprints (author, name)
		VALUES ($1, $2)
		RETURNING %s`, allColumns)

	created, err := scanBlueprint(tx.QueryRow(ctx, query, bp.Author, bp.Name))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return alreadyExistsErr(bp.Author, bp.Name)
		}
		return persistenceErr("inserting blueprint", err)
	}

	if len(bp.Points) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"blueprint_points"},
			[]string{"blueprint_id", "position", "x", "y"},
			pgx.CopyFromSlice(len(bp.Points), func(i int) ([]any, error) {
				return []any{created.ID, i, bp.Points[i].X, bp.Points[i].Y}, nil
			}),
		)
		if err != nil {
			return persistenceErr("inserting blueprint points", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return persistenceErr("committing create transaction", err)
	}

	created.Points = geometry.Clone(bp.Points)
	*bp = *created
	return nil
}

// Get retrieves a single blueprint with its points.
func (r *PostgresRepository) Get(ctx context.Context, author, name string) (*Blueprint, error) {
	tx, err := r.pool.BeginTx(ctx, readOnly)
	if err != nil {
		return nil, persistenceErr("beginning read transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`SELECT %s FROM blueprints WHERE author = $1 AND name = $2`, allColumns)
	bp, err := scanBlueprint(tx.QueryRow(ctx, query, author, name))
	if err != nil {
		if errors.Is(err, ErrBlueprintNotFound) {
			return nil, notFoundErr(author, name)
		}
		return nil, persistenceErr("getting blueprint", err)
	}

	points, err := r.loadPoints(ctx, tx, `WHERE blueprint_id = $1`, bp.ID)
	if err != nil {
		return nil, err
	}
	bp.Points = geometry.Clone(points[bp.ID])

	return bp, nil
}

// ListByAuthor retrieves every blueprint owned by author ordered by name.
func (r *PostgresRepository) ListByAuthor(ctx context.Context, author string) ([]Blueprint, error) {
	blueprints, err := r.list(ctx,
		`WHERE author = $1`,
		`WHERE blueprint_id IN (SELECT id FROM blueprints WHERE author = $1)`,
		author)
	if err != nil {
		return nil, err
	}
	if len(blueprints) == 0 {
		return nil, noBlueprintsErr(author)
	}
	return blueprints, nil
}

// List retrieves all blueprints ordered by author and name.
func (r *PostgresRepository) List(ctx context.Context) ([]Blueprint, error) {
	return r.list(ctx, "", "")
}

// Count returns the number of stored blueprints without loading their points.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM blueprints`).Scan(&n); err != nil {
		return 0, persistenceErr("counting blueprints", err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, bpWhere, ptWhere string, args ...any) ([]Blueprint, error) {
	tx, err := r.pool.BeginTx(ctx, readOnly)
	if err != nil {
		return nil, persistenceErr("beginning read transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`SELECT %s FROM blueprints %s ORDER BY author ASC, name ASC`, allColumns, bpWhere)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("listing blueprints", err)
	}
	defer rows.Close()

	blueprints := []Blueprint{}
	for rows.Next() {
		var bp Blueprint
		if err := rows.Scan(&bp.ID, &bp.Author, &bp.Name, &bp.CreatedAt, &bp.UpdatedAt); err != nil {
			return nil, persistenceErr("scanning blueprint row", err)
		}
		blueprints = append(blueprints, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterating blueprint rows", err)
	}

	points, err := r.loadPoints(ctx, tx, ptWhere, args...)
	if err != nil {
		return nil, err
	}
	for i := range blueprints {
		blueprints[i].Points = geometry.Clone(points[blueprints[i].ID])
	}

	return blueprints, nil
}

// loadPoints reads points grouped by blueprint ID, each group in position order.
func (r *PostgresRepository) loadPoints(ctx context.Context, tx pgx.Tx, where string, args ...any) (map[uuid.UUID][]geometry.Point, error) {
	query := fmt.Sprintf(`SELECT blueprint_id, x, y FROM blueprint_points %s ORDER BY blueprint_id, position ASC`, where)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("listing blueprint points", err)
	}
	defer rows.Close()

	points := make(map[uuid.UUID][]geometry.Point)
	for rows.Next() {
		var id uuid.UUID
		var p geometry.Point
		if err := rows.Scan(&id, &p.X, &p.Y); err != nil {
			return nil, persistenceErr("scanning blueprint point row", err)
		}
		points[id] = append(points[id], p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterating blueprint point rows", err)
	}

	return points, nil
}

// AppendPoint locks the blueprint row and adds p after its last point.
func (r *PostgresRepository) AppendPoint(ctx context.Context, author, name string, p geometry.Point) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return persistenceErr("beginning append transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM blueprints WHERE author = $1 AND name = $2 FOR UPDATE`,
		author, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundErr(author, name)
		}
		return persistenceErr("locking blueprint", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO blueprint_points (blueprint_id, position, x, y)
		SELECT $1, COALESCE(MAX(position) + 1, 0), $2, $3
		FROM blueprint_points WHERE blueprint_id = $1`,
		id, p.X, p.Y)
	if err != nil {
		return persistenceErr("inserting blueprint point", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE blueprints SET updated_at = now() WHERE id = $1`, id); err != nil {
		return persistenceErr("touching blueprint", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return persistenceErr("committing append transaction", err)
	}
	return nil
}
