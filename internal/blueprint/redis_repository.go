package blueprint

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/daap14/blueprints/internal/geometry"
)

const redisKeyPrefix = "bp"

// createLuaScript inserts the blueprint hash, its points and both index
// entries, unless the hash already exists.
// KEYS: hash, points, author index, global index
// ARGV: id, author, name, timestamp, member, points...
const createLuaScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
    return 0
end
redis.call("HSET", KEYS[1], "id", ARGV[1], "author", ARGV[2], "name", ARGV[3], "created_at", ARGV[4], "updated_at", ARGV[4])
for i = 6, #ARGV do
    redis.call("RPUSH", KEYS[2], ARGV[i])
end
redis.call("SADD", KEYS[3], ARGV[5])
redis.call("SADD", KEYS[4], ARGV[5])
return 1
`

// appendLuaScript pushes one point if the blueprint exists.
// KEYS: hash, points
// ARGV: point, timestamp
const appendLuaScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
    return -1
end
local n = redis.call("RPUSH", KEYS[2], ARGV[1])
redis.call("HSET", KEYS[1], "updated_at", ARGV[2])
return n
`

// RedisRepository implements Repository on Redis. Writes run as Lua scripts
// and reads run inside MULTI, so every operation is atomic on the server.
type RedisRepository struct {
	client       *redis.Client
	createScript *redis.Script
	appendScript *redis.Script
}

// NewRedisRepository creates a new Repository backed by the given Redis client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client:       client,
		createScript: redis.NewScript(createLuaScript),
		appendScript: redis.NewScript(appendLuaScript),
	}
}

// blueprintKey returns the hash key for (author, name). Components are
// query-escaped so neither ':' nor '/' can appear inside them.
func blueprintKey(author, name string) string {
	return fmt.Sprintf("%s:%s/%s", redisKeyPrefix, url.QueryEscape(author), url.QueryEscape(name))
}

func pointsKey(member string) string {
	return member + ":points"
}

func authorIndexKey(author string) string {
	return fmt.Sprintf("%s:authors:%s", redisKeyPrefix, url.QueryEscape(author))
}

func allIndexKey() string {
	return redisKeyPrefix + ":all"
}

func encodePoint(p geometry.Point) string {
	return strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)
}

func decodePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("malformed point %q", s)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("malformed point %q: %w", s, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("malformed point %q: %w", s, err)
	}
	return geometry.Pt(x, y), nil
}

// Create stores bp unless its key is already taken.
func (r *RedisRepository) Create(ctx context.Context, bp *Blueprint) error {
	member := blueprintKey(bp.Author, bp.Name)
	id := uuid.New()
	now := time.Now().UTC()

	args := make([]any, 0, 5+len(bp.Points))
	args = append(args, id.String(), bp.Author, bp.Name, now.Format(time.RFC3339Nano), member)
	for _, p := range bp.Points {
		args = append(args, encodePoint(p))
	}

	keys := []string{member, pointsKey(member), authorIndexKey(bp.Author), allIndexKey()}
	created, err := r.createScript.Run(ctx, r.client, keys, args...).Int()
	if err != nil {
		return persistenceErr("creating blueprint", err)
	}
	if created == 0 {
		return alreadyExistsErr(bp.Author, bp.Name)
	}

	bp.ID = id
	bp.CreatedAt = now
	bp.UpdatedAt = now
	return nil
}

// Get retrieves a single blueprint with its points.
func (r *RedisRepository) Get(ctx context.Context, author, name string) (*Blueprint, error) {
	bps, err := r.load(ctx, []string{blueprintKey(author, name)})
	if err != nil {
		return nil, err
	}
	if len(bps) == 0 {
		return nil, notFoundErr(author, name)
	}
	return &bps[0], nil
}

// ListByAuthor retrieves every blueprint owned by author ordered by name.
func (r *RedisRepository) ListByAuthor(ctx context.Context, author string) ([]Blueprint, error) {
	members, err := r.client.SMembers(ctx, authorIndexKey(author)).Result()
	if err != nil {
		return nil, persistenceErr("listing author index", err)
	}

	bps, err := r.load(ctx, members)
	if err != nil {
		return nil, err
	}
	if len(bps) == 0 {
		return nil, noBlueprintsErr(author)
	}

	sortByKey(bps)
	return bps, nil
}

// List retrieves all blueprints ordered by author and name.
func (r *RedisRepository) List(ctx context.Context) ([]Blueprint, error) {
	members, err := r.client.SMembers(ctx, allIndexKey()).Result()
	if err != nil {
		return nil, persistenceErr("listing blueprint index", err)
	}

	bps, err := r.load(ctx, members)
	if err != nil {
		return nil, err
	}

	sortByKey(bps)
	return bps, nil
}

// Count returns the cardinality of the global index.
func (r *RedisRepository) Count(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, allIndexKey()).Result()
	if err != nil {
		return 0, persistenceErr("counting blueprint index", err)
	}
	return int(n), nil
}

// AppendPoint pushes p onto the blueprint's point list.
func (r *RedisRepository) AppendPoint(ctx context.Context, author, name string, p geometry.Point) error {
	member := blueprintKey(author, name)
	keys := []string{member, pointsKey(member)}

	n, err := r.appendScript.Run(ctx, r.client, keys, encodePoint(p), time.Now().UTC().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return persistenceErr("appending blueprint point", err)
	}
	if n < 0 {
		return notFoundErr(author, name)
	}
	return nil
}

// load reads the given blueprint hashes and point lists in one MULTI block.
// Members whose hash no longer exists are skipped.
func (r *RedisRepository) load(ctx context.Context, members []string) ([]Blueprint, error) {
	out := []Blueprint{}
	if len(members) == 0 {
		return out, nil
	}

	hashes := make([]*redis.MapStringStringCmd, len(members))
	lists := make([]*redis.StringSliceCmd, len(members))
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range members {
			hashes[i] = pipe.HGetAll(ctx, m)
			lists[i] = pipe.LRange(ctx, pointsKey(m), 0, -1)
		}
		return nil
	})
	if err != nil {
		return nil, persistenceErr("reading blueprints", err)
	}

	for i := range members {
		fields := hashes[i].Val()
		if len(fields) == 0 {
			continue
		}
		bp, err := decodeBlueprint(fields, lists[i].Val())
		if err != nil {
			return nil, persistenceErr("decoding blueprint "+members[i], err)
		}
		out = append(out, *bp)
	}
	return out, nil
}

func decodeBlueprint(fields map[string]string, rawPoints []string) (*Blueprint, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("parsing id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	points := make([]geometry.Point, 0, len(rawPoints))
	for _, raw := range rawPoints {
		p, err := decodePoint(raw)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return &Blueprint{
		ID:        id,
		Author:    fields["author"],
		Name:      fields["name"],
		Points:    points,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
