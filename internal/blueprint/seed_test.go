package blueprint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/blueprints/internal/blueprint"
	"github.com/daap14/blueprints/internal/geometry"
)

const seedYAML = `
- author: john
  name: house
  points:
    - {x: 0, y: 0}
    - {x: 10, y: 0}
- author: "  jane "
  name: empty
`

func TestParseSeed(t *testing.T) {
	bps, err := blueprint.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, bps, 2)

	assert.Equal(t, "john", bps[0].Author)
	assert.Equal(t, "house", bps[0].Name)
	assert.Equal(t, []geometry.Point{geometry.Pt(0, 0), geometry.Pt(10, 0)}, bps[0].Points)

	assert.Equal(t, "jane", bps[1].Author)
	assert.Empty(t, bps[1].Points)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not a list", yaml: "author: john"},
		{name: "missing name", yaml: "- author: john"},
		{name: "blank author", yaml: "- author: ' '\n  name: house"},
		{name: "unknown field", yaml: "- author: john\n  name: house\n  colour: red"},
		{name: "non-integer coordinate", yaml: "- author: john\n  name: house\n  points: [{x: a, y: 1}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := blueprint.ParseSeed([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	bps, err := blueprint.LoadSeedFile(path)
	require.NoError(t, err)
	assert.Len(t, bps, 2)

	_, err = blueprint.LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeed_SkipsExisting(t *testing.T) {
	repo := blueprint.NewMemoryRepository()
	ctx := context.Background()

	created, err := blueprint.Seed(ctx, repo, blueprint.SampleBlueprints())
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	created, err = blueprint.Seed(ctx, repo, blueprint.SampleBlueprints())
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	house, err := repo.Get(ctx, "john", "house")
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point{
		geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10), geometry.Pt(0, 10),
	}, house.Points)

	johns, err := repo.ListByAuthor(ctx, "john")
	require.NoError(t, err)
	assert.Len(t, johns, 2)
}

func TestSeed_DoesNotAliasInput(t *testing.T) {
	repo := blueprint.NewMemoryRepository()
	samples := blueprint.SampleBlueprints()

	_, err := blueprint.Seed(context.Background(), repo, samples)
	require.NoError(t, err)

	for _, s := range samples {
		assert.Zero(t, s.ID)
	}
}
