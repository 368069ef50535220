package blueprint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/daap14/blueprints/internal/geometry"
)

// seedEntry is one blueprint in a YAML seed file.
type seedEntry struct {
	Author string           `json:"author"`
	Name   string           `json:"name"`
	Points []geometry.Point `json:"points"`
}

// SampleBlueprints returns the demonstration blueprints loaded on a fresh start.
func SampleBlueprints() []Blueprint {
	return []Blueprint{
		{Author: "john", Name: "house", Points: []geometry.Point{
			geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10), geometry.Pt(0, 10),
		}},
		{Author: "john", Name: "garage", Points: []geometry.Point{
			geometry.Pt(5, 5), geometry.Pt(15, 5), geometry.Pt(15, 15),
		}},
		{Author: "jane", Name: "garden", Points: []geometry.Point{
			geometry.Pt(2, 2), geometry.Pt(3, 4), geometry.Pt(6, 7),
		}},
	}
}

// ParseSeed decodes a YAML list of blueprints:
//
//	- author: john
//	  name: house
//	  points: [{x: 0, y: 0}, {x: 10, y: 0}]
func ParseSeed(data []byte) ([]Blueprint, error) {
	var entries []seedEntry
	if err := sigsyaml.UnmarshalStrict(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing seed YAML: %w", err)
	}

	bps := make([]Blueprint, 0, len(entries))
	for i, e := range entries {
		author := strings.TrimSpace(e.Author)
		name := strings.TrimSpace(e.Name)
		if author == "" || name == "" {
			return nil, fmt.Errorf("seed entry %d: author and name are required", i)
		}
		bps = append(bps, Blueprint{Author: author, Name: name, Points: e.Points})
	}
	return bps, nil
}

// LoadSeedFile reads and parses a YAML seed file.
func LoadSeedFile(path string) ([]Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// Seed creates each blueprint in repo. Blueprints that already exist are left
// untouched, so seeding a durable backend on every start is harmless.
// It returns the number of blueprints created.
func Seed(ctx context.Context, repo Repository, bps []Blueprint) (int, error) {
	created := 0
	for i := range bps {
		bp := bps[i].Clone()
		if err := repo.Create(ctx, bp); err != nil {
			if errors.Is(err, ErrBlueprintAlreadyExists) {
				slog.Debug("seed blueprint already present", "author", bp.Author, "name", bp.Name)
				continue
			}
			return created, fmt.Errorf("seeding blueprint %s: %w", bp.Key(), err)
		}
		created++
	}
	return created, nil
}
