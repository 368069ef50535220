package blueprint

import (
	"time"

	"github.com/google/uuid"

	"github.com/daap14/blueprints/internal/geometry"
)

// Key is the natural identity of a blueprint.
type Key struct {
	Author string
	Name   string
}

func (k Key) String() string {
	return k.Author + "/" + k.Name
}

// Blueprint is a named, author-owned sequence of points.
// ID is storage bookkeeping only; identity is the (Author, Name) key.
type Blueprint struct {
	ID        uuid.UUID
	Author    string
	Name      string
	Points    []geometry.Point
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the blueprint's composite key.
func (bp *Blueprint) Key() Key {
	return Key{Author: bp.Author, Name: bp.Name}
}

// SameKey reports whether bp and other share author and name. Points are not compared.
func (bp *Blueprint) SameKey(other *Blueprint) bool {
	return bp.Author == other.Author && bp.Name == other.Name
}

// Clone returns a deep copy of bp.
func (bp *Blueprint) Clone() *Blueprint {
	c := *bp
	c.Points = geometry.Clone(bp.Points)
	return &c
}
