// Package filter implements the point-sequence transformations applied to a
// blueprint before it is presented to a consumer.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daap14/blueprints/internal/geometry"
)

// ErrUnknownFilter is returned when a configured filter name is not recognised.
var ErrUnknownFilter = errors.New("unknown filter")

// Kind selects one of the supported filters. The zero value is Identity.
type Kind int

const (
	Identity Kind = iota
	Redundancy
	Undersampling
)

var kindNames = map[Kind]string{
	Identity:      "identity",
	Redundancy:    "redundancy",
	Undersampling: "undersampling",
}

// Names returns the configuration names of all filters, in declaration order.
func Names() []string {
	return []string{kindNames[Identity], kindNames[Redundancy], kindNames[Undersampling]}
}

// Parse resolves a configuration name to a Kind. Matching is case-insensitive
// and an empty name selects Identity.
func Parse(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Identity, nil
	}
	for k, v := range kindNames {
		if v == n {
			return k, nil
		}
	}
	return Identity, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownFilter, name, strings.Join(Names(), ", "))
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Apply transforms pts according to k. It never modifies pts; the result may
// share its backing array with pts when no points are dropped.
func (k Kind) Apply(pts []geometry.Point) []geometry.Point {
	switch k {
	case Redundancy:
		return RemoveRedundant(pts)
	case Undersampling:
		return Undersample(pts)
	default:
		return pts
	}
}

// RemoveRedundant drops every point equal to the last point kept, so runs of
// consecutive duplicates collapse to their first element. Non-adjacent
// repeats are preserved.
func RemoveRedundant(pts []geometry.Point) []geometry.Point {
	if len(pts) <= 1 {
		return pts
	}

	out := make([]geometry.Point, 0, len(pts))
	prev := pts[0]
	out = append(out, prev)
	for _, p := range pts[1:] {
		if p != prev {
			out = append(out, p)
			prev = p
		}
	}
	return out
}

// Undersample keeps the points at even indices (0, 2, 4, ...).
func Undersample(pts []geometry.Point) []geometry.Point {
	if len(pts) <= 1 {
		return pts
	}

	out := make([]geometry.Point, 0, (len(pts)+1)/2)
	for i := 0; i < len(pts); i += 2 {
		out = append(out, pts[i])
	}
	return out
}
