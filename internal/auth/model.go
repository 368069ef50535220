package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Scope grants access to a group of blueprint operations.
type Scope string

const (
	ScopeRead     Scope = "blueprints.read"
	ScopeWrite    Scope = "blueprints.write"
	ScopeAddPoint Scope = "blueprints.addPoint"
)

// AllScopes lists every known scope.
var AllScopes = []Scope{ScopeRead, ScopeWrite, ScopeAddPoint}

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	for _, scope := range AllScopes {
		if string(scope) == s {
			return scope, nil
		}
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// APIKey is a stored API key. Only the bcrypt hash of the raw key is kept.
type APIKey struct {
	ID        uuid.UUID
	Name      string
	Prefix    string
	Hash      string
	Scopes    []Scope
	CreatedAt time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	KeyID  uuid.UUID
	Name   string
	Scopes []Scope
}

// HasScope reports whether the identity was granted scope.
func (i *Identity) HasScope(scope Scope) bool {
	return slices.Contains(i.Scopes, scope)
}
