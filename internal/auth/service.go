package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidKey is returned when the provided API key does not match any stored key.
var ErrInvalidKey = errors.New("invalid API key")

// KeyPrefix starts every raw key this service generates.
const KeyPrefix = "bp_"

// prefixLen is the number of leading raw-key characters stored in clear for lookup.
const prefixLen = 8

// Service provides API key authentication.
type Service struct {
	repo       KeyRepository
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(repo KeyRepository, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
	}
}

// GenerateKey creates a new raw API key with its lookup prefix and bcrypt
// hash. The raw key is "bp_" followed by 32 random bytes in base64url.
func GenerateKey(bcryptCost int) (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = KeyPrefix + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:prefixLen]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}

	return rawKey, prefix, string(hashBytes), nil
}

// IssueKey generates and stores a key with the given scopes. The raw key is
// returned once and never stored.
func (s *Service) IssueKey(ctx context.Context, name string, scopes []Scope) (string, *APIKey, error) {
	rawKey, prefix, hash, err := GenerateKey(s.bcryptCost)
	if err != nil {
		return "", nil, err
	}

	key := &APIKey{
		Name:   name,
		Prefix: prefix,
		Hash:   hash,
		Scopes: scopes,
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return "", nil, fmt.Errorf("storing api key %q: %w", name, err)
	}
	return rawKey, key, nil
}

// Authenticate resolves a raw API key to an Identity. It looks up candidates
// by prefix and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*Identity, error) {
	if len(rawKey) < prefixLen {
		return nil, ErrInvalidKey
	}

	candidates, err := s.repo.FindByPrefix(ctx, rawKey[:prefixLen])
	if err != nil {
		return nil, fmt.Errorf("finding keys by prefix: %w", err)
	}

	for _, k := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(rawKey)) == nil {
			return &Identity{KeyID: k.ID, Name: k.Name, Scopes: k.Scopes}, nil
		}
	}

	return nil, ErrInvalidKey
}

// BootstrapAdminKey issues a key holding every scope if no keys exist yet.
// Returns the raw key, or "" when keys were already present.
func (s *Service) BootstrapAdminKey(ctx context.Context) (string, error) {
	count, err := s.repo.CountAll(ctx)
	if err != nil {
		return "", fmt.Errorf("counting api keys: %w", err)
	}
	if count > 0 {
		return "", nil
	}

	rawKey, _, err := s.IssueKey(ctx, "admin", AllScopes)
	if err != nil {
		return "", fmt.Errorf("creating admin key: %w", err)
	}

	slog.Info("Admin API key created", "key", rawKey)
	return rawKey, nil
}
