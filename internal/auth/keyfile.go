package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"
)

type keyFileEntry struct {
	Name   string   `json:"name"`
	Prefix string   `json:"prefix"`
	Hash   string   `json:"hash"`
	Scopes []string `json:"scopes"`
}

// ParseKeyFile decodes a YAML list of pre-hashed API keys, as printed by
// cmd/keygen:
//
//	- name: ci
//	  prefix: bp_AbCdE
//	  hash: $2a$12$...
//	  scopes: [blueprints.read]
func ParseKeyFile(data []byte) ([]APIKey, error) {
	var entries []keyFileEntry
	if err := sigsyaml.UnmarshalStrict(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding key file: %w", err)
	}

	keys := make([]APIKey, 0, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("key file entry %d: name is required", i)
		}
		if len(e.Prefix) != prefixLen {
			return nil, fmt.Errorf("key file entry %q: prefix must be %d characters", name, prefixLen)
		}
		if e.Hash == "" {
			return nil, fmt.Errorf("key file entry %q: hash is required", name)
		}
		if len(e.Scopes) == 0 {
			return nil, fmt.Errorf("key file entry %q: at least one scope is required", name)
		}

		scopes := make([]Scope, 0, len(e.Scopes))
		for _, s := range e.Scopes {
			scope, err := ParseScope(s)
			if err != nil {
				return nil, fmt.Errorf("key file entry %q: %w", name, err)
			}
			scopes = append(scopes, scope)
		}

		keys = append(keys, APIKey{Name: name, Prefix: e.Prefix, Hash: e.Hash, Scopes: scopes})
	}
	return keys, nil
}

// LoadKeyFile reads and parses the key file at path.
func LoadKeyFile(path string) ([]APIKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return ParseKeyFile(data)
}

// MarshalKeyFileEntry renders key as a single-entry key file document.
func MarshalKeyFileEntry(key *APIKey) ([]byte, error) {
	scopes := make([]string, len(key.Scopes))
	for i, s := range key.Scopes {
		scopes[i] = string(s)
	}
	return sigsyaml.Marshal([]keyFileEntry{{
		Name:   key.Name,
		Prefix: key.Prefix,
		Hash:   key.Hash,
		Scopes: scopes,
	}})
}

// Import stores keys in repo, rejecting duplicate names.
func Import(ctx context.Context, repo KeyRepository, keys []APIKey) error {
	for i := range keys {
		if err := repo.Create(ctx, &keys[i]); err != nil {
			if errors.Is(err, ErrDuplicateKeyName) {
				return fmt.Errorf("key file: %w: %q", err, keys[i].Name)
			}
			return err
		}
	}
	return nil
}
