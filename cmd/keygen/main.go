// Command keygen generates an API key and prints the raw key together with
// the key file entry that grants it.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/daap14/blueprints/internal/auth"
)

func main() {
	name := flag.String("name", "", "key name (required)")
	scopes := flag.String("scopes", string(auth.ScopeRead), "comma-separated scopes")
	cost := flag.Int("cost", 12, "bcrypt cost")
	flag.Parse()

	if err := run(*name, *scopes, *cost); err != nil {
		slog.Error("keygen failed", "error", err)
		os.Exit(1)
	}
}

func run(name, scopeList string, cost int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("-name is required")
	}

	var scopes []auth.Scope
	for _, s := range strings.Split(scopeList, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		scope, err := auth.ParseScope(s)
		if err != nil {
			return err
		}
		scopes = append(scopes, scope)
	}
	if len(scopes) == 0 {
		return fmt.Errorf("at least one scope is required")
	}

	rawKey, prefix, hash, err := auth.GenerateKey(cost)
	if err != nil {
		return err
	}

	entry, err := auth.MarshalKeyFileEntry(&auth.APIKey{Name: name, Prefix: prefix, Hash: hash, Scopes: scopes})
	if err != nil {
		return fmt.Errorf("encoding key file entry: %w", err)
	}

	fmt.Fprintf(os.Stderr, "API key (shown once): %s\n", rawKey)
	fmt.Fprint(os.Stdout, string(entry))
	return nil
}
