// Package connresolve implements the C2 Connection Template Resolver:
// rewrites templates containing {vault:<path>} tokens using a cached,
// single-flighted call into the C1 secret store client.
package connresolve

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/secretstore"
)

var tokenPattern = regexp.MustCompile(`\{vault:([^}]+)\}`)

// Resolver rewrites connection templates, caching resolved secret values.
type Resolver struct {
	client secretstore.Client
	cache  *secretCache
}

// New builds a Resolver backed by client, caching values for ttl.
func New(client secretstore.Client, ttl time.Duration) *Resolver {
	return &Resolver{client: client, cache: newSecretCache(ttl)}
}

// Resolve scans template for {vault:<path>} tokens and replaces every
// occurrence with the fetched secret value. If no tokens are present, the
// input is returned unchanged without calling the vault.
func (r *Resolver) Resolve(ctx context.Context, template string) (string, error) {
	matches := tokenPattern.FindAllStringSubmatchIndex(template, -1)
	if matches == nil {
		return template, nil
	}

	paths := map[string]struct{}{}
	for _, m := range matches {
		paths[template[m[2]:m[3]]] = struct{}{}
	}

	values := make(map[string]string, len(paths))
	for path := range paths {
		v, err := r.cache.get(ctx, path, r.client)
		if err != nil {
			return "", fmt.Errorf("connresolve: resolve %q: %w", path, err)
		}
		values[path] = v
	}

	return tokenPattern.ReplaceAllStringFunc(template, func(tok string) string {
		sub := tokenPattern.FindStringSubmatch(tok)
		return values[sub[1]]
	}), nil
}
