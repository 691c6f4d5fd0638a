// Package cache stores model responses by request fingerprint. A store is a
// pure optimization: every caller must behave the same on a miss as on an
// empty store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nstehr/abilityc/llm"
)

// Store is a response cache. Get reports ok=false on a miss.
type Store interface {
	Get(ctx context.Context, fingerprint string) (text string, ok bool, err error)
	Put(ctx context.Context, fingerprint, text string) error
}

// Key is everything that determines a model response.
type Key struct {
	Version  string        `json:"version"`
	Purpose  string        `json:"purpose"`
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Params   llm.Params    `json:"params"`
}

// Fingerprint hashes k. Bumping Version invalidates every older entry.
func Fingerprint(k Key) string {
	// Marshal of this struct cannot fail.
	b, _ := json.Marshal(k)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Config selects a store backend: "", "none", "memory", "redis" or "sqlite".
type Config struct {
	Backend  string        `yaml:"backend" split_words:"true"`
	Addr     string        `yaml:"addr" split_words:"true"`
	Password string        `yaml:"password" split_words:"true"`
	DB       int           `yaml:"db" split_words:"true"`
	Path     string        `yaml:"path" split_words:"true"`
	Prefix   string        `yaml:"prefix" split_words:"true"`
	TTL      time.Duration `yaml:"ttl" split_words:"true"`
}

// Open builds the configured store. It returns nil, nil when caching is off.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(), nil
	case "redis":
		return OpenRedis(ctx, cfg)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	}
	return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
}
