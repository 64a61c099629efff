// Package cache stores model responses on disk so repeated runs over the
// same dataset reuse identical calls.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dotnet-skills/skill-evals/internal/llm"
)

// Cache is a directory of JSON-encoded responses keyed by request hash.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a cache rooted at dir. An empty dir disables caching.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key hashes everything that affects a model's answer.
func Key(req *llm.Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Get retrieves a cached response if it exists.
func (c *Cache) Get(key string) (*llm.Response, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	var resp llm.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		// Invalid cache entry, treat as miss
		return nil, false
	}
	return &resp, true
}

// Put stores a response.
func (c *Cache) Put(key string, resp *llm.Response) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	if err := os.WriteFile(c.path(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear removes all cached responses. It refuses to delete a directory that
// holds anything other than cache files.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Client wraps an llm.Client with the cache.
type Client struct {
	inner llm.Client
	cache *Cache
}

func NewClient(inner llm.Client, cache *Cache) *Client {
	return &Client{inner: inner, cache: cache}
}

func (c *Client) Invoke(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	key, err := Key(req)
	if err != nil {
		return nil, err
	}
	if resp, ok := c.cache.Get(key); ok {
		slog.Debug("cache hit", "model", req.Model, "key", key[:12])
		return resp, nil
	}

	resp, err := c.inner.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(key, resp); err != nil {
		slog.Warn("failed to cache response", "error", err)
	}
	return resp, nil
}

// Close closes the wrapped client.
func (c *Client) Close() error {
	return llm.Close(c.inner)
}
