package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/patrickmn/go-cache"
)

// PreferenceRepository keeps preferences in memory and, when a path is set,
// snapshots them to disk after every change.
type PreferenceRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
	path  string
}

// NewPreferenceRepository loads an existing snapshot from path. An empty
// path gives a purely in-memory store.
func NewPreferenceRepository(path string) (*PreferenceRepository, error) {
	// Preferences never expire, so the janitor is off
	c := cache.New(cache.NoExpiration, 0)
	r := &PreferenceRepository{cache: c, path: path}

	if path == "" {
		return r, nil
	}
	if err := c.LoadFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load preferences from %s: %w", path, err)
	}
	return r, nil
}

func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if x, found := r.cache.Get(key); found {
		if s, ok := x.(string); ok {
			return s, true, nil
		}
	}
	return "", false, nil
}

func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(key, value, cache.NoExpiration)
	return r.persist()
}

func (r *PreferenceRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(key)
	return r.persist()
}

func (r *PreferenceRepository) persist() error {
	if r.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("failed to create preference dir: %w", err)
	}
	// the file holds the session cookie; create it owner-only before
	// SaveFile truncates it
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open preferences: %w", err)
	}
	f.Close()
	if err := r.cache.SaveFile(r.path); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	if err := os.Chmod(r.path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict preferences: %w", err)
	}
	return nil
}
