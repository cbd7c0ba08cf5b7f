package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// LLMCache stores model replies keyed by model name and prompt digest, so a
// goal that is re-submitted unchanged is not re-scored.
type LLMCache struct {
	Dir         string
	StrictPerms bool
}

// KeyFrom builds a cache key from model and prompt.
func KeyFrom(model string, prompt string) string {
	return digest(model + "\n\n" + prompt)
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns cached bytes if present. A miss is not an error.
func (c *LLMCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.Dir == "" {
		return nil, false, nil
	}
	if err := mkdir(c.Dir, c.StrictPerms); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes bytes to cache.
func (c *LLMCache) Save(_ context.Context, key string, data []byte) error {
	if c == nil || c.Dir == "" {
		return nil
	}
	if err := mkdir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	return os.WriteFile(c.pathFor(key), data, fileMode(c.StrictPerms))
}
