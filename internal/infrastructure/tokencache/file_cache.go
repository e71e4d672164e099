package tokencache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"petsnapshot/internal/domain"
	"petsnapshot/internal/ports"
)

// FileCache keeps the bearer token in a single JSON file.
type FileCache struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.TokenStore = (*FileCache)(nil)

// NewFileCache binds the cache to a file path. A nil logger disables debug output.
func NewFileCache(path string, log *slog.Logger) *FileCache {
	return &FileCache{path: path, now: time.Now, logger: log}
}

// WithClock replaces the time source used to judge expiry.
func (c *FileCache) WithClock(now func() time.Time) *FileCache {
	c.now = now
	return c
}

// Load returns the cached token if it exists, parses and is still valid.
// Every failure is reported as a miss.
func (c *FileCache) Load() (domain.AccessToken, bool) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.debug("token cache unreadable", "path", c.path, "error", err)
		}
		return domain.AccessToken{}, false
	}

	var token domain.AccessToken
	if err := json.Unmarshal(raw, &token); err != nil {
		c.debug("token cache corrupt", "path", c.path, "error", err)
		return domain.AccessToken{}, false
	}

	if !token.Valid(c.now()) {
		c.debug("token cache expired", "path", c.path, "expires_at", token.ExpiresAt)
		return domain.AccessToken{}, false
	}

	return token, true
}

// Save replaces the cache file atomically.
func (c *FileCache) Save(token domain.AccessToken) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create token cache dir: %w", err)
	}
	if err := renameio.WriteFile(c.path, payload, 0o600); err != nil {
		return fmt.Errorf("save token cache: %w", err)
	}
	return nil
}

func (c *FileCache) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
