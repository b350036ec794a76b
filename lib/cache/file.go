package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spotifier-core/lib/osutil"
	"spotifier-core/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

type fileEntry struct {
	Data      string `json:"data"`
	ExpiresAt int64  `json:"expires_at"`
}

// FileCache stores one JSON file per key under a directory. writes go
// through a temp file and a rename so a reader never sees a partial entry.
//
// Expiry is tracked in whole unix seconds: the ttl is rounded up and an
// entry stays readable through its expiry second, so it can outlive its
// ttl by up to two seconds.
type FileCache struct {
	dir string
	now func() time.Time
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir, now: timezone.Now}
}

func (c *FileCache) Dir() string {
	return c.dir
}

// path escapes key so that "prefix:key" and keys with slashes stay inside
// the cache directory.
func (c *FileCache) path(key string) string {
	escaped := url.PathEscape(key)
	if strings.HasPrefix(escaped, ".") {
		escaped = "%2E" + escaped[1:]
	}
	return filepath.Join(c.dir, escaped+".json")
}

func (c *FileCache) Get(ctx context.Context, key string) (string, bool) {
	_, span := startSpan(ctx, "cache:get", "file", key)
	defer span.End()

	path := c.path(key)
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		recordHit(span, false)
		return "", false
	}
	if err != nil {
		recordError(span, err, "failed to read cache file")
		return "", false
	}

	var entry fileEntry
	err = json.Unmarshal(contents, &entry)
	if err != nil {
		recordError(span, err, "failed to deserialize cache file")
		return "", false
	}

	if c.now().Unix() > entry.ExpiresAt {
		span.AddEvent("delete expired cache entry")
		err = os.Remove(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			recordError(span, err, "failed to delete expired entry")
		}
		recordHit(span, false)
		return "", false
	}

	recordHit(span, true)
	return entry.Data, true
}

func (c *FileCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, span := startSpan(ctx, "cache:set", "file", key)
	defer span.End()

	err := checkTTL(span, ttl)
	if err != nil {
		return err
	}

	entry := fileEntry{
		Data:      value,
		ExpiresAt: c.now().Unix() + int64(math.Ceil(ttl.Seconds())),
	}
	serialized, err := json.Marshal(entry)
	if err != nil {
		recordError(span, err, "failed to serialize cache entry")
		return err
	}

	err = osutil.WriteFileAtomic(c.path(key), serialized, 0600)
	if err != nil {
		recordError(span, err, "failed to write cache file")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *FileCache) Delete(ctx context.Context, key string) error {
	_, span := startSpan(ctx, "cache:delete", "file", key)
	defer span.End()

	err := os.Remove(c.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		recordError(span, err, "failed to delete cache file")
		return err
	}
	return nil
}
