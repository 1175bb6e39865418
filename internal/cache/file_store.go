package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"pubg-tournament/internal/clock"
	"time"

	"github.com/rs/zerolog"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps one JSON file per key under dir.
type FileStore struct {
	dir    string
	clock  clock.Clock
	logger zerolog.Logger
}

func NewFileStore(dir string, clk clock.Clock, logger zerolog.Logger) *FileStore {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("failed to create cache directory, cache writes will be skipped")
	}
	return &FileStore{dir: dir, clock: clk, logger: logger}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, SanitizeKey(key)+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool) {
	path := s.path(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("cache entry unreadable")
		return nil, false
	}

	if e.expired(s.clock.Now()) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug().Err(err).Str("key", key).Msg("failed to remove expired cache entry")
		}
		s.logger.Debug().Str("key", key).Msg("cache entry expired")
		return nil, false
	}

	return e.Data, true
}

func (s *FileStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) {
	raw, err := json.Marshal(newEntry(payload, s.clock.Now(), ttl))
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("cache payload is not valid JSON, skipping")
		return
	}

	// write-then-rename so readers never observe a torn file
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
		return
	}
	_, werr := tmp.Write(raw)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		s.logger.Debug().Err(errors.Join(werr, cerr)).Str("key", key).Msg("cache write failed")
		return
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		s.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *FileStore) Delete(_ context.Context, key string) {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug().Err(err).Str("key", key).Msg("cache delete failed")
	}
}
