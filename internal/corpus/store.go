package corpus

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config describes where the corpus lives and how often it is revalidated.
type Config struct {
	Path    string  `mapstructure:"path"`
	Columns Columns `mapstructure:",squash"`
	// RefreshInterval enables version checks of the source file. Zero caches
	// the first successful load for the process lifetime.
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
}

// Store hands out consistent corpus snapshots and reloads them when the
// source file changes.
type Store struct {
	config Config
	logger *zap.Logger

	current   atomic.Pointer[Corpus]
	checkedAt atomic.Int64

	loadMu sync.Mutex
	now    func() time.Time
	stat   func(string) (os.FileInfo, error)
}

func NewStore(config Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		config: config,
		logger: logger,
		now:    time.Now,
		stat:   os.Stat,
	}
}

// Snapshot returns the current corpus, loading it on first use.
// The returned corpus is never mutated afterwards.
func (s *Store) Snapshot(ctx context.Context) (*Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current := s.current.Load()
	if current == nil {
		return s.load(current)
	}

	if s.config.RefreshInterval <= 0 || !s.dueForCheck() {
		return current, nil
	}

	info, err := s.stat(s.config.Path)
	if err != nil {
		s.logger.Warn("corpus version check failed, keeping current snapshot",
			zap.String("path", s.config.Path),
			zap.Error(err),
		)
		return current, nil
	}

	if current.Version.Equal(Version{Size: info.Size(), ModTime: info.ModTime()}) {
		return current, nil
	}

	s.logger.Info("corpus source changed, reloading", zap.String("path", s.config.Path))
	return s.load(current)
}

// Reload forces a fresh read of the source file.
func (s *Store) Reload(ctx context.Context) (*Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	loaded, err := s.read()
	if err != nil {
		return nil, err
	}
	s.publish(loaded)
	return loaded, nil
}

func (s *Store) dueForCheck() bool {
	now := s.now().UnixNano()
	last := s.checkedAt.Load()
	if now-last < int64(s.config.RefreshInterval) {
		return false
	}
	return s.checkedAt.CompareAndSwap(last, now)
}

// load serialises concurrent loaders; seen is the snapshot the caller observed.
func (s *Store) load(seen *Corpus) (*Corpus, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if current := s.current.Load(); current != seen {
		return current, nil
	}

	loaded, err := s.read()
	if err != nil {
		if seen != nil {
			s.logger.Error("corpus reload failed, keeping previous snapshot",
				zap.String("path", s.config.Path),
				zap.Error(err),
			)
			return seen, nil
		}
		return nil, err
	}

	s.publish(loaded)
	return loaded, nil
}

func (s *Store) read() (*Corpus, error) {
	if s.config.Path == "" {
		return nil, fmt.Errorf("%w: corpus path is not configured", ErrCorpusUnavailable)
	}

	start := s.now()
	loaded, err := Load(s.config.Path, s.config.Columns)
	if err != nil {
		return nil, err
	}

	s.logger.Info("corpus loaded",
		zap.String("path", s.config.Path),
		zap.Int("postings", loaded.Len()),
		zap.Int("dropped", loaded.Dropped),
		zap.String("version", loaded.Version.String()),
		zap.Duration("duration", s.now().Sub(start)),
	)
	return loaded, nil
}

func (s *Store) publish(c *Corpus) {
	s.current.Store(c)
	s.checkedAt.Store(s.now().UnixNano())
}
