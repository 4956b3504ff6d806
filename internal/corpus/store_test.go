package corpus

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, path string, interval time.Duration) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(Config{Path: path, RefreshInterval: interval}, zap.NewNop())
	s.now = clock.Now
	return s, clock
}

func rewrite(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestStoreCachesForever(t *testing.T) {
	path := writeCSV(t, "job_link,job_skills\nhttps://a,go\n")
	s, clock := newTestStore(t, path, 0)

	first, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Len())

	rewrite(t, path, "job_link,job_skills\nhttps://a,go\nhttps://b,rust\n", time.Now().Add(time.Hour))
	clock.Advance(24 * time.Hour)

	second, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestStoreReloadsWhenSourceChanges(t *testing.T) {
	path := writeCSV(t, "job_link,job_skills\nhttps://a,go\n")
	s, clock := newTestStore(t, path, time.Minute)

	first, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	rewrite(t, path, "job_link,job_skills\nhttps://a,go\nhttps://b,rust\n", time.Now().Add(time.Hour))

	// Within the interval the cached snapshot is served.
	clock.Advance(30 * time.Second)
	same, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, same)

	clock.Advance(time.Minute)
	reloaded, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, 2, reloaded.Len())

	// The old snapshot is untouched.
	assert.Equal(t, 1, first.Len())
}

func TestStoreKeepsSnapshotWhenReloadFails(t *testing.T) {
	path := writeCSV(t, "job_link,job_skills\nhttps://a,go\n")

	core, observed := observer.New(zapcore.InfoLevel)
	s, clock := newTestStore(t, path, time.Minute)
	s.logger = zap.New(core)

	first, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	rewrite(t, path, "broken,header\n1,2\n", time.Now().Add(time.Hour))
	clock.Advance(2 * time.Minute)

	current, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, current)
	assert.Equal(t, 1, observed.FilterMessage("corpus reload failed, keeping previous snapshot").Len())
}

func TestStoreFirstLoadFailure(t *testing.T) {
	s, _ := newTestStore(t, filepath.Join(t.TempDir(), "absent.csv"), 0)

	_, err := s.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
}

func TestStoreWithoutPath(t *testing.T) {
	s := NewStore(Config{}, nil)

	_, err := s.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
}

func TestStoreReload(t *testing.T) {
	path := writeCSV(t, "job_link,job_skills\nhttps://a,go\n")
	s, _ := newTestStore(t, path, 0)

	first, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	rewrite(t, path, "job_link,job_skills\nhttps://a,go\nhttps://b,rust\n", time.Now().Add(time.Hour))

	reloaded, err := s.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	current, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, reloaded, current)
	assert.NotSame(t, first, current)
}

func TestStoreReloadWaitsForRunningLoad(t *testing.T) {
	path := writeCSV(t, "job_link,job_skills\nhttps://a,go\n")
	s, _ := newTestStore(t, path, 0)

	s.loadMu.Lock()
	done := make(chan *Corpus, 1)
	go func() {
		reloaded, err := s.Reload(context.Background())
		assert.NoError(t, err)
		done <- reloaded
	}()

	select {
	case <-done:
		t.Fatal("reload finished while another load held the lock")
	case <-time.After(50 * time.Millisecond):
	}
	s.loadMu.Unlock()

	select {
	case reloaded := <-done:
		current, err := s.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Same(t, reloaded, current)
	case <-time.After(5 * time.Second):
		t.Fatal("reload did not finish")
	}
}

func TestStoreConcurrentSnapshots(t *testing.T) {
	path := writeCSV(t, "job_link,job_skills\nhttps://a,go\n")
	s, _ := newTestStore(t, path, 0)

	var wg sync.WaitGroup
	results := make([]*Corpus, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.Snapshot(context.Background())
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range results[1:] {
		assert.Same(t, results[0], c)
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	s, _ := newTestStore(t, "unused", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
