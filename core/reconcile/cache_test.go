package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCatalogCache_ReusesFreshEntry(t *testing.T) {
	path := writeCatalog(t, "<contentList/>")
	var loads int32
	cache := NewCatalogCache(func(p string) (Source, error) {
		atomic.AddInt32(&loads, 1)
		return &memSource{name: p}, nil
	}, time.Minute)

	first, err := cache.Get(context.Background(), path)
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestCatalogCache_ReloadsWhenFileChanges(t *testing.T) {
	path := writeCatalog(t, "<contentList/>")
	var loads int32
	cache := NewCatalogCache(func(p string) (Source, error) {
		atomic.AddInt32(&loads, 1)
		return &memSource{name: p}, nil
	}, time.Minute)

	_, err := cache.Get(context.Background(), path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("<contentList></contentList>"), 0o644))
	_, err = cache.Get(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&loads))
}

func TestCatalogCache_ZeroTTLDoesNotStore(t *testing.T) {
	path := writeCatalog(t, "<contentList/>")
	var loads int32
	cache := NewCatalogCache(func(p string) (Source, error) {
		atomic.AddInt32(&loads, 1)
		return &memSource{name: p}, nil
	}, 0)

	for i := 0; i < 3; i++ {
		_, err := cache.Get(context.Background(), path)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&loads))
}

func TestCatalogCache_SingleflightCollapsesConcurrentLoads(t *testing.T) {
	path := writeCatalog(t, "<contentList/>")
	var loads int32
	release := make(chan struct{})
	cache := NewCatalogCache(func(p string) (Source, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return &memSource{name: p}, nil
	}, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background(), path)
			assert.NoError(t, err)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestCatalogCache_Errors(t *testing.T) {
	cache := NewCatalogCache(func(p string) (Source, error) {
		return nil, errors.New("boom")
	}, time.Minute)

	_, err := cache.Get(context.Background(), filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)

	path := writeCatalog(t, "<contentList/>")
	_, err = cache.Get(context.Background(), path)
	assert.EqualError(t, err, "boom")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cache.Get(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalogCache_Invalidate(t *testing.T) {
	path := writeCatalog(t, "<contentList/>")
	var loads int32
	cache := NewCatalogCache(func(p string) (Source, error) {
		atomic.AddInt32(&loads, 1)
		return &memSource{name: p}, nil
	}, time.Minute)

	_, _ = cache.Get(context.Background(), path)
	cache.Invalidate(path)
	_, _ = cache.Get(context.Background(), path)

	assert.Equal(t, int32(2), atomic.LoadInt32(&loads))
}
