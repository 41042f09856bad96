package tenant

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"casa360/internal/config"
)

func newTestRegistry(t *testing.T, maxPools int) (*Registry, *int32, *[]string) {
	t.Helper()

	cfg := testTenantCfg(config.StrategyTemplate)
	cfg.MaxPools = maxPools

	r, err := NewRegistry(nil, config.ClusterConfig{}, cfg, testLogger())
	require.NoError(t, err)

	var opened int32
	var closed []string
	var mu sync.Mutex

	r.openPool = func(config.DBConfig) (*gorm.DB, error) {
		atomic.AddInt32(&opened, 1)
		return &gorm.DB{}, nil
	}
	r.closePool = func(pool *gorm.DB) error {
		mu.Lock()
		closed = append(closed, "closed")
		mu.Unlock()
		return nil
	}
	return r, &opened, &closed
}

func TestHousePoolIsCachedPerID(t *testing.T) {
	r, opened, _ := newTestRegistry(t, 8)
	ctx := context.Background()

	first, err := r.House(ctx, 7)
	require.NoError(t, err)
	second, err := r.House(ctx, 7)
	require.NoError(t, err)

	assert.Same(t, first, second, "repeated lookups must return the same pool")
	assert.Equal(t, int32(1), atomic.LoadInt32(opened))

	other, err := r.House(ctx, 8)
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, int32(2), atomic.LoadInt32(opened))
}

func TestHousePoolConcurrentFirstAccessBuildsOnce(t *testing.T) {
	r, opened, _ := newTestRegistry(t, 8)
	r.openPool = func(config.DBConfig) (*gorm.DB, error) {
		atomic.AddInt32(opened, 1)
		time.Sleep(10 * time.Millisecond)
		return &gorm.DB{}, nil
	}

	const callers = 16
	pools := make([]*gorm.DB, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pool, err := r.House(context.Background(), 42)
			if err != nil {
				t.Error(err)
				return
			}
			pools[i] = pool
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(opened), "concurrent first access must share one construction")
	for i := 1; i < callers; i++ {
		assert.Same(t, pools[0], pools[i])
	}
}

func TestHousePoolEvictionClosesOldest(t *testing.T) {
	r, opened, closed := newTestRegistry(t, 2)
	ctx := context.Background()

	first, err := r.House(ctx, 1)
	require.NoError(t, err)
	_, err = r.House(ctx, 2)
	require.NoError(t, err)
	_, err = r.House(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(opened))
	assert.Len(t, *closed, 1, "capacity overflow must close the evicted pool")

	// house 1 was evicted; next access rebuilds it
	rebuilt, err := r.House(ctx, 1)
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)
	assert.Equal(t, int32(4), atomic.LoadInt32(opened))
}

func TestEvictClosesPool(t *testing.T) {
	r, _, closed := newTestRegistry(t, 8)
	_, err := r.House(context.Background(), 5)
	require.NoError(t, err)

	r.Evict(5)
	assert.Len(t, *closed, 1)
}

func TestCloseReleasesAllPools(t *testing.T) {
	r, _, closed := newTestRegistry(t, 8)
	ctx := context.Background()
	for id := int64(1); id <= 4; id++ {
		_, err := r.House(ctx, id)
		require.NoError(t, err)
	}

	r.Close()
	assert.Len(t, *closed, 4)
}

func TestDatabaseName(t *testing.T) {
	r, _, _ := newTestRegistry(t, 8)
	assert.Equal(t, "house_17", r.DatabaseName(17))
}

func TestHouseRejectsInvalidID(t *testing.T) {
	r, _, _ := newTestRegistry(t, 8)
	_, err := r.House(context.Background(), 0)
	require.Error(t, err)
}

func TestNewRegistryRejectsBadPrefix(t *testing.T) {
	cfg := testTenantCfg(config.StrategyTemplate)
	cfg.NamePrefix = "house-"
	_, err := NewRegistry(nil, config.ClusterConfig{}, cfg, testLogger())
	require.Error(t, err)
}
