package tenant

import (
	"context"
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"casa360/internal/config"
	"casa360/internal/db"
	"casa360/internal/metrics"
	"casa360/pkg/logger"
)

const defaultMaxPools = 64

// Registry is the single access point for database pools, partitioned by
// house. It owns the shared user pool plus a bounded LRU cache of lazily
// constructed tenant pools; evicted pools are closed. It is constructed once
// in app wiring and injected wherever a pool is needed.
type Registry struct {
	userDB  *gorm.DB
	cluster config.ClusterConfig
	prefix  string

	pools *lru.Cache[string, *gorm.DB]
	group singleflight.Group
	log   logger.Logger

	openPool  func(config.DBConfig) (*gorm.DB, error)
	closePool func(*gorm.DB) error
}

func NewRegistry(userDB *gorm.DB, cluster config.ClusterConfig, tenantCfg config.TenantConfig, log logger.Logger) (*Registry, error) {
	if err := validatePrefix(tenantCfg.NamePrefix); err != nil {
		return nil, err
	}

	maxPools := tenantCfg.MaxPools
	if maxPools <= 0 {
		maxPools = defaultMaxPools
	}

	r := &Registry{
		userDB:    userDB,
		cluster:   cluster,
		prefix:    tenantCfg.NamePrefix,
		log:       log,
		openPool:  db.NewLazyPostgres,
		closePool: db.Close,
	}

	pools, err := lru.NewWithEvict(maxPools, r.onEvict)
	if err != nil {
		return nil, fmt.Errorf("tenant pool cache: %w", err)
	}
	r.pools = pools

	return r, nil
}

// User returns the shared user-database pool. Same instance for the process
// lifetime.
func (r *Registry) User() *gorm.DB {
	return r.userDB
}

// House returns the pool for one house, constructing and caching it on first
// access. Concurrent first accesses for the same house share one
// construction. The pool connects lazily; a nonexistent database surfaces on
// the first query, not here.
func (r *Registry) House(ctx context.Context, houseID int64) (*gorm.DB, error) {
	if houseID <= 0 {
		return nil, fmt.Errorf("invalid house id %d", houseID)
	}
	name := r.DatabaseName(houseID)

	if pool, ok := r.pools.Get(name); ok {
		return pool, nil
	}

	result, err, _ := r.group.Do(name, func() (any, error) {
		if pool, ok := r.pools.Get(name); ok {
			return pool, nil
		}

		pool, err := r.openPool(r.cluster.TenantDB(name))
		if err != nil {
			return nil, fmt.Errorf("open tenant pool %s: %w", name, err)
		}

		r.pools.Add(name, pool)
		metrics.TenantPoolsGauge.Inc()
		r.log.Debug("tenant: pool created", "database", name)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*gorm.DB), nil
}

// DatabaseName maps a house id to its physical database name. House ids are
// numeric on purpose: house names are user-controlled and unsafe as SQL
// identifiers.
func (r *Registry) DatabaseName(houseID int64) string {
	return r.prefix + strconv.FormatInt(houseID, 10)
}

// Evict drops and closes the cached pool for one house, if present. Called
// after a house database is dropped.
func (r *Registry) Evict(houseID int64) {
	r.pools.Remove(r.DatabaseName(houseID))
}

// Close releases every cached tenant pool. The user pool is owned by the
// application and closed separately.
func (r *Registry) Close() {
	r.pools.Purge()
}

// onEvict runs inside the cache lock, so it must not call back into r.pools.
func (r *Registry) onEvict(name string, pool *gorm.DB) {
	if err := r.closePool(pool); err != nil {
		r.log.Warn("tenant: closing evicted pool failed", "database", name, "err", err)
	}
	metrics.TenantPoolEvictions.Inc()
	metrics.TenantPoolsGauge.Dec()
	r.log.Debug("tenant: pool evicted", "database", name)
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("tenant name prefix is required")
	}
	for _, c := range prefix {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return fmt.Errorf("tenant name prefix %q contains invalid character %q", prefix, c)
		}
	}
	return nil
}
