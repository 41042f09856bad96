package tenant

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"casa360/internal/config"
	"casa360/internal/db"
	"casa360/internal/metrics"
	"casa360/pkg/logger"
)

// conn is the slice of a database handle the provisioner needs. Production
// conns wrap gorm; tests substitute recorders.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Close() error
}

// Provisioner creates and drops the physical per-house databases. All
// connections it opens are scoped to a single call and closed on every exit
// path.
type Provisioner struct {
	cluster config.ClusterConfig
	tenant  config.TenantConfig
	prefix  string
	log     logger.Logger

	openAdmin  func() (conn, error)
	openTenant func(name string) (conn, error)
	readScript func(path string) (string, error)
}

func NewProvisioner(cluster config.ClusterConfig, tenantCfg config.TenantConfig, log logger.Logger) (*Provisioner, error) {
	if err := validatePrefix(tenantCfg.NamePrefix); err != nil {
		return nil, err
	}

	p := &Provisioner{
		cluster: cluster,
		tenant:  tenantCfg,
		prefix:  tenantCfg.NamePrefix,
		log:     log,
	}
	p.openAdmin = func() (conn, error) {
		return openGormConn(config.DBConfig{
			Host:     cluster.Host,
			Port:     cluster.Port,
			User:     cluster.User,
			Password: cluster.Password,
			Name:     cluster.MaintenanceDB,
			SSLMode:  cluster.SSLMode,
			TimeZone: "UTC",
			// CREATE DATABASE cannot run concurrently with itself anyway.
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		})
	}
	p.openTenant = func(name string) (conn, error) {
		return openGormConn(cluster.TenantDB(name))
	}
	p.readScript = func(path string) (string, error) {
		contents, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(contents), nil
	}

	return p, nil
}

// CreateHouseDatabase provisions the isolated database for one house. Any
// failure after the target name is known triggers a best-effort
// DROP DATABASE compensation; the original error is always the one returned.
func (p *Provisioner) CreateHouseDatabase(ctx context.Context, houseID int64) error {
	if houseID <= 0 {
		return fmt.Errorf("invalid house id %d", houseID)
	}
	name := p.prefix + fmt.Sprintf("%d", houseID)
	start := time.Now()

	admin, err := p.openAdmin()
	if err != nil {
		metrics.HouseProvisionCounter.WithLabelValues("error").Inc()
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer admin.Close()

	if err := p.provision(ctx, admin, name); err != nil {
		p.compensate(ctx, admin, name)
		metrics.HouseProvisionCounter.WithLabelValues("error").Inc()
		return err
	}

	metrics.HouseProvisionCounter.WithLabelValues("ok").Inc()
	metrics.HouseProvisionDuration.Observe(time.Since(start).Seconds())
	p.log.Info("tenant: house database provisioned", "database", name, "strategy", p.tenant.Strategy)
	return nil
}

func (p *Provisioner) provision(ctx context.Context, admin conn, name string) error {
	// A previous failed attempt may have left backends connected to a
	// same-named database; they would block CREATE or DROP.
	if err := terminateBackends(ctx, admin, name); err != nil {
		return fmt.Errorf("terminate stale backends for %s: %w", name, err)
	}

	if p.tenant.Strategy == config.StrategyTemplate {
		stmt := fmt.Sprintf("CREATE DATABASE %s WITH TEMPLATE %s", quoteIdent(name), quoteIdent(p.tenant.TemplateName))
		if err := admin.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create database %s from template: %w", name, err)
		}
		return nil
	}

	if err := admin.Exec(ctx, "CREATE DATABASE "+quoteIdent(name)); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}

	script, err := p.readScript(p.tenant.SchemaPath)
	if err != nil {
		return fmt.Errorf("read schema script %s: %w", p.tenant.SchemaPath, err)
	}

	target, err := p.openTenant(name)
	if err != nil {
		return fmt.Errorf("connect to new database %s: %w", name, err)
	}
	defer target.Close()

	if err := applyScript(ctx, target, script); err != nil {
		return fmt.Errorf("apply schema to %s: %w", name, err)
	}
	return nil
}

// DropHouseDatabase removes a house's physical database. Used by the house
// deletion flow and by the create-house saga compensation.
func (p *Provisioner) DropHouseDatabase(ctx context.Context, houseID int64) error {
	if houseID <= 0 {
		return fmt.Errorf("invalid house id %d", houseID)
	}
	name := p.prefix + fmt.Sprintf("%d", houseID)

	admin, err := p.openAdmin()
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer admin.Close()

	if err := terminateBackends(ctx, admin, name); err != nil {
		return fmt.Errorf("terminate backends for %s: %w", name, err)
	}
	if err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}

	p.log.Info("tenant: house database dropped", "database", name)
	return nil
}

// compensate is best effort. Its failure is logged and counted, never
// returned, so the caller always sees the original provisioning error.
func (p *Provisioner) compensate(ctx context.Context, admin conn, name string) {
	if err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+quoteIdent(name)); err != nil {
		metrics.CleanupFailureCounter.Inc()
		p.log.Error("tenant: drop-compensation failed, database may be orphaned", "database", name, "err", err)
		return
	}
	p.log.Warn("tenant: provisioning rolled back", "database", name)
}

func terminateBackends(ctx context.Context, c conn, name string) error {
	return c.Exec(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = ? AND pid <> pg_backend_pid()
	`, name)
}

// quoteIdent double-quotes a SQL identifier. Names are built from a
// validated prefix plus a numeric id, so embedded quotes cannot occur; the
// check is kept for the template name, which comes from config.
func quoteIdent(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"')
		}
		quoted = append(quoted, name[i])
	}
	return string(append(quoted, '"'))
}

type gormConn struct {
	db *gorm.DB
}

func openGormConn(cfg config.DBConfig) (conn, error) {
	gormDB, err := db.NewPostgres(cfg)
	if err != nil {
		return nil, err
	}
	return &gormConn{db: gormDB}, nil
}

func (c *gormConn) Exec(ctx context.Context, sql string, args ...any) error {
	return c.db.WithContext(ctx).Exec(sql, args...).Error
}

func (c *gormConn) Close() error {
	return db.Close(c.db)
}
