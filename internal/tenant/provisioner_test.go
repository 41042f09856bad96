package tenant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casa360/internal/config"
	"casa360/pkg/logger"

	"go.uber.org/zap"
)

type fakeConn struct {
	execs    []string
	failWhen func(i int, sql string) error
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{}
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) error {
	i := len(c.execs)
	c.execs = append(c.execs, strings.TrimSpace(sql))
	if c.failWhen != nil {
		return c.failWhen(i, strings.TrimSpace(sql))
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func testLogger() logger.Logger {
	return logger.New(zap.NewNop())
}

func testTenantCfg(strategy string) config.TenantConfig {
	return config.TenantConfig{
		Strategy:     strategy,
		TemplateName: "house_template",
		SchemaPath:   "schema/house.sql",
		NamePrefix:   "house_",
		MaxPools:     8,
	}
}

func newTestProvisioner(t *testing.T, strategy string, admin *fakeConn, target *fakeConn, script string) *Provisioner {
	t.Helper()

	p, err := NewProvisioner(config.ClusterConfig{}, testTenantCfg(strategy), testLogger())
	require.NoError(t, err)

	p.openAdmin = func() (conn, error) { return admin, nil }
	p.openTenant = func(string) (conn, error) { return target, nil }
	p.readScript = func(string) (string, error) { return script, nil }
	return p
}

func TestCreateHouseDatabaseTemplate(t *testing.T) {
	admin := newFakeConn()
	p := newTestProvisioner(t, config.StrategyTemplate, admin, nil, "")

	err := p.CreateHouseDatabase(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, admin.execs, 2)
	assert.Contains(t, admin.execs[0], "pg_terminate_backend")
	assert.Equal(t, `CREATE DATABASE "house_7" WITH TEMPLATE "house_template"`, admin.execs[1])
	assert.True(t, admin.closed, "admin connection must be closed")
}

func TestCreateHouseDatabaseScript(t *testing.T) {
	admin := newFakeConn()
	target := newFakeConn()
	script := "CREATE TABLE finance_cc (id INT);\nCREATE TABLE tasks (id INT);"
	p := newTestProvisioner(t, config.StrategyScript, admin, target, script)

	err := p.CreateHouseDatabase(context.Background(), 12)
	require.NoError(t, err)

	require.Len(t, admin.execs, 2)
	assert.Equal(t, `CREATE DATABASE "house_12"`, admin.execs[1])

	require.Len(t, target.execs, 2)
	assert.Contains(t, target.execs[0], "finance_cc")
	assert.Contains(t, target.execs[1], "tasks")

	assert.True(t, admin.closed)
	assert.True(t, target.closed)
}

func TestCreateHouseDatabaseScriptFailureCompensates(t *testing.T) {
	boom := errors.New("column does not exist")
	admin := newFakeConn()
	target := newFakeConn()
	target.failWhen = func(i int, _ string) error {
		if i == 1 {
			return boom
		}
		return nil
	}
	script := "CREATE TABLE a (id INT);\nCREATE TABLE b (id oops);\nCREATE TABLE c (id INT);"
	p := newTestProvisioner(t, config.StrategyScript, admin, target, script)

	err := p.CreateHouseDatabase(context.Background(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// statement 3 never ran
	require.Len(t, target.execs, 2)

	// compensation dropped the half-built database
	last := admin.execs[len(admin.execs)-1]
	assert.Equal(t, `DROP DATABASE IF EXISTS "house_3"`, last)
	assert.True(t, admin.closed)
	assert.True(t, target.closed)
}

func TestCreateHouseDatabaseCreateFailureCompensates(t *testing.T) {
	boom := errors.New("database already exists")
	admin := newFakeConn()
	admin.failWhen = func(_ int, sql string) error {
		if strings.HasPrefix(sql, "CREATE DATABASE") {
			return boom
		}
		return nil
	}
	p := newTestProvisioner(t, config.StrategyTemplate, admin, nil, "")

	err := p.CreateHouseDatabase(context.Background(), 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, `DROP DATABASE IF EXISTS "house_9"`, admin.execs[len(admin.execs)-1])
}

func TestCreateHouseDatabaseCleanupFailureKeepsOriginalError(t *testing.T) {
	original := errors.New("create failed")
	cleanup := errors.New("drop failed")
	admin := newFakeConn()
	admin.failWhen = func(_ int, sql string) error {
		switch {
		case strings.HasPrefix(sql, "CREATE DATABASE"):
			return original
		case strings.HasPrefix(sql, "DROP DATABASE"):
			return cleanup
		}
		return nil
	}
	p := newTestProvisioner(t, config.StrategyTemplate, admin, nil, "")

	err := p.CreateHouseDatabase(context.Background(), 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, original)
	assert.NotErrorIs(t, err, cleanup)
	assert.True(t, admin.closed)
}

func TestCreateHouseDatabaseUnreadableScript(t *testing.T) {
	admin := newFakeConn()
	p := newTestProvisioner(t, config.StrategyScript, admin, nil, "")
	p.readScript = func(path string) (string, error) {
		return "", errors.New("no such file")
	}

	err := p.CreateHouseDatabase(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema script")
	assert.Equal(t, `DROP DATABASE IF EXISTS "house_5"`, admin.execs[len(admin.execs)-1])
}

func TestCreateHouseDatabaseRejectsInvalidID(t *testing.T) {
	p, err := NewProvisioner(config.ClusterConfig{}, testTenantCfg(config.StrategyTemplate), testLogger())
	require.NoError(t, err)
	require.Error(t, p.CreateHouseDatabase(context.Background(), 0))
	require.Error(t, p.CreateHouseDatabase(context.Background(), -1))
}

func TestDropHouseDatabase(t *testing.T) {
	admin := newFakeConn()
	p := newTestProvisioner(t, config.StrategyTemplate, admin, nil, "")

	err := p.DropHouseDatabase(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, admin.execs, 2)
	assert.Contains(t, admin.execs[0], "pg_terminate_backend")
	assert.Equal(t, `DROP DATABASE IF EXISTS "house_7"`, admin.execs[1])
	assert.True(t, admin.closed)
}

func TestNewProvisionerRejectsBadPrefix(t *testing.T) {
	cfg := testTenantCfg(config.StrategyTemplate)
	cfg.NamePrefix = `bad"prefix`
	_, err := NewProvisioner(config.ClusterConfig{}, cfg, testLogger())
	require.Error(t, err)
}
