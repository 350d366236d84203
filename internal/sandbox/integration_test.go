package sandbox

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSandboxRole = "queryquest_sandbox_test"

func integrationDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("QUERYQUEST_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("QUERYQUEST_TEST_DATABASE_URL not set")
	}
	return dsn
}

func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := integrationDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))
	return pool
}

func TestIntegrationMutationsNeverPersist(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS sandbox_scratch (id INT PRIMARY KEY, note TEXT)`)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DROP TABLE IF EXISTS sandbox_scratch`) })
	_, err = pool.Exec(ctx, `TRUNCATE sandbox_scratch`)
	require.NoError(t, err)

	executor := NewExecutor(pool, 2*time.Second)

	result, err := executor.Run(ctx, []string{"INSERT INTO sandbox_scratch VALUES (1, 'setup'), (2, 'setup')"}, "DELETE FROM sandbox_scratch WHERE id = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RowCount)

	_, err = executor.Run(ctx, nil, "INSERT INTO sandbox_scratch VALUES (3, 'player'), (4, 'player')")
	require.NoError(t, err)

	_, err = executor.Run(ctx, nil, "INSERT INTO sandbox_scratch VALUES (5, 'x'); COMMIT")
	require.Error(t, err)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM sandbox_scratch`).Scan(&count))
	assert.Zero(t, count)
}

func TestIntegrationSelectAgainstTempFixture(t *testing.T) {
	pool := integrationPool(t)
	executor := NewExecutor(pool, 2*time.Second)

	result, err := executor.Run(context.Background(), []string{
		"CREATE TEMP TABLE citizens (id SERIAL PRIMARY KEY, name TEXT); INSERT INTO citizens (name) VALUES ('Ava'), ('Ben')",
	}, "SELECT name, id FROM citizens ORDER BY id")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "id"}, result.Columns)
	assert.Equal(t, int64(2), result.RowCount)
	require.Len(t, result.Rows, 2)
	name, _ := result.Rows[0].Get("name")
	assert.Equal(t, "Ava", name)

	_, err = executor.Run(context.Background(), nil, "SELECT * FROM citizens")
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindNotFound, execErr.Kind)
}

func TestIntegrationStatementTimeout(t *testing.T) {
	pool := integrationPool(t)
	executor := NewExecutor(pool, 100*time.Millisecond)

	_, err := executor.Run(context.Background(), nil, "SELECT pg_sleep(2)")
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindTimeout, execErr.Kind)
}

func TestIntegrationRoleCannotReadAppTables(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()

	for _, stmt := range []string{
		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = '` + testSandboxRole + `') THEN
				CREATE ROLE ` + testSandboxRole + ` NOLOGIN;
			END IF;
		END $$`,
		`GRANT ` + testSandboxRole + ` TO CURRENT_USER`,
		`CREATE TABLE IF NOT EXISTS sandbox_private (email TEXT)`,
		`REVOKE ALL ON sandbox_private FROM PUBLIC`,
	} {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DROP TABLE IF EXISTS sandbox_private`) })

	executor := NewExecutor(pool, 2*time.Second, WithRole(testSandboxRole))
	require.NoError(t, executor.Ping(ctx))

	_, err := executor.Run(ctx, nil, "SELECT * FROM sandbox_private")
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindPermission, execErr.Kind)

	result, err := executor.Run(ctx, []string{
		"CREATE TEMP TABLE citizens (name TEXT); INSERT INTO citizens VALUES ('Ava')",
	}, "SELECT name FROM citizens")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RowCount)
}

func TestIntegrationReleasedConnectionDropsAdvisoryLocks(t *testing.T) {
	control := integrationPool(t)
	ctx := context.Background()

	cfg, err := NewPoolConfig(integrationDSN(t), 1)
	require.NoError(t, err)
	sandboxPool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(sandboxPool.Close)

	_, err = NewExecutor(sandboxPool, 2*time.Second).Run(ctx, nil, "SELECT pg_advisory_lock(424242)")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		var held int
		err := control.QueryRow(ctx, `SELECT COUNT(*) FROM pg_locks WHERE locktype = 'advisory' AND objid = 424242`).Scan(&held)
		return err == nil && held == 0
	}, 5*time.Second, 50*time.Millisecond)
}
