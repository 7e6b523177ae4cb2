package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/dorcha-inc/devbox/internal/core"
)

var varnishFilter = PathFilter{
	Exact:    []string{"system/full_page_cache/caching_application"},
	Prefixes: []string{"system/full_page_cache/varnish/"},
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(sqlite.Open(dbPath))
	require.NoError(t, err)
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { core.LogDeferredError(s.Close) })

	return s
}

func row(path, value string) ConfigRow {
	return ConfigRow{Scope: "default", ScopeID: 0, Path: path, Value: value}
}

func varnishRows(host, port string) []ConfigRow {
	return []ConfigRow{
		row("system/full_page_cache/caching_application", "2"),
		row("system/full_page_cache/varnish/access_list", host),
		row("system/full_page_cache/varnish/backend_host", host),
		row("system/full_page_cache/varnish/backend_port", port),
	}
}

func values(rows []ConfigRow) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Path] = r.Value
	}
	return out
}

func TestPing(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestReplaceSettings_FirstRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	deleted, err := s.ReplaceSettings(ctx, varnishFilter, varnishRows("web", "80"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	rows, err := s.Settings(ctx, varnishFilter)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, map[string]string{
		"system/full_page_cache/caching_application":  "2",
		"system/full_page_cache/varnish/access_list":  "web",
		"system/full_page_cache/varnish/backend_host": "web",
		"system/full_page_cache/varnish/backend_port": "80",
	}, values(rows))
}

func TestReplaceSettings_SecondRunReplaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceSettings(ctx, varnishFilter, varnishRows("web", "80"))
	require.NoError(t, err)

	deleted, err := s.ReplaceSettings(ctx, varnishFilter, varnishRows("nginx", "8080"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	rows, err := s.Settings(ctx, varnishFilter)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	got := values(rows)
	assert.Equal(t, "nginx", got["system/full_page_cache/varnish/backend_host"])
	assert.Equal(t, "8080", got["system/full_page_cache/varnish/backend_port"])
}

func TestReplaceSettings_RemovesStaleVarnishRows(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertSettings(ctx, []ConfigRow{
		row("system/full_page_cache/varnish/grace_period", "300"),
		row("web/secure/base_url", "https://example.test/"),
	}))

	_, err := s.ReplaceSettings(ctx, varnishFilter, varnishRows("web", "80"))
	require.NoError(t, err)

	rows, err := s.Settings(ctx, varnishFilter)
	require.NoError(t, err)
	assert.NotContains(t, values(rows), "system/full_page_cache/varnish/grace_period")

	// Rows outside the filter are untouched
	other, err := s.Settings(ctx, PathFilter{Exact: []string{"web/secure/base_url"}})
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "https://example.test/", other[0].Value)
}

func TestReplaceSettings_RollsBackOnInsertFailure(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceSettings(ctx, varnishFilter, varnishRows("web", "80"))
	require.NoError(t, err)

	// Duplicate (scope, scope_id, path) violates the unique index after the delete ran
	broken := append(varnishRows("nginx", "8080"), row("system/full_page_cache/varnish/backend_host", "dup"))
	_, err = s.ReplaceSettings(ctx, varnishFilter, broken)
	require.Error(t, err)

	rows, err := s.Settings(ctx, varnishFilter)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "web", values(rows)["system/full_page_cache/varnish/backend_host"])
}

func TestDeleteSettings_EmptyFilter(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.DeleteSettings(context.Background(), PathFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty path filter")
}

func TestSettings_EmptyFilter(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Settings(context.Background(), PathFilter{})
	require.Error(t, err)
}

func TestInsertSettings_Duplicate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertSettings(ctx, []ConfigRow{row("a/b/c", "1")}))
	err := s.InsertSettings(ctx, []ConfigRow{row("a/b/c", "2")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a/b/c")
}

func TestTransaction_Rollback(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *Store) error {
		require.NoError(t, tx.InsertSettings(ctx, []ConfigRow{row("a/b/c", "1")}))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	rows, err := s.Settings(ctx, PathFilter{Exact: []string{"a/b/c"}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMySQLOptions_DSN(t *testing.T) {
	opts := MySQLOptions{Host: "db", User: "root", Password: "root", Name: "magento2"}
	assert.Equal(t, "root:root@tcp(db)/magento2?parseTime=true", opts.DSN())
}

func TestMySQLOptions_DSN_HostWithPort(t *testing.T) {
	opts := MySQLOptions{Host: "db:3307", User: "magento", Password: "s3cr3t", Name: "shop"}
	assert.Equal(t, "magento:s3cr3t@tcp(db:3307)/shop?parseTime=true", opts.DSN())
}
