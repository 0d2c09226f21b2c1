package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger(t *testing.T) {
	cfg := &config.APIServerConfig{}
	lg := initLogger(cfg)
	require.NotNil(t, lg)
	_ = lg.Sync()
}

func TestInitDatabase_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "apiserver.db")
	db := initDatabase(zap.NewNop(), &config.DatabaseConfig{Type: "sqlite", DBName: dbPath})
	t.Cleanup(func() { _ = db.Close() })
	assert.FileExists(t, dbPath)
}

func TestInitI18n(t *testing.T) {
	tr := initI18n(zap.NewNop(), &config.I18nConfig{DefaultLang: "en"})
	require.NotNil(t, tr)
}

func TestInitRouter_Constructs(t *testing.T) {
	dir := t.TempDir()
	lg := zap.NewNop()
	db := initDatabase(lg, &config.DatabaseConfig{Type: "sqlite", DBName: filepath.Join(dir, "api.db")})
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.APIServerConfig{
		SuperAdmin: config.SuperAdminConfig{Username: "admin", Password: "admin-password"},
		JWT:        config.JWTConfig{SecretKey: "this-is-a-very-long-secret-key-for-testing-purposes-only", Duration: time.Hour},
		Upload:     config.UploadConfig{Dir: dir, MaxFileSize: 1 << 20, MaxFiles: 2},
		Cache:      config.CacheConfig{Type: "memory", TTL: time.Minute},
		Metrics:    config.MetricsConfig{Enabled: true, Path: "/metrics", Namespace: "choirhub_test"},
		I18n:       config.I18nConfig{DefaultLang: "en"},
	}
	ensureSuperAdmin(t.Context(), lg, db, cfg.SuperAdmin)

	store := initStore(lg, &cfg.Upload)
	assert.Nil(t, initReconciler(lg, store, db, &cfg.Upload))
	r := initRouter(db, store, cache.NewMemoryCache(), nil, cfg, lg)
	require.NotNil(t, r)

	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	exists, err := db.UserExists(t.Context(), "", "admin", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.DirExists(t, filepath.Join(dir, "songs"))
}

func TestInitReconciler_RemovesOrphans(t *testing.T) {
	dir := t.TempDir()
	lg := zap.NewNop()
	db := initDatabase(lg, &config.DatabaseConfig{Type: "sqlite", DBName: filepath.Join(dir, "api.db")})
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.UploadConfig{Dir: dir, ReconcileInterval: time.Hour}
	store := initStore(lg, cfg)
	require.NoError(t, store.CreateFolder(t.Context(), "orphan_1"))

	rec := initReconciler(lg, store, db, cfg)
	require.NotNil(t, rec)
	run := rec.RunOnce(t.Context())
	assert.Equal(t, "success", run.Status)
	assert.Equal(t, []string{"orphan_1"}, run.Removed)
	assert.NoDirExists(t, filepath.Join(dir, "songs", "orphan_1"))
}
