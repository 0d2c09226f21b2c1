package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN_Postgres(t *testing.T) {
	c := &DatabaseConfig{Type: "postgres", Host: "h", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", c.GetDSN())
}

func TestDatabaseConfig_GetDSN_MySQL(t *testing.T) {
	c := &DatabaseConfig{Type: "mysql", Host: "h", Port: 3306, User: "u", Password: "p", DBName: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=Local", c.GetDSN())
}

func TestDatabaseConfig_GetDSN_SQLite(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "data", "choirhub.db")
	c := &DatabaseConfig{Type: "sqlite", DBName: dbPath}
	assert.Equal(t, dbPath, c.GetDSN())
	_, err := os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)

	mem := &DatabaseConfig{Type: "sqlite", DBName: ":memory:"}
	assert.Equal(t, ":memory:", mem.GetDSN())
}

func TestDatabaseConfig_GetDSN_Unknown(t *testing.T) {
	c := &DatabaseConfig{Type: "unknown"}
	assert.Equal(t, "", c.GetDSN())
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	c := &APIServerConfig{}
	c.Server.Port = 9000
	c.Upload.MaxFiles = 3
	c.Cache.Type = "redis"
	c.applyDefaults()

	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, 3, c.Upload.MaxFiles)
	assert.Equal(t, "redis", c.Cache.Type)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.Equal(t, "./data/choirhub.db", c.Database.DBName)
	assert.Equal(t, defaultMaxFileSize, c.Upload.MaxFileSize)
	assert.Equal(t, "/metrics", c.Metrics.Path)
}
