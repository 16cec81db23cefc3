package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"blogrr/internal/config"
	"blogrr/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBDriver:                 config.DriverSQLite,
		DBPath:                   filepath.Join(t.TempDir(), "blog.db"),
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
		DBSchemaMode:             config.SchemaModeAuto,
	}
}

func TestConfigurePool_SQLiteUsesSingleConnection(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db, sqliteConfig(t)))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_Postgres(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := sqliteConfig(t)
	cfg.DBDriver = config.DriverPostgres
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConnect_SQLiteAndApplySchema(t *testing.T) {
	cfg := sqliteConfig(t)

	db, err := Connect(cfg)
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	ctx := context.Background()
	require.NoError(t, ApplySchema(ctx, db, config.SchemaModeAuto))
	// Second run must be a no-op.
	require.NoError(t, ApplySchema(ctx, db, config.SchemaModeAuto))

	assert.True(t, db.Migrator().HasTable(&models.Post{}))
	assert.True(t, db.Migrator().HasColumn(&models.Post{}, "author"))
	assert.NoError(t, Ping(ctx, db))
}

func TestApplySchema_UnknownMode(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	assert.Error(t, ApplySchema(context.Background(), db, "hybrid"))
}

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "postgres",
		DBPassword: "secret",
		DBName:     "blogsite",
	}
	assert.Equal(t, "host=db port=5432 user=postgres password=secret dbname=blogsite sslmode=disable", PostgresDSN(cfg))

	cfg.DBSSLMode = "require"
	assert.Contains(t, PostgresDSN(cfg), "sslmode=require")
}

func TestPersistentModels_IncludesPost(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*models.Post); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include Post")
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("CREATE INDEX x;")},
		"m/000002_second.down.sql": {Data: []byte("DROP INDEX x;")},
		"m/000001_first.up.sql":    {Data: []byte("CREATE TABLE t;")},
		"m/000001_first.down.sql":  {Data: []byte("DROP TABLE t;")},
		"m/README.md":              {Data: []byte("ignored")},
		"m/bad.up.sql":             {Data: []byte("ignored")},
	}

	loaded, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, 1, loaded[0].Version)
	assert.Equal(t, "first", loaded[0].Name)
	assert.Equal(t, "DROP TABLE t;", loaded[0].DownScript)
	assert.Equal(t, "000002_second", loaded[1].String())
}

func TestLoadMigrations_MissingDownScript(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000001_first.up.sql": {Data: []byte("CREATE TABLE t;")},
	}

	_, err := LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Contains(t, all[0].UpScript, "CREATE TABLE IF NOT EXISTS posts")

	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Version, all[i].Version)
	}

	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}}

	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7, 3}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003, 000007")
}

func TestPendingMigrations(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	pending := pendingMigrations([]int{1, 3}, registered)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	assert.Len(t, pendingMigrations(nil, registered), 3)
}

func TestOpen_ClosesPoolWhenPingFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	cfg := sqliteConfig(t)
	cfg.DBDriver = config.DriverPostgres

	db, err := open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to reach database")

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Error(t, sqlDB.Ping(), "pool must be closed")
}
