package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestOpenSQLiteMemoryIsolated(t *testing.T) {
	first := openTestDB(t)
	second := openTestDB(t)

	require.NoError(t, Migrate(first))
	require.NoError(t, Migrate(second))
	require.NoError(t, first.Create(&models.User{Username: "alice"}).Error)

	var count int64
	require.NoError(t, second.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"posts", "users", "cache_entries"} {
		require.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
	require.True(t, db.Migrator().HasColumn(&models.Post{}, "like_count"))
	require.True(t, db.Migrator().HasColumn(&models.Post{}, "dislike_count"))
}

func TestAutoMigrateRejectsNilHandle(t *testing.T) {
	require.Error(t, Migrate(nil))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestNormaliseDriver(t *testing.T) {
	require.Equal(t, "sqlite", NormaliseDriver(""))
	require.Equal(t, "sqlite", NormaliseDriver("SQLite3"))
	require.Equal(t, "postgres", NormaliseDriver(" postgresql "))
	require.Equal(t, "mysql", NormaliseDriver("mysql"))
}

func TestPostgresDSNDefaults(t *testing.T) {
	dsn, err := postgresDialect.dsn(Config{User: "social", Name: "social_media"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=social dbname=social_media sslmode=disable", dsn)
}

func TestPostgresDSNWithOptions(t *testing.T) {
	dsn, err := postgresDialect.dsn(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options:  map[string]string{"sslmode": "require", "search_path": "public"},
	})
	require.NoError(t, err)

	for _, part := range []string{"host=db.example.com", "port=6543", "password=pass", "sslmode=require", "search_path=public"} {
		require.True(t, strings.Contains(dsn, part), "dsn %q missing %q", dsn, part)
	}
}

func TestMySQLDSNDefaults(t *testing.T) {
	dsn, err := mysqlDialect.dsn(Config{User: "social", Name: "social_media"})
	require.NoError(t, err)
	require.Equal(t, "social@tcp(127.0.0.1:3306)/social_media?charset=utf8mb4&loc=UTC&parseTime=True", dsn)
}

func TestMySQLDSNWithPassword(t *testing.T) {
	dsn, err := mysqlDialect.dsn(Config{User: "user", Password: "secret", Name: "db", Host: "db.example.com", Port: 3307})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "user:secret@tcp(db.example.com:3307)/db?"))
}

func TestDSNRequiresUserAndName(t *testing.T) {
	_, err := postgresDialect.dsn(Config{})
	require.Error(t, err)

	_, err = mysqlDialect.dsn(Config{Host: "localhost"})
	require.Error(t, err)
}

func TestDSNOverrideWins(t *testing.T) {
	dsn, err := mysqlDialect.dsn(Config{DSN: "custom"})
	require.NoError(t, err)
	require.Equal(t, "custom", dsn)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	return db
}
