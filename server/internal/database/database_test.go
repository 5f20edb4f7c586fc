package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"testons-go/server/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "testons"})
	assert.Equal(t, "host=db user=u password=p dbname=testons port=5432 sslmode=disable TimeZone=UTC", dsn)
}

func TestOpenMigrates(t *testing.T) {
	host := os.Getenv("TESTONS_TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("TESTONS_TEST_DATABASE_HOST not set, skipping postgres test")
	}
	db, err := Open(config.DatabaseConfig{
		Host:     host,
		Port:     "5432",
		User:     os.Getenv("TESTONS_TEST_DATABASE_USER"),
		Password: os.Getenv("TESTONS_TEST_DATABASE_PASSWORD"),
		DBName:   os.Getenv("TESTONS_TEST_DATABASE_NAME"),
	}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable("documents"))
	// Migrate is idempotent.
	require.NoError(t, Migrate(db, zap.NewNop()))
}
