package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMigrations_SortedByID(t *testing.T) {
	noop := func(*gorm.DB) error { return nil }
	RegisterMigration(Migration{ID: "29990002_second", Name: "second", Up: noop})
	RegisterMigration(Migration{ID: "29990001_first", Name: "first", Up: noop})

	var ids []string
	for _, m := range Migrations() {
		ids = append(ids, m.ID)
	}
	assert.Subset(t, ids, []string{"29990001_first", "29990002_second"})
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestRegisterMigration_DuplicatePanics(t *testing.T) {
	RegisterMigration(Migration{ID: "29990003_dup", Name: "dup"})
	assert.Panics(t, func() {
		RegisterMigration(Migration{ID: "29990003_dup", Name: "dup"})
	})
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{Host: "db", Port: 5432, User: "gk", Password: "secret", DBName: "gatekeeper"}
	assert.Equal(t, "host=db port=5432 user=gk password=secret dbname=gatekeeper sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}
