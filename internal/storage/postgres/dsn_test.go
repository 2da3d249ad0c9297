package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planhaus/portal-backend/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "db", Port: 5433, User: "portal", Password: "pw", Name: "portal"}
	assert.Equal(t, "host=db port=5433 user=portal password=pw dbname=portal sslmode=disable", DSN(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, DSN(cfg), "sslmode=require")

	cfg.DSN = "postgres://portal@db/portal"
	assert.Equal(t, "postgres://portal@db/portal", DSN(cfg))
}
