package db

import (
	"testing"

	"github.com/cristianortiz/lotsEngine/internal/shared/config"
	"github.com/stretchr/testify/assert"
)

func TestBuildPostgresDSN(t *testing.T) {
	dsn := BuildPostgresDSN(config.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "app",
		Password: "secret",
		Name:     "lots",
		SSLMode:  "disable",
	})

	assert.Equal(t, "postgres://app:secret@db:5432/lots?sslmode=disable", dsn)
}
