package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/meal-subscription-api/pkg/config"
)

func TestDriverName(t *testing.T) {
	name, err := DriverName("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", name)

	name, err = DriverName(config.DriverPgx)
	require.NoError(t, err)
	assert.Equal(t, "pgx", name)

	_, err = DriverName(config.DriverMemory)
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "meal", Password: "secret", Name: "meals", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=meal password=secret dbname=meals sslmode=disable", dsn)
}
