package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-events-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "pw", Name: "campus_events", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=campus_events sslmode=disable", dsn)
}
