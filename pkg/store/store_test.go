package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{
		Host:     "127.0.0.1",
		User:     "root",
		Password: "secret",
		Database: "im_server",
		Port:     3306,
	}

	dsn := cfg.DSN()
	assert.Equal(t, "root:secret@tcp(127.0.0.1:3306)/im_server?parseTime=true&charset=utf8mb4", dsn)
}

func TestSchemaStatementsAreNonEmpty(t *testing.T) {
	assert.NotEmpty(t, schemaStatements)
	for _, stmt := range schemaStatements {
		assert.Contains(t, stmt, "CREATE TABLE IF NOT EXISTS")
	}
}
