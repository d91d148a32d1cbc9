// Package store is the MySQL-backed persistence facade for the IM server.
// It is modeled as an injected handle rather than a package-level global:
// callers hold a *Store and pass it explicitly to server.NewServer, whose
// handlers reach it through the server's store field.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config holds the connection parameters read from the DB_* environment
// variables.
type Config struct {
	Host     string
	User     string
	Password string
	Database string
	Port     int
}

// DSN builds the go-sql-driver/mysql data source name for this config.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Store wraps a pooled MySQL connection and reconnects on demand, mirroring
// Database::ensureConnected in the original.
type Store struct {
	cfg Config
	db  *sql.DB
}

// ErrNotConnected is returned by operations attempted while the store has
// no live connection and reconnection failed.
var ErrNotConnected = errors.New("store: database not connected")

// Open dials MySQL using cfg and verifies connectivity with one ping.
func Open(cfg Config) (*Store, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{cfg: cfg, db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsConnected reports whether the store currently has a live connection.
func (s *Store) IsConnected() bool {
	return s.db != nil && s.db.Ping() == nil
}

// EnsureConnected reconnects if the current pool has gone bad, matching
// Database::ensureConnected's auto-reconnect behavior.
func (s *Store) EnsureConnected() error {
	if s.db != nil && s.db.Ping() == nil {
		return nil
	}

	log.Printf("store: connection lost, attempting reconnect to %s:%d", s.cfg.Host, s.cfg.Port)
	db, err := sql.Open("mysql", s.cfg.DSN())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	return nil
}

// InitSchema creates every table this server needs if it does not already
// exist.
func (s *Store) InitSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}
