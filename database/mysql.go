package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"greenmap/common"

	"github.com/apex/log"
	"github.com/go-sql-driver/mysql"
)

// MySQLConfig describes how to reach the snapshot database.
type MySQLConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
	PingMaxWait  time.Duration
}

// DSN renders the driver connection string.
func (c MySQLConfig) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, c.Port)
	mc.DBName = c.Name
	mc.ParseTime = true
	return mc.FormatDSN()
}

// Connect opens the pool and waits for the server with exponential backoff.
func Connect(ctx context.Context, c MySQLConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnLifetime)
	}

	deadline := time.Now().Add(c.PingMaxWait)
	wait := time.Second
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		pingErr := db.PingContext(pingCtx)
		cancel()
		if pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			db.Close()
			return nil, fmt.Errorf("database ping timeout after %v: %w", c.PingMaxWait, pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", wait, pingErr)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > 30*time.Second {
			wait = 30 * time.Second
		}
	}

	log.Infof("Established db connection pool: open=%d idle=%d", c.MaxOpenConns, c.MaxIdleConns)
	return db, nil
}

// MySQLStore keeps snapshots in the snapshots table, one row per key.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Migrate creates the snapshots table if needed.
func (s *MySQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS snapshots (
		snapshot_key VARCHAR(64) NOT NULL PRIMARY KEY,
		payload LONGTEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return nil
}

func (s *MySQLStore) Read(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM snapshots WHERE snapshot_key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	return []byte(payload), nil
}

func (s *MySQLStore) Write(ctx context.Context, key string, data []byte) error {
	result, err := s.db.ExecContext(ctx, `INSERT INTO snapshots (snapshot_key, payload) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE payload = ?`, key, string(data), string(data))
	common.LogResult("writeSnapshot "+key, result, err)
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	return nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
