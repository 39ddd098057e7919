package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// OpenDB opens and configures the connection pool for the given driver,
// verifies it with a ping and creates any missing tables.
func OpenDB(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" {
		// SQLite allows a single writer; one connection also keeps
		// shared in-memory databases alive for the life of the pool.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := EnsureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Database connection pool established (%s)", driver)
	return db, nil
}

// EnsureSchema creates the users, requests and items tables if absent.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	statements := mysqlSchema
	if driver == "sqlite3" {
		statements = sqliteSchema
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL DEFAULT '',
		name VARCHAR(255) NOT NULL,
		team_name VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(16) NOT NULL DEFAULT 'USER',
		created_at DATETIME(3) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		created_at DATETIME(3) NOT NULL,
		INDEX idx_requests_created_at (created_at),
		CONSTRAINT fk_requests_user FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		request_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		quantity INT NOT NULL,
		price DECIMAL(12,2) NOT NULL DEFAULT 0,
		source VARCHAR(255) NOT NULL,
		sample_file VARCHAR(255) NULL,
		CONSTRAINT fk_items_request FOREIGN KEY (request_id) REFERENCES requests(id) ON DELETE CASCADE
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		team_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'USER',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at)`,
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id INTEGER NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		sample_file TEXT
	)`,
}
