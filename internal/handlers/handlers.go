package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/01moynul/workshop-logistics/internal/auth"
	"github.com/01moynul/workshop-logistics/internal/config"
	"github.com/01moynul/workshop-logistics/internal/storage"
)

// Handlers struct holds all dependencies for our handlers. It is built once
// in main and passed to the router.
type Handlers struct {
	DB        *sql.DB
	Files     *storage.FileStore
	Tokens    *auth.TokenManager
	Config    *config.Config
	StartedAt time.Time
}

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
