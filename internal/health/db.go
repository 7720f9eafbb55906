// Package health provides health check implementations for external dependencies.
package health

import (
	"context"
	"database/sql"

	"github.com/gebrielmolla19/groupify/internal/tracing"
)

// DBChecker implements health checking for SQL databases.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker creates a new database health checker.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{
		db: db,
	}
}

// HealthCheck pings the database within the caller's deadline.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	ctx, end := tracing.StartDBSpan(ctx, "", tracing.DBOperationPing)
	err := d.db.PingContext(ctx)
	end(err)
	return err
}
