// Package database connects the Database Connection Pool Registry's
// DatabaseHandle entries to live GORM handles (§4.2 "the Vector Store
// Engine is bound to one live database connection... not shared across
// requests"). Only Postgres+pgvector is supported: this system has no
// sqlite/libSQL deployment target, unlike the teacher it is grounded on.
package database

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dsnOf resolves the connection string for h: the explicit DSN when set,
// else a resolveURLFile indirection through WalletRef (a path to a file
// holding the DSN, mirroring wallet-style Oracle/Postgres deployments where
// the connection string is mounted as a secret rather than passed inline).
func dsnOf(h model.DatabaseHandle) (string, error) {
	if h.DSN != "" {
		return h.DSN, nil
	}
	if h.WalletRef != "" {
		return resolveURLFile(h.WalletRef)
	}
	return "", apierrors.Validation(fmt.Sprintf("database handle %q has neither dsn nor wallet_ref", h.Name), nil)
}

// resolveURLFile reads a database connection URL from a file and returns
// the trimmed contents.
func resolveURLFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading URL file: %w", err)
	}
	url := strings.TrimSpace(string(content))
	if url == "" {
		return "", fmt.Errorf("URL file %s is empty or contains only whitespace", path)
	}
	return url, nil
}

// Connect opens a GORM handle for h and ensures the pgvector extension is
// present (§4.2 step 0, a precondition of every later CREATE TABLE ...
// vector(n) the Vector Store Engine issues). Callers apply
// h.ConnectTimeout via ctx.
func Connect(ctx context.Context, h model.DatabaseHandle) (*gorm.DB, error) {
	dsn, err := dsnOf(h)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, apierrors.Unavailable(fmt.Sprintf("connecting to database %q", h.Name), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apierrors.Unavailable(fmt.Sprintf("acquiring pool for database %q", h.Name), err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, apierrors.Unavailable(fmt.Sprintf("pinging database %q", h.Name), err)
	}

	if err := db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, apierrors.Unavailable(fmt.Sprintf("enabling pgvector on database %q", h.Name), err)
	}

	return db, nil
}

// Ping satisfies registry/database.Pinger: it opens a short-lived
// connection to validate a DatabaseHandle before the registry commits it
// (Upsert) or re-validates it for a request (GetValidated), then closes it
// rather than keeping it, since handles in the registry are identity
// records, not pooled connections (§5 "not shared across requests").
func Ping(ctx context.Context, h model.DatabaseHandle) error {
	db, err := Connect(ctx, h)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
