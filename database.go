package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

const (
	dbMaxRetries = 60
	dbRetryDelay = 2 * time.Second
)

// normalizeDatabaseURL rewrites postgresql:// to postgres:// and adds
// sslmode=disable when no sslmode is given.
func normalizeDatabaseURL(databaseURL string) string {
	if databaseURL == "" {
		return databaseURL
	}
	if rest, ok := strings.CutPrefix(databaseURL, "postgresql:"); ok {
		databaseURL = "postgres:" + rest
	}
	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL = databaseURL + separator + "sslmode=disable"
	}
	return databaseURL
}

// openDB connects through the pgx stdlib driver, waiting for the database to
// come up.
func openDB(ctx context.Context, databaseURL string, log zerolog.Logger) (*sql.DB, error) {
	config, err := pgx.ParseConfig(normalizeDatabaseURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	for i := 0; i < dbMaxRetries; i++ {
		db := stdlib.OpenDB(*config)
		err := db.PingContext(ctx)
		if err == nil {
			log.Info().Str("host", config.Host).Str("database", config.Database).Msg("Database connection established")
			return db, nil
		}
		db.Close()

		if i == dbMaxRetries-1 {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", dbMaxRetries, err)
		}
		event := log.Warn().Int("attempt", i+1).Int("max", dbMaxRetries).Dur("retry_in", dbRetryDelay)
		// the underlying error is noisy; log it on the first few and every tenth attempt
		if i%10 == 0 || i < 5 {
			event = event.Err(err)
		}
		event.Msg("Database not ready")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dbRetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to database")
}
