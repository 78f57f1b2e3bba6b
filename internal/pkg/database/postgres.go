package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// NewPostgres opens the rewards database pool and verifies it answers.
func NewPostgres(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// Redemptions hold a row lock for the whole transaction, keep the pool modest
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Msg("Connected to PostgreSQL")
	return db, nil
}

// ClosePostgres closes the pool and logs the outcome
func ClosePostgres(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing PostgreSQL connection")
		return
	}
	log.Info().Msg("PostgreSQL connection closed")
}
