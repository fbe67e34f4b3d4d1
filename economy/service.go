// Package economy owns every balance-affecting operation of the game: draws,
// shop purchases and salvage. Each operation runs as one serializable
// Postgres transaction per user, so concurrent requests against the same
// user or the same stock-limited offer serialize instead of racing.
package economy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/hallowtide/atelier/gacha"
	"github.com/hallowtide/atelier/metrics"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so read helpers can
// run standalone or inside a coordinator transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config configures the economy service.
type Config struct {
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Clock   clockwork.Clock // defaults to the real clock
	Sampler gacha.Sampler   // defaults to the crypto sampler
	Rates   gacha.Rates     // defaults to DefaultRates
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Pool == nil {
		return errors.New("postgres pool is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Sampler == nil {
		cfg.Sampler = gacha.CryptoSampler()
	}
	if cfg.Rates == (gacha.Rates{}) {
		cfg.Rates = gacha.DefaultRates()
	}
	return nil
}

// Service coordinates draw, purchase and salvage operations.
type Service struct {
	log     *slog.Logger
	db      *pgxpool.Pool
	clock   clockwork.Clock
	sampler gacha.Sampler
	rates   gacha.Rates
}

// New creates an economy service.
func New(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		log:     cfg.Logger,
		db:      cfg.Pool,
		clock:   cfg.Clock,
		sampler: cfg.Sampler,
		rates:   cfg.Rates,
	}, nil
}

// Rates returns the probability model the service draws with.
func (s *Service) Rates() gacha.Rates { return s.rates }

// inSerializableTx runs fn inside a serializable transaction, retrying
// serialization conflicts (SQLSTATE 40001) with capped exponential backoff.
// Two operations racing on the same user or offer never both observe stale
// state: one commits, the other re-runs against the fresh rows.
func (s *Service) inSerializableTx(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	const maxAttempts = 8
	delay := 75 * time.Millisecond
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		metrics.TxConflictsTotal.WithLabelValues(op).Inc()
		if attempt == maxAttempts {
			break
		}
		if err := sleepWithContext(ctx, delay); err != nil {
			return err
		}
		if delay < 1200*time.Millisecond {
			delay *= 2
		}
	}
	s.log.Warn("transaction retries exhausted", "op", op)
	return ErrTxConflict
}

func (s *Service) runTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// claimIdempotency records a client idempotency key inside the operation's
// transaction. A replayed key fails with ErrDuplicateRequest instead of
// re-executing the operation's effects. An empty key skips the claim.
func claimIdempotency(ctx context.Context, tx pgx.Tx, userID int64, key, action string) error {
	if key == "" {
		return nil
	}
	cmd, err := tx.Exec(ctx, `
		INSERT INTO idempotency_keys (user_id, key, action)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO NOTHING
	`, userID, key, action)
	if err != nil {
		return fmt.Errorf("claim idempotency key: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateRequest
	}
	return nil
}
