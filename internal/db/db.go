package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTimeout = 3 * time.Second

type Options struct {
	MaxConns int32
	MinConns int32
	// Timeout bounds connecting and every query issued through WithTimeout.
	Timeout time.Duration
}

type DB struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func New(dsn string, opts Options) (*DB, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	config, err := poolConfig(dsn, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, Classify(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, Classify(err)
	}

	return &DB{pool: pool, timeout: opts.Timeout}, nil
}

// poolConfig parses dsn and applies the pool tuning. Everything in
// ConnConfig.RuntimeParams is sent to the server at startup, so only real
// server settings may go there.
func poolConfig(dsn string, opts Options) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}

	// Configure pool settings
	config.MaxConns = 25
	config.MinConns = 5
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	config.MaxConnLifetime = 2 * time.Hour
	config.MaxConnIdleTime = 5 * time.Minute
	return config, nil
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// WithTimeout derives the per query context.
func (db *DB) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.timeout)
}

func (db *DB) RunInTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return Classify(err)
	}

	// Ensure rollback if fn returns an error or panic occurs
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logging.Ctx(ctx).Error().Err(rbErr).Msg("transaction rollback failed")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return Classify(err)
	}

	return nil
}

// Classify maps driver errors onto the model error kinds. Errors it does not
// recognise are reported as an unavailable store.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %w", model.ErrNotFound, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w: %w", model.ErrUpstreamUnavailable, model.ErrTimeout, err)
	case errors.Is(err, model.ErrUpstreamUnavailable), errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrInvalidArgument), errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
	}
}

// Close closes the database pool
func (db *DB) Close() {
	db.pool.Close()
}
