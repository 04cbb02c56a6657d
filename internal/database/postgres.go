package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/domain"
)

const (
	DefaultRecent = 20
	MaxRecent     = 200
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Ledger stores terminal order results. It is append-only; a repeated order
// id overwrites the earlier row.
type Ledger struct {
	db    dbtx
	table string
}

func New(db dbtx, table string) *Ledger {
	return &Ledger{db: db, table: quoteTable(table)}
}

// Connect opens a pool with a zap query tracer and checks it with a ping.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   newZapTracer(logger),
		LogLevel: tracelog.LogLevelInfo,
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// quoteTable accepts "table" or "schema.table".
func quoteTable(t string) string {
	return pgx.Identifier(strings.Split(t, ".")).Sanitize()
}

func (l *Ledger) EnsureSchema(ctx context.Context) error {
	_, err := l.db.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
		  order_id   text PRIMARY KEY,
		  item_id    text NOT NULL,
		  status     text NOT NULL,
		  message    text NOT NULL DEFAULT '',
		  error      text NOT NULL DEFAULT '',
		  title      text NOT NULL DEFAULT '',
		  price      double precision NOT NULL DEFAULT 0,
		  quantity   integer NOT NULL DEFAULT 0,
		  replica    text NOT NULL DEFAULT '',
		  created_at timestamptz NOT NULL
		)
	`, l.table))
	return err
}

func (l *Ledger) Record(ctx context.Context, r domain.OrderResult) error {
	_, err := l.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (order_id, item_id, status, message, error, title, price, quantity, replica, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (order_id) DO UPDATE SET
		  item_id=EXCLUDED.item_id, status=EXCLUDED.status, message=EXCLUDED.message,
		  error=EXCLUDED.error, title=EXCLUDED.title, price=EXCLUDED.price,
		  quantity=EXCLUDED.quantity, replica=EXCLUDED.replica, created_at=EXCLUDED.created_at
	`, l.table),
		r.OrderID, r.ItemID, string(r.Status), r.Message, r.Error, r.Title, r.Price, r.Quantity, r.Replica, r.At,
	)
	if err != nil {
		return fmt.Errorf("record order %s: %w", r.OrderID, err)
	}
	return nil
}

// Recent returns up to limit rows, newest first. limit is clamped to
// [1, MaxRecent]; zero or less means DefaultRecent.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]domain.OrderResult, error) {
	limit = ClampLimit(limit)

	rows, err := l.db.Query(ctx, fmt.Sprintf(`
		SELECT order_id, item_id, status, message, error, title, price, quantity, replica, created_at
		FROM %s
		ORDER BY created_at DESC
		LIMIT $1
	`, l.table), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.OrderResult, 0, limit)
	for rows.Next() {
		var (
			r      domain.OrderResult
			status string
		)
		if err := rows.Scan(&r.OrderID, &r.ItemID, &status, &r.Message, &r.Error, &r.Title,
			&r.Price, &r.Quantity, &r.Replica, &r.At); err != nil {
			return nil, err
		}
		r.Status = domain.OrderStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecent
	case limit > MaxRecent:
		return MaxRecent
	default:
		return limit
	}
}
