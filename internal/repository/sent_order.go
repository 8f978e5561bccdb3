package repository

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/metrics"
)

// SentOrderRepository is a Postgres-backed set of order ids that already
// received a recovery message. Reaching maxSize clears the table.
type SentOrderRepository struct {
	db      *DB
	maxSize int
}

func NewSentOrderRepository(db *DB, maxSize int) *SentOrderRepository {
	return &SentOrderRepository{db: db, maxSize: maxSize}
}

func (r *SentOrderRepository) Seen(ctx context.Context, orderID string) (bool, error) {
	var found bool
	err := r.db.Conn().QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sent_orders WHERE order_id = $1)`,
		orderID,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("Seen: %w", err)
	}
	return found, nil
}

// Mark inserts orderID and reports whether this call added it.
func (r *SentOrderRepository) Mark(ctx context.Context, orderID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("Mark: %w", err)
	}
	defer tx.Rollback()

	// Serializes the cap check across concurrent marks.
	if _, err := tx.ExecContext(ctx, `LOCK TABLE sent_orders IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return false, fmt.Errorf("Mark: lock: %w", err)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sent_orders WHERE order_id = $1)`,
		orderID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("Mark: lookup: %w", err)
	}
	if exists {
		return false, nil
	}

	if r.maxSize > 0 {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM sent_orders`).Scan(&count); err != nil {
			return false, fmt.Errorf("Mark: count: %w", err)
		}
		if count >= r.maxSize {
			if _, err := tx.ExecContext(ctx, `DELETE FROM sent_orders`); err != nil {
				return false, fmt.Errorf("Mark: clear: %w", err)
			}
			metrics.DedupResetsTotal.Inc()
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sent_orders (order_id) VALUES ($1)`,
		orderID,
	); err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("Mark: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("Mark: commit: %w", err)
	}
	return true, nil
}

func (r *SentOrderRepository) Forget(ctx context.Context, orderID string) error {
	if _, err := r.db.Conn().ExecContext(ctx,
		`DELETE FROM sent_orders WHERE order_id = $1`,
		orderID,
	); err != nil {
		return fmt.Errorf("Forget: %w", err)
	}
	return nil
}

func (r *SentOrderRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *SentOrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Conn().QueryRowContext(ctx, `SELECT count(*) FROM sent_orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}
