package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roomstay/booking-orders/internal/domain"
	"github.com/roomstay/booking-orders/internal/observability"
)

const (
	SerializationFailureCode = "40001"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}

	return tx.Commit(ctx)
}

// CreateOrder inserts the order and its outbox event in one transaction. The
// availability check is part of the INSERT statement itself: when a blocking
// order overlaps the requested interval zero rows are written and the caller
// gets ErrRoomNotAvailable, so two concurrent requests for the same room and
// dates cannot both commit.
func (r *Repository) CreateOrder(ctx context.Context, order domain.Order, evt domain.Event) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			INSERT INTO orders (id, user_id, room_id, check_in, check_out, total_price,
				status, payment_status, payment_intent_id, version, created_at, updated_at)
			SELECT $1, $2, $3, $4, $5, $6, $7, $8, '', 1, $9, $9
			WHERE NOT EXISTS (
				SELECT 1 FROM orders
				WHERE room_id = $3
				  AND status NOT IN ('CANCELLED', 'COMPLETED')
				  AND check_in < $5 AND $4 < check_out
			)
		`, order.ID, order.UserID, order.RoomID, order.CheckIn, order.CheckOut,
			order.TotalPrice, order.Status, order.PaymentStatus, order.CreatedAt)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrRoomNotAvailable
		}
		return r.insertOutbox(ctx, tx, evt)
	})
}

// UpdateOrder persists a mutated order under an optimistic version check and
// appends any lifecycle events to the outbox. A stale version loses with
// ErrVersionConflict; the caller reloads and retries.
func (r *Repository) UpdateOrder(ctx context.Context, order domain.Order, evts ...domain.Event) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE orders
			SET user_id = $2, room_id = $3, check_in = $4, check_out = $5,
				total_price = $6, status = $7, payment_status = $8,
				payment_intent_id = $9, version = version + 1, updated_at = $10
			WHERE id = $1 AND version = $11
		`, order.ID, order.UserID, order.RoomID, order.CheckIn, order.CheckOut,
			order.TotalPrice, order.Status, order.PaymentStatus, order.PaymentIntentID,
			time.Now().UTC(), order.Version)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrVersionConflict
		}
		for _, evt := range evts {
			if err := r.insertOutbox(ctx, tx, evt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return r.scanOrder(r.pool.QueryRow(ctx, `
		SELECT id, user_id, room_id, check_in, check_out, total_price,
			status, payment_status, payment_intent_id, version, created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID))
}

func (r *Repository) GetOrderByPaymentIntent(ctx context.Context, intentID string) (domain.Order, error) {
	return r.scanOrder(r.pool.QueryRow(ctx, `
		SELECT id, user_id, room_id, check_in, check_out, total_price,
			status, payment_status, payment_intent_id, version, created_at, updated_at
		FROM orders WHERE payment_intent_id = $1 AND payment_intent_id <> ''
	`, intentID))
}

func (r *Repository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListOrders returns one page ordered by creation time plus the total order
// count. The count comes from the store, not the page, so pagination metadata
// stays correct regardless of what enrichment later does to the page content.
func (r *Repository) ListOrders(ctx context.Context, offset, limit int) ([]domain.Order, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, room_id, check_in, check_out, total_price,
			status, payment_status, payment_intent_id, version, created_at, updated_at
		FROM orders ORDER BY created_at, id LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders, err := r.collectOrders(rows)
	return orders, total, err
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, room_id, check_in, check_out, total_price,
			status, payment_status, payment_intent_id, version, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collectOrders(rows)
}

func (r *Repository) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, room_id, check_in, check_out, total_price,
			status, payment_status, payment_intent_id, version, created_at, updated_at
		FROM orders WHERE status = $1 ORDER BY created_at, id
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collectOrders(rows)
}

// ListOverdueConfirmed returns CONFIRMED orders whose stay has ended, i.e.
// check-out is on or before the given day.
func (r *Repository) ListOverdueConfirmed(ctx context.Context, asOf time.Time) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, room_id, check_in, check_out, total_price,
			status, payment_status, payment_intent_id, version, created_at, updated_at
		FROM orders WHERE status = 'CONFIRMED' AND check_out <= $1 ORDER BY created_at, id
	`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collectOrders(rows)
}

// CountConflicts counts orders for the room that still block the given
// half-open interval. exclude skips one order's own reservation, used when an
// update moves an existing order to new dates or a new room.
func (r *Repository) CountConflicts(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, exclude uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE room_id = $1
		  AND id != $4
		  AND status NOT IN ('CANCELLED', 'COMPLETED')
		  AND check_in < $3 AND $2 < check_out
	`, roomID, checkIn, checkOut, exclude).Scan(&count)
	return count, err
}

func (r *Repository) scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.RoomID, &o.CheckIn, &o.CheckOut, &o.TotalPrice,
		&o.Status, &o.PaymentStatus, &o.PaymentIntentID, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err == pgx.ErrNoRows {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.RoomID, &o.CheckIn, &o.CheckOut, &o.TotalPrice,
			&o.Status, &o.PaymentStatus, &o.PaymentIntentID, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
