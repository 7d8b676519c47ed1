package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is the slice of pgxpool.Pool the repo uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct{ DB DB }

const orderColumns = `id, order_number, session_id, payment_reference, customer_email, customer_name,
	shipping_address, shipping_city, shipping_state, shipping_zip,
	subtotal_cents, tax_cents, shipping_cents, total_cents, status, order_date`

// CreateOrder: idempotent via session_id.
// - jika session_id sudah ada -> return order lama (created=false).
// - insert kedua yang balapan berhenti di ON CONFLICT dan membaca order pemenang.
func (r *Repo) CreateOrder(ctx context.Context, o Order) (Order, bool, error) {
	existing, err := r.GetBySession(ctx, o.SessionID)
	if err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Order{}, false, err
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return Order{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		o.ID, o.Number, o.SessionID, o.PaymentReference, o.CustomerEmail, o.CustomerName,
		o.ShippingAddress, o.ShippingCity, o.ShippingState, o.ShippingZip,
		ToCents(o.Subtotal), ToCents(o.Tax), ToCents(o.Shipping), ToCents(o.Total),
		string(o.Status), o.OrderDate,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = tx.Rollback(ctx)
		winner, err := r.GetBySession(ctx, o.SessionID)
		if errors.Is(err, ErrNotFound) {
			return Order{}, false, ErrConflict
		}
		return winner, false, err
	}
	if err != nil {
		return Order{}, false, err
	}

	for i, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, position, product_id, product_name, quantity, unit_price_cents, line_total_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, i, it.ProductID, it.ProductName, it.Quantity, ToCents(it.UnitPrice), ToCents(it.LineTotal),
		)
		if err != nil {
			return Order{}, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, false, err
	}
	return o, true, nil
}

func (r *Repo) GetBySession(ctx context.Context, sessionID string) (Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE session_id=$1`, sessionID)
}

func (r *Repo) GetByNumber(ctx context.Context, number string) (Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, number)
}

func (r *Repo) getOne(ctx context.Context, q string, arg string) (Order, error) {
	var (
		o                              Order
		subtotal, tax, shipping, total int64
		status                         string
		orderDate                      time.Time
	)
	err := r.DB.QueryRow(ctx, q, arg).Scan(
		&o.ID, &o.Number, &o.SessionID, &o.PaymentReference, &o.CustomerEmail, &o.CustomerName,
		&o.ShippingAddress, &o.ShippingCity, &o.ShippingState, &o.ShippingZip,
		&subtotal, &tax, &shipping, &total, &status, &orderDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Subtotal, o.Tax, o.Shipping, o.Total = FromCents(subtotal), FromCents(tax), FromCents(shipping), FromCents(total)
	o.Status = Status(status)
	o.OrderDate = orderDate.UTC()

	rows, err := r.DB.Query(ctx, `
		SELECT product_id, product_name, quantity, unit_price_cents, line_total_cents
		FROM order_items WHERE order_id=$1 ORDER BY position`, o.ID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it              LineItem
			unit, lineTotal int64
		)
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &unit, &lineTotal); err != nil {
			return Order{}, err
		}
		it.UnitPrice, it.LineTotal = FromCents(unit), FromCents(lineTotal)
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}
