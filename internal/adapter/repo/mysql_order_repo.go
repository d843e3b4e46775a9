package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/usecase"
)

var ErrNotFound = errors.New("not found")

const orderColumns = `id,user_id,status,subtotal,tax,shipping_fee,total,currency,client_secret,payment_intent_id,items_json,created_at,updated_at`

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO orders (`+orderColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
`, o.ID, o.UserID, string(o.Status), o.Subtotal, o.Tax, o.ShippingFee, o.Total, o.Currency,
		o.ClientSecret, nullString(o.PaymentIntentID), string(items), o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *MySQLOrderRepo) List(ctx context.Context, f usecase.OrderFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "user_id=?")
		args = append(args, f.UserID)
	}
	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

// Save updates the mutable part of an order; totals and items are fixed at creation.
func (r *MySQLOrderRepo) Save(ctx context.Context, o *domain.Order) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, payment_intent_id = ?, updated_at = ?
        WHERE id = ?`,
		string(o.Status), nullString(o.PaymentIntentID), o.UpdatedAt, o.ID,
	)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (*domain.Order, error) {
	var (
		o         domain.Order
		status    string
		paymentID sql.NullString
		itemsJSON string
	)
	if err := s.Scan(&o.ID, &o.UserID, &status, &o.Subtotal, &o.Tax, &o.ShippingFee, &o.Total, &o.Currency,
		&o.ClientSecret, &paymentID, &itemsJSON, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	o.PaymentIntentID = paymentID.String
	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
