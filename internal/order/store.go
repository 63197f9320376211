package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the referenced order does not exist.
var ErrNotFound = errors.New("order: not found")

// ErrInvalidTransition indicates an attempt to move an order through an
// unsupported lifecycle transition.
var ErrInvalidTransition = errors.New("order: invalid status transition")

// TransitionResult describes the outcome of a status update.
type TransitionResult int

const (
	// TransitionApplied means the order moved to the requested status.
	TransitionApplied TransitionResult = iota
	// TransitionNoop means the order was already in the requested status.
	// Webhook redeliveries land here and are treated as success.
	TransitionNoop
	// TransitionNotFound means no order carries the given number.
	TransitionNotFound
)

// Order is a stored order. ID is the store primary key; OrderNumber is the
// vendor-facing business reference (merchant_oid). The two are never
// conflated: line items hang off ID, the payment vendor only ever sees
// OrderNumber.
type Order struct {
	ID               uuid.UUID       `json:"id"`
	UserID           string          `json:"userId"`
	OrderNumber      string          `json:"orderNumber"`
	Status           Status          `json:"status"`
	TotalAmountMinor int64           `json:"totalAmountMinor"`
	ShippingAddress  json.RawMessage `json:"shippingAddress,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Item is a stored order line item.
type Item struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"orderId"`
	ProductName  string    `json:"productName"`
	ProductImage string    `json:"productImage,omitempty"`
	PhoneModel   string    `json:"phoneModel,omitempty"`
	CaseType     string    `json:"caseType,omitempty"`
	UnitPrice    string    `json:"unitPrice"`
	Quantity     int       `json:"quantity"`
}

// CreateParams captures a new pending order.
type CreateParams struct {
	UserID           string
	OrderNumber      string
	TotalAmountMinor int64
	ShippingAddress  json.RawMessage
}

// ItemParams captures one line item of a new order.
type ItemParams struct {
	ProductName  string
	ProductImage string
	PhoneModel   string
	CaseType     string
	UnitPrice    string
	Quantity     int
}

// Store persists orders and line items in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// CreateWithItems inserts a pending order and its line items in one
// transaction so a half-created order can never be paid for.
func (s *Store) CreateWithItems(ctx context.Context, p CreateParams, items []ItemParams) (Order, error) {
	var zero Order
	if s == nil || s.Pool == nil {
		return zero, errors.New("order: store not configured")
	}
	if len(items) == 0 {
		return zero, errors.New("order: at least one item is required")
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return zero, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var ord Order
	ord.UserID = p.UserID
	ord.OrderNumber = p.OrderNumber
	ord.Status = StatusPending
	ord.TotalAmountMinor = p.TotalAmountMinor
	ord.ShippingAddress = p.ShippingAddress
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, order_number, status, total_amount_minor, shipping_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		p.UserID, p.OrderNumber, string(StatusPending), p.TotalAmountMinor, p.ShippingAddress,
	).Scan(&ord.ID, &ord.CreatedAt, &ord.UpdatedAt)
	if err != nil {
		return zero, err
	}

	for _, item := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_name, product_image, phone_model, case_type, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ord.ID, item.ProductName, item.ProductImage, item.PhoneModel, item.CaseType, item.UnitPrice, item.Quantity,
		)
		if err != nil {
			return zero, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, err
	}
	return ord, nil
}

// FindByNumber returns the order carrying the given vendor-facing number.
func (s *Store) FindByNumber(ctx context.Context, number string) (Order, error) {
	var ord Order
	var status string
	err := s.Pool.QueryRow(ctx, `
		SELECT id, user_id, order_number, status, total_amount_minor, shipping_address, created_at, updated_at
		FROM orders WHERE order_number = $1`,
		number,
	).Scan(&ord.ID, &ord.UserID, &ord.OrderNumber, &status, &ord.TotalAmountMinor, &ord.ShippingAddress, &ord.CreatedAt, &ord.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	ord.Status = Status(status)
	return ord, nil
}

// UpdateStatusByNumber moves the order with the given number to the requested
// status. The row is locked for the duration so concurrent webhook deliveries
// for the same order serialise; re-delivering an already-applied result is a
// noop, not an error.
func (s *Store) UpdateStatusByNumber(ctx context.Context, number string, to Status) (TransitionResult, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransitionNoop, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	var current string
	err = tx.QueryRow(ctx, `SELECT id, status FROM orders WHERE order_number = $1 FOR UPDATE`, number).Scan(&id, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		return TransitionNotFound, nil
	}
	if err != nil {
		return TransitionNoop, err
	}
	if Status(current) == to {
		return TransitionNoop, nil
	}
	if !CanTransition(Status(current), to) {
		return TransitionNoop, ErrInvalidTransition
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, string(to), id); err != nil {
		return TransitionNoop, err
	}
	if err := tx.Commit(ctx); err != nil {
		return TransitionNoop, err
	}
	return TransitionApplied, nil
}

// ListForUser returns a page of the user's orders, newest first, plus the
// total count.
func (s *Store) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Order, int64, error) {
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT id, user_id, order_number, status, total_amount_minor, shipping_address, created_at, updated_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]Order, 0, limit)
	for rows.Next() {
		var ord Order
		var status string
		if err := rows.Scan(&ord.ID, &ord.UserID, &ord.OrderNumber, &status, &ord.TotalAmountMinor, &ord.ShippingAddress, &ord.CreatedAt, &ord.UpdatedAt); err != nil {
			return nil, 0, err
		}
		ord.Status = Status(status)
		orders = append(orders, ord)
	}
	return orders, total, rows.Err()
}

// GetForUser returns one of the user's orders with its line items.
func (s *Store) GetForUser(ctx context.Context, userID string, id uuid.UUID) (Order, []Item, error) {
	var ord Order
	var status string
	err := s.Pool.QueryRow(ctx, `
		SELECT id, user_id, order_number, status, total_amount_minor, shipping_address, created_at, updated_at
		FROM orders WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&ord.ID, &ord.UserID, &ord.OrderNumber, &status, &ord.TotalAmountMinor, &ord.ShippingAddress, &ord.CreatedAt, &ord.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, nil, ErrNotFound
	}
	if err != nil {
		return Order{}, nil, err
	}
	ord.Status = Status(status)

	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, product_name, product_image, phone_model, case_type, unit_price::text, quantity
		FROM order_items WHERE order_id = $1
		ORDER BY created_at`,
		id,
	)
	if err != nil {
		return Order{}, nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductName, &item.ProductImage, &item.PhoneModel, &item.CaseType, &item.UnitPrice, &item.Quantity); err != nil {
			return Order{}, nil, err
		}
		items = append(items, item)
	}
	return ord, items, rows.Err()
}

// CancelStalePending cancels pending orders created before the cutoff and
// returns how many were affected. The core never expires orders on the
// request path; this is housekeeping driven by the worker.
func (s *Store) CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE status = $2 AND created_at < $3`,
		string(StatusCancelled), string(StatusPending), cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
