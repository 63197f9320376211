package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the product does not exist.
var ErrNotFound = errors.New("catalog: product not found")

// Product is a storefront phone case.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	Image       string    `json:"image,omitempty"`
	PhoneModel  string    `json:"phoneModel"`
	CaseType    string    `json:"caseType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListParams captures storefront listing filters.
type ListParams struct {
	PhoneModel string
	CaseType   string
	Limit      int
	Offset     int
}

// Store reads products from Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// List returns a filtered page of products plus the total match count.
func (s *Store) List(ctx context.Context, p ListParams) ([]Product, int64, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if strings.TrimSpace(p.PhoneModel) != "" {
		args = append(args, p.PhoneModel)
		where = append(where, fmt.Sprintf("phone_model = $%d", len(args)))
	}
	if strings.TrimSpace(p.CaseType) != "" {
		args = append(args, p.CaseType)
		where = append(where, fmt.Sprintf("case_type = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT count(*) FROM products"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.Limit, p.Offset)
	query := fmt.Sprintf(`
		SELECT id, name, description, price::text, image, phone_model, case_type, created_at
		FROM products%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, clause, len(args)-1, len(args))
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]Product, 0, p.Limit)
	for rows.Next() {
		var prod Product
		if err := rows.Scan(&prod.ID, &prod.Name, &prod.Description, &prod.Price, &prod.Image, &prod.PhoneModel, &prod.CaseType, &prod.CreatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, prod)
	}
	return products, total, rows.Err()
}

// Get returns one product by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	var prod Product
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, description, price::text, image, phone_model, case_type, created_at
		FROM products WHERE id = $1`,
		id,
	).Scan(&prod.ID, &prod.Name, &prod.Description, &prod.Price, &prod.Image, &prod.PhoneModel, &prod.CaseType, &prod.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return prod, nil
}
