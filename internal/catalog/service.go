package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type productSource interface {
	List(ctx context.Context, p ListParams) ([]Product, int64, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
}

// ListResult is one page of products.
type ListResult struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// Service serves storefront product reads through a Redis read-through cache.
type Service struct {
	Store        productSource
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// ParseListParams reads filters and pagination from the query string.
func (s *Service) ParseListParams(values url.Values) (ListParams, int) {
	limit := s.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	maxLimit := s.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := 1
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	return ListParams{
		PhoneModel: strings.TrimSpace(values.Get("phone_model")),
		CaseType:   strings.TrimSpace(values.Get("case_type")),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}, page
}

// List returns one page of products, consulting the cache first.
func (s *Service) List(ctx context.Context, p ListParams, page int) (ListResult, error) {
	key := listCacheKey(p)
	var cached ListResult
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	products, total, err := s.Store.List(ctx, p)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Products: products, Total: total, Page: page, Limit: p.Limit}
	_ = s.Cache.SetJSON(ctx, key, result)
	return result, nil
}

// Get returns one product, consulting the cache first.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	key := "catalog:product:" + id.String()
	var cached Product
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	product, err := s.Store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	_ = s.Cache.SetJSON(ctx, key, product)
	return product, nil
}

func listCacheKey(p ListParams) string {
	return fmt.Sprintf("catalog:list:%s:%s:%d:%d", p.PhoneModel, p.CaseType, p.Limit, p.Offset)
}
