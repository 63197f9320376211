package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/shufflecase/shufflecase-api/internal/catalog"
)

type stubSource struct {
	products  []catalog.Product
	listCalls int
	getCalls  int
}

func (s *stubSource) List(_ context.Context, p catalog.ListParams) ([]catalog.Product, int64, error) {
	s.listCalls++
	return s.products, int64(len(s.products)), nil
}

func (s *stubSource) Get(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	s.getCalls++
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func newCacheClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestListUsesCacheOnRepeat(t *testing.T) {
	t.Parallel()

	source := &stubSource{products: []catalog.Product{
		{ID: uuid.New(), Name: "Case X", Price: "100.00", PhoneModel: "iPhone 15", CaseType: "silicone", CreatedAt: time.Now().UTC().Truncate(time.Second)},
	}}
	svc := &catalog.Service{
		Store: source,
		Cache: catalog.NewCache(newCacheClient(t), time.Minute),
	}

	params := catalog.ListParams{PhoneModel: "iPhone 15", Limit: 20}
	first, err := svc.List(context.Background(), params, 1)
	require.NoError(t, err)
	require.Len(t, first.Products, 1)
	require.Equal(t, 1, source.listCalls)

	second, err := svc.List(context.Background(), params, 1)
	require.NoError(t, err)
	require.Equal(t, first.Products[0].Name, second.Products[0].Name)
	require.Equal(t, 1, source.listCalls, "second read must come from cache")
}

func TestGetMissesCacheForUnknownProduct(t *testing.T) {
	t.Parallel()

	source := &stubSource{}
	svc := &catalog.Service{Store: source, Cache: catalog.NewCache(newCacheClient(t), time.Minute)}

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestParseListParams(t *testing.T) {
	t.Parallel()

	svc := &catalog.Service{DefaultLimit: 20, MaxLimit: 100}

	params, page := svc.ParseListParams(map[string][]string{
		"phone_model": {"iPhone 15"},
		"case_type":   {"hard"},
		"page":        {"3"},
		"limit":       {"250"},
	})
	require.Equal(t, "iPhone 15", params.PhoneModel)
	require.Equal(t, "hard", params.CaseType)
	require.Equal(t, 100, params.Limit, "limit is capped")
	require.Equal(t, 3, page)
	require.Equal(t, 200, params.Offset)

	params, page = svc.ParseListParams(map[string][]string{})
	require.Equal(t, 20, params.Limit)
	require.Equal(t, 1, page)
	require.Zero(t, params.Offset)
}
