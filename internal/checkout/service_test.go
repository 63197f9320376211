package checkout_test

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shufflecase/shufflecase-api/internal/checkout"
	"github.com/shufflecase/shufflecase-api/internal/common"
	"github.com/shufflecase/shufflecase-api/internal/order"
)

type recordingCreator struct {
	params order.CreateParams
	items  []order.ItemParams
	calls  int
	err    error
}

func (c *recordingCreator) CreateWithItems(_ context.Context, p order.CreateParams, items []order.ItemParams) (order.Order, error) {
	c.calls++
	c.params = p
	c.items = items
	if c.err != nil {
		return order.Order{}, c.err
	}
	return order.Order{
		ID:               uuid.New(),
		UserID:           p.UserID,
		OrderNumber:      p.OrderNumber,
		Status:           order.StatusPending,
		TotalAmountMinor: p.TotalAmountMinor,
	}, nil
}

func validCheckout() checkout.Input {
	return checkout.Input{
		Items: []checkout.ItemInput{
			{ProductName: "Case X", PhoneModel: "iPhone 15", CaseType: "silicone", UnitPrice: "100.00", Quantity: 1},
			{ProductName: "Case Y", PhoneModel: "Galaxy S24", CaseType: "hard", UnitPrice: "49.50", Quantity: 2},
		},
	}
}

func TestCreateComputesTotalServerSide(t *testing.T) {
	t.Parallel()

	creator := &recordingCreator{}
	svc := &checkout.Service{Orders: creator, OrderNumberPrefix: "SHUFFLE"}

	out, err := svc.Create(context.Background(), "user-1", validCheckout())
	require.NoError(t, err)

	require.Equal(t, int64(19900), creator.params.TotalAmountMinor)
	require.Equal(t, "199.00", out.Amount)
	require.Equal(t, "pending", out.Status)
	require.Equal(t, "user-1", creator.params.UserID)
	require.Len(t, creator.items, 2)
	require.Equal(t, out.MerchantOID, creator.params.OrderNumber)
}

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()

	creator := &recordingCreator{}
	svc := &checkout.Service{Orders: creator, OrderNumberPrefix: "SHUFFLE"}

	bad := []checkout.Input{
		{},
		{Items: []checkout.ItemInput{}},
		{Items: []checkout.ItemInput{{ProductName: "", UnitPrice: "10.00", Quantity: 1}}},
		{Items: []checkout.ItemInput{{ProductName: "Case", UnitPrice: "oops", Quantity: 1}}},
		{Items: []checkout.ItemInput{{ProductName: "Case", UnitPrice: "-5.00", Quantity: 1}}},
		{Items: []checkout.ItemInput{{ProductName: "Case", UnitPrice: "10.00", Quantity: 0}}},
	}
	for _, in := range bad {
		_, err := svc.Create(context.Background(), "user-1", in)
		require.Error(t, err)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeValidation, appErr.Code)
		require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	}
	require.Zero(t, creator.calls)
}

func TestNewOrderNumberFormat(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^SHUFFLE\d{13}[0-9a-f]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		number := checkout.NewOrderNumber("SHUFFLE")
		require.Regexp(t, pattern, number)
		require.False(t, seen[number], "order numbers must be unique per attempt")
		seen[number] = true
	}
}
