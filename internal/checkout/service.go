package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shufflecase/shufflecase-api/internal/common"
	"github.com/shufflecase/shufflecase-api/internal/obs"
	"github.com/shufflecase/shufflecase-api/internal/order"
	"github.com/shufflecase/shufflecase-api/internal/paytr"
)

// ItemInput is one line item of a checkout request. UnitPrice is the decimal
// major-unit string shown in the cart.
type ItemInput struct {
	ProductName  string `json:"product_name" validate:"required"`
	ProductImage string `json:"product_image"`
	PhoneModel   string `json:"phone_model"`
	CaseType     string `json:"case_type"`
	UnitPrice    string `json:"unit_price" validate:"required"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
}

// Input is a checkout request. The cart lives on the client, so the full
// item list rides along.
type Input struct {
	Items           []ItemInput     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress json.RawMessage `json:"shipping_address"`
}

// Output identifies the created pending order. MerchantOID is the reference
// the payment layer and the vendor use from here on.
type Output struct {
	OrderID     string `json:"orderId"`
	MerchantOID string `json:"merchantOid"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
}

// OrderCreator persists a pending order with its line items.
type OrderCreator interface {
	CreateWithItems(ctx context.Context, p order.CreateParams, items []order.ItemParams) (order.Order, error)
}

// Service turns a validated cart snapshot into a stored pending order.
type Service struct {
	Orders            OrderCreator
	OrderNumberPrefix string
}

// Create persists the pending order and returns its references. The total is
// computed server-side from the line items; client-provided totals are never
// trusted.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Output, error) {
	var zero Output
	if s == nil || s.Orders == nil {
		return zero, common.NewAppError(common.CodeConfig, "checkout is not configured", http.StatusInternalServerError, nil)
	}
	ctx, span := otel.Tracer("checkout.Service").Start(ctx, "CheckoutService.Create")
	defer span.End()

	result := "error"
	defer func() {
		span.SetAttributes(attribute.String("checkout.result", result))
		if obs.CheckoutTotal != nil {
			obs.CheckoutTotal.WithLabelValues(result).Inc()
		}
	}()

	if err := common.ValidateStruct(in); err != nil {
		result = "invalid"
		return zero, err
	}

	total := decimal.Zero
	items := make([]order.ItemParams, 0, len(in.Items))
	for _, item := range in.Items {
		price, err := paytr.ParseAmount(item.UnitPrice)
		if err != nil {
			result = "invalid"
			return zero, common.NewAppError(common.CodeValidation, "unit_price must be a positive decimal", http.StatusBadRequest, err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, order.ItemParams{
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			PhoneModel:   item.PhoneModel,
			CaseType:     item.CaseType,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
		})
	}

	ord, err := s.Orders.CreateWithItems(ctx, order.CreateParams{
		UserID:           userID,
		OrderNumber:      NewOrderNumber(s.OrderNumberPrefix),
		TotalAmountMinor: paytr.AmountToMinor(total),
		ShippingAddress:  in.ShippingAddress,
	}, items)
	if err != nil {
		span.RecordError(err)
		return zero, err
	}
	result = "success"
	return Output{
		OrderID:     ord.ID.String(),
		MerchantOID: ord.OrderNumber,
		Amount:      total.StringFixed(2),
		Status:      string(ord.Status),
	}, nil
}

// NewOrderNumber builds a vendor-safe order reference: prefix, millisecond
// timestamp, random suffix. PayTR only accepts alphanumeric merchant_oid
// values, so no separators.
func NewOrderNumber(prefix string) string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return prefix + strconv.FormatInt(time.Now().UnixMilli(), 10) + hex.EncodeToString(suffix)
}
