package payment

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shufflecase/shufflecase-api/internal/common"
	"github.com/shufflecase/shufflecase-api/internal/obs"
	"github.com/shufflecase/shufflecase-api/internal/paytr"
)

// VendorClient issues iframe tokens from the payment gateway.
type VendorClient interface {
	GetToken(ctx context.Context, req paytr.TokenRequest) (string, error)
}

// TokenInput is a request for a payment iframe token. Amount is the decimal
// major-unit string as displayed at checkout; conversion to minor units
// happens exactly once, here.
type TokenInput struct {
	MerchantOID string             `json:"merchant_oid" validate:"required"`
	Email       string             `json:"email" validate:"required,email"`
	UserName    string             `json:"user_name" validate:"required"`
	UserIP      string             `json:"user_ip" validate:"required,ip"`
	Amount      string             `json:"amount" validate:"required"`
	Basket      []paytr.BasketItem `json:"basket" validate:"required,min=1"`
}

// TokenResult carries the vendor token the frontend embeds in the iframe URL.
type TokenResult struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// Service prepares and executes token requests: validation, amount
// conversion, basket encoding and the single synchronous vendor call.
type Service struct {
	Vendor  VendorClient
	OKURL   string
	FailURL string
}

// CreateToken validates the input, derives the signed vendor request and
// exchanges it for an iframe token.
func (s *Service) CreateToken(ctx context.Context, in TokenInput) (TokenResult, error) {
	var zero TokenResult
	if s == nil || s.Vendor == nil {
		return zero, common.NewAppError(common.CodeConfig, "payment provider is not configured", http.StatusInternalServerError, nil)
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.CreateToken")
	defer span.End()

	start := time.Now()
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.merchant_oid", in.MerchantOID),
			attribute.Float64("payment.token.duration_ms", obs.DurationMillis(time.Since(start))),
			attribute.String("payment.token.result", result),
		)
		if obs.PaymentTokenTotal != nil {
			obs.PaymentTokenTotal.WithLabelValues(result).Inc()
		}
	}()

	if err := common.ValidateStruct(in); err != nil {
		result = "invalid"
		return zero, err
	}
	amount, err := paytr.ParseAmount(in.Amount)
	if err != nil {
		result = "invalid"
		return zero, common.NewAppError(common.CodeValidation, "amount must be a positive decimal", http.StatusBadRequest, err)
	}
	basket, err := paytr.EncodeBasket(in.Basket)
	if err != nil {
		result = "invalid"
		return zero, common.NewAppError(common.CodeValidation, err.Error(), http.StatusBadRequest, err)
	}

	token, err := s.Vendor.GetToken(ctx, paytr.TokenRequest{
		MerchantOID: in.MerchantOID,
		Email:       in.Email,
		UserIP:      in.UserIP,
		UserName:    in.UserName,
		AmountMinor: paytr.AmountToMinor(amount),
		Basket:      basket,
		OKURL:       s.OKURL + "?order_id=" + in.MerchantOID,
		FailURL:     s.FailURL + "?payment_failed=true&order_id=" + in.MerchantOID,
	})
	if err != nil {
		span.RecordError(err)
		if appErr, ok := common.AsAppError(err); ok && appErr.Code == common.CodeVendorRejected {
			result = "rejected"
		}
		return zero, err
	}
	result = "success"
	return TokenResult{Status: "success", Token: token}, nil
}
