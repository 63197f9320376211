package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shufflecase/shufflecase-api/internal/common"
	"github.com/shufflecase/shufflecase-api/internal/obs"
	"github.com/shufflecase/shufflecase-api/internal/order"
	"github.com/shufflecase/shufflecase-api/internal/paytr"
)

const maxWebhookBytes = 1 << 20

// OrderStore applies payment outcomes to stored orders.
type OrderStore interface {
	FindByNumber(ctx context.Context, number string) (order.Order, error)
	UpdateStatusByNumber(ctx context.Context, number string, to order.Status) (order.TransitionResult, error)
}

type replayStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Webhook handles PayTR payment notifications. The hash is verified before
// anything else happens; an unverified payload never reaches the order store.
// PayTR retries until it receives a plain-text "OK" body, so every handled
// outcome, including redeliveries and notifications for unknown orders, must
// ack with exactly that.
type Webhook struct {
	Creds     paytr.Credentials
	Orders    OrderStore
	Replay    replayStore
	ReplayTTL time.Duration
	Log       zerolog.Logger
}

// Handle processes one PayTR notification.
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil || !h.Creds.Configured() {
		http.Error(w, "webhook unavailable", http.StatusInternalServerError)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, span := otel.Tracer("payment.Webhook").Start(r.Context(), "PaymentWebhook.Handle")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "unable to read payload", http.StatusBadRequest)
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	merchantOID := form.Get("merchant_oid")
	status := form.Get("status")
	totalAmount := form.Get("total_amount")
	hash := form.Get("hash")

	if !h.Creds.VerifyNotification(merchantOID, status, totalAmount, hash) {
		h.Log.Warn().
			Str("merchant_oid", merchantOID).
			Str("remote_ip", common.ClientIP(r)).
			Msg("paytr webhook rejected: bad hash")
		h.count("bad_hash")
		http.Error(w, "PAYTR notification failed: bad hash", http.StatusBadRequest)
		return
	}

	span.SetAttributes(attribute.String("payment.merchant_oid", merchantOID))
	replayKey := ""
	if h.Replay != nil && h.ReplayTTL > 0 {
		replayKey = fmt.Sprintf("paytr:wh:%s", common.Sha256Hex(string(body)))
		fresh, err := h.Replay.SetNX(ctx, replayKey, "1", h.ReplayTTL).Result()
		if err != nil {
			http.Error(w, "replay store unavailable", http.StatusInternalServerError)
			return
		}
		if !fresh {
			h.Log.Info().Str("merchant_oid", merchantOID).Msg("paytr webhook redelivery, already processed")
			h.count("replay")
			h.ack(w)
			return
		}
	}

	ord, err := h.Orders.FindByNumber(ctx, merchantOID)
	if errors.Is(err, order.ErrNotFound) {
		h.Log.Warn().Str("merchant_oid", merchantOID).Msg("paytr webhook for unknown order")
		h.count("unknown_order")
		h.ack(w)
		return
	}
	if err != nil {
		// The replay key is released so the vendor's redelivery is
		// reprocessed once the store recovers.
		h.releaseReplay(replayKey)
		h.Log.Error().Err(err).
			Str("merchant_oid", merchantOID).
			Msg("paytr webhook: order lookup failed")
		h.count("store_error")
		http.Error(w, "order lookup failed", http.StatusInternalServerError)
		return
	}

	target := order.StatusCancelled
	if status == "success" {
		target = order.StatusPaid
	}
	if target == order.StatusPaid && !amountMatches(totalAmount, ord.TotalAmountMinor) {
		// The hash already proved the notification authentic, so a mismatch
		// means the vendor charged a different amount than the stored order.
		// Retrying cannot fix that; the order stays pending for manual review.
		h.Log.Error().
			Str("merchant_oid", merchantOID).
			Str("total_amount", totalAmount).
			Int64("expected_minor", ord.TotalAmountMinor).
			Msg("paytr webhook amount mismatch, order left untouched")
		h.count("amount_mismatch")
		h.ack(w)
		return
	}

	result, err := h.Orders.UpdateStatusByNumber(ctx, merchantOID, target)
	if errors.Is(err, order.ErrInvalidTransition) {
		// A conflicting notification for an order already in a terminal
		// status. Retrying will never succeed, so ack and move on.
		h.Log.Warn().
			Str("merchant_oid", merchantOID).
			Str("target_status", string(target)).
			Msg("paytr webhook conflicts with terminal order status")
		h.count("conflict")
		h.ack(w)
		return
	}
	if err != nil {
		// Not acked, and the replay key is released, so the vendor's
		// redelivery is reprocessed once the store recovers.
		h.releaseReplay(replayKey)
		h.Log.Error().Err(err).
			Str("merchant_oid", merchantOID).
			Str("target_status", string(target)).
			Msg("paytr webhook: order update failed")
		h.count("store_error")
		http.Error(w, "order update failed", http.StatusInternalServerError)
		return
	}
	switch result {
	case order.TransitionNotFound:
		h.Log.Warn().Str("merchant_oid", merchantOID).Msg("paytr webhook for unknown order")
		h.count("unknown_order")
	case order.TransitionNoop:
		h.Log.Info().
			Str("merchant_oid", merchantOID).
			Str("status", string(target)).
			Msg("paytr webhook: order already in target status")
		h.count("noop")
	default:
		h.Log.Info().
			Str("merchant_oid", merchantOID).
			Str("status", string(target)).
			Msg("paytr webhook applied")
		h.count("applied")
	}
	h.ack(w)
}

// releaseReplay drops the dedup key on a fresh context so the release still
// happens when the vendor has already disconnected.
func (h Webhook) releaseReplay(key string) {
	if h.Replay == nil || key == "" {
		return
	}
	if err := h.Replay.Del(context.Background(), key).Err(); err != nil {
		h.Log.Error().Err(err).Str("key", key).Msg("release webhook replay key")
	}
}

// amountMatches compares the notification's total_amount (minor units, plain
// decimal) against the stored order total.
func amountMatches(totalAmount string, expectedMinor int64) bool {
	got, err := strconv.ParseInt(totalAmount, 10, 64)
	if err != nil {
		return false
	}
	return got == expectedMinor
}

func (h Webhook) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "OK")
}

func (h Webhook) count(result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues(result).Inc()
	}
}
