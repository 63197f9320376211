package payment_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shufflecase/shufflecase-api/internal/payment"
)

func TestTokenHandlerFillsClientIP(t *testing.T) {
	t.Parallel()

	vendor := &recordingVendor{token: "tok123"}
	h := &payment.Handler{Svc: &payment.Service{Vendor: vendor, OKURL: "https://shop.example/ok", FailURL: "https://shop.example/fail"}}

	in := validInput()
	in.UserIP = ""
	body, err := json.Marshal(in)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/token", strings.NewReader(string(body)))
	req.RemoteAddr = "198.51.100.4:51234"
	rr := httptest.NewRecorder()
	h.Token(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, vendor.calls, 1)
	require.Equal(t, "198.51.100.4", vendor.calls[0].UserIP)

	var resp payment.TokenResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "success", resp.Status)
	require.Equal(t, "tok123", resp.Token)
}

func TestTokenHandlerRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	vendor := &recordingVendor{token: "tok"}
	h := &payment.Handler{Svc: &payment.Service{Vendor: vendor, OKURL: "https://shop.example/ok", FailURL: "https://shop.example/fail"}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/token", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.Token(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, vendor.calls)
}
