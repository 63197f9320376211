package paytr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shufflecase/shufflecase-api/internal/common"
)

// DefaultEndpoint is PayTR's production get-token endpoint.
const DefaultEndpoint = "https://www.paytr.com/odeme/api/get-token"

// defaultTimeoutLimit is the vendor-recommended number of minutes the buyer
// gets inside the payment iframe (timeout_limit form field).
const defaultTimeoutLimit = 30

const maxResponseBytes = 1 << 20

// TokenRequest carries one fully prepared get-token call: the amount already
// converted to minor units and the basket already encoded.
type TokenRequest struct {
	MerchantOID string
	Email       string
	UserIP      string
	UserName    string
	AmountMinor int64
	Basket      string
	OKURL       string
	FailURL     string
}

// Client performs the synchronous get-token exchange with PayTR. The call is
// made exactly once per request: retrying a failed payment-initiation blindly
// risks duplicate charges, so retries are left to the caller with a fresh
// merchant_oid.
type Client struct {
	Creds        Credentials
	HTTP         *http.Client
	Endpoint     string
	Currency     string
	TestMode     bool
	Debug        bool
	TimeoutLimit int
}

type tokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// GetToken signs and posts the form-encoded token request and returns the
// opaque iframe token on success.
func (c *Client) GetToken(ctx context.Context, req TokenRequest) (string, error) {
	if !c.Creds.Configured() {
		return "", common.NewAppError(common.CodeConfig, "payment provider is not configured", http.StatusInternalServerError, ErrMissingCredentials)
	}

	form := c.buildForm(req)
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", common.NewAppError(common.CodeGateway, "payment gateway unavailable", http.StatusBadGateway, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return "", common.NewAppError(common.CodeGateway, "payment gateway unavailable", http.StatusBadGateway, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", common.NewAppError(common.CodeGateway, "payment gateway unavailable", http.StatusBadGateway, err)
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", common.NewAppError(common.CodeGateway, "malformed payment gateway response", http.StatusBadGateway, err)
	}
	if parsed.Status != "success" {
		reason := strings.TrimSpace(parsed.Reason)
		if reason == "" {
			reason = "payment request rejected"
		}
		return "", common.NewAppError(common.CodeVendorRejected, reason, http.StatusBadRequest, nil)
	}
	if strings.TrimSpace(parsed.Token) == "" {
		return "", common.NewAppError(common.CodeGateway, "payment gateway returned an empty token", http.StatusBadGateway, nil)
	}
	return parsed.Token, nil
}

func (c *Client) buildForm(req TokenRequest) url.Values {
	signature := c.Creds.TokenSignature(TokenSignatureParams{
		UserIP:      req.UserIP,
		MerchantOID: req.MerchantOID,
		Email:       req.Email,
		AmountMinor: req.AmountMinor,
		Basket:      req.Basket,
		Currency:    c.Currency,
		TestMode:    boolFlag(c.TestMode),
	})

	timeoutLimit := c.TimeoutLimit
	if timeoutLimit <= 0 {
		timeoutLimit = defaultTimeoutLimit
	}

	form := url.Values{}
	form.Set("merchant_id", c.Creds.MerchantID)
	form.Set("user_ip", req.UserIP)
	form.Set("merchant_oid", req.MerchantOID)
	form.Set("email", req.Email)
	form.Set("payment_amount", strconv.FormatInt(req.AmountMinor, 10))
	form.Set("paytr_token", signature)
	form.Set("user_basket", req.Basket)
	form.Set("debug_on", boolFlag(c.Debug))
	form.Set("no_installment", NoInstallment)
	form.Set("max_installment", MaxInstallment)
	form.Set("user_name", req.UserName)
	// Address and phone are not collected separately at checkout.
	form.Set("user_address", "Belirtilmedi")
	form.Set("user_phone", "Belirtilmedi")
	form.Set("merchant_ok_url", req.OKURL)
	form.Set("merchant_fail_url", req.FailURL)
	form.Set("timeout_limit", strconv.Itoa(timeoutLimit))
	form.Set("currency", c.Currency)
	form.Set("test_mode", boolFlag(c.TestMode))
	return form
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return HTTPClient(0)
}

// HTTPClient builds the outbound client used for vendor calls, instrumented
// for tracing and bounded by the given timeout.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(&http.Transport{}),
	}
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
