package paytr_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shufflecase/shufflecase-api/internal/paytr"
)

func testCredentials(t *testing.T) paytr.Credentials {
	t.Helper()
	creds, err := paytr.NewCredentials("123456", "test-merchant-key", "test-merchant-salt")
	require.NoError(t, err)
	return creds
}

func hmacBase64(key string, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestNewCredentialsRequiresAllSecrets(t *testing.T) {
	_, err := paytr.NewCredentials("123456", "", "salt")
	require.ErrorIs(t, err, paytr.ErrMissingCredentials)

	_, err = paytr.NewCredentials("", "key", "salt")
	require.ErrorIs(t, err, paytr.ErrMissingCredentials)

	_, err = paytr.NewCredentials("123456", "key", " ")
	require.ErrorIs(t, err, paytr.ErrMissingCredentials)
}

func TestTokenSignatureMatchesManualComputation(t *testing.T) {
	creds := testCredentials(t)
	basket, err := paytr.EncodeBasket([]paytr.BasketItem{
		{Name: "Case X", UnitPrice: "100.00", Quantity: 1},
	})
	require.NoError(t, err)

	got := creds.TokenSignature(paytr.TokenSignatureParams{
		UserIP:      "1.2.3.4",
		MerchantOID: "ORD-1",
		Email:       "a@b.com",
		AmountMinor: 10000,
		Basket:      basket,
		Currency:    "TL",
		TestMode:    "0",
	})

	// merchant_id + user_ip + merchant_oid + email + payment_amount +
	// user_basket + no_installment + max_installment + currency + test_mode + salt
	message := "123456" + "1.2.3.4" + "ORD-1" + "a@b.com" + "10000" +
		basket + "1" + "0" + "TL" + "0" + "test-merchant-salt"
	require.Equal(t, hmacBase64("test-merchant-key", message), got)
}

func TestNotificationSignatureMatchesManualComputation(t *testing.T) {
	creds := testCredentials(t)

	got := creds.NotificationSignature("ORD-1", "success", "10000")

	// merchant_oid + salt + status + total_amount
	message := "ORD-1" + "test-merchant-salt" + "success" + "10000"
	require.Equal(t, hmacBase64("test-merchant-key", message), got)
}

func TestTokenAndNotificationSignaturesDiffer(t *testing.T) {
	// The two operations sign different field orders; feeding them the same
	// logical values must not produce interchangeable results.
	creds := testCredentials(t)

	token := creds.TokenSignature(paytr.TokenSignatureParams{
		MerchantOID: "ORD-1",
		AmountMinor: 10000,
		TestMode:    "success",
	})
	notification := creds.NotificationSignature("ORD-1", "success", "10000")
	require.NotEqual(t, token, notification)
}

func TestVerifyNotification(t *testing.T) {
	creds := testCredentials(t)
	hash := creds.NotificationSignature("ORD-1", "success", "10000")

	require.True(t, creds.VerifyNotification("ORD-1", "success", "10000", hash))
	require.True(t, creds.VerifyNotification("ORD-1", "success", "10000", " "+hash+" "))

	// Flipping any covered field invalidates the hash.
	require.False(t, creds.VerifyNotification("ORD-1", "success", "10001", hash))
	require.False(t, creds.VerifyNotification("ORD-1", "failed", "10000", hash))
	require.False(t, creds.VerifyNotification("ORD-2", "success", "10000", hash))
	require.False(t, creds.VerifyNotification("ORD-1", "success", "10000", "forged"))
}

func TestSignatureIsDeterministic(t *testing.T) {
	creds := testCredentials(t)
	params := paytr.TokenSignatureParams{
		UserIP:      "1.2.3.4",
		MerchantOID: "ORD-42",
		Email:       "buyer@example.com",
		AmountMinor: 4999,
		Basket:      "W10=",
		Currency:    "TL",
		TestMode:    "1",
	}
	require.Equal(t, creds.TokenSignature(params), creds.TokenSignature(params))
}
