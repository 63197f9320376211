package paytr

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
)

// TokenSignatureParams carries the request fields covered by the get-token
// signature, in the role they play there (amount already in minor units).
type TokenSignatureParams struct {
	UserIP      string
	MerchantOID string
	Email       string
	AmountMinor int64
	Basket      string
	Currency    string
	TestMode    string
}

// TokenSignature computes the paytr_token value for a get-token request.
// The concatenation order is part of the vendor contract and must not be
// changed: merchant_id, user_ip, merchant_oid, email, payment_amount,
// user_basket, no_installment, max_installment, currency, test_mode, with
// the merchant salt appended last.
func (c Credentials) TokenSignature(p TokenSignatureParams) string {
	return c.sign(
		c.MerchantID,
		p.UserIP,
		p.MerchantOID,
		p.Email,
		strconv.FormatInt(p.AmountMinor, 10),
		p.Basket,
		NoInstallment,
		MaxInstallment,
		p.Currency,
		p.TestMode,
		c.MerchantSalt,
	)
}

// NotificationSignature computes the hash expected on a payment notification.
// Unlike the token signature the salt sits mid-sequence here: the field order
// is merchant_oid, merchant_salt, status, total_amount.
func (c Credentials) NotificationSignature(merchantOID, status, totalAmount string) string {
	return c.sign(merchantOID, c.MerchantSalt, status, totalAmount)
}

// VerifyNotification compares the supplied hash against the recomputed one in
// constant time. Unconfigured credentials verify nothing.
func (c Credentials) VerifyNotification(merchantOID, status, totalAmount, hash string) bool {
	if !c.Configured() {
		return false
	}
	expected := c.NotificationSignature(merchantOID, status, totalAmount)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(hash)))
}

// sign concatenates the fields without separators and returns the
// base64-encoded HMAC-SHA256 digest keyed with the merchant key. Calling it
// without configured credentials is a programming error.
func (c Credentials) sign(fields ...string) string {
	if !c.Configured() {
		panic("paytr: sign called without configured credentials")
	}
	mac := hmac.New(sha256.New, []byte(c.MerchantKey))
	for _, f := range fields {
		mac.Write([]byte(f))
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
