// Package paytr implements the PayTR iframe API contract: basket encoding,
// request/notification signatures and the get-token call.
package paytr

import (
	"errors"
	"strings"
)

// Installment flags are fixed for this deployment: single payment only.
const (
	NoInstallment  = "1"
	MaxInstallment = "0"
)

// ErrMissingCredentials indicates incomplete merchant configuration.
var ErrMissingCredentials = errors.New("paytr: merchant credentials are not configured")

// Credentials holds the process-wide merchant secrets. They are never logged
// and never serialised.
type Credentials struct {
	MerchantID   string
	MerchantKey  string
	MerchantSalt string
}

// NewCredentials validates that all three merchant secrets are present.
func NewCredentials(id, key, salt string) (Credentials, error) {
	c := Credentials{
		MerchantID:   strings.TrimSpace(id),
		MerchantKey:  strings.TrimSpace(key),
		MerchantSalt: strings.TrimSpace(salt),
	}
	if !c.Configured() {
		return Credentials{}, ErrMissingCredentials
	}
	return c, nil
}

// Configured reports whether all three secrets are present.
func (c Credentials) Configured() bool {
	return c.MerchantID != "" && c.MerchantKey != "" && c.MerchantSalt != ""
}
