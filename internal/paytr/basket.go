package paytr

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BasketItem is one purchased line item. UnitPrice is a decimal-formatted
// string, never a float, so the encoded basket is reproducible byte for byte.
type BasketItem struct {
	Name      string `json:"name"`
	UnitPrice string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// EncodeBasket serialises line items into the vendor's user_basket format:
// an ordered JSON array of [name, price, quantity] tuples, base64 encoded.
// Input order is preserved; reordering changes the output and therefore the
// request signature.
func EncodeBasket(items []BasketItem) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("paytr: basket is empty")
	}
	tuples := make([][3]any, 0, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return "", fmt.Errorf("paytr: basket item %d: name is required", i)
		}
		if _, err := decimal.NewFromString(item.UnitPrice); err != nil {
			return "", fmt.Errorf("paytr: basket item %d: invalid price %q", i, item.UnitPrice)
		}
		if item.Quantity <= 0 {
			return "", fmt.Errorf("paytr: basket item %d: quantity must be positive", i)
		}
		tuples = append(tuples, [3]any{item.Name, item.UnitPrice, item.Quantity})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tuples); err != nil {
		return "", fmt.Errorf("paytr: encode basket: %w", err)
	}
	raw := bytes.TrimRight(buf.Bytes(), "\n")
	return base64.StdEncoding.EncodeToString(raw), nil
}
