package paytr_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shufflecase/shufflecase-api/internal/paytr"
)

func TestEncodeBasketMatchesVendorFormat(t *testing.T) {
	encoded, err := paytr.EncodeBasket([]paytr.BasketItem{
		{Name: "Case X", UnitPrice: "100.00", Quantity: 1},
	})
	require.NoError(t, err)

	expected := base64.StdEncoding.EncodeToString([]byte(`[["Case X","100.00",1]]`))
	require.Equal(t, expected, encoded)
}

func TestEncodeBasketIsDeterministic(t *testing.T) {
	items := []paytr.BasketItem{
		{Name: "iPhone 15 Kılıf", UnitPrice: "249.90", Quantity: 2},
		{Name: "Galaxy S24 Kılıf", UnitPrice: "199.90", Quantity: 1},
	}
	first, err := paytr.EncodeBasket(items)
	require.NoError(t, err)
	second, err := paytr.EncodeBasket(items)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEncodeBasketIsOrderSensitive(t *testing.T) {
	a := paytr.BasketItem{Name: "Case A", UnitPrice: "10.00", Quantity: 1}
	b := paytr.BasketItem{Name: "Case B", UnitPrice: "20.00", Quantity: 1}

	ab, err := paytr.EncodeBasket([]paytr.BasketItem{a, b})
	require.NoError(t, err)
	ba, err := paytr.EncodeBasket([]paytr.BasketItem{b, a})
	require.NoError(t, err)
	require.NotEqual(t, ab, ba)
}

func TestEncodeBasketDoesNotEscapeHTML(t *testing.T) {
	encoded, err := paytr.EncodeBasket([]paytr.BasketItem{
		{Name: "Case <Pro> & Max", UnitPrice: "99.00", Quantity: 1},
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Equal(t, `[["Case <Pro> & Max","99.00",1]]`, string(raw))
}

func TestEncodeBasketRejectsBadInput(t *testing.T) {
	_, err := paytr.EncodeBasket(nil)
	require.Error(t, err)

	_, err = paytr.EncodeBasket([]paytr.BasketItem{{Name: "", UnitPrice: "10.00", Quantity: 1}})
	require.Error(t, err)

	_, err = paytr.EncodeBasket([]paytr.BasketItem{{Name: "Case", UnitPrice: "ten lira", Quantity: 1}})
	require.Error(t, err)

	_, err = paytr.EncodeBasket([]paytr.BasketItem{{Name: "Case", UnitPrice: "10.00", Quantity: 0}})
	require.Error(t, err)
}
