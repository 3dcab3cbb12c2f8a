package currency_test

import (
	"testing"

	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	valid := []string{"USD", "BTC", "USDT", "NG", "ABCDE"}
	for _, s := range valid {
		assert.True(t, currency.Code(s).IsValid(), "%q should be valid", s)
	}

	invalid := []string{"", "U", "usd", "US1", "ABCDEF", "BT-C"}
	for _, s := range invalid {
		assert.False(t, currency.Code(s).IsValid(), "%q should be invalid", s)
	}
}

func TestParse(t *testing.T) {
	c, err := currency.Parse("EUR")
	require.NoError(t, err)
	assert.Equal(t, currency.EUR, c)

	_, err = currency.Parse("eur")
	assert.ErrorIs(t, err, currency.ErrInvalidCode)
}

func TestDecimals(t *testing.T) {
	assert.Equal(t, int32(2), currency.USD.Decimals())
	assert.Equal(t, int32(8), currency.BTC.Decimals())
	// Unknown but plausible codes display at fiat precision.
	assert.Equal(t, int32(2), currency.Code("XYZ").Decimals())
}
