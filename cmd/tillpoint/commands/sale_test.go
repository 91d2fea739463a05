package commands

import (
	"testing"

	"github.com/marshallshelly/tillpoint/pkg/sale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCartItems(t *testing.T) {
	t.Run("valid items", func(t *testing.T) {
		lines, err := parseCartItems([]string{"1:2", "3:1"})
		require.NoError(t, err)
		assert.Equal(t, []sale.CartLine{
			{ProductID: 1, Quantity: 2},
			{ProductID: 3, Quantity: 1},
		}, lines)
	})

	t.Run("repeated product stays separate", func(t *testing.T) {
		lines, err := parseCartItems([]string{"1:2", "1:1"})
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := parseCartItems([]string{"12"})
		assert.EqualError(t, err, `invalid --item "12": want productID:quantity`)
	})

	t.Run("non-numeric product id", func(t *testing.T) {
		_, err := parseCartItems([]string{"abc:2"})
		assert.EqualError(t, err, `invalid product id in --item "abc:2"`)
	})

	t.Run("non-numeric quantity", func(t *testing.T) {
		_, err := parseCartItems([]string{"1:two"})
		assert.EqualError(t, err, `invalid quantity in --item "1:two"`)
	})
}
