package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProductPrice(t *testing.T) {
	assert.NoError(t, validateProductPrice(0.01))
	assert.NoError(t, validateProductPrice(1299.99))

	for _, price := range []float64{0, -1.50} {
		err := validateProductPrice(price)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, "price", ve.Field)
	}
}

func TestValidateProductStock(t *testing.T) {
	assert.NoError(t, validateProductStock(0))
	assert.NoError(t, validateProductStock(500))

	err := validateProductStock(-1)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "stock_quantity", ve.Field)
}

func TestBuildProductSets(t *testing.T) {
	name := "Espresso"
	price := 3.50
	stock := 12

	t.Run("empty update", func(t *testing.T) {
		sets, args := buildProductSets(ProductUpdate{})
		assert.Empty(t, sets)
		assert.Empty(t, args)
	})

	t.Run("price and stock", func(t *testing.T) {
		sets, args := buildProductSets(ProductUpdate{Price: &price, Stock: &stock})
		assert.Equal(t, []string{"price = $1", "stock_quantity = $2"}, sets)
		assert.Equal(t, []interface{}{price, stock}, args)
	})

	t.Run("all fields", func(t *testing.T) {
		sets, args := buildProductSets(ProductUpdate{Name: &name, Price: &price, Stock: &stock})
		assert.Equal(t, []string{"name = $1", "price = $2", "stock_quantity = $3"}, sets)
		assert.Equal(t, []interface{}{name, price, stock}, args)
	})
}
