package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() *fakeProducts {
	return newFakeProducts(
		domain.Product{ID: "P1", Name: "Mug", Price: dec("10.00"), Image: "/img/mug.png"},
		domain.Product{ID: "P2", Name: "Shirt", Price: dec("19.99"), Image: "/img/shirt.png"},
		domain.Product{ID: "P3", Name: "Sticker", Price: dec("0.50"), Image: "/img/sticker.png"},
	)
}

func TestPrice_SingleItem(t *testing.T) {
	p := NewPricer(catalog(), 1)

	res, err := p.Price(context.Background(), []domain.CartItem{{ProductID: "P1", Quantity: 2}})

	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.True(t, dec("20.00").Equal(res.Subtotal), "subtotal %s", res.Subtotal)
	assert.Equal(t, "Mug", res.Items[0].Name)
	assert.Equal(t, "/img/mug.png", res.Items[0].Image)
	assert.Equal(t, 2, res.Items[0].Quantity)
}

func TestPrice_PreservesCartOrderAndSums(t *testing.T) {
	cart := []domain.CartItem{
		{ProductID: "P3", Quantity: 4},
		{ProductID: "P1", Quantity: 1},
		{ProductID: "P2", Quantity: 3},
	}

	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			res, err := NewPricer(catalog(), workers).Price(context.Background(), cart)
			require.NoError(t, err)

			require.Len(t, res.Items, len(cart))
			for i, item := range cart {
				assert.Equal(t, item.ProductID, res.Items[i].ProductID)
				assert.Equal(t, item.Quantity, res.Items[i].Quantity)
			}
			// 4*0.50 + 1*10.00 + 3*19.99
			assert.True(t, dec("71.97").Equal(res.Subtotal), "subtotal %s", res.Subtotal)
		})
	}
}

func TestPrice_UsesCatalogPrice(t *testing.T) {
	products := newFakeProducts(domain.Product{ID: "P1", Name: "Mug", Price: dec("10.00")})
	res, err := NewPricer(products, 1).Price(context.Background(), []domain.CartItem{{ProductID: "P1", Quantity: 3}})
	require.NoError(t, err)
	assert.True(t, dec("10.00").Equal(res.Items[0].Price))
	assert.True(t, dec("30.00").Equal(res.Subtotal))
}

func TestPrice_MissingProductAborts(t *testing.T) {
	products := catalog()
	p := NewPricer(products, 1)

	res, err := p.Price(context.Background(), []domain.CartItem{
		{ProductID: "P1", Quantity: 1},
		{ProductID: "nope", Quantity: 3},
		{ProductID: "P2", Quantity: 1},
	})

	require.ErrorIs(t, err, ErrProductNotFound)
	var nf *ProductNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nope", nf.ProductID)
	assert.Empty(t, res.Items)
	assert.Equal(t, 2, products.calls, "lookups stop at the first missing product")
}

func TestPrice_ConcurrentReportsEarliestMissing(t *testing.T) {
	p := NewPricer(catalog(), 4)

	_, err := p.Price(context.Background(), []domain.CartItem{
		{ProductID: "P1", Quantity: 1},
		{ProductID: "missing-a", Quantity: 1},
		{ProductID: "P2", Quantity: 1},
		{ProductID: "missing-b", Quantity: 1},
	})

	var nf *ProductNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing-a", nf.ProductID)
}

func TestPrice_LookupErrorPropagates(t *testing.T) {
	products := catalog()
	products.err = errors.New("catalog down")

	for _, workers := range []int{1, 3} {
		_, err := NewPricer(products, workers).Price(context.Background(), []domain.CartItem{
			{ProductID: "P1", Quantity: 1},
			{ProductID: "P2", Quantity: 1},
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrProductNotFound)
		assert.Contains(t, err.Error(), "catalog down")
	}
}

func TestAccumulate_DoesNotMutatePrevious(t *testing.T) {
	prod := &domain.Product{ID: "P1", Name: "Mug", Price: dec("10")}
	acc0 := pricingAcc{subtotal: dec("0")}
	acc1 := accumulate(acc0, domain.CartItem{ProductID: "P1", Quantity: 1}, prod)
	acc2a := accumulate(acc1, domain.CartItem{ProductID: "P1", Quantity: 2}, prod)
	acc2b := accumulate(acc1, domain.CartItem{ProductID: "P1", Quantity: 5}, prod)

	assert.Empty(t, acc0.items)
	assert.Len(t, acc1.items, 1)
	assert.True(t, dec("10").Equal(acc1.subtotal))
	assert.Equal(t, 2, acc2a.items[1].Quantity)
	assert.Equal(t, 5, acc2b.items[1].Quantity)
	assert.True(t, dec("30").Equal(acc2a.subtotal))
	assert.True(t, dec("60").Equal(acc2b.subtotal))
}
