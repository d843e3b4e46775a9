package usecase

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/logging"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PricingResult holds one line item per cart item, in cart order.
type PricingResult struct {
	Items    []domain.LineItem
	Subtotal decimal.Decimal
}

// Pricer turns a cart into priced line items using the catalog as the only price source.
type Pricer struct {
	products    ProductLookup
	concurrency int
}

// NewPricer builds a Pricer. maxConcurrentLookups <= 1 resolves products one at a time.
func NewPricer(products ProductLookup, maxConcurrentLookups int) *Pricer {
	return &Pricer{products: products, concurrency: maxConcurrentLookups}
}

type pricingAcc struct {
	subtotal decimal.Decimal
	items    []domain.LineItem
}

// accumulate returns the next accumulator; acc itself is never modified.
func accumulate(acc pricingAcc, item domain.CartItem, p *domain.Product) pricingAcc {
	li := domain.LineItem{
		ProductID: p.ID,
		Quantity:  item.Quantity,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
	}
	n := len(acc.items)
	return pricingAcc{
		subtotal: acc.subtotal.Add(li.Amount()),
		items:    append(acc.items[:n:n], li),
	}
}

func (acc pricingAcc) result() PricingResult {
	items := acc.items
	if items == nil {
		items = []domain.LineItem{}
	}
	return PricingResult{Items: items, Subtotal: acc.subtotal}
}

// Price folds the cart left to right. The first unresolvable product aborts the whole computation.
func (p *Pricer) Price(ctx context.Context, cart []domain.CartItem) (PricingResult, error) {
	if p.concurrency > 1 && len(cart) > 1 {
		return p.priceConcurrent(ctx, cart)
	}

	acc := pricingAcc{subtotal: decimal.Zero}
	for _, item := range cart {
		prod, err := p.lookup(ctx, item.ProductID)
		if err != nil {
			return PricingResult{}, err
		}
		acc = accumulate(acc, item, prod)
	}
	return acc.result(), nil
}

// priceConcurrent issues lookups in parallel but folds in cart order on this goroutine.
// When several products are missing, the one earliest in the cart is reported.
func (p *Pricer) priceConcurrent(ctx context.Context, cart []domain.CartItem) (PricingResult, error) {
	products := make([]*domain.Product, len(cart))
	missing := make([]error, len(cart))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, item := range cart {
		g.Go(func() error {
			prod, err := p.lookup(gctx, item.ProductID)
			var nf *ProductNotFoundError
			if errors.As(err, &nf) {
				missing[i] = err
				return nil
			}
			if err != nil {
				return err
			}
			products[i] = prod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PricingResult{}, err
	}

	acc := pricingAcc{subtotal: decimal.Zero}
	for i, item := range cart {
		if missing[i] != nil {
			return PricingResult{}, missing[i]
		}
		acc = accumulate(acc, item, products[i])
	}
	return acc.result(), nil
}

func (p *Pricer) lookup(ctx context.Context, productID string) (*domain.Product, error) {
	prod, err := p.products.FindProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("lookup product %s: %w", productID, err)
	}
	if prod == nil {
		return nil, &ProductNotFoundError{ProductID: productID}
	}
	logging.FromCtx(ctx).Debug("priced cart item", "product", productID, "price", prod.Price.String())
	return prod, nil
}
