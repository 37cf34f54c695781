package storefront

import (
	"context"

	"giftguide/internal/model"
)

// Mock implements Storefront for testing.
// Each method can be configured via function fields.
type Mock struct {
	FetchProductFunc func(ctx context.Context, handle string) (*model.Product, error)
	AddToCartFunc    func(ctx context.Context, variantID int64, quantity int) error
}

// FetchProduct calls the configured FetchProductFunc or returns a not-found fetch error.
func (m *Mock) FetchProduct(ctx context.Context, handle string) (*model.Product, error) {
	if m.FetchProductFunc != nil {
		return m.FetchProductFunc(ctx, handle)
	}
	return nil, model.NewProductNotFoundError(handle)
}

// AddToCart calls the configured AddToCartFunc or succeeds.
func (m *Mock) AddToCart(ctx context.Context, variantID int64, quantity int) error {
	if m.AddToCartFunc != nil {
		return m.AddToCartFunc(ctx, variantID, quantity)
	}
	return nil
}

// Verify Mock implements Storefront interface at compile time.
var _ Storefront = (*Mock)(nil)
