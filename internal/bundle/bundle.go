// Package bundle implements the gift-guide bundling promotion: when the
// resolved variant carries every trigger value (default "black" and "medium"),
// a configured secondary product is added to the cart alongside it.
//
// The rule looks at option values only. Which option produced a value
// ("Color" or "Size") does not matter.
package bundle

import (
	"context"
	"fmt"
	"strings"

	"giftguide/internal/model"
)

// DefaultTriggerValues are the option values that fire the promotion.
var DefaultTriggerValues = []string{"black", "medium"}

// ProductSource loads a product by handle. storefront.Cache satisfies it.
type ProductSource interface {
	Get(ctx context.Context, handle string) (*model.Product, error)
}

// Bundle is the secondary item to add after the primary variant.
type Bundle struct {
	Product *model.Product
	Variant model.Variant
}

// Rule evaluates the promotion against a resolved variant.
type Rule struct {
	products ProductSource
	triggers []string
}

// NewRule creates a rule with the given trigger values.
// Nil or empty triggers use DefaultTriggerValues. Values are compared lowercased.
func NewRule(products ProductSource, triggers []string) *Rule {
	if len(triggers) == 0 {
		triggers = DefaultTriggerValues
	}
	normalized := make([]string, 0, len(triggers))
	for _, t := range triggers {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			normalized = append(normalized, t)
		}
	}
	return &Rule{products: products, triggers: normalized}
}

// Matches reports whether v's lowercased option values contain every trigger value.
func (r *Rule) Matches(v model.Variant) bool {
	if len(r.triggers) == 0 {
		return false
	}
	values := make(map[string]struct{}, len(v.Options))
	for _, o := range v.Options {
		values[strings.ToLower(o)] = struct{}{}
	}
	for _, t := range r.triggers {
		if _, ok := values[t]; !ok {
			return false
		}
	}
	return true
}

// Evaluate returns the bundle to add for v, or nil when the rule does not fire.
// The rule fires only when v matches and secondaryHandle is set. The secondary
// product is loaded through the ProductSource; a load failure is returned as is.
func (r *Rule) Evaluate(ctx context.Context, v model.Variant, secondaryHandle string) (*Bundle, error) {
	if secondaryHandle == "" || !r.Matches(v) {
		return nil, nil
	}

	p, err := r.products.Get(ctx, secondaryHandle)
	if err != nil {
		return nil, fmt.Errorf("loading bundle product %s: %w", secondaryHandle, err)
	}

	pick, ok := PickVariant(p)
	if !ok {
		return nil, nil
	}
	return &Bundle{Product: p, Variant: pick}, nil
}

// PickVariant returns the first available variant, else the first listed one.
// ok is false only for a product without variants.
func PickVariant(p *model.Product) (model.Variant, bool) {
	for _, v := range p.Variants {
		if v.Available {
			return v, true
		}
	}
	if len(p.Variants) == 0 {
		return model.Variant{}, false
	}
	return p.Variants[0], true
}
