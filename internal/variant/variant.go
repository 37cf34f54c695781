// Package variant maps a shopper's option selection to a purchasable variant.
// Matching is positional and case-insensitive; it never fails once a product
// has at least one variant, because an unmatched selection falls back to the
// first listed variant.
package variant

import (
	"strings"

	"giftguide/internal/model"
)

// Find returns the first variant, in stored order, whose option values equal
// sel element-wise. Comparison lowercases both sides; a missing option slot on
// the variant compares as "". Only the slots present in sel are checked.
func Find(p *model.Product, sel model.Selection) (model.Variant, bool) {
	for _, v := range p.Variants {
		if matches(v, sel) {
			return v, true
		}
	}
	return model.Variant{}, false
}

// Resolve is Find with the first-variant fallback applied.
// The quickview always has an active variant, even when the fallback
// disagrees with what the shopper sees selected.
func Resolve(p *model.Product, sel model.Selection) model.Variant {
	if v, ok := Find(p, sel); ok {
		return v
	}
	if len(p.Variants) == 0 {
		return model.Variant{}
	}
	return p.Variants[0]
}

func matches(v model.Variant, sel model.Selection) bool {
	for i, want := range sel {
		if strings.ToLower(v.OptionValue(i)) != strings.ToLower(want) {
			return false
		}
	}
	return true
}
