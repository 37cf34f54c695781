package storefront

import (
	"errors"
	"strings"

	"giftguide/internal/model"
)

// errNoVariants rejects products the quickview cannot render:
// the platform always lists at least one variant.
var errNoVariants = errors.New("product has no variants")

// ProductToModel converts a storefront product body to the domain model.
// Variant option slots are laid out to match the product's option list,
// with missing slots as "".
func ProductToModel(r *ProductResponse) (*model.Product, error) {
	if len(r.Variants) == 0 {
		return nil, errNoVariants
	}

	p := &model.Product{
		ID:          r.ID,
		Handle:      r.Handle,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Images:      make([]string, 0, len(r.Images)),
		Options:     make([]model.Option, len(r.Options)),
		Variants:    make([]model.Variant, len(r.Variants)),
	}

	for _, img := range r.Images {
		if img = normalizeImageURL(img); img != "" {
			p.Images = append(p.Images, img)
		}
	}

	for i, opt := range r.Options {
		values := make([]string, len(opt.Values))
		copy(values, opt.Values)
		p.Options[i] = model.Option{Name: opt.Name, Values: values}
	}

	for i := range r.Variants {
		p.Variants[i] = variantToModel(&r.Variants[i], len(r.Options))
	}

	return p, nil
}

func variantToModel(v *VariantResponse, optionCount int) model.Variant {
	slots := v.options()
	values := make([]string, optionCount)
	for i := 0; i < optionCount && i < len(slots); i++ {
		if slots[i] != nil {
			values[i] = *slots[i]
		}
	}

	return model.Variant{
		ID:        v.ID,
		Title:     v.Title,
		Price:     v.Price,
		Available: v.Available,
		Options:   values,
	}
}

// normalizeImageURL turns protocol-relative CDN URLs ("//cdn...") into https URLs.
func normalizeImageURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
