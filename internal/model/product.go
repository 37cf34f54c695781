// Package model holds the storefront domain types shared across the service:
// products, options, variants, selections, money formatting and API errors.
package model

// Product is a storefront product as the quickview sees it.
// Every Variant's Options has exactly len(Options) entries, in option order.
type Product struct {
	ID          int64     `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Price       int64     `json:"price"` // minor units
	Options     []Option  `json:"options"`
	Variants    []Variant `json:"variants"`
}

// Option is a named axis of variation (e.g. "Color") with its values in display order.
type Option struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Variant is one purchasable combination of option values.
type Variant struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title,omitempty"`
	Price     int64    `json:"price"` // minor units
	Available bool     `json:"available"`
	Options   []string `json:"options"`
}

// Selection is the shopper's chosen value per option, in option order.
type Selection []string

// OptionValue returns the variant's value for the option at idx, or "" when the slot is missing.
func (v Variant) OptionValue(idx int) string {
	if idx < 0 || idx >= len(v.Options) {
		return ""
	}
	return v.Options[idx]
}

// FirstImage returns the product's first image URL or "".
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// OptionIndex returns the position of the named option, or -1.
// Names match exactly; option names are unique per product on the platform.
func (p *Product) OptionIndex(name string) int {
	for i, opt := range p.Options {
		if opt.Name == name {
			return i
		}
	}
	return -1
}

// DefaultSelection picks the first value of every option,
// the same thing an untouched select element shows.
func DefaultSelection(p *Product) Selection {
	sel := make(Selection, len(p.Options))
	for i, opt := range p.Options {
		if len(opt.Values) > 0 {
			sel[i] = opt.Values[0]
		}
	}
	return sel
}

// Clone returns a copy that can be mutated without touching s.
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	out := make(Selection, len(s))
	copy(out, s)
	return out
}
