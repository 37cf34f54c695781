// Package storefront talks to the host platform's storefront AJAX endpoints:
// the per-product JSON (/products/{handle}.js) and the cart add endpoint
// (/cart/add.js). It also memoizes products per handle (Cache).
package storefront

// === Storefront API Response Types ===

// ProductResponse is the body of GET /products/{handle}.js.
// Prices are integers in minor units.
type ProductResponse struct {
	ID          int64             `json:"id"`
	Handle      string            `json:"handle"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       int64             `json:"price"`
	Available   bool              `json:"available"`
	Images      []string          `json:"images"`
	Options     []OptionResponse  `json:"options"`
	Variants    []VariantResponse `json:"variants"`
}

// OptionResponse is one entry of ProductResponse.Options.
type OptionResponse struct {
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Values   []string `json:"values"`
}

// VariantResponse is one entry of ProductResponse.Variants.
// option1..option3 are null when the product has fewer options.
type VariantResponse struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Price     int64   `json:"price"`
	Available bool    `json:"available"`
	SKU       string  `json:"sku"`
	Option1   *string `json:"option1"`
	Option2   *string `json:"option2"`
	Option3   *string `json:"option3"`
}

// options returns the positional option slots in order.
func (v *VariantResponse) options() [3]*string {
	return [3]*string{v.Option1, v.Option2, v.Option3}
}

// === Storefront API Request Types ===

// CartAddRequest is the body of POST /cart/add.js.
type CartAddRequest struct {
	Items []CartAddItem `json:"items"`
}

// CartAddItem is a single line in CartAddRequest.
type CartAddItem struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// CartErrorResponse is the body returned by /cart/add.js on failure,
// e.g. {"status":422,"message":"Cart Error","description":"All 1 Jacket are in your cart."}.
type CartErrorResponse struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}
