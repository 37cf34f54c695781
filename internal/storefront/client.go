package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"giftguide/internal/model"
	"giftguide/internal/transport"
)

// =============================================================================
// STOREFRONT AJAX CLIENT
// =============================================================================
//
// The quickview only needs two public endpoints, both unauthenticated and
// scoped to the shopper's storefront session:
//
//   GET  /products/{handle}.js   product, options and variants (prices in cents)
//   POST /cart/add.js            {"items":[{"id":<variant>,"quantity":1}]}
//
// Neither call is retried. A failed product fetch means "quickview
// unavailable"; a failed cart add is reported to the shopper, who may click
// again.
//
// The store tracks the cart with the `cart` cookie set by the first add.
// The client keeps a cookie jar so later adds (the bundle item) land in the
// same cart.
// =============================================================================

const (
	productPathFormat = "/products/%s.js"
	cartAddPath       = "/cart/add.js"

	// userAgent identifies this client to the storefront CDN.
	userAgent = "giftguide-quickview/1.0"

	// maxResponseSize caps how much of a storefront body is read.
	maxResponseSize = 4 << 20
)

// Fetcher loads a product by handle.
type Fetcher interface {
	FetchProduct(ctx context.Context, handle string) (*model.Product, error)
}

// CartAdder adds a variant to the shopper's cart.
type CartAdder interface {
	AddToCart(ctx context.Context, variantID int64, quantity int) error
}

// Storefront is the full set of platform operations the quickview consumes.
type Storefront interface {
	Fetcher
	CartAdder
}

// Config holds storefront client configuration.
type Config struct {
	StoreURL string

	// Timeout bounds each request. Default 30s.
	Timeout time.Duration

	// Fingerprint presents a Chrome TLS fingerprint (see internal/transport).
	Fingerprint bool
}

// Client implements Storefront against a live store.
type Client struct {
	httpClient *http.Client
	storeURL   string
	logger     *slog.Logger
}

// New creates a storefront client with the given configuration.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}
	u, err := url.Parse(cfg.StoreURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid store URL %q", cfg.StoreURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
			Transport: transport.New(transport.Options{
				DialTimeout: timeout,
				Fingerprint: cfg.Fingerprint,
			}),
		},
		storeURL: strings.TrimSuffix(cfg.StoreURL, "/"),
		logger:   logger,
	}, nil
}

// FetchProduct loads GET /products/{handle}.js.
// Errors: ErrFetch (transport failure or non-2xx, 404 also matches ErrNotFound)
// and ErrParse (body not decodable or product without variants).
func (c *Client) FetchProduct(ctx context.Context, handle string) (*model.Product, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, model.NewValidationError("handle", "required")
	}

	endpoint := c.storeURL + fmt.Sprintf(productPathFormat, url.PathEscape(handle))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating product request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewFetchError(handle, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, model.NewFetchError(handle, fmt.Errorf("reading response: %w", err))
	}

	c.logger.DebugContext(ctx, "product fetched",
		slog.String("handle", handle),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.NewProductNotFoundError(handle)
	}
	if !successful(resp.StatusCode) {
		return nil, model.NewFetchError(handle, fmt.Errorf("status %d", resp.StatusCode))
	}

	var pr ProductResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, model.NewParseError(handle, err)
	}
	if pr.Handle == "" {
		pr.Handle = handle
	}

	p, err := ProductToModel(&pr)
	if err != nil {
		return nil, model.NewParseError(handle, err)
	}
	return p, nil
}

// AddToCart posts one line to /cart/add.js. Quantities below 1 are sent as 1.
// Any transport failure or non-2xx response is a CartError.
func (c *Client) AddToCart(ctx context.Context, variantID int64, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	payload, err := json.Marshal(CartAddRequest{
		Items: []CartAddItem{{ID: variantID, Quantity: quantity}},
	})
	if err != nil {
		return fmt.Errorf("marshaling cart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.storeURL+cartAddPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating cart request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewCartError(variantID, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))

	if !successful(resp.StatusCode) {
		return model.NewCartError(variantID, parseCartError(resp.StatusCode, body))
	}

	c.logger.InfoContext(ctx, "variant added to cart",
		slog.Int64("variant_id", variantID),
		slog.Int("quantity", quantity),
	)
	return nil
}

// setHeaders sets headers for storefront AJAX requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if req.Method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
}

// parseCartError extracts the platform's description from a cart error body.
func parseCartError(status int, body []byte) error {
	var ce CartErrorResponse
	json.Unmarshal(body, &ce) // Best effort parse

	msg := ce.Description
	if msg == "" {
		msg = ce.Message
	}
	if msg == "" {
		return fmt.Errorf("status %d", status)
	}
	return fmt.Errorf("status %d: %s", status, msg)
}

func successful(status int) bool {
	return status >= 200 && status < 300
}

// Verify Client implements Storefront at compile time.
var _ Storefront = (*Client)(nil)
