// Package quickview runs the quickview modal: a single session that opens for
// a product handle, tracks the shopper's option selection, and submits the
// resolved variant (plus the bundle item, when the promotion fires) to the cart.
//
// The modal moves through four states:
//
//	closed     -> loading     open
//	loading    -> ready       product fetched
//	loading    -> closed      fetch failed
//	ready      -> ready       option changed (no network)
//	ready      -> submitting  submit
//	submitting -> ready       cart requests finished
//	ready, submitting -> closed  close button, Escape, backdrop
//
// Opening again from any state replaces the session.
package quickview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"giftguide/internal/bundle"
	"giftguide/internal/model"
	"giftguide/internal/storefront"
	"giftguide/internal/variant"
)

// State is the modal's lifecycle state.
type State string

const (
	StateClosed     State = "closed"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
)

// Shopper-facing messages.
const (
	StatusAdded       = "Added to cart ✅"
	StatusFailed      = "Could not add to cart. Please try again."
	OpenFailedMessage = "Unable to open quick view."
)

// EscapeKey is the key name that closes the modal.
const EscapeKey = "Escape"

// CloseReason records what dismissed the modal.
type CloseReason string

const (
	CloseButton   CloseReason = "button"
	CloseEscape   CloseReason = "escape"
	CloseBackdrop CloseReason = "backdrop"
)

// ParseCloseReason validates a close reason. Empty means the close button.
func ParseCloseReason(s string) (CloseReason, error) {
	switch r := CloseReason(s); r {
	case "":
		return CloseButton, nil
	case CloseButton, CloseEscape, CloseBackdrop:
		return r, nil
	default:
		return "", model.NewValidationError("reason", "must be button, escape or backdrop")
	}
}

// SubmitResult describes one add-to-cart attempt.
// Cart failures are reported here, never as an error.
type SubmitResult struct {
	Added      bool    `json:"added"`
	Bundled    bool    `json:"bundled"`
	VariantIDs []int64 `json:"variant_ids"`
	Status     string  `json:"status"`
}

// Controller owns the quickview session. It is safe for concurrent use;
// the lock is never held across a network call.
type Controller struct {
	products bundle.ProductSource
	cart     storefront.CartAdder
	rule     *bundle.Rule
	money    model.Money
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   State
	session *Session
	status  string
}

// NewController creates a closed quickview.
// A nil rule uses the default trigger values against products.
func NewController(products bundle.ProductSource, cart storefront.CartAdder, rule *bundle.Rule, money model.Money, logger *slog.Logger) *Controller {
	if rule == nil {
		rule = bundle.NewRule(products, nil)
	}
	return &Controller{
		products: products,
		cart:     cart,
		rule:     rule,
		money:    money,
		logger:   logger,
		now:      time.Now,
		state:    StateClosed,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open loads t.Handle through the product cache and shows it.
// Any open session is replaced. When several opens overlap, whichever fetch
// resolves last is what the modal shows.
// A fetch failure closes the modal (unless another open already made it
// Ready) and is returned; callers show OpenFailedMessage.
func (c *Controller) Open(ctx context.Context, t Trigger) (View, error) {
	if err := t.Validate(); err != nil {
		return View{}, err
	}

	c.mu.Lock()
	c.state = StateLoading
	c.status = ""
	c.mu.Unlock()

	p, err := c.products.Get(ctx, t.Handle)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if c.state == StateLoading {
			c.state = StateClosed
			c.session = nil
		}
		c.logger.WarnContext(ctx, "quickview open failed",
			slog.String("handle", t.Handle),
			slog.String("error", err.Error()),
		)
		return View{}, err
	}

	sess := newSession(p, t.SecondaryHandle, c.now())
	if _, exact := variant.Find(p, sess.Selection); !exact {
		c.logger.DebugContext(ctx, "default selection matched no variant, using first",
			slog.String("handle", p.Handle),
		)
	}

	c.session = sess
	c.state = StateReady
	c.status = ""

	c.logger.InfoContext(ctx, "quickview opened",
		slog.String("session_id", sess.ID),
		slog.String("handle", p.Handle),
		slog.String("secondary_handle", t.SecondaryHandle),
		slog.Int64("variant_id", sess.Variant.ID),
	)
	return c.viewLocked(), nil
}

// SelectOption sets the named option to value and re-resolves the variant.
// No network call is made.
func (c *Controller) SelectOption(name, value string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return View{}, model.NewStateError("change options", string(c.state))
	}
	idx := c.session.Product.OptionIndex(name)
	if idx < 0 {
		return View{}, model.NewValidationError("option", "no option named "+name)
	}
	return c.selectLocked(idx, value)
}

// SelectOptionAt is SelectOption by option position (0-based).
func (c *Controller) SelectOptionAt(idx int, value string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return View{}, model.NewStateError("change options", string(c.state))
	}
	return c.selectLocked(idx, value)
}

func (c *Controller) selectLocked(idx int, value string) (View, error) {
	if err := c.session.selectValue(idx, value); err != nil {
		return View{}, err
	}
	c.logger.Debug("option selected",
		slog.String("session_id", c.session.ID),
		slog.Int("option", idx),
		slog.String("value", value),
		slog.Int64("variant_id", c.session.Variant.ID),
		slog.Bool("available", c.session.Variant.Available),
	)
	return c.viewLocked(), nil
}

// Submit adds the resolved variant to the cart, then the bundle item when the
// promotion fires. The two adds run in order; the bundle add happens only
// after the first succeeds. Any cart or bundle failure ends in StatusFailed.
//
// Cancelling ctx does not cancel the cart requests once they start.
//
// The returned error is non-nil only when the modal cannot submit: it is not
// Ready, or the resolved variant is unavailable.
func (c *Controller) Submit(ctx context.Context) (SubmitResult, error) {
	c.mu.Lock()
	if c.state != StateReady {
		state := c.state
		c.mu.Unlock()
		return SubmitResult{}, model.NewStateError("submit", string(state))
	}
	sess := c.session
	v := sess.Variant
	if !v.Available {
		c.mu.Unlock()
		return SubmitResult{}, model.NewValidationError("variant", "selected variant is unavailable")
	}
	c.state = StateSubmitting
	c.status = ""
	c.mu.Unlock()

	// The shopper leaving (a dropped request) does not abort cart adds;
	// the storefront client's timeout still bounds them.
	res := c.addToCart(context.WithoutCancel(ctx), sess, v)

	c.mu.Lock()
	// A close or re-open while the requests ran owns the modal now.
	if c.session == sess && c.state == StateSubmitting {
		c.state = StateReady
		c.status = res.Status
	}
	c.mu.Unlock()

	return res, nil
}

func (c *Controller) addToCart(ctx context.Context, sess *Session, v model.Variant) SubmitResult {
	res := SubmitResult{Status: StatusFailed, VariantIDs: []int64{}}
	log := c.logger.With(slog.String("session_id", sess.ID))

	if err := c.cart.AddToCart(ctx, v.ID, 1); err != nil {
		log.WarnContext(ctx, "cart add failed",
			slog.Int64("variant_id", v.ID),
			slog.String("error", err.Error()),
		)
		return res
	}
	res.VariantIDs = append(res.VariantIDs, v.ID)

	b, err := c.rule.Evaluate(ctx, v, sess.SecondaryHandle)
	if err != nil {
		log.WarnContext(ctx, "bundle evaluation failed",
			slog.String("secondary_handle", sess.SecondaryHandle),
			slog.String("error", err.Error()),
		)
		return res
	}

	if b != nil {
		if err := c.cart.AddToCart(ctx, b.Variant.ID, 1); err != nil {
			log.WarnContext(ctx, "bundle cart add failed",
				slog.Int64("variant_id", b.Variant.ID),
				slog.String("error", err.Error()),
			)
			return res
		}
		res.VariantIDs = append(res.VariantIDs, b.Variant.ID)
		res.Bundled = true
	}

	res.Added = true
	res.Status = StatusAdded
	log.InfoContext(ctx, "quickview submitted",
		slog.Int64("variant_id", v.ID),
		slog.Bool("bundled", res.Bundled),
	)
	return res
}

// Close hides the modal and discards the session.
// Cart requests already in flight are not cancelled.
func (c *Controller) Close(reason CloseReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.visibleLocked() {
		return model.NewStateError("close", string(c.state))
	}

	c.logger.Info("quickview closed",
		slog.String("session_id", c.session.ID),
		slog.String("reason", string(reason)),
		slog.Bool("in_flight", c.state == StateSubmitting),
	)
	c.state = StateClosed
	c.session = nil
	c.status = ""
	return nil
}

// KeyPressed closes the modal on Escape while it is visible.
// It reports whether the modal closed.
func (c *Controller) KeyPressed(key string) bool {
	if key != EscapeKey {
		return false
	}
	return c.Close(CloseEscape) == nil
}

// BackdropClicked closes the modal when the click landed outside the content area.
// It reports whether the modal closed.
func (c *Controller) BackdropClicked(onContent bool) bool {
	if onContent {
		return false
	}
	return c.Close(CloseBackdrop) == nil
}

// View renders the modal as it currently stands.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Session returns a copy of the open session, or nil when none is shown.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.visibleLocked() {
		return nil
	}
	s := *c.session
	s.Selection = s.Selection.Clone()
	return &s
}

func (c *Controller) visibleLocked() bool {
	return (c.state == StateReady || c.state == StateSubmitting) && c.session != nil
}
