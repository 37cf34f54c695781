package quickview

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"giftguide/internal/model"
	"giftguide/internal/variant"
)

// Session is the state of the one open quickview: the product being shown,
// the shopper's selection, and the variant it resolves to.
// Only the Controller reads or writes it.
type Session struct {
	ID              string
	Product         *model.Product
	Selection       model.Selection
	Variant         model.Variant
	SecondaryHandle string
	Description     string
	OpenedAt        time.Time
}

func newSession(p *model.Product, secondaryHandle string, now time.Time) *Session {
	s := &Session{
		ID:              uuid.NewString(),
		Product:         p,
		Selection:       model.DefaultSelection(p),
		SecondaryHandle: secondaryHandle,
		Description:     Excerpt(p.Description, DescriptionLimit),
		OpenedAt:        now,
	}
	s.Variant = variant.Resolve(p, s.Selection)
	return s
}

// selectValue sets the option at idx and re-resolves the variant.
// value must be one of the option's values; the match ignores case and the
// stored value keeps the option's own spelling.
func (s *Session) selectValue(idx int, value string) error {
	if idx < 0 || idx >= len(s.Product.Options) {
		return model.NewValidationError("option", "no such option")
	}

	opt := s.Product.Options[idx]
	canonical, ok := lookupValue(opt.Values, value)
	if !ok {
		return model.NewValidationError("value", fmt.Sprintf("%q is not a value of %s", value, opt.Name))
	}

	sel := s.Selection.Clone()
	sel[idx] = canonical
	s.Selection = sel
	s.Variant = variant.Resolve(s.Product, sel)
	return nil
}

func lookupValue(values []string, value string) (string, bool) {
	for _, v := range values {
		if v == value {
			return v, true
		}
	}
	for _, v := range values {
		if strings.EqualFold(v, value) {
			return v, true
		}
	}
	return "", false
}
