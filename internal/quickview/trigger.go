package quickview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"

	"giftguide/internal/model"
)

// TriggerHeader carries an open-request as an RFC 8941 dictionary,
// e.g. Quickview-Trigger: handle="hoodie", secondary="jacket".
const TriggerHeader = "Quickview-Trigger"

// Trigger is an open-request: the product to show and an optional
// secondary product for the bundle promotion.
type Trigger struct {
	Handle          string `json:"handle"`
	SecondaryHandle string `json:"secondary_handle,omitempty"`
}

// Validate reports a missing handle.
func (t Trigger) Validate() error {
	if strings.TrimSpace(t.Handle) == "" {
		return model.NewValidationError("handle", "required")
	}
	return nil
}

// ParseTrigger reads a Quickview-Trigger header value.
//
// Examples:
//   - handle="hoodie", secondary="jacket" → {hoodie jacket}
//   - handle=mug                          → {mug ""} (tokens accepted)
//
// Returns error if the header is empty, malformed, or has no handle.
func ParseTrigger(header string) (Trigger, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Trigger{}, errors.New("empty Quickview-Trigger header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return Trigger{}, fmt.Errorf("invalid Quickview-Trigger header: %w", err)
	}

	handle, ok, err := stringMember(dict, "handle")
	if err != nil {
		return Trigger{}, err
	}
	if !ok || handle == "" {
		return Trigger{}, errors.New("handle key not found in Quickview-Trigger header")
	}

	secondary, _, err := stringMember(dict, "secondary")
	if err != nil {
		return Trigger{}, err
	}

	return Trigger{Handle: handle, SecondaryHandle: secondary}, nil
}

// stringMember returns a dictionary item's value as a string.
// Both sf-string and sf-token values are accepted.
func stringMember(dict *httpsfv.Dictionary, key string) (string, bool, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", false, nil
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", false, fmt.Errorf("%s value must be an item", key)
	}

	switch v := item.Value.(type) {
	case string:
		return v, true, nil
	case httpsfv.Token:
		return string(v), true, nil
	default:
		return "", false, fmt.Errorf("%s value must be a string", key)
	}
}
