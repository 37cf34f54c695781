package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"giftguide/internal/model"
	"giftguide/internal/quickview"
)

// openRequest is the body of POST /quickview.
type openRequest struct {
	Handle          string `json:"handle"`
	SecondaryHandle string `json:"secondary_handle,omitempty"`
}

// selectOptionRequest is the body of PUT /quickview/options.
// Either Name or Index identifies the option.
type selectOptionRequest struct {
	Name  string `json:"name,omitempty"`
	Index *int   `json:"index,omitempty"`
	Value string `json:"value"`
}

// closeRequest is the body of POST /quickview/close.
// Key mirrors a key press ("Escape"); Reason names the control that closed.
// OnContent marks a backdrop click that landed on the modal content.
type closeRequest struct {
	Reason    string `json:"reason,omitempty"`
	Key       string `json:"key,omitempty"`
	OnContent bool   `json:"on_content,omitempty"`
}

// submitResponse is the body returned by POST /quickview/submit.
type submitResponse struct {
	Result quickview.SubmitResult `json:"result"`
	View   quickview.View         `json:"view"`
}

// handleOpen opens the quickview for a product.
// POST /quickview
//
// The trigger comes from the Quickview-Trigger header when present,
// otherwise from the JSON body.
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	trigger, err := readTrigger(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "opening quickview",
		slog.String("handle", trigger.Handle),
		slog.String("secondary_handle", trigger.SecondaryHandle),
	)

	view, err := h.quickview.Open(ctx, trigger)
	if err != nil {
		h.writeError(w, openError(err))
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

func readTrigger(r *http.Request) (quickview.Trigger, error) {
	if header := r.Header.Get(quickview.TriggerHeader); header != "" {
		t, err := quickview.ParseTrigger(header)
		if err != nil {
			return quickview.Trigger{}, model.NewValidationError(quickview.TriggerHeader, err.Error())
		}
		return t, nil
	}

	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		return quickview.Trigger{}, err
	}
	return quickview.Trigger{Handle: req.Handle, SecondaryHandle: req.SecondaryHandle}, nil
}

// openError replaces product load failures with the shopper-facing notice,
// keeping code and status.
func openError(err error) error {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if !errors.Is(err, model.ErrFetch) && !errors.Is(err, model.ErrParse) {
		return err
	}
	return &model.APIError{
		Code:       apiErr.Code,
		Message:    quickview.OpenFailedMessage,
		StatusCode: apiErr.StatusCode,
		Err:        err,
	}
}

// handleView returns the rendered modal.
// GET /quickview
func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.quickview.View())
}

// handleSelectOption changes one option of the open product.
// PUT /quickview/options
func (h *Handler) handleSelectOption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req selectOptionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.selectOption(req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.DebugContext(ctx, "option changed",
		slog.String("option", req.Name),
		slog.String("value", req.Value),
		slog.Int64("variant_id", view.VariantID),
	)
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) selectOption(req selectOptionRequest) (quickview.View, error) {
	switch {
	case req.Index != nil:
		return h.quickview.SelectOptionAt(*req.Index, req.Value)
	case req.Name != "":
		return h.quickview.SelectOption(req.Name, req.Value)
	default:
		return quickview.View{}, model.NewValidationError("option", "name or index required")
	}
}

// handleSubmit adds the selected variant (and bundle item) to the cart.
// POST /quickview/submit
//
// A failed cart add is not an HTTP error: the response carries the failure
// status and the modal stays open.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.quickview.Submit(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, submitResponse{
		Result: res,
		View:   h.quickview.View(),
	})
}

// handleClose dismisses the modal.
// POST /quickview/close
//
// Key presses other than Escape and clicks on the modal content are
// ignored, as in the browser.
func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.close(req); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, h.quickview.View())
}

func (h *Handler) close(req closeRequest) error {
	if req.Key != "" {
		h.quickview.KeyPressed(req.Key)
		return nil
	}

	reason, err := quickview.ParseCloseReason(req.Reason)
	if err != nil {
		return err
	}

	switch reason {
	case quickview.CloseEscape:
		h.quickview.KeyPressed(quickview.EscapeKey)
		return nil
	case quickview.CloseBackdrop:
		h.quickview.BackdropClicked(req.OnContent)
		return nil
	default:
		return h.quickview.Close(reason)
	}
}
