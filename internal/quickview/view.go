package quickview

// View is the rendered modal. Price text is formatted with the store's money
// settings; Description is plain text, at most DescriptionLimit characters.
type View struct {
	Visible        bool         `json:"visible"`
	State          State        `json:"state"`
	SessionID      string       `json:"session_id,omitempty"`
	Handle         string       `json:"handle,omitempty"`
	Title          string       `json:"title,omitempty"`
	ImageURL       string       `json:"image_url,omitempty"`
	ImageAlt       string       `json:"image_alt,omitempty"`
	Description    string       `json:"description,omitempty"`
	PriceText      string       `json:"price_text,omitempty"`
	VariantID      int64        `json:"variant_id,omitempty"`
	Available      bool         `json:"available"`
	Options        []OptionView `json:"options,omitempty"`
	SubmitDisabled bool         `json:"submit_disabled"`
	Status         string       `json:"status,omitempty"`
	StatusVisible  bool         `json:"status_visible"`
}

// OptionView is one option selector with its current value.
type OptionView struct {
	Name     string   `json:"name"`
	Values   []string `json:"values"`
	Selected string   `json:"selected"`
}

// viewLocked renders the current state. Callers hold c.mu.
func (c *Controller) viewLocked() View {
	v := View{State: c.state}
	if !c.visibleLocked() {
		return v
	}

	s := c.session
	p := s.Product

	v.Visible = true
	v.SessionID = s.ID
	v.Handle = p.Handle
	v.Title = p.Title
	v.ImageURL = p.FirstImage()
	v.ImageAlt = p.Title
	v.Description = s.Description
	v.PriceText = c.money.Format(s.Variant.Price)
	v.VariantID = s.Variant.ID
	v.Available = s.Variant.Available
	v.SubmitDisabled = c.state == StateSubmitting || !s.Variant.Available
	v.Status = c.status
	v.StatusVisible = c.status != ""

	v.Options = make([]OptionView, len(p.Options))
	for i, opt := range p.Options {
		values := make([]string, len(opt.Values))
		copy(values, opt.Values)
		v.Options[i] = OptionView{Name: opt.Name, Values: values, Selected: s.Selection[i]}
	}
	return v
}
