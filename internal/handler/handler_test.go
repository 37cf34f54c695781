package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"giftguide/internal/bundle"
	"giftguide/internal/model"
	"giftguide/internal/quickview"
	"giftguide/internal/storefront"
)

func hoodie() *model.Product {
	return &model.Product{
		Handle:      "hoodie",
		Title:       "Cozy Hoodie",
		Description: "<p>Warm &amp; soft.</p>",
		Images:      []string{"https://cdn.example.com/hoodie.jpg"},
		Price:       4500,
		Options: []model.Option{
			{Name: "Color", Values: []string{"Grey", "Black"}},
			{Name: "Size", Values: []string{"Small", "Medium"}},
		},
		Variants: []model.Variant{
			{ID: 101, Price: 4500, Available: true, Options: []string{"Grey", "Small"}},
			{ID: 102, Price: 4500, Available: false, Options: []string{"Grey", "Medium"}},
			{ID: 103, Price: 4700, Available: true, Options: []string{"Black", "Small"}},
			{ID: 104, Price: 4700, Available: true, Options: []string{"Black", "Medium"}},
		},
	}
}

func jacket() *model.Product {
	return &model.Product{
		Handle: "jacket",
		Title:  "Rain Jacket",
		Variants: []model.Variant{
			{ID: 201, Available: false},
			{ID: 202, Available: true},
		},
	}
}

// catalogMock serves the given products and records cart adds.
func catalogMock(adds *[]int64, products ...*model.Product) *storefront.Mock {
	catalog := make(map[string]*model.Product)
	for _, p := range products {
		catalog[p.Handle] = p
	}
	return &storefront.Mock{
		FetchProductFunc: func(ctx context.Context, handle string) (*model.Product, error) {
			if p, ok := catalog[handle]; ok {
				return p, nil
			}
			return nil, model.NewProductNotFoundError(handle)
		},
		AddToCartFunc: func(ctx context.Context, variantID int64, quantity int) error {
			*adds = append(*adds, variantID)
			return nil
		},
	}
}

func testHandler(mock *storefront.Mock) (*Handler, *http.ServeMux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := storefront.NewCache(mock, logger)
	qv := quickview.NewController(cache, mock, bundle.NewRule(cache, nil), model.Money{Currency: "USD"}, logger)
	h := New(qv, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) quickview.View {
	t.Helper()
	var v quickview.View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding view: %v\nBody: %s", err, w.Body.String())
	}
	return v
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error: %v", err)
	}
	return resp.Error
}

func TestHandleHealth(t *testing.T) {
	_, mux := testHandler(&storefront.Mock{})

	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: Status = %d, want %d", path, w.Code, http.StatusOK)
		}

		var resp healthResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Status != "ok" {
			t.Errorf("%s: Status = %s, want ok", path, resp.Status)
		}
	}
}

func TestHandleOpen(t *testing.T) {
	var adds []int64
	_, mux := testHandler(catalogMock(&adds, hoodie()))

	w := doJSON(t, mux, "POST", "/quickview", `{"handle":"hoodie","secondary_handle":"jacket"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	v := decodeView(t, w)
	if !v.Visible || v.State != quickview.StateReady {
		t.Errorf("view = visible %v state %s, want visible ready", v.Visible, v.State)
	}
	if v.Title != "Cozy Hoodie" || v.ImageAlt != "Cozy Hoodie" {
		t.Errorf("Title/ImageAlt = %q/%q", v.Title, v.ImageAlt)
	}
	if v.Description != "Warm & soft." {
		t.Errorf("Description = %q", v.Description)
	}
	if v.PriceText != "$45.00" {
		t.Errorf("PriceText = %q, want $45.00", v.PriceText)
	}
	if len(v.Options) != 2 || v.Options[0].Selected != "Grey" || v.Options[1].Selected != "Small" {
		t.Errorf("Options = %+v", v.Options)
	}
}

func TestHandleOpen_TriggerHeader(t *testing.T) {
	var adds []int64
	_, mux := testHandler(catalogMock(&adds, hoodie()))

	req := httptest.NewRequest("POST", "/quickview", nil)
	req.Header.Set(quickview.TriggerHeader, `handle="hoodie", secondary="jacket"`)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}
	if v := decodeView(t, w); v.Handle != "hoodie" {
		t.Errorf("Handle = %q, want hoodie", v.Handle)
	}
}

func TestHandleOpen_Errors(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		body        string
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "unknown product",
			body:        `{"handle":"nope"}`,
			wantStatus:  http.StatusNotFound,
			wantCode:    "PRODUCT_NOT_FOUND",
			wantMessage: quickview.OpenFailedMessage,
		},
		{
			name:       "missing handle",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "invalid JSON",
			body:       `{invalid`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "malformed header",
			header:     `secondary="jacket"`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var adds []int64
			_, mux := testHandler(catalogMock(&adds, hoodie()))

			req := httptest.NewRequest("POST", "/quickview", bytes.NewBufferString(tt.body))
			if tt.header != "" {
				req.Header.Set(quickview.TriggerHeader, tt.header)
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			body := decodeErrorCode(t, w)
			if body.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", body.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && body.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}
}

func TestHandleView_Closed(t *testing.T) {
	_, mux := testHandler(&storefront.Mock{})

	w := doJSON(t, mux, "GET", "/quickview", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	v := decodeView(t, w)
	if v.Visible || v.State != quickview.StateClosed {
		t.Errorf("view = %+v, want closed", v)
	}
}

func TestHandleSelectOption(t *testing.T) {
	var adds []int64
	_, mux := testHandler(catalogMock(&adds, hoodie()))
	doJSON(t, mux, "POST", "/quickview", `{"handle":"hoodie"}`)

	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantVariant  int64
		wantDisabled bool
	}{
		{"by name", `{"name":"Size","value":"Medium"}`, http.StatusOK, 102, true},
		{"by index", `{"index":0,"value":"Black"}`, http.StatusOK, 104, false},
		{"unknown option", `{"name":"Fit","value":"Slim"}`, http.StatusBadRequest, 0, false},
		{"unknown value", `{"name":"Size","value":"XXL"}`, http.StatusBadRequest, 0, false},
		{"no option", `{"value":"Black"}`, http.StatusBadRequest, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, mux, "PUT", "/quickview/options", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			v := decodeView(t, w)
			if v.VariantID != tt.wantVariant {
				t.Errorf("VariantID = %d, want %d", v.VariantID, tt.wantVariant)
			}
			if v.SubmitDisabled != tt.wantDisabled {
				t.Errorf("SubmitDisabled = %v, want %v", v.SubmitDisabled, tt.wantDisabled)
			}
		})
	}
}

func TestHandleSelectOption_Closed(t *testing.T) {
	_, mux := testHandler(&storefront.Mock{})

	w := doJSON(t, mux, "PUT", "/quickview/options", `{"name":"Size","value":"Medium"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusConflict)
	}
	if code := decodeErrorCode(t, w).Code; code != "INVALID_STATE" {
		t.Errorf("Code = %s, want INVALID_STATE", code)
	}
}

func TestHandleSubmit_Bundle(t *testing.T) {
	var adds []int64
	_, mux := testHandler(catalogMock(&adds, hoodie(), jacket()))

	doJSON(t, mux, "POST", "/quickview", `{"handle":"hoodie","secondary_handle":"jacket"}`)
	doJSON(t, mux, "PUT", "/quickview/options", `{"name":"Color","value":"Black"}`)
	doJSON(t, mux, "PUT", "/quickview/options", `{"name":"Size","value":"Medium"}`)

	w := doJSON(t, mux, "POST", "/quickview/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}

	var resp submitResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !resp.Result.Added || !resp.Result.Bundled {
		t.Errorf("Result = %+v, want added and bundled", resp.Result)
	}
	if resp.View.Status != quickview.StatusAdded || !resp.View.StatusVisible {
		t.Errorf("View status = %q visible=%v", resp.View.Status, resp.View.StatusVisible)
	}
	if len(adds) != 2 || adds[0] != 104 || adds[1] != 202 {
		t.Errorf("cart adds = %v, want [104 202]", adds)
	}
}

func TestHandleSubmit_CartFailure(t *testing.T) {
	mock := catalogMock(new([]int64), hoodie())
	mock.AddToCartFunc = func(ctx context.Context, variantID int64, quantity int) error {
		return model.NewCartError(variantID, errors.New("network down"))
	}
	_, mux := testHandler(mock)
	doJSON(t, mux, "POST", "/quickview", `{"handle":"hoodie"}`)

	w := doJSON(t, mux, "POST", "/quickview/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (cart failures stay in the view)", w.Code)
	}

	var resp submitResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Result.Added {
		t.Error("Result.Added = true, want false")
	}
	if !resp.View.Visible || resp.View.SubmitDisabled || resp.View.Status != quickview.StatusFailed {
		t.Errorf("View = %+v", resp.View)
	}
}

func TestHandleSubmit_Rejected(t *testing.T) {
	var adds []int64
	_, mux := testHandler(catalogMock(&adds, hoodie()))

	w := doJSON(t, mux, "POST", "/quickview/submit", "")
	if w.Code != http.StatusConflict {
		t.Errorf("closed: Status = %d, want %d", w.Code, http.StatusConflict)
	}

	doJSON(t, mux, "POST", "/quickview", `{"handle":"hoodie"}`)
	doJSON(t, mux, "PUT", "/quickview/options", `{"name":"Size","value":"Medium"}`)

	w = doJSON(t, mux, "POST", "/quickview/submit", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unavailable: Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if len(adds) != 0 {
		t.Errorf("cart adds = %v, want none", adds)
	}
}

func TestHandleClose(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantVisible bool
	}{
		{"empty body closes", "", http.StatusOK, false},
		{"button", `{"reason":"button"}`, http.StatusOK, false},
		{"escape reason", `{"reason":"escape"}`, http.StatusOK, false},
		{"escape key", `{"key":"Escape"}`, http.StatusOK, false},
		{"other key ignored", `{"key":"Tab"}`, http.StatusOK, true},
		{"backdrop", `{"reason":"backdrop"}`, http.StatusOK, false},
		{"click on content ignored", `{"reason":"backdrop","on_content":true}`, http.StatusOK, true},
		{"unknown reason", `{"reason":"swipe"}`, http.StatusBadRequest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var adds []int64
			_, mux := testHandler(catalogMock(&adds, hoodie()))
			doJSON(t, mux, "POST", "/quickview", `{"handle":"hoodie"}`)

			w := doJSON(t, mux, "POST", "/quickview/close", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}

			v := decodeView(t, doJSON(t, mux, "GET", "/quickview", ""))
			if v.Visible != tt.wantVisible {
				t.Errorf("Visible = %v, want %v", v.Visible, tt.wantVisible)
			}
		})
	}
}

func TestHandleClose_AlreadyClosed(t *testing.T) {
	_, mux := testHandler(&storefront.Mock{})

	w := doJSON(t, mux, "POST", "/quickview/close", `{"reason":"button"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusConflict)
	}

	// Escape on a closed modal is a no-op, as in the browser.
	w = doJSON(t, mux, "POST", "/quickview/close", `{"key":"Escape"}`)
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", model.NewValidationError("handle", "required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", model.NewProductNotFoundError("mug"), http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"state", model.NewStateError("submit", "closed"), http.StatusConflict, "INVALID_STATE"},
		{"cart", model.NewCartError(1, errors.New("x")), http.StatusBadGateway, "CART_ERROR"},
		{"wrapped", errors.Join(errors.New("ctx"), model.NewParseError("mug", errors.New("x"))), http.StatusBadGateway, "PARSE_ERROR"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	h, _ := testHandler(&storefront.Mock{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.writeError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			if code := decodeErrorCode(t, w).Code; code != tt.wantCode {
				t.Errorf("Code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}
