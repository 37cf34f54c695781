// MCP transport handler for the quickview using the official MCP Go SDK.
// Exposes the shopper events as MCP tools so an agent can drive the modal.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"giftguide/internal/model"
	"giftguide/internal/quickview"
)

// === MCP Tool Input/Output Types ===

// OpenQuickviewInput is the input schema for open_quickview tool.
type OpenQuickviewInput struct {
	Handle          string `json:"handle" jsonschema:"product handle to show"`
	SecondaryHandle string `json:"secondary_handle,omitempty" jsonschema:"handle of the product bundled with black/medium selections"`
}

// GetQuickviewInput is the input schema for get_quickview tool.
type GetQuickviewInput struct{}

// SelectOptionInput is the input schema for select_option tool.
// Either Name or Index identifies the option.
type SelectOptionInput struct {
	Name  string `json:"name,omitempty" jsonschema:"option name, e.g. Color"`
	Index *int   `json:"index,omitempty" jsonschema:"option position, 0-based"`
	Value string `json:"value" jsonschema:"option value to select"`
}

// AddToCartInput is the input schema for add_to_cart tool.
type AddToCartInput struct{}

// CloseQuickviewInput is the input schema for close_quickview tool.
type CloseQuickviewInput struct {
	Reason string `json:"reason,omitempty" jsonschema:"button, escape or backdrop (default button)"`
}

// AddToCartOutput is the result of add_to_cart.
type AddToCartOutput struct {
	Result quickview.SubmitResult `json:"result"`
	View   quickview.View         `json:"view"`
}

// NewMCPServer creates an MCP server with quickview tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "giftguide",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Gift guide quickview. Open a product, choose options, " +
				"then add the selected variant to the shopper's cart.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "open_quickview",
		Description: "Open the quickview for a product handle. Replaces any open product.",
	}, h.mcpOpenQuickview)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_quickview",
		Description: "Get the quickview as currently rendered.",
	}, h.mcpGetQuickview)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_option",
		Description: "Select a value for one option of the open product, by name or index.",
	}, h.mcpSelectOption)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add the selected variant to the cart. Black/medium selections also add the secondary product.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "close_quickview",
		Description: "Close the quickview.",
	}, h.mcpCloseQuickview)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpOpenQuickview(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input OpenQuickviewInput,
) (*mcp.CallToolResult, quickview.View, error) {
	view, err := h.quickview.Open(ctx, quickview.Trigger{
		Handle:          input.Handle,
		SecondaryHandle: input.SecondaryHandle,
	})
	if err != nil {
		return nil, quickview.View{}, h.mcpError(openError(err))
	}
	return nil, view, nil
}

func (h *Handler) mcpGetQuickview(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetQuickviewInput,
) (*mcp.CallToolResult, quickview.View, error) {
	return nil, h.quickview.View(), nil
}

func (h *Handler) mcpSelectOption(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SelectOptionInput,
) (*mcp.CallToolResult, quickview.View, error) {
	view, err := h.selectOption(selectOptionRequest{
		Name:  input.Name,
		Index: input.Index,
		Value: input.Value,
	})
	if err != nil {
		return nil, quickview.View{}, h.mcpError(err)
	}
	return nil, view, nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, AddToCartOutput, error) {
	res, err := h.quickview.Submit(ctx)
	if err != nil {
		return nil, AddToCartOutput{}, h.mcpError(err)
	}
	return nil, AddToCartOutput{Result: res, View: h.quickview.View()}, nil
}

func (h *Handler) mcpCloseQuickview(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CloseQuickviewInput,
) (*mcp.CallToolResult, quickview.View, error) {
	if err := h.close(closeRequest{Reason: input.Reason}); err != nil {
		return nil, quickview.View{}, h.mcpError(err)
	}
	return nil, h.quickview.View(), nil
}

// mcpError converts quickview errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
