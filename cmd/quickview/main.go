// quickview is a CLI for driving the quickview modal of a running giftguide
// server. Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	quickview open -server URL -handle H [-secondary H]
//	quickview state -server URL
//	quickview select -server URL (-name N | -index I) -value V
//	quickview submit -server URL
//	quickview close -server URL [-reason button|escape|backdrop] [-key K]
//
// Examples:
//
//	quickview open -server http://localhost:8080 -handle hoodie -secondary jacket
//	quickview select -server http://localhost:8080 -name Size -value Medium
//	quickview submit -server http://localhost:8080
//	quickview close -server http://localhost:8080 -key Escape
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"giftguide/internal/quickview"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	serverURL string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "open":
		runOpen(args)
	case "state":
		runState(args)
	case "select":
		runSelect(args)
	case "submit":
		runSubmit(args)
	case "close":
		runClose(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `quickview - gift guide quickview test tool

Usage:
  quickview <command> [options]

Commands:
  open      Open the modal for a product handle
  state     Show the modal as it currently stands
  select    Change one option of the open product
  submit    Add the selected variant (and any bundle item) to the cart
  close     Close the modal

Examples:
  # Open a hotspot whose secondary product is a jacket
  quickview open -server http://localhost:8080 -handle hoodie -secondary jacket

  # Pick a size, then add to cart
  quickview select -server http://localhost:8080 -name Size -value Medium
  quickview submit -server http://localhost:8080

  # Print only the resolved variant ID
  quickview state -server http://localhost:8080 -q

Run 'quickview <command> -h' for command-specific options.
`)
}

// commonFlags registers the flags every command accepts.
func commonFlags(fs *flag.FlagSet) {
	fs.StringVar(&serverURL, "server", "http://localhost:8080", "giftguide server base URL")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output the variant ID")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
}

func parseFlags(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	serverURL = strings.TrimRight(serverURL, "/")
}

// =============================================================================
// OPEN COMMAND
// =============================================================================

func runOpen(args []string) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	commonFlags(fs)
	var handle, secondary string
	fs.StringVar(&handle, "handle", "", "Product handle (required)")
	fs.StringVar(&secondary, "secondary", "", "Secondary product handle for the bundle promotion")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickview open -handle H [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	if handle == "" {
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]string{"handle": handle}
	if secondary != "" {
		body["secondary_handle"] = secondary
	}

	var view quickview.View
	if err := doRequest(http.MethodPost, "/quickview", body, &view); err != nil {
		fatal("%s: %v", quickview.OpenFailedMessage, err)
	}

	printSuccess("Quickview opened")
	printView(view)
}

// =============================================================================
// STATE COMMAND
// =============================================================================

func runState(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	commonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickview state [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	var view quickview.View
	if err := doRequest(http.MethodGet, "/quickview", nil, &view); err != nil {
		fatal("Failed to get quickview: %v", err)
	}
	printView(view)
}

// =============================================================================
// SELECT COMMAND
// =============================================================================

func runSelect(args []string) {
	fs := flag.NewFlagSet("select", flag.ExitOnError)
	commonFlags(fs)
	var name, value string
	var index int
	fs.StringVar(&name, "name", "", "Option name, e.g. Size")
	fs.IntVar(&index, "index", -1, "Option position (0-based), used when -name is empty")
	fs.StringVar(&value, "value", "", "Option value (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickview select (-name N | -index I) -value V [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	if value == "" || (name == "" && index < 0) {
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]any{"value": value}
	if name != "" {
		body["name"] = name
	} else {
		body["index"] = index
	}

	var view quickview.View
	if err := doRequest(http.MethodPut, "/quickview/options", body, &view); err != nil {
		fatal("Failed to select option: %v", err)
	}

	if !view.Available {
		printWarning("Selected variant is unavailable")
	}
	printView(view)
}

// =============================================================================
// SUBMIT COMMAND
// =============================================================================

func runSubmit(args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	commonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickview submit [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	var resp struct {
		Result quickview.SubmitResult `json:"result"`
		View   quickview.View         `json:"view"`
	}
	if err := doRequest(http.MethodPost, "/quickview/submit", nil, &resp); err != nil {
		fatal("Failed to submit: %v", err)
	}

	if quiet {
		for _, id := range resp.Result.VariantIDs {
			fmt.Println(id)
		}
		if !resp.Result.Added {
			os.Exit(1)
		}
		return
	}

	if resp.Result.Added {
		printSuccess("%s", resp.Result.Status)
	} else {
		printError("%s", resp.Result.Status)
	}
	for _, id := range resp.Result.VariantIDs {
		fmt.Printf("  Added variant: %s%d%s\n", colorCyan, id, colorReset)
	}
	if resp.Result.Bundled {
		fmt.Printf("  %sBundle item included%s\n", colorYellow, colorReset)
	}
	if !resp.Result.Added {
		os.Exit(1)
	}
}

// =============================================================================
// CLOSE COMMAND
// =============================================================================

func runClose(args []string) {
	fs := flag.NewFlagSet("close", flag.ExitOnError)
	commonFlags(fs)
	var reason, key string
	var onContent bool
	fs.StringVar(&reason, "reason", "", "Close reason: button, escape or backdrop")
	fs.StringVar(&key, "key", "", "Simulate a key press, e.g. Escape")
	fs.BoolVar(&onContent, "on-content", false, "Backdrop click landed on the modal content")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickview close [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parseFlags(fs, args)

	body := map[string]any{}
	if reason != "" {
		body["reason"] = reason
	}
	if key != "" {
		body["key"] = key
	}
	if onContent {
		body["on_content"] = true
	}

	var view quickview.View
	if err := doRequest(http.MethodPost, "/quickview/close", body, &view); err != nil {
		fatal("Failed to close: %v", err)
	}

	if view.Visible {
		printInfo("Quickview still open (%s)", view.State)
	} else {
		printSuccess("Quickview closed")
	}
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

// apiError is the server's error envelope.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.Status, e.Code, e.Message)
}

func doRequest(method, path string, body, out any) error {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, serverURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if verbose {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if verbose {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Message == "" {
		return &apiError{Status: status, Message: strings.TrimSpace(string(body))}
	}
	return &apiError{Status: status, Code: env.Error.Code, Message: env.Error.Message}
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printView(v quickview.View) {
	if quiet {
		if v.VariantID != 0 {
			fmt.Println(v.VariantID)
		}
		return
	}

	fmt.Printf("  State: %s%s%s\n", colorCyan, v.State, colorReset)
	if !v.Visible {
		return
	}
	fmt.Printf("  %s%s%s (%s)\n", colorBold, v.Title, colorReset, v.Handle)
	fmt.Printf("  Price: %s%s%s\n", colorGreen, v.PriceText, colorReset)
	if v.Description != "" {
		fmt.Printf("  %s%s%s\n", colorGray, v.Description, colorReset)
	}
	for _, o := range v.Options {
		values := make([]string, len(o.Values))
		for i, val := range o.Values {
			if val == o.Selected {
				val = colorBold + "[" + val + "]" + colorReset
			}
			values[i] = val
		}
		fmt.Printf("  %s: %s\n", o.Name, strings.Join(values, " "))
	}

	availability := colorGreen + "available" + colorReset
	if !v.Available {
		availability = colorRed + "unavailable" + colorReset
	}
	fmt.Printf("  Variant: %s%d%s (%s)\n", colorCyan, v.VariantID, colorReset, availability)

	if v.StatusVisible {
		printInfo("%s", v.Status)
	}
}

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}
	fmt.Println(prefix + pretty.String())
}

func printSuccess(format string, args ...any) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printError(format string, args ...any) {
	fmt.Printf("%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
}

func printWarning(format string, args ...any) {
	if !quiet {
		fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
	}
}

func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
