// Package transport builds the HTTP round trippers used for storefront requests.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// =============================================================================
// STOREFRONT TLS FINGERPRINT
// =============================================================================
//
// Storefront endpoints (/products/{handle}.js, /cart/add.js) sit behind the
// platform CDN, which rate-limits clients whose TLS handshake does not look
// like a browser. Go's crypto/tls has a distinctive JA3 fingerprint.
//
// With Fingerprint enabled the transport dials with uTLS (HelloChrome_Auto),
// lets ALPN pick h2 or http/1.1, and frames h2 with x/net/http2. Hosts
// that answer http/1.1 are remembered and served by an HTTP/1.1 transport.
// Without it a plain http.Transport is used (local stores, tests).
// =============================================================================

// Options configures New.
type Options struct {
	// DialTimeout bounds TCP connect + TLS handshake.
	DialTimeout time.Duration

	// Fingerprint presents a Chrome TLS ClientHello.
	Fingerprint bool
}

// New returns a RoundTripper for storefront requests.
func New(opts Options) http.RoundTripper {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 30 * time.Second
	}
	if !opts.Fingerprint {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DialContext = (&net.Dialer{Timeout: opts.DialTimeout}).DialContext
		t.TLSHandshakeTimeout = opts.DialTimeout
		return t
	}
	return newChromeTransport(opts.DialTimeout)
}

func newChromeTransport(timeout time.Duration) *chromeTransport {
	dialer := &net.Dialer{Timeout: timeout}

	t := &chromeTransport{}
	t.h2 = &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return t.dialH2(ctx, dialer, network, addr)
		},
	}
	t.h1 = &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialChromeTLS(ctx, dialer, network, addr)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return t
}

// errNoH2 reports that ALPN settled on something other than h2.
var errNoH2 = errors.New("server did not negotiate h2")

// dialError marks a failure that happened before any request bytes were sent.
type dialError struct {
	err error
}

func (e *dialError) Error() string { return e.err.Error() }
func (e *dialError) Unwrap() error { return e.err }

// chromeTransport speaks h2 and falls back to HTTP/1.1 for hosts that refuse it.
type chromeTransport struct {
	h2 http.RoundTripper
	h1 http.RoundTripper

	// h1Hosts remembers hosts whose ALPN answer was not h2.
	h1Hosts sync.Map
}

// RoundTrip implements http.RoundTripper.
// Plain-http URLs skip the TLS path entirely.
//
// The HTTP/1.1 fallback runs only when the h2 attempt failed while
// connecting, so a request is never sent twice. Failures after that point
// (stream resets, broken responses) are returned as they are.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}
	if _, ok := t.h1Hosts.Load(hostPort(req.URL)); ok {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil || !beforeSend(err) {
		return resp, err
	}

	// The failed attempt may have taken ownership of the body.
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, err
		}
		body, gerr := req.GetBody()
		if gerr != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Body = body
	}
	return t.h1.RoundTrip(req)
}

// dialH2 dials with the Chrome fingerprint and insists on h2. A host that
// answers anything else is remembered for HTTP/1.1.
func (t *chromeTransport) dialH2(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	conn, err := dialChromeTLS(ctx, dialer, network, addr)
	if err != nil {
		return nil, &dialError{err: err}
	}
	if p := conn.ConnectionState().NegotiatedProtocol; p != http2.NextProtoTLS {
		conn.Close()
		t.h1Hosts.Store(addr, struct{}{})
		return nil, &dialError{err: fmt.Errorf("%w (got %q)", errNoH2, p)}
	}
	return conn, nil
}

// hostPort returns u's host with the port the dialer will use.
func hostPort(u *url.URL) string {
	if port := u.Port(); port != "" {
		return u.Host
	}
	return net.JoinHostPort(u.Hostname(), "443")
}

// beforeSend reports whether err came from connection setup.
func beforeSend(err error) bool {
	var de *dialError
	return errors.As(err, &de)
}

// dialChromeTLS establishes a TLS connection with Chrome's fingerprint.
func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (*utls.UConn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
