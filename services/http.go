package services

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"newsletter-backend/models"
)

// NewHTTPClient returns a client with a bounded connect phase and a
// bounded wait for response headers.
func NewHTTPClient(connect, read time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: read,
		MaxIdleConns:          50,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: connect + read}
}

// readBody returns at most 2KB of a response body for logging.
func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return strings.TrimSpace(string(b))
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func (e *statusError) Unwrap() error { return models.ErrUpstreamError }
