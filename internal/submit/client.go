package submit

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"qrquad/internal/utils"
)

// DefaultTimeout bounds connect, handshake and response read.
const DefaultTimeout = 15 * time.Second

const maxResponseBody = 4 << 10

// ErrSubmitFailed matches every submission failure: bad URL, transport error,
// timeout or non-2xx status are not told apart.
var ErrSubmitFailed = &utils.CustomError{Kind: utils.KindSubmitFailed}

// Submitter sends one Submission.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// Client posts submissions as JSON over TLS 1.2 or newer.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

type clientOptions struct {
	timeout time.Duration
	rootCAs *x509.CertPool
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithRootCAs replaces the trust roots used to verify the endpoint.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(o *clientOptions) { o.rootCAs = pool }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient builds a Client whose transport refuses anything older than TLS 1.2.
func NewClient(opts ...Option) *Client {
	o := clientOptions{timeout: DefaultTimeout, logger: utils.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	dialer := &net.Dialer{Timeout: o.timeout}
	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    o.rootCAs,
		},
		TLSHandshakeTimeout:   o.timeout,
		ResponseHeaderTimeout: o.timeout,
		MaxIdleConns:          2,
		IdleConnTimeout:       30 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			// Covers reading the body as well as the headers.
			Timeout: 2 * o.timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if req.URL.Scheme != "https" {
					return fmt.Errorf("redirect to non-https url %s", req.URL.Redacted())
				}
				return nil
			},
		},
		logger: o.logger,
	}
}

// Submit posts sub once. Any failure is returned wrapped in ErrSubmitFailed.
func (c *Client) Submit(ctx context.Context, sub Submission) error {
	u, err := url.Parse(sub.URL)
	if err != nil {
		return utils.Wrap(utils.KindSubmitFailed, "invalid url", err)
	}
	if u.Scheme != "https" {
		return utils.New(utils.KindSubmitFailed, "refusing non-https url "+u.Redacted())
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return utils.Wrap(utils.KindSubmitFailed, "encode payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return utils.Wrap(utils.KindSubmitFailed, "build request", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.Wrap(utils.KindSubmitFailed, "post", err)
	}
	defer resp.Body.Close()
	reply, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return utils.New(utils.KindSubmitFailed, fmt.Sprintf("server returned status %d", resp.StatusCode))
	}
	c.logger.Debug("submission accepted", "request_id", requestID, "status", resp.StatusCode, "reply", string(reply))
	return nil
}
