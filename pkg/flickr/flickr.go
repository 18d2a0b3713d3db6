// Package flickr implements the subset of the legacy Flickr API the uploader
// needs: frob/token authorization, MD5 request signing, and the multipart
// photo upload endpoint.
package flickr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// Default service endpoints.
const (
	DefaultRestURL   = "https://api.flickr.com/services/rest/"
	DefaultAuthURL   = "https://www.flickr.com/services/auth/"
	DefaultUploadURL = "https://up.flickr.com/services/upload/"
)

// Config holds API credentials and endpoint overrides.
type Config struct {
	APIKey    string
	APISecret string

	// Endpoint overrides, used by tests. Empty means the public service.
	RestURL   string
	AuthURL   string
	UploadURL string
}

// Client is a legacy Flickr API client. It is safe for concurrent use once
// the auth token is set.
type Client struct {
	log   logrus.FieldLogger
	cfg   *Config
	http  *http.Client
	token string
}

// New creates a Flickr client from the given configuration.
func New(log logrus.FieldLogger, cfg *Config) *Client {
	if cfg.RestURL == "" {
		cfg.RestURL = DefaultRestURL
	}

	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}

	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}

	return &Client{
		log:  log.WithField("component", "flickr"),
		cfg:  cfg,
		http: &http.Client{},
	}
}

// SetToken installs the auth token used for signed calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the installed auth token.
func (c *Client) Token() string {
	return c.token
}

// call performs a signed REST method call and returns the parsed envelope.
// A non-ok stat is returned as an error.
func (c *Client) call(ctx context.Context, method string, args map[string]string) (*Rsp, error) {
	params := map[string]string{
		"api_key": c.cfg.APIKey,
		"method":  method,
	}
	for k, v := range args {
		params[k] = v
	}

	params["api_sig"] = c.sign(params)

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.RestURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", method, err)
	}

	rsp, err := ParseRsp(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	if !rsp.OK() {
		return nil, fmt.Errorf("%s: %w", method, rsp.ServiceError())
	}

	return rsp, nil
}
