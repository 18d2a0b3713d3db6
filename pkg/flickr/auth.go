package flickr

import (
	"context"
	"fmt"
	"net/url"
)

// GetFrob requests a one-time frob used to start the authorization flow.
func (c *Client) GetFrob(ctx context.Context) (string, error) {
	rsp, err := c.call(ctx, "flickr.auth.getFrob", nil)
	if err != nil {
		return "", err
	}

	if rsp.Frob == "" {
		return "", fmt.Errorf("flickr.auth.getFrob: response contains no frob")
	}

	return rsp.Frob, nil
}

// AuthorizeURL builds the signed URL the user must open in a browser to
// grant the requested permission level ("read", "write" or "delete").
func (c *Client) AuthorizeURL(frob, perms string) string {
	args := map[string]string{
		"api_key": c.cfg.APIKey,
		"frob":    frob,
		"perms":   perms,
	}

	query := url.Values{}
	for k, v := range args {
		query.Set(k, v)
	}

	query.Set("api_sig", c.sign(args))

	return c.cfg.AuthURL + "?" + query.Encode()
}

// GetToken exchanges a browser-confirmed frob for an auth token.
func (c *Client) GetToken(ctx context.Context, frob string) (*Auth, error) {
	rsp, err := c.call(ctx, "flickr.auth.getToken", map[string]string{"frob": frob})
	if err != nil {
		return nil, err
	}

	if rsp.Auth == nil || rsp.Auth.Token == "" {
		return nil, fmt.Errorf("flickr.auth.getToken: response contains no token")
	}

	return rsp.Auth, nil
}

// CheckToken verifies that a cached token is still valid and returns the
// account it is bound to.
func (c *Client) CheckToken(ctx context.Context, token string) (*Auth, error) {
	rsp, err := c.call(ctx, "flickr.auth.checkToken", map[string]string{"auth_token": token})
	if err != nil {
		return nil, err
	}

	if rsp.Auth == nil || rsp.Auth.Token == "" {
		return nil, fmt.Errorf("flickr.auth.checkToken: response contains no token")
	}

	return rsp.Auth, nil
}
