package flickr

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// UploadOptions control a single photo upload.
type UploadOptions struct {
	// Tags is the space/comma separated tag string applied to the photo.
	Tags string
	// IsPublic marks the photo public instead of private.
	IsPublic bool
	// Timeout bounds the whole upload call. Zero means no deadline.
	Timeout time.Duration
}

// Upload posts one file to the upload endpoint as multipart/form-data and
// returns the raw response body. The error covers transport-level problems
// only; the body may still describe a service-side rejection and must be
// interpreted by the caller.
func (c *Client) Upload(ctx context.Context, path string, opts *UploadOptions) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)

		defer cancel()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	public := "0"
	if opts.IsPublic {
		public = "1"
	}

	fields := map[string]string{
		"api_key":    c.cfg.APIKey,
		"auth_token": c.token,
		"tags":       opts.Tags,
		"is_public":  public,
	}
	fields["api_sig"] = c.sign(fields)

	// Stream the multipart body so a 20 MB photo is never held in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadBody(mw, fields, filepath.Base(path), f)
		if err != nil {
			_ = pw.CloseWithError(err)

			return
		}

		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, pr)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upload response for %s: %w", path, err)
	}

	return body, nil
}

// writeUploadBody writes the signed form fields followed by the photo part.
func writeUploadBody(mw *multipart.Writer, fields map[string]string, filename string, photo io.Reader) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("writing field %s: %w", k, err)
		}
	}

	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return fmt.Errorf("creating photo part: %w", err)
	}

	if _, err := io.Copy(part, photo); err != nil {
		return fmt.Errorf("copying photo data: %w", err)
	}

	return nil
}
