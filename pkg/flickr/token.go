package flickr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoToken is returned by LoadToken when no token has been cached yet.
var ErrNoToken = errors.New("no cached auth token, run \"uploadoor auth\" first")

// LoadToken reads a cached auth token from path.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}

		return "", fmt.Errorf("reading token file %s: %w", path, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}

	return token, nil
}

// SaveToken writes the auth token to path with owner-only permissions,
// creating parent directories as needed.
func SaveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token file %s: %w", path, err)
	}

	return nil
}
