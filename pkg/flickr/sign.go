package flickr

import (
	"crypto/md5" //nolint:gosec // mandated by the legacy Flickr signing scheme
	"encoding/hex"
	"sort"
	"strings"
)

// sign computes the legacy api_sig for a set of request arguments:
// the MD5 hex digest of the shared secret followed by every key/value pair
// concatenated in ascending key order. This is a wire-format constant of the
// pre-OAuth Flickr API, not a security mechanism chosen here.
func (c *Client) sign(args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.cfg.APISecret)

	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(args[k])
	}

	sum := md5.Sum([]byte(b.String())) //nolint:gosec // see above

	return hex.EncodeToString(sum[:])
}
