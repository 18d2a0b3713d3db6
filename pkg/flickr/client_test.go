package flickr

import (
	"context"
	"crypto/md5" //nolint:gosec // verifying the legacy signing scheme
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectedSig recomputes the legacy signature for a set of request values.
func expectedSig(secret string, values url.Values) string {
	keys := make([]string, 0, len(values))

	for k := range values {
		if k == "api_sig" {
			continue
		}

		keys = append(keys, k)
	}

	sort.Strings(keys)

	payload := secret
	for _, k := range keys {
		payload += k + values.Get(k)
	}

	sum := md5.Sum([]byte(payload)) //nolint:gosec // see above

	return hex.EncodeToString(sum[:])
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(logrus.New(), &Config{
		APIKey:    "abc123",
		APISecret: "s3cr3t",
		RestURL:   srv.URL + "/services/rest/",
		AuthURL:   srv.URL + "/services/auth/",
		UploadURL: srv.URL + "/services/upload/",
	})
}

func TestGetFrob(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "flickr.auth.getFrob", q.Get("method"))
		assert.Equal(t, "abc123", q.Get("api_key"))
		assert.Equal(t, expectedSig("s3cr3t", q), q.Get("api_sig"))

		fmt.Fprint(w, `<rsp stat="ok"><frob>746563215</frob></rsp>`)
	}))

	frob, err := c.GetFrob(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "746563215", frob)
}

func TestGetFrob_ServiceError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<rsp stat="fail"><err code="100" msg="Invalid API Key"/></rsp>`)
	}))

	_, err := c.GetFrob(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flickr error 100: Invalid API Key")
}

func TestGetToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "flickr.auth.getToken", q.Get("method"))
		assert.Equal(t, "746563215", q.Get("frob"))
		assert.Equal(t, expectedSig("s3cr3t", q), q.Get("api_sig"))

		fmt.Fprint(w, `<rsp stat="ok"><auth><token>tok-1</token><perms>write</perms><user nsid="n" username="u"/></auth></rsp>`)
	}))

	auth, err := c.GetToken(context.Background(), "746563215")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", auth.Token)
	assert.Equal(t, "write", auth.Perms)
	assert.Equal(t, "u", auth.User.Username)
}

func TestCheckToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "flickr.auth.checkToken", q.Get("method"))
		assert.Equal(t, "tok-1", q.Get("auth_token"))

		fmt.Fprint(w, `<rsp stat="ok"><auth><token>tok-1</token><perms>write</perms><user nsid="n" username="u"/></auth></rsp>`)
	}))

	auth, err := c.CheckToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", auth.Token)
}

func TestCheckToken_Invalid(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<rsp stat="fail"><err code="98" msg="Invalid auth token"/></rsp>`)
	}))

	_, err := c.CheckToken(context.Background(), "stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid auth token")
}

func TestAuthorizeURL(t *testing.T) {
	c := New(logrus.New(), &Config{APIKey: "abc123", APISecret: "s3cr3t"})

	raw := c.AuthorizeURL("746563215", "write")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "abc123", q.Get("api_key"))
	assert.Equal(t, "746563215", q.Get("frob"))
	assert.Equal(t, "write", q.Get("perms"))
	assert.Equal(t, expectedSig("s3cr3t", q), q.Get("api_sig"))
	assert.Contains(t, raw, DefaultAuthURL)
}

func TestUpload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			http.Error(w, "bad form", http.StatusBadRequest)

			return
		}

		assert.Equal(t, "abc123", r.FormValue("api_key"))
		assert.Equal(t, "tok-1", r.FormValue("auth_token"))
		assert.Equal(t, "holiday beach", r.FormValue("tags"))
		assert.Equal(t, "1", r.FormValue("is_public"))
		assert.NotEmpty(t, r.FormValue("api_sig"))

		file, header, err := r.FormFile("photo")
		if assert.NoError(t, err) {
			assert.Equal(t, "a.jpg", header.Filename)

			_ = file.Close()
		}

		fmt.Fprint(w, `<rsp stat="ok"><photoid>123</photoid></rsp>`)
	}))
	c.SetToken("tok-1")

	dir := t.TempDir()
	path := dir + "/a.jpg"
	require.NoError(t, writeTestFile(path, []byte("jpeg-bytes")))

	body, err := c.Upload(context.Background(), path, &UploadOptions{
		Tags:     "holiday beach",
		IsPublic: true,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, `<rsp stat="ok"><photoid>123</photoid></rsp>`, string(body))
}

func TestUpload_TransportErrorOnTimeout(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `<rsp stat="ok"/>`)
	}))
	c.SetToken("tok-1")

	dir := t.TempDir()
	path := dir + "/slow.jpg"
	require.NoError(t, writeTestFile(path, []byte("jpeg-bytes")))

	_, err := c.Upload(context.Background(), path, &UploadOptions{
		Timeout: 20 * time.Millisecond,
	})
	assert.Error(t, err)
}

func TestUpload_MissingFile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := c.Upload(context.Background(), t.TempDir()+"/absent.jpg", &UploadOptions{})
	assert.Error(t, err)
}

func TestUpload_RejectionBodyIsReturnedWithoutError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<rsp stat="fail"><err code="5" msg="bad"/></rsp>`)
	}))
	c.SetToken("tok-1")

	dir := t.TempDir()
	path := dir + "/a.jpg"
	require.NoError(t, writeTestFile(path, []byte("jpeg-bytes")))

	body, err := c.Upload(context.Background(), path, &UploadOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(body), `stat="fail"`)
}
