// Package mock provides an offline stand-in for the identity provider, the
// generation endpoint and the image host, for running the CLI without
// credentials.
package mock

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

const (
	ImageURL = "https://developer.adobe.com/firefly-services/docs/static/82044b6fe3cf44ec68c4872f784cd82d/96d48/cat-coding.png"
	Token    = "mock_token"
	Seed     = 123456
)

// 1x1 transparent PNG.
const pngBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// ImageBytes returns the body served for ImageURL.
func ImageBytes() []byte {
	b, _ := base64.StdEncoding.DecodeString(pngBase64)
	return b
}

// Transport answers token, generation and image requests locally. Anything
// else gets a 404.
type Transport struct {
	mu    sync.Mutex
	calls []string
}

func NewClient() *http.Client {
	return &http.Client{Transport: &Transport{}}
}

// Calls returns "METHOD URL" for every request seen, in order.
func (t *Transport) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		_, _ = io.Copy(io.Discard, req.Body)
		_ = req.Body.Close()
	}
	u := req.URL.String()
	t.mu.Lock()
	t.calls = append(t.calls, req.Method+" "+u)
	t.mu.Unlock()

	switch {
	case req.Method == http.MethodPost && strings.HasSuffix(req.URL.Path, "/ims/token/v3"):
		return jsonResponse(req, http.StatusOK, map[string]any{"access_token": Token, "expires_in": 3600}), nil
	case req.Method == http.MethodPost && strings.HasSuffix(req.URL.Path, "/images/generate"):
		return jsonResponse(req, http.StatusOK, map[string]any{
			"size": map[string]any{"width": 1024, "height": 1024},
			"outputs": []any{
				map[string]any{"seed": Seed, "image": map[string]any{"url": ImageURL}},
			},
			"contentClass": "mock-art",
		}), nil
	case req.Method == http.MethodGet && u == ImageURL:
		return response(req, http.StatusOK, "image/png", ImageBytes()), nil
	default:
		return response(req, http.StatusNotFound, "text/plain", []byte("mock: no route for "+req.Method+" "+u)), nil
	}
}

func jsonResponse(req *http.Request, status int, v any) *http.Response {
	b, _ := json.Marshal(v)
	return response(req, status, "application/json", b)
}

func response(req *http.Request, status int, contentType string, body []byte) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
