package firefly

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const sampleImageResponse = `{"size":{"width":2048,"height":2048},"outputs":[{"seed":1779323515,"image":{"url":"https://example/asdf"}}],"contentClass":"art"}`

// fakeService serves the token and generation endpoints and records what it
// received.
type fakeService struct {
	srv *httptest.Server

	tokenCalls    atomic.Int32
	generateCalls atomic.Int32

	mu           sync.Mutex
	tokenStatus  int
	tokenBody    string
	genStatus    int
	genBody      string
	lastForm     url.Values
	lastHeaders  http.Header
	lastGenBody  map[string]any
	tokenHandler http.HandlerFunc
	order        []string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"access_token":"test_token","expires_in":3600}`,
		genStatus:   http.StatusOK,
		genBody:     sampleImageResponse,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ims/token/v3", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		f.mu.Lock()
		f.order = append(f.order, OpToken)
		h := f.tokenHandler
		f.mu.Unlock()
		if h != nil {
			h(w, r)
			return
		}
		_ = r.ParseForm()
		f.mu.Lock()
		f.lastForm = r.PostForm
		status, body := f.tokenStatus, f.tokenBody
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/v3/images/generate", func(w http.ResponseWriter, r *http.Request) {
		f.generateCalls.Add(1)
		b, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		f.mu.Lock()
		f.order = append(f.order, OpGenerate)
		f.lastHeaders = r.Header.Clone()
		f.lastGenBody = m
		status, body := f.genStatus, f.genBody
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) setToken(status int, body string) {
	f.mu.Lock()
	f.tokenStatus, f.tokenBody = status, body
	f.mu.Unlock()
}

func (f *fakeService) setGenerate(status int, body string) {
	f.mu.Lock()
	f.genStatus, f.genBody = status, body
	f.mu.Unlock()
}

// calls returns the endpoints hit so far, in arrival order.
func (f *fakeService) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *fakeService) config() Config {
	return Config{
		ClientID:     "dummy_id",
		ClientSecret: "dummy_secret",
		TokenURL:     f.srv.URL + "/ims/token/v3",
		GenerateURL:  f.srv.URL + "/v3/images/generate",
		HTTPClient:   f.srv.Client(),
	}
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}
