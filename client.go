package firefly

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bitop-dev/firefly/internal/httpx"
)

// Production endpoints and the default per-call timeout.
const (
	DefaultTokenURL    = "https://ims-na1.adobelogin.com/ims/token/v3"
	DefaultGenerateURL = "https://firefly-api.adobe.io/v3/images/generate"
	DefaultTimeout     = 30 * time.Second
)

// Config configures a Client. Only ClientID and ClientSecret are required.
type Config struct {
	ClientID     string
	ClientSecret string

	// Timeout bounds each outbound call (token exchange and generation)
	// separately. Zero means DefaultTimeout; negative disables it.
	Timeout time.Duration

	TokenURL    string
	GenerateURL string
	HTTPClient  *http.Client

	Logger   *slog.Logger // nil discards logs
	Observer Observer
	Clock    func() time.Time // used for token expiry; defaults to time.Now
}

func normalizeConfig(cfg Config) Config {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.GenerateURL == "" {
		cfg.GenerateURL = DefaultGenerateURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return cfg
}

// Client calls the image generation endpoint with a bearer token obtained
// from its Authenticator. A Client holds one credential pair.
type Client struct {
	cfg  Config
	auth *Authenticator

	mu   sync.Mutex
	last *ImageResponse
}

// NewClient returns a Client for cfg, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	cfg = normalizeConfig(cfg)
	return &Client{cfg: cfg, auth: NewAuthenticator(cfg)}
}

// New is shorthand for NewClient with only credentials and a timeout.
func New(clientID, clientSecret string, timeout time.Duration) *Client {
	return NewClient(Config{ClientID: clientID, ClientSecret: clientSecret, Timeout: timeout})
}

// Authenticator returns the token cache shared by all calls on c.
func (c *Client) Authenticator() *Authenticator { return c.auth }

// Config returns the normalized configuration.
func (c *Client) Config() Config { return c.cfg }

// LastResponse returns the most recent successful response, or nil.
func (c *Client) LastResponse() *ImageResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Generate builds a request from prompt and opts and calls GenerateImage.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...Option) (*ImageResponse, error) {
	req := GenerateImageRequest{Prompt: prompt}
	for _, opt := range opts {
		opt(&req)
	}
	return c.GenerateImage(ctx, req)
}

// GenerateImage validates req, obtains a token, and performs one generation
// call.
//
// Errors are *ValidationError (nothing was sent), *AuthError (token exchange
// failed, or the endpoint answered 401), or *APIError (any other failure).
func (c *Client) GenerateImage(ctx context.Context, req GenerateImageRequest) (*ImageResponse, error) {
	body, err := req.Body()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &APIError{Code: CodeTransport, URL: c.cfg.GenerateURL, Cause: err}
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	h.Set("x-api-key", c.cfg.ClientID)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")

	ctx, cancel := applyTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := c.cfg.GenerateURL
	c.cfg.Logger.DebugContext(ctx, "sending generation request", "url", u, "bytes", len(payload))
	resp, err := httpx.Do(ctx, c.cfg.HTTPClient, http.MethodPost, u, payload, h)
	info := responseInfo(OpGenerate, http.MethodPost, u, resp, err)
	c.cfg.Observer.notify(info)
	if err != nil {
		var re *httpx.ReadError
		if errors.As(err, &re) && resp != nil {
			return nil, &APIError{Code: CodeRead, URL: u, StatusCode: resp.StatusCode, Cause: err}
		}
		return nil, &APIError{Code: CodeTransport, URL: u, Cause: err}
	}
	c.cfg.Logger.DebugContext(ctx, "generation response received", "status", resp.StatusCode, "bytes", len(resp.Body))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Op: OpGenerate, URL: u, StatusCode: resp.StatusCode, Body: resp.Body}
	case !resp.OK():
		return nil, &APIError{Code: CodeHTTPStatus, URL: u, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	out, err := parseImageResponse(resp.Body)
	if err != nil {
		return nil, &APIError{Code: CodeUnexpectedFormat, URL: u, StatusCode: resp.StatusCode, Body: resp.Body, Cause: err}
	}
	out.Info = info

	c.mu.Lock()
	c.last = out
	c.mu.Unlock()
	return out, nil
}
