package firefly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bitop-dev/firefly/internal/httpx"
	"golang.org/x/sync/singleflight"
)

const (
	// Scope is requested on every client-credentials exchange.
	Scope = "openid,AdobeID,session,additional_info,read_organizations,firefly_api,ff_apis"

	// TokenSafetyMargin is subtracted from the token expiry; a cached token is
	// only reused while now < expiry - TokenSafetyMargin.
	TokenSafetyMargin = 60 * time.Second

	defaultTokenLifetime = 3600 * time.Second
	maxTokenLifetime     = 365 * 24 * time.Hour
)

// Authenticator exchanges a client id and secret for a bearer token using the
// OAuth 2.0 client-credentials grant and caches the token until it is within
// TokenSafetyMargin of expiry.
//
// Token is safe for concurrent use. Concurrent callers that find the cache
// stale share a single exchange.
type Authenticator struct {
	clientID     string
	clientSecret string
	tokenURL     string
	timeout      time.Duration
	httpClient   *http.Client
	clock        func() time.Time
	logger       *slog.Logger
	observer     Observer

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	refresh singleflight.Group
}

// NewAuthenticator builds an Authenticator from the credential and transport
// fields of cfg. Unset fields take the same defaults as NewClient.
func NewAuthenticator(cfg Config) *Authenticator {
	cfg = normalizeConfig(cfg)
	return &Authenticator{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		timeout:      cfg.Timeout,
		httpClient:   cfg.HTTPClient,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		observer:     cfg.Observer,
	}
}

// Token returns a bearer token, fetching a new one from the identity provider
// when the cached token is missing or about to expire. Failures are returned
// as *AuthError with Op == OpToken and leave the cache untouched.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	if tok, ok := a.cached(); ok {
		a.logger.DebugContext(ctx, "using cached access token")
		return tok, nil
	}

	v, err, _ := a.refresh.Do("token", func() (any, error) {
		// Another caller may have refreshed while we waited on the flight.
		if tok, ok := a.cached(); ok {
			return tok, nil
		}
		now := a.clock()
		tok, exp, err := a.fetch(ctx, now)
		if err != nil {
			return "", err
		}
		a.mu.Lock()
		a.token, a.expiresAt = tok, exp
		a.mu.Unlock()
		a.logger.DebugContext(ctx, "access token refreshed", "expires_at", exp)
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Expiry returns the absolute expiry of the cached token, or the zero time
// when nothing is cached.
func (a *Authenticator) Expiry() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expiresAt
}

// Invalidate drops the cached token so the next Token call performs a fresh
// exchange.
func (a *Authenticator) Invalidate() {
	a.mu.Lock()
	a.token, a.expiresAt = "", time.Time{}
	a.mu.Unlock()
}

func (a *Authenticator) cached() (string, bool) {
	a.mu.Lock()
	tok, exp := a.token, a.expiresAt
	a.mu.Unlock()
	if tok == "" {
		return "", false
	}
	return tok, a.clock().Before(exp.Add(-TokenSafetyMargin))
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
}

// tokenLifetime reads expires_in, which some identity providers send as a
// quoted string. Absent or null means defaultTokenLifetime; the result is
// clamped to [0, maxTokenLifetime].
func tokenLifetime(raw json.RawMessage) (time.Duration, error) {
	v := strings.TrimSpace(string(raw))
	if v == "" || v == "null" {
		return defaultTokenLifetime, nil
	}
	if uq, err := strconv.Unquote(v); err == nil {
		v = strings.TrimSpace(uq)
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expires_in %s", raw)
	}
	switch {
	case secs <= 0:
		return 0, nil
	case secs >= int64(maxTokenLifetime/time.Second):
		return maxTokenLifetime, nil
	}
	return time.Duration(secs) * time.Second, nil
}

func (a *Authenticator) fetch(ctx context.Context, now time.Time) (string, time.Time, error) {
	fail := func(status int, body []byte, cause error) (string, time.Time, error) {
		return "", time.Time{}, &AuthError{Op: OpToken, URL: a.tokenURL, StatusCode: status, Body: body, Cause: cause}
	}
	if a.clientID == "" || a.clientSecret == "" {
		return fail(0, nil, errors.New("client id and client secret are required"))
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)
	form.Set("scope", Scope)

	h := make(http.Header)
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Set("Accept", "application/json")

	ctx, cancel := applyTimeout(ctx, a.timeout)
	defer cancel()

	a.logger.DebugContext(ctx, "requesting access token", "url", a.tokenURL)
	resp, err := httpx.Do(ctx, a.httpClient, http.MethodPost, a.tokenURL, []byte(form.Encode()), h)
	a.observer.notify(responseInfo(OpToken, http.MethodPost, a.tokenURL, resp, err))
	if err != nil {
		var status int
		if resp != nil {
			status = resp.StatusCode
		}
		return fail(status, nil, err)
	}
	if !resp.OK() {
		return fail(resp.StatusCode, resp.Body, nil)
	}

	var parsed tokenResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return fail(resp.StatusCode, resp.Body, err)
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return fail(resp.StatusCode, resp.Body, errors.New("response has no access_token"))
	}

	lifetime, err := tokenLifetime(parsed.ExpiresIn)
	if err != nil {
		return fail(resp.StatusCode, resp.Body, err)
	}
	return parsed.AccessToken, now.Add(lifetime), nil
}

func responseInfo(op, method, u string, resp *httpx.Response, err error) ResponseInfo {
	info := ResponseInfo{Op: op, Method: method, URL: u, Err: err}
	if resp != nil {
		info.StatusCode = resp.StatusCode
		info.Bytes = len(resp.Body)
		info.Duration = resp.Duration
	}
	return info
}
