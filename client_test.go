package firefly

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/bitop-dev/firefly/internal/httpx"
)

func TestGenerateImage_Success(t *testing.T) {
	f := newFakeService(t)
	c := NewClient(f.config())

	resp, err := c.GenerateImage(context.Background(), GenerateImageRequest{Prompt: "a cat coding"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Size.Width != 2048 || resp.Size.Height != 2048 {
		t.Fatalf("size=%+v", resp.Size)
	}
	if resp.ContentClass != "art" {
		t.Fatalf("contentClass=%q", resp.ContentClass)
	}
	if len(resp.Outputs) != 1 {
		t.Fatalf("outputs=%d", len(resp.Outputs))
	}
	if resp.Outputs[0].Seed != 1779323515 || resp.Outputs[0].Image.URL != "https://example/asdf" {
		t.Fatalf("output=%+v", resp.Outputs[0])
	}
	if string(resp.Raw()) != sampleImageResponse {
		t.Fatalf("raw=%s", resp.Raw())
	}
	if c.LastResponse() != resp {
		t.Fatalf("LastResponse not updated")
	}
	if f.tokenCalls.Load() != 1 || f.generateCalls.Load() != 1 {
		t.Fatalf("calls token=%d generate=%d", f.tokenCalls.Load(), f.generateCalls.Load())
	}
	if resp.Info.Op != OpGenerate || resp.Info.StatusCode != http.StatusOK || resp.Info.Bytes != len(sampleImageResponse) {
		t.Fatalf("info=%+v", resp.Info)
	}
}

func TestGenerateImage_NullContentClass(t *testing.T) {
	f := newFakeService(t)
	f.setGenerate(http.StatusOK, `{"size":{"width":2048,"height":2048},"outputs":[{"seed":7,"image":{"url":"https://example/x"}}],"contentClass":null}`)
	c := NewClient(f.config())

	resp, err := c.Generate(context.Background(), "a cat coding")
	if err != nil {
		t.Fatal(err)
	}
	if resp.ContentClass != "" || len(resp.Outputs) != 1 {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestGenerateImage_OversizedBodyIsReadError(t *testing.T) {
	f := newFakeService(t)
	f.setGenerate(http.StatusOK, string(bytes.Repeat([]byte(" "), httpx.MaxBodyBytes+10)))
	c := NewClient(f.config())

	_, err := c.Generate(context.Background(), "p")
	var ae *APIError
	if !errors.As(err, &ae) || ae.Code != CodeRead {
		t.Fatalf("expected read APIError, got %v", err)
	}
}

func TestGenerateImage_Headers(t *testing.T) {
	f := newFakeService(t)
	c := NewClient(f.config())

	if _, err := c.Generate(context.Background(), "a cat coding"); err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	h := f.lastHeaders
	body := f.lastGenBody
	f.mu.Unlock()
	want := map[string]string{
		"Authorization": "Bearer test_token",
		"X-Api-Key":     "dummy_id",
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Fatalf("%s=%q want %q", k, got, v)
		}
	}
	if len(body) != 1 || body["prompt"] != "a cat coding" {
		t.Fatalf("body=%v", body)
	}
}

func TestGenerateImage_OptionalFieldsOnTheWire(t *testing.T) {
	f := newFakeService(t)
	c := NewClient(f.config())

	_, err := c.Generate(context.Background(), "p",
		WithNumVariations(2),
		WithNegativePrompt("blurry"),
		WithPromptBiasingLocaleCode("en-US"),
		WithAspectRatio("16:9"),
		WithContentClass(ContentClassPhoto),
		WithSeed(0),
		WithExtra("visualIntensity", 4),
	)
	if err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	body := f.lastGenBody
	f.mu.Unlock()
	want := map[string]any{
		"prompt":                  "p",
		"numVariations":           float64(2),
		"negativePrompt":          "blurry",
		"promptBiasingLocaleCode": "en-US",
		"aspectRatio":             "16:9",
		"contentClass":            "photo",
		"seed":                    float64(0),
		"visualIntensity":         float64(4),
	}
	if len(body) != len(want) {
		t.Fatalf("body=%v", body)
	}
	for k, v := range want {
		if body[k] != v {
			t.Fatalf("%s=%v want %v", k, body[k], v)
		}
	}
}

func TestGenerateImage_InvalidContentClassSendsNothing(t *testing.T) {
	f := newFakeService(t)
	c := NewClient(f.config())

	_, err := c.Generate(context.Background(), "p", WithContentClass("painting"))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T %v", err, err)
	}
	if ve.Field != "contentClass" {
		t.Fatalf("field=%q", ve.Field)
	}
	if IsAuthError(err) || IsAPIError(err) {
		t.Fatalf("validation error conflated with server error kinds")
	}
	if f.tokenCalls.Load() != 0 || f.generateCalls.Load() != 0 {
		t.Fatalf("network calls were made")
	}
}

func TestGenerateImage_NumVariationsOutOfRange(t *testing.T) {
	f := newFakeService(t)
	c := NewClient(f.config())

	for _, n := range []int{-1, 5} {
		if _, err := c.Generate(context.Background(), "p", WithNumVariations(n)); !IsValidationError(err) {
			t.Fatalf("n=%d: expected ValidationError, got %v", n, err)
		}
	}
	if f.tokenCalls.Load() != 0 || f.generateCalls.Load() != 0 {
		t.Fatalf("network calls were made")
	}
}

func TestGenerateImage_TokenUnauthorized(t *testing.T) {
	f := newFakeService(t)
	f.setToken(http.StatusUnauthorized, `{"error":"invalid_client"}`)
	c := NewClient(f.config())

	_, err := c.Generate(context.Background(), "fail auth")
	var ae *AuthError
	if !errors.As(err, &ae) || ae.Op != OpToken {
		t.Fatalf("expected token AuthError, got %v", err)
	}
	if f.generateCalls.Load() != 0 {
		t.Fatalf("generation was attempted")
	}
}

func TestGenerateImage_GenerateUnauthorized(t *testing.T) {
	f := newFakeService(t)
	f.setGenerate(http.StatusUnauthorized, `{"error_code":"unauthorized"}`)
	c := NewClient(f.config())

	_, err := c.Generate(context.Background(), "p")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T %v", err, err)
	}
	if ae.Op != OpGenerate || ae.StatusCode != http.StatusUnauthorized {
		t.Fatalf("op=%q status=%d", ae.Op, ae.StatusCode)
	}
	if !strings.Contains(err.Error(), "unauthorized") || strings.Contains(err.Error(), "access token") {
		t.Fatalf("message does not identify the generation endpoint: %v", err)
	}
}

func TestGenerateImage_ServerError(t *testing.T) {
	f := newFakeService(t)
	f.setGenerate(http.StatusInternalServerError, `{"error":"server error"}`)
	c := NewClient(f.config())

	_, err := c.Generate(context.Background(), "fail api")
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected APIError, got %T %v", err, err)
	}
	if ae.Code != CodeHTTPStatus || ae.StatusCode != http.StatusInternalServerError {
		t.Fatalf("code=%q status=%d", ae.Code, ae.StatusCode)
	}
	if !strings.Contains(err.Error(), "server error") {
		t.Fatalf("body missing from message: %v", err)
	}
	if IsAuthError(err) {
		t.Fatalf("500 reported as auth error")
	}
}

func TestGenerateImage_UnexpectedFormat(t *testing.T) {
	cases := map[string]string{
		"unexpected":      `{"unexpected":"format"}`,
		"missing outputs": `{"size":{"width":1,"height":1}}`,
		"missing size":    `{"outputs":[{"seed":1,"image":{"url":"u"}}]}`,
		"bad image":       `{"size":{"width":1,"height":1},"outputs":[{"seed":1,"image":"u"}]}`,
		"bad seed":        `{"size":{"width":1,"height":1},"outputs":[{"seed":"x","image":{"url":"u"}}]}`,
		"not json":        `<html></html>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFakeService(t)
			f.setGenerate(http.StatusOK, body)
			c := NewClient(f.config())

			resp, err := c.Generate(context.Background(), "bad response")
			if resp != nil {
				t.Fatalf("partial result returned")
			}
			var ae *APIError
			if !errors.As(err, &ae) || !IsUnexpectedFormat(err) {
				t.Fatalf("expected unexpected-format APIError, got %v", err)
			}
			if string(ae.Body) != body {
				t.Fatalf("raw body not kept: %q", ae.Body)
			}
			if ae.Cause == nil {
				t.Fatalf("parse cause dropped")
			}
			if c.LastResponse() != nil {
				t.Fatalf("LastResponse set on failure")
			}
		})
	}
}

func TestGenerateImage_TransportFailure(t *testing.T) {
	f := newFakeService(t)
	cfg := f.config()
	cfg.GenerateURL = "http://127.0.0.1:1/unreachable"
	c := NewClient(cfg)

	_, err := c.Generate(context.Background(), "p")
	var ae *APIError
	if !errors.As(err, &ae) || ae.Code != CodeTransport || ae.Cause == nil {
		t.Fatalf("expected transport APIError, got %v", err)
	}
}

func TestGenerateImage_UnencodableExtra(t *testing.T) {
	f := newFakeService(t)
	c := NewClient(f.config())

	_, err := c.Generate(context.Background(), "p", WithExtra("bad", make(chan int)))
	if !IsAPIError(err) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if f.generateCalls.Load() != 0 {
		t.Fatalf("request was sent")
	}
}

func TestGenerateImage_Timeout(t *testing.T) {
	f := newFakeService(t)
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	slow := http.NewServeMux()
	slow.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	cfg := f.config()
	cfg.Timeout = 50 * time.Millisecond
	slowSrv := newServer(t, slow)
	cfg.GenerateURL = slowSrv.URL
	c := NewClient(cfg)

	_, err := c.Generate(context.Background(), "p")
	if !IsAPIError(err) || !IsTimeout(err) {
		t.Fatalf("expected timed out APIError, got %v", err)
	}
}

func TestGenerateImage_RefreshAfterExpiry(t *testing.T) {
	f := newFakeService(t)
	f.setToken(http.StatusOK, `{"access_token":"t1","expires_in":1}`)
	clock := newFakeClock()
	cfg := f.config()
	cfg.Clock = clock.Now
	c := NewClient(cfg)

	if _, err := c.Generate(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if _, err := c.Generate(context.Background(), "second"); err != nil {
		t.Fatal(err)
	}
	want := []string{OpToken, OpGenerate, OpToken, OpGenerate}
	if got := f.calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls=%v want %v", got, want)
	}
}

func TestGenerateImage_ReusesTokenAcrossCalls(t *testing.T) {
	f := newFakeService(t)
	c := NewClient(f.config())

	for i := 0; i < 3; i++ {
		if _, err := c.Generate(context.Background(), "p"); err != nil {
			t.Fatal(err)
		}
	}
	if n := f.tokenCalls.Load(); n != 1 {
		t.Fatalf("token calls=%d", n)
	}
}

func TestGenerateImage_ObserverSeesBothCalls(t *testing.T) {
	f := newFakeService(t)
	var ops []string
	cfg := f.config()
	cfg.Observer = func(info ResponseInfo) { ops = append(ops, info.Op) }
	c := NewClient(cfg)

	if _, err := c.Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 || ops[0] != OpToken || ops[1] != OpGenerate {
		t.Fatalf("ops=%v", ops)
	}
}

func TestImageResponse_JSON(t *testing.T) {
	f := newFakeService(t)
	f.setGenerate(http.StatusOK, `{"size":{"width":1,"height":2},"outputs":[{"seed":3,"image":{"url":"u"}}],"promptHasDeniedWords":false}`)
	c := NewClient(f.config())

	resp, err := c.Generate(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if resp.ContentClass != "" {
		t.Fatalf("contentClass=%q", resp.ContentClass)
	}
	m, err := resp.JSON()
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := m["promptHasDeniedWords"]; !ok || v != false {
		t.Fatalf("unmapped field lost: %v", m)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New("id", "secret", 0)
	cfg := c.Config()
	if cfg.Timeout != DefaultTimeout || cfg.TokenURL != DefaultTokenURL || cfg.GenerateURL != DefaultGenerateURL {
		t.Fatalf("cfg=%+v", cfg)
	}
	if c.Authenticator() == nil {
		t.Fatalf("no authenticator")
	}
}
