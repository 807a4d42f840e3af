package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxBodyBytes caps how much of a response body is buffered.
const MaxBodyBytes = 16 << 20

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode <= 299
}

// Do sends a single HTTP request with a buffered body and reads the whole
// response. It never retries. A non-2xx status is not an error here; callers
// inspect StatusCode.
func Do(ctx context.Context, client *http.Client, method, url string, body []byte, headers http.Header) (*Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	if headers != nil {
		req.Header = headers.Clone()
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := readBody(resp.Body, MaxBodyBytes)
	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       b,
		Duration:   time.Since(start),
	}
	if err != nil {
		return out, &ReadError{Cause: err}
	}
	return out, nil
}

// readBody reads at most limit bytes and fails when r holds more.
func readBody(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return b, err
	}
	if int64(len(b)) > limit {
		return b[:limit], fmt.Errorf("body exceeds %d bytes", limit)
	}
	return b, nil
}

// ReadError is returned when the response headers arrived but the body could
// not be read in full.
type ReadError struct {
	Cause error
}

func (e *ReadError) Error() string { return "read response body: " + e.Cause.Error() }

func (e *ReadError) Unwrap() error { return e.Cause }
