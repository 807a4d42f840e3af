package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/bitop-dev/firefly/internal/httpx"
)

// downloadImage fetches imageURL into dir, naming the file after the last
// segment of the URL path.
func downloadImage(ctx context.Context, hc *http.Client, imageURL, dir string) (string, int, error) {
	name, err := imageFilename(imageURL)
	if err != nil {
		return "", 0, err
	}
	resp, err := httpx.Do(ctx, hc, http.MethodGet, imageURL, nil, nil)
	if err != nil {
		return "", 0, fmt.Errorf("downloading %s: %w", imageURL, err)
	}
	if !resp.OK() {
		return "", 0, fmt.Errorf("downloading %s: status %d", imageURL, resp.StatusCode)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating %s: %w", dir, err)
	}
	dest := filepath.Join(dir, name)
	if err := os.WriteFile(dest, resp.Body, 0o644); err != nil {
		return "", 0, fmt.Errorf("writing %s: %w", dest, err)
	}
	return dest, len(resp.Body), nil
}

func imageFilename(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("invalid image url %q: %w", imageURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	return name, nil
}
