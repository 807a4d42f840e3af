package firefly

import (
	"encoding/json"

	"github.com/bitop-dev/firefly/internal/schema"
)

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Image struct {
	URL string `json:"url"`
}

// Output is one generated variation.
type Output struct {
	Seed  int64 `json:"seed"`
	Image Image `json:"image"`
}

// ImageResponse is the typed result of a successful generation call. The raw
// body is kept for fields this package does not model.
type ImageResponse struct {
	Size         Size
	Outputs      []Output
	ContentClass string // empty when the service did not echo one

	// Info describes the HTTP exchange that produced this response.
	Info ResponseInfo

	raw json.RawMessage
}

// Raw returns a copy of the response body exactly as received.
func (r *ImageResponse) Raw() json.RawMessage {
	if r == nil {
		return nil
	}
	return append(json.RawMessage(nil), r.raw...)
}

// JSON decodes the raw body into a generic map.
func (r *ImageResponse) JSON() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(r.Raw(), &m); err != nil {
		return nil, err
	}
	return m, nil
}

type imageResponseBody struct {
	Size         Size     `json:"size"`
	Outputs      []Output `json:"outputs"`
	ContentClass string   `json:"contentClass,omitempty"`
}

// parseImageResponse builds an ImageResponse or fails as a whole; it never
// returns a partially populated result.
func parseImageResponse(raw []byte) (*ImageResponse, error) {
	if err := schema.ValidateImageResponse(raw); err != nil {
		return nil, err
	}
	var body imageResponseBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return &ImageResponse{
		Size:         body.Size,
		Outputs:      body.Outputs,
		ContentClass: body.ContentClass,
		raw:          append(json.RawMessage(nil), raw...),
	}, nil
}
