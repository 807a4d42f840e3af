package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed image_response.json
var imageResponseSchema []byte

var compileImageResponse = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compile("image_response.json", imageResponseSchema)
})

func compile(name string, schemaJSON []byte) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("schema resource: %w", err)
	}
	s, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}

// ValidateImageResponse checks that raw has the shape of an image generation
// response: a positive size, one or more outputs each with a seed and an
// image URL, and an optional contentClass that may be null. Unknown fields are allowed.
func ValidateImageResponse(raw json.RawMessage) error {
	s, err := compileImageResponse()
	if err != nil {
		return err
	}
	return validateDoc(s, raw)
}

func validateDoc(s *jsonschema.Schema, raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("empty json")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return s.Validate(doc)
}
