package firefly

import (
	"fmt"
	"strings"
)

// Content classes accepted by the service.
const (
	ContentClassPhoto = "photo"
	ContentClassArt   = "art"
)

// Inclusive bounds for GenerateImageRequest.NumVariations.
const (
	MinVariations = 1
	MaxVariations = 4
)

// GenerateImageRequest holds the parameters of one generation call. Only
// Prompt is required; zero-valued optional fields are omitted from the
// request body so the service applies its defaults.
type GenerateImageRequest struct {
	Prompt string

	NumVariations           int
	Style                   map[string]any
	Structure               map[string]any
	PromptBiasingLocaleCode string
	NegativePrompt          string
	Seed                    *int64
	AspectRatio             string
	OutputFormat            string
	ContentClass            string

	// Extra is merged into the body verbatim for fields this package does not
	// model yet. Keys may not collide with the fields above.
	Extra map[string]any
}

// Wire names of the request body fields.
const (
	fieldPrompt                  = "prompt"
	fieldNumVariations           = "numVariations"
	fieldStyle                   = "style"
	fieldStructure               = "structure"
	fieldPromptBiasingLocaleCode = "promptBiasingLocaleCode"
	fieldNegativePrompt          = "negativePrompt"
	fieldSeed                    = "seed"
	fieldAspectRatio             = "aspectRatio"
	fieldOutputFormat            = "outputFormat"
	fieldContentClass            = "contentClass"
)

var reservedFields = map[string]bool{
	fieldPrompt:                  true,
	fieldNumVariations:           true,
	fieldStyle:                   true,
	fieldStructure:               true,
	fieldPromptBiasingLocaleCode: true,
	fieldNegativePrompt:          true,
	fieldSeed:                    true,
	fieldAspectRatio:             true,
	fieldOutputFormat:            true,
	fieldContentClass:            true,
}

// Validate checks the request locally. It returns a *ValidationError.
func (r GenerateImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: fieldPrompt, Message: "prompt is required"}
	}
	if r.NumVariations != 0 && (r.NumVariations < MinVariations || r.NumVariations > MaxVariations) {
		return &ValidationError{
			Field:   fieldNumVariations,
			Value:   r.NumVariations,
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinVariations, MaxVariations, r.NumVariations),
		}
	}
	if r.ContentClass != "" && r.ContentClass != ContentClassPhoto && r.ContentClass != ContentClassArt {
		return &ValidationError{
			Field:   fieldContentClass,
			Value:   r.ContentClass,
			Message: fmt.Sprintf("must be %q or %q, got %q", ContentClassPhoto, ContentClassArt, r.ContentClass),
		}
	}
	for k := range r.Extra {
		if k == "" {
			return &ValidationError{Field: "extra", Message: "empty field name"}
		}
		if reservedFields[k] {
			return &ValidationError{Field: "extra", Value: k, Message: fmt.Sprintf("%q is set through a typed field", k)}
		}
	}
	return nil
}

// Body validates the request and returns the JSON body sent to the service.
func (r GenerateImageRequest) Body() (map[string]any, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	body := map[string]any{fieldPrompt: r.Prompt}
	if r.NumVariations != 0 {
		body[fieldNumVariations] = r.NumVariations
	}
	if len(r.Style) > 0 {
		body[fieldStyle] = r.Style
	}
	if len(r.Structure) > 0 {
		body[fieldStructure] = r.Structure
	}
	if r.PromptBiasingLocaleCode != "" {
		body[fieldPromptBiasingLocaleCode] = r.PromptBiasingLocaleCode
	}
	if r.NegativePrompt != "" {
		body[fieldNegativePrompt] = r.NegativePrompt
	}
	if r.Seed != nil {
		body[fieldSeed] = *r.Seed
	}
	if r.AspectRatio != "" {
		body[fieldAspectRatio] = r.AspectRatio
	}
	if r.OutputFormat != "" {
		body[fieldOutputFormat] = r.OutputFormat
	}
	if r.ContentClass != "" {
		body[fieldContentClass] = r.ContentClass
	}
	for k, v := range r.Extra {
		body[k] = v
	}
	return body, nil
}
