package firefly

// Option sets an optional field of a GenerateImageRequest.
type Option func(*GenerateImageRequest)

// WithNumVariations sets how many images to generate, between MinVariations and MaxVariations.
func WithNumVariations(n int) Option {
	return func(r *GenerateImageRequest) { r.NumVariations = n }
}

// WithStyle sets the style descriptor object.
func WithStyle(style map[string]any) Option {
	return func(r *GenerateImageRequest) { r.Style = style }
}

// WithStructure sets the structure reference object.
func WithStructure(structure map[string]any) Option {
	return func(r *GenerateImageRequest) { r.Structure = structure }
}

// WithPromptBiasingLocaleCode biases the prompt toward a locale such as "en-US".
func WithPromptBiasingLocaleCode(code string) Option {
	return func(r *GenerateImageRequest) { r.PromptBiasingLocaleCode = code }
}

// WithNegativePrompt describes what the image should avoid.
func WithNegativePrompt(prompt string) Option {
	return func(r *GenerateImageRequest) { r.NegativePrompt = prompt }
}

// WithSeed fixes the seed for reproducible output. Zero is a valid seed.
func WithSeed(seed int64) Option {
	return func(r *GenerateImageRequest) { r.Seed = &seed }
}

// WithAspectRatio sets the aspect ratio, e.g. "16:9".
func WithAspectRatio(ratio string) Option {
	return func(r *GenerateImageRequest) { r.AspectRatio = ratio }
}

// WithOutputFormat sets the requested image format.
func WithOutputFormat(format string) Option {
	return func(r *GenerateImageRequest) { r.OutputFormat = format }
}

// WithContentClass sets ContentClassPhoto or ContentClassArt.
func WithContentClass(class string) Option {
	return func(r *GenerateImageRequest) { r.ContentClass = class }
}

// WithExtra adds a field that is sent verbatim. Later calls with the same key
// win.
func WithExtra(key string, value any) Option {
	return func(r *GenerateImageRequest) {
		if r.Extra == nil {
			r.Extra = map[string]any{}
		}
		r.Extra[key] = value
	}
}
