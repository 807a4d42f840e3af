// Package firefly is a client for the Adobe Firefly image generation API.
//
// A Client authenticates with Adobe IMS using the OAuth 2.0 client-credentials
// grant, caches the bearer token until shortly before it expires, and maps
// generation responses into typed values:
//
//	c := firefly.New(clientID, clientSecret, 30*time.Second)
//	resp, err := c.Generate(ctx, "a cat coding", firefly.WithContentClass(firefly.ContentClassArt))
//	if firefly.IsAuthError(err) {
//		// re-check credentials
//	}
//
// Nothing is retried; every failure is returned as a *ValidationError,
// *AuthError, or *APIError.
package firefly
