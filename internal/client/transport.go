package client

import (
	"net/http"
)

// tokenTransport adds the bearer access token to every request except the
// token endpoints themselves.
type tokenTransport struct {
	base   http.RoundTripper
	tokens *TokenManager
}

var publicPaths = map[string]bool{
	"/api/token":         true,
	"/api/token/refresh": true,
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if publicPaths[req.URL.Path] {
		return t.base.RoundTrip(req)
	}

	token := t.tokens.AccessToken()
	if token == "" {
		return t.base.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(req)
}
