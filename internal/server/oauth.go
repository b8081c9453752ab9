// package server implements the local HTTP callback endpoint for OAuth authorization flows.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the OAuth2 redirect endpoint for the authorization code flow.
//
// It validates the state parameter, exchanges the authorization code for a
// token, and delivers exactly one [OAuthResult] through [OAuthHandler.Result].
type OAuthHandler struct {
	config *oauth2.Config
	state  string

	mu       sync.Mutex
	consumed bool
	result   chan OAuthResult
}

// NewOAuthHandler creates a handler for the given OAuth2 config and state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config: config,
		state:  state,
		result: make(chan OAuthResult, 1),
	}
}

// Result returns the channel that receives the single flow outcome.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}

// ServeHTTP handles the OAuth callback request on /callback.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/callback" {
		http.NotFound(w, r)
		return
	}

	h.mu.Lock()
	if h.consumed {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.consumed = true
	h.mu.Unlock()

	query := r.URL.Query()

	if query.Get("state") != h.state {
		h.deliver(OAuthResult{err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization failed: %s - %s", query.Get("error"), query.Get("error_description"))
		h.deliver(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.deliver(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.deliver(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}

// deliver sends the result and closes the channel; safe to call once per handler.
func (h *OAuthHandler) deliver(result OAuthResult) {
	h.result <- result
	close(h.result)
}

const callbackPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
