package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

// newOAuthConfig points token exchange at a stub token endpoint.
func newOAuthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test_client",
		ClientSecret: "test_secret",
		RedirectURL:  "http://127.0.0.1:8888/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  tokenURL + "/authorize",
			TokenURL: tokenURL + "/token",
		},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Successful Callback", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token": "exchanged_token", "refresh_token": "refresh", "token_type": "Bearer", "expires_in": 3600}`)
		}))
		defer tokenServer.Close()

		handler := NewOAuthHandler(newOAuthConfig(tokenServer.URL), "expected_state")

		req := httptest.NewRequest(http.MethodGet, "/callback?code=auth_code&state=expected_state", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Token == nil || result.Token.AccessToken != "exchanged_token" {
			t.Errorf("unexpected token %+v", result.Token)
		}
	})

	t.Run("Invalid State", func(t *testing.T) {
		handler := NewOAuthHandler(newOAuthConfig("http://127.0.0.1:0"), "expected_state")

		req := httptest.NewRequest(http.MethodGet, "/callback?code=auth_code&state=wrong_state", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected state mismatch error")
		}
	})

	t.Run("Provider Denied", func(t *testing.T) {
		handler := NewOAuthHandler(newOAuthConfig("http://127.0.0.1:0"), "expected_state")

		req := httptest.NewRequest(http.MethodGet,
			"/callback?state=expected_state&error=access_denied&error_description=user+declined", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected authorization error")
		}
	})

	t.Run("Unknown Path", func(t *testing.T) {
		handler := NewOAuthHandler(newOAuthConfig("http://127.0.0.1:0"), "expected_state")

		req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}

		select {
		case <-handler.Result():
			t.Error("unrelated request should not deliver a result")
		default:
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token": "tok", "token_type": "Bearer"}`)
		}))
		defer tokenServer.Close()

		handler := NewOAuthHandler(newOAuthConfig(tokenServer.URL), "expected_state")

		first := httptest.NewRequest(http.MethodGet, "/callback?code=c&state=expected_state", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest(http.MethodGet, "/callback?code=c&state=expected_state", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("replayed callback should be rejected, got %d", rec.Code)
		}
	})
}
