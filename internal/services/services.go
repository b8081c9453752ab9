// package services defines interface Service for interacting with HTTP catalog APIs
package services

import (
	"context"

	"github.com/desertthunder/spotsync/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the interface for catalog providers that can resolve and export playlists.
//
// The sync engine consumes an already-authenticated Service; session
// acquisition happens at the CLI boundary.
type Service interface {
	// Authenticate performs OAuth or token authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetPlaylist retrieves a specific playlist's metadata by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// ExportPlaylist exports a playlist with its full ordered track listing,
	// following pagination until the listing is exhausted.
	ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService is implemented by services that support a browser-based OAuth2 authorization flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the OAuth2 authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the underlying OAuth2 configuration.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate authenticates with a previously obtained token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
