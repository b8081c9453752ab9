// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// ResolvePlaylistID extracts a canonical playlist identifier from a share URL, URI, or bare ID.
//
// Accepts "https://open.spotify.com/playlist/<id>?si=...", "spotify:playlist:<id>",
// or a bare identifier, which is returned unchanged. No format validation is
// performed; an invalid identifier surfaces as an API error on fetch.
func ResolvePlaylistID(reference string) string {
	if _, after, ok := strings.Cut(reference, "playlist/"); ok {
		id, _, _ := strings.Cut(after, "?")
		return id
	}
	if _, after, ok := strings.Cut(reference, ":playlist:"); ok {
		return after
	}
	return reference
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPlaylistPage represents one page of a playlist's track listing.
type SpotifyPlaylistPage struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       owner          `json:"owner"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for playlist operations.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		token := &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		return s.OAuthenticate(ctx, token)
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate authenticates with a previously obtained [oauth2.Token].
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrNotAuthenticated)
	}
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying OAuth2 configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated GET request against the Spotify API.
//
// endpoint may be a path relative to the API base or an absolute pagination URL
// returned by a previous response.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		apiURL = s.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", shared.ErrPlaylistNotFound, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Playlist retrieves a playlist's metadata by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.doRequest(ctx, endpoint, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistItems retrieves one page of a playlist's track listing.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPlaylistPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

	var page SpotifyPlaylistPage
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Service interface implementation

// GetPlaylist retrieves a specific playlist's metadata by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}, nil
}

// ExportPlaylist exports a playlist with its full track listing, following
// pagination until exhausted. Track order matches playlist order.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	export := &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			TrackCount:  sp.Tracks.Total,
			Public:      sp.Public,
		},
	}

	page, err := s.PlaylistItems(ctx, playlistID, 100, 0)
	for {
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			track := models.Track{
				ID:    item.Track.ID,
				Title: item.Track.Name,
				Album: item.Track.Album.Name,
			}
			if len(item.Track.Artists) > 0 {
				track.Artist = item.Track.Artists[0].Name
			}
			export.Tracks = append(export.Tracks, track)
		}

		if page.Next == nil {
			break
		}

		next := &SpotifyPlaylistPage{}
		err = s.doRequest(ctx, *page.Next, next)
		page = next
	}

	return export, nil
}
