package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// GoogleUserInfoURL is the OpenID userinfo endpoint; "sub" is the stable account id.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProfile is the part of the userinfo response we keep.
type GoogleProfile struct {
	ID      string `json:"sub"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleProvider runs the OAuth 2.0 authorization-code flow against Google.
//
//  1. AuthURL sends the browser to Google's consent page with a state value
//  2. Google redirects back to the callback with ?code=...&state=...
//  3. Exchange trades the code for a token (server to server, using ClientSecret)
//     and fetches the profile with it
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a GoogleProvider. callbackURL must exactly match an
// authorized redirect URI of the OAuth client, e.g. http://localhost:3000/auth/google/home.
//
// Only the "profile" scope is requested: the app needs a stable id, nothing more.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile"},
			Endpoint:     endpoints.Google,
		},
		userInfoURL: GoogleUserInfoURL,
	}
}

// WithEndpoints points the provider at other token/userinfo URLs. Used by tests to
// stand in an httptest server for Google.
func (p *GoogleProvider) WithEndpoints(endpoint oauth2.Endpoint, userInfoURL string) *GoogleProvider {
	cfg := *p.config
	cfg.Endpoint = endpoint
	return &GoogleProvider{config: &cfg, userInfoURL: userInfoURL}
}

// AuthURL returns the consent page URL carrying state.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow and returns the signed-in Google profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// The client adds "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo returned status %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo: %w", err)
	}

	if profile.ID == "" {
		return nil, fmt.Errorf("auth: Google returned a profile without an id")
	}

	return &profile, nil
}
