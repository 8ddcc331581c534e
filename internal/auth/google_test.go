package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGoogle serves a token endpoint and a userinfo endpoint.
func fakeGoogle(t *testing.T, profile map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogleProvider(srv *httptest.Server) *GoogleProvider {
	return NewGoogleProvider("client-id", "client-secret", "http://localhost:3000/auth/google/home").
		WithEndpoints(oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}, srv.URL+"/userinfo")
}

func TestGoogleAuthURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "client-secret", "http://localhost:3000/auth/google/home")

	u, err := url.Parse(p.AuthURL("state-xyz"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "profile", q.Get("scope"))
	assert.Equal(t, "http://localhost:3000/auth/google/home", q.Get("redirect_uri"))
}

func TestGoogleExchange(t *testing.T) {
	srv := fakeGoogle(t, map[string]string{"sub": "1098765", "name": "Alice"})
	p := newTestGoogleProvider(srv)

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "1098765", profile.ID)
	assert.Equal(t, "Alice", profile.Name)
}

func TestGoogleExchange_BadCode(t *testing.T) {
	srv := fakeGoogle(t, map[string]string{"sub": "1098765"})
	p := newTestGoogleProvider(srv)

	_, err := p.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestGoogleExchange_ProfileWithoutID(t *testing.T) {
	srv := fakeGoogle(t, map[string]string{"name": "Nobody"})
	p := newTestGoogleProvider(srv)

	_, err := p.Exchange(context.Background(), "good-code")
	assert.Error(t, err)
}
