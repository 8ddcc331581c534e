package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/secrets/internal/model"
)

// fakeResolver knows exactly one token.
type fakeResolver struct {
	token string
	user  *model.User
}

func (f fakeResolver) CurrentUser(_ context.Context, token string) (*model.User, bool) {
	if token == f.token {
		return f.user, true
	}
	return nil, false
}

// whoAmI writes the signed-in username, or "anonymous".
var whoAmI = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if u, ok := UserFromContext(r.Context()); ok {
		w.Write([]byte(u.Username))
		return
	}
	w.Write([]byte("anonymous"))
})

func TestSessions(t *testing.T) {
	resolver := fakeResolver{token: "good", user: &model.User{ID: "1", Username: "alice"}}
	h := Sessions(resolver)(whoAmI)

	cases := []struct {
		name   string
		cookie *http.Cookie
		want   string
	}{
		{"no cookie", nil, "anonymous"},
		{"unknown token", &http.Cookie{Name: SessionCookie, Value: "bad"}, "anonymous"},
		{"empty token", &http.Cookie{Name: SessionCookie, Value: ""}, "anonymous"},
		{"valid token", &http.Cookie{Name: SessionCookie, Value: "good"}, "alice"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.want, rr.Body.String())
		})
	}
}

func TestRequireUser(t *testing.T) {
	h := RequireUser("/login")(whoAmI)

	t.Run("anonymous is redirected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/submit", nil))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
	})

	t.Run("signed in passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/submit", nil)
		req = req.WithContext(WithUser(req.Context(), &model.User{Username: "bob"}))
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "bob", rr.Body.String())
	})
}

func TestSessionCookieHelpers(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "tok", 60, false)
	ClearSessionCookie(rr, false)

	cookies := rr.Result().Cookies()
	if assert.Len(t, cookies, 2) {
		assert.Equal(t, "tok", cookies[0].Value)
		assert.Equal(t, 60, cookies[0].MaxAge)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, -1, cookies[1].MaxAge)
	}
}
