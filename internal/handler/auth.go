package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/secrets/internal/apperror"
	"github.com/sakif/secrets/internal/auth"
	"github.com/sakif/secrets/internal/model"
	"github.com/sakif/secrets/internal/service"
)

// stateCookie holds the OAuth state between /auth/google and the callback.
const stateCookie = "oauth_state"

// GoogleAuthenticator is the part of auth.GoogleProvider the handlers use.
type GoogleAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleProfile, error)
}

// AuthHandler serves registration, local login, Google login and logout.
type AuthHandler struct {
	auth         *service.AuthService
	google       GoogleAuthenticator // nil when Google sign-in is not configured
	renderer     *Renderer
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. google may be nil.
func NewAuthHandler(
	authService *service.AuthService,
	google GoogleAuthenticator,
	renderer *Renderer,
	secureCookie bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:         authService,
		google:       google,
		renderer:     renderer,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (h *AuthHandler) page(r *http.Request, title string) PageData {
	user, _ := auth.UserFromContext(r.Context())
	return PageData{Title: title, User: user, GoogleEnabled: h.google != nil}
}

// HandleRegisterForm renders the registration form.
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, PageRegister, h.page(r, "Register"))
}

// HandleRegister creates a local account and signs it in.
//
// HTTP: POST /register (form: username, password, confirmPass)
//
// Any failure to create the account (mismatched passwords, taken username, store
// error) sends the browser back to /register without a message.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Register(r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("password"),
		r.PostFormValue("confirmPass"),
	)
	if err != nil {
		h.logFormFailure("register", err)
		seeOther(w, r, "/register")
		return
	}

	h.startSession(w, r, user)
}

// HandleLoginForm renders the login form.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, PageLogin, h.page(r, "Login"))
}

// HandleLogin checks local credentials.
//
// HTTP: POST /login (form: username, password)
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.logFormFailure("login", err)
			seeOther(w, r, "/login")
			return
		}
		serverError(h.renderer, h.logger, w, r, "login failed", err)
		return
	}

	h.startSession(w, r, user)
}

// HandleGoogleLogin sends the browser to Google's consent page.
//
// HTTP: GET /auth/google
//
// A random state goes into a short-lived cookie and into the consent URL; the
// callback only proceeds if Google hands the same value back.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes to get through the consent screen
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	found(w, r, h.google.AuthURL(state))
}

// HandleGoogleCallback finishes Google sign-in.
//
// HTTP: GET /auth/google/home?code=...&state=...
//
// Anything Google-side (state mismatch, denied consent, failed exchange) redirects
// to /login. A store failure while finding or creating the account is a 500.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || q.Get("state") != c.Value {
		h.logger.Warn("google callback: state mismatch")
		found(w, r, "/login")
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("google callback: authorization denied", slog.String("error", denied))
		found(w, r, "/login")
		return
	}

	profile, err := h.google.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		h.logger.Warn("google callback: exchange failed", slog.String("error", err.Error()))
		found(w, r, "/login")
		return
	}

	user, err := h.auth.LoginGoogle(r.Context(), profile)
	if err != nil {
		serverError(h.renderer, h.logger, w, r, "google callback: find-or-create failed", err)
		return
	}

	h.startSession(w, r, user)
}

// HandleLogout ends the session and clears the cookie.
//
// HTTP: GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.SessionCookie); err == nil {
		h.auth.EndSession(r.Context(), c.Value)
	}
	auth.ClearSessionCookie(w, h.secureCookie)
	found(w, r, "/")
}

// startSession signs user in and sends them to /home.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User) {
	token, err := h.auth.StartSession(r.Context(), user)
	if err != nil {
		serverError(h.renderer, h.logger, w, r, "starting session", err)
		return
	}

	auth.SetSessionCookie(w, token, int(h.auth.SessionTTL().Seconds()), h.secureCookie)
	seeOther(w, r, "/home")
}

// logFormFailure logs why a form was bounced. User mistakes are Info, store
// failures are Error.
func (h *AuthHandler) logFormFailure(form string, err error) {
	switch {
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrConflict),
		errors.Is(err, apperror.ErrUnauthorized):
		h.logger.Info(form+" rejected", slog.String("reason", err.Error()))
	default:
		h.logger.Error(form+" failed", slog.String("error", err.Error()))
	}
}
