package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/secrets/internal/apperror"
	"github.com/sakif/secrets/internal/auth"
	"github.com/sakif/secrets/internal/service"
)

// SecretHandler serves the landing page, the shared list and the submit form.
type SecretHandler struct {
	secrets       *service.SecretService
	renderer      *Renderer
	googleEnabled bool
	logger        *slog.Logger
}

// NewSecretHandler creates a SecretHandler.
func NewSecretHandler(secrets *service.SecretService, renderer *Renderer, googleEnabled bool, logger *slog.Logger) *SecretHandler {
	return &SecretHandler{
		secrets:       secrets,
		renderer:      renderer,
		googleEnabled: googleEnabled,
		logger:        logger,
	}
}

func (h *SecretHandler) page(r *http.Request, title string) PageData {
	user, _ := auth.UserFromContext(r.Context())
	return PageData{Title: title, User: user, GoogleEnabled: h.googleEnabled}
}

// HandleWelcome renders the landing page.
//
// HTTP: GET /
func (h *SecretHandler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, PageWelcome, h.page(r, "Secrets"))
}

// HandleHome lists every submitted secret.
//
// HTTP: GET /home
//
// The list is public: signed-in or not, every visitor sees every secret. If the store
// fails the page still renders, just without secrets.
func (h *SecretHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Secrets")

	users, err := h.secrets.ListShared(r.Context())
	if err != nil {
		h.logger.Error("listing secrets", slog.String("error", err.Error()))
	}
	for _, u := range users {
		data.Secrets = append(data.Secrets, u.Secret)
	}

	h.renderer.Render(w, http.StatusOK, PageHome, data)
}

// HandleSubmitForm renders the submit form. Requires a signed-in user.
//
// HTTP: GET /submit
func (h *SecretHandler) HandleSubmitForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, PageSubmit, h.page(r, "Submit a secret"))
}

// HandleSubmit stores the signed-in user's secret, replacing any earlier one.
//
// HTTP: POST /submit (form: secret)
func (h *SecretHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		seeOther(w, r, "/login")
		return
	}

	if _, err := h.secrets.Submit(r.Context(), user.ID, r.PostFormValue("secret")); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// the account vanished between loading the session and saving
			seeOther(w, r, "/login")
			return
		}
		serverError(h.renderer, h.logger, w, r, "submitting secret", err)
		return
	}

	seeOther(w, r, "/home")
}
