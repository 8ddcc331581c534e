package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RESPONSE HELPERS:
// Form posts end in a redirect (303 See Other, so the browser follows with GET and a
// refresh never re-submits). Failures the user can fix send them back to the form
// without a message; failures they can't fix get the error page.

// seeOther redirects after a POST.
func seeOther(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// found redirects a GET.
func found(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusFound)
}

// serverError logs err and renders the generic error page.
// NEVER show err to the client — it may contain queries or file paths.
func serverError(rd *Renderer, logger *slog.Logger, w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.Error(msg,
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	rd.Render(w, http.StatusInternalServerError, PageError, PageData{
		Title:   "Something went wrong",
		Message: "Something went wrong on our side. Please try again.",
	})
}

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// HandleHealth reports liveness.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
