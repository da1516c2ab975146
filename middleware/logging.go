package middleware

import (
	"net/http"
	"strconv"
	"time"

	"engins-backoffice/services"

	"go.uber.org/zap"
)

// responseWriter wrapper pour capturer le code de statut
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// isCriticalError indique si l'erreur doit être notifiée sur Slack: 5xx, et 403 venant d'un navigateur.
// Les autres 4xx sont des erreurs utilisateur (mauvais mot de passe, formulaire invalide...).
func isCriticalError(statusCode int, origin string) bool {
	if statusCode >= http.StatusInternalServerError {
		return true
	}
	return statusCode == http.StatusForbidden && origin != ""
}

// Logging journalise les réponses en erreur et notifie Slack pour les erreurs critiques
func Logging(logger *zap.SugaredLogger, slack *services.SlackService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			statusCode := rw.statusCode
			if statusCode < http.StatusBadRequest {
				logger.Debugw("requête", "method", r.Method, "path", r.RequestURI, "status", statusCode, "duration", time.Since(start))
				return
			}

			logger.Warnw("⚠️ Réponse en erreur",
				"method", r.Method,
				"path", r.RequestURI,
				"status", statusCode,
				"duration", time.Since(start),
			)

			origin := r.Header.Get("Origin")
			if !isCriticalError(statusCode, origin) || !slack.Enabled() {
				return
			}
			if statusCode == http.StatusForbidden {
				go slack.SendForbidden(r.Method, r.RequestURI, origin)
				return
			}
			go slack.SendCriticalError(r.Method, r.RequestURI, strconv.Itoa(statusCode), http.StatusText(statusCode), origin)
		})
	}
}
