package middleware

import (
	"context"
	"net/http"
	"strings"

	"engins-backoffice/constants"
	"engins-backoffice/utils"
)

type contextKey string

const AdminContextKey contextKey = "admin"

// Auth vérifie le token JWT
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Récupérer le token depuis l'en-tête Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.RespondError(w, http.StatusUnauthorized, "Token d'authentification manquant")
				return
			}

			// Vérifier le format "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				utils.RespondError(w, http.StatusUnauthorized, "Format du token invalide")
				return
			}

			claims, err := utils.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), AdminContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminFromContext récupère les revendications de l'administrateur depuis le contexte
func GetAdminFromContext(ctx context.Context) *utils.Claims {
	claims, ok := ctx.Value(AdminContextKey).(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}
