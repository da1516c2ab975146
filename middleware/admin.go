package middleware

import (
	"context"
	"net/http"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AdminLookup charge un compte administrateur par ID
type AdminLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error)
}

// RequireAdmin vérifie que le compte du token existe toujours et qu'il est actif
func RequireAdmin(admins AdminLookup, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Récupérer les claims depuis le contexte (mis par le middleware Auth)
			claims := GetAdminFromContext(r.Context())
			if claims == nil {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
				return
			}

			id, err := primitive.ObjectIDFromHex(claims.AdminID)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
				return
			}

			admin, err := admins.FindByID(r.Context(), id)
			if err != nil {
				logger.Errorw("❌ Erreur lors de la vérification de l'administrateur", "admin", claims.AdminID, "error", err)
				utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
				return
			}
			if admin == nil {
				utils.RespondError(w, http.StatusUnauthorized, "Administrateur non trouvé")
				return
			}

			if !admin.Actif {
				logger.Warnw("⚠️  Accès admin refusé", "email", admin.Email)
				utils.RespondError(w, http.StatusForbidden, constants.ErrAdminOnly)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
