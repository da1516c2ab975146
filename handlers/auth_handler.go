package handlers

import (
	"context"
	"net/http"
	"strings"

	"engins-backoffice/constants"
	"engins-backoffice/middleware"
	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AdminStore donne accès aux comptes administrateurs
type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error
}

// AuthHandler gère la connexion des administrateurs
type AuthHandler struct {
	admins    AdminStore
	jwtSecret string
	logger    *zap.SugaredLogger
}

// NewAuthHandler crée une nouvelle instance de AuthHandler
func NewAuthHandler(admins AdminStore, jwtSecret string, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{admins: admins, jwtSecret: jwtSecret, logger: logger}
}

// Login vérifie les identifiants et retourne un token JWT
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "Email et mot de passe requis")
		return
	}

	admin, err := h.admins.FindByEmail(r.Context(), email)
	if err != nil {
		h.logger.Errorw("❌ Erreur lors de la recherche de l'administrateur", "email", email, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	// Même réponse pour un email inconnu, un compte désactivé ou un mauvais mot de passe
	if admin == nil || !admin.Actif || !utils.CheckPassword(admin.Password, req.Password) {
		h.logger.Warnw("⚠️  Échec de connexion", "email", email)
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrBadCredentials)
		return
	}

	token, err := utils.GenerateToken(admin.ID.Hex(), admin.Email, admin.Role, h.jwtSecret)
	if err != nil {
		h.logger.Errorw("❌ Erreur lors de la génération du token", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	if err := h.admins.UpdateLastLogin(r.Context(), admin.ID); err != nil {
		h.logger.Warnw("⚠️  Mise à jour de la dernière connexion impossible", "email", email, "error", err)
	}

	h.logger.Infow("✓ Connexion administrateur", "email", admin.Email)
	utils.RespondSuccess(w, "Connexion réussie", models.AuthResponse{Token: token, Admin: *admin})
}

// Me retourne le compte de l'administrateur connecté
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetAdminFromContext(r.Context())
	if claims == nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
		return
	}
	id, err := primitive.ObjectIDFromHex(claims.AdminID)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
		return
	}

	admin, err := h.admins.FindByID(r.Context(), id)
	if err != nil {
		h.logger.Errorw("❌ Erreur lors de la lecture de l'administrateur", "id", claims.AdminID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if admin == nil {
		utils.RespondError(w, http.StatusNotFound, "Administrateur non trouvé")
		return
	}
	utils.RespondSuccess(w, "", admin)
}
