package handlers

import (
	"net/http"
	"runtime"
	"time"

	"engins-backoffice/database"
	"engins-backoffice/utils"
)

var startTime = time.Now()

// HealthHandler gère les endpoints de santé
type HealthHandler struct {
	environment string
	ping        func() error
}

// NewHealthHandler crée un nouveau HealthHandler
func NewHealthHandler(environment string) *HealthHandler {
	return &HealthHandler{environment: environment, ping: database.Ping}
}

// Health retourne l'état de santé du serveur avec métriques
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	// Vérifier la connexion MongoDB
	dbStatus := "ok"
	if err := h.ping(); err != nil {
		dbStatus = "error"
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"message":    "Le serveur fonctionne correctement",
		"env":        h.environment,
		"database":   "MongoDB",
		"db_status":  dbStatus,
		"uptime":     time.Since(startTime).String(),
		"go_version": runtime.Version(),
	})
}
