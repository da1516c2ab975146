package utils

import (
	"encoding/json"
	"net/http"

	"engins-backoffice/models"
)

// RespondJSON envoie une réponse JSON
func RespondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	if statusCode > 0 {
		w.WriteHeader(statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil && statusCode == http.StatusOK {
			w.Write([]byte(`{"success":false,"error":"Erreur lors de l'encodage JSON"}`))
		}
	}
}

// RespondError envoie une réponse d'erreur JSON
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, models.ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// RespondSuccess envoie une réponse de succès JSON
func RespondSuccess(w http.ResponseWriter, message string, data interface{}) {
	RespondJSON(w, http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondCreated envoie une réponse 201 avec la ressource créée
func RespondCreated(w http.ResponseWriter, message string, data interface{}) {
	RespondJSON(w, http.StatusCreated, models.SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondPage envoie une liste paginée
func RespondPage(w http.ResponseWriter, data interface{}, pagination *models.Pagination) {
	RespondJSON(w, http.StatusOK, models.SuccessResponse{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// StatusFromError retourne le code HTTP correspondant au type d'erreur
func StatusFromError(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError traduit une erreur de service en réponse HTTP.
// Les erreurs internes ne sont jamais exposées telles quelles au client.
func RespondServiceError(w http.ResponseWriter, err error) {
	status := StatusFromError(err)
	if status == http.StatusInternalServerError {
		RespondError(w, status, "Erreur serveur")
		return
	}
	RespondError(w, status, err.Error())
}
