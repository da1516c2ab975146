package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", ValidationError{Field: "slug", Message: "déjà utilisé"}, http.StatusBadRequest},
		{"validation wrappée", fmt.Errorf("création: %w", ValidationError{Field: "prix"}), http.StatusBadRequest},
		{"introuvable", NotFoundError{Resource: "catégorie", ID: "42"}, http.StatusNotFound},
		{"conflit", ConflictError{Message: "la catégorie a des enfants"}, http.StatusConflict},
		{"persistance", Persistence("lecture", errors.New("timeout")), http.StatusInternalServerError},
		{"inconnue", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromError(tt.err))
		})
	}
}

func TestPersistence(t *testing.T) {
	assert.NoError(t, Persistence("op", nil))

	cause := errors.New("connexion perdue")
	err := Persistence("recherche", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "recherche")
}

func TestRespondServiceError_HidesInternalErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondServiceError(rr, Persistence("agrégation", errors.New("mongo: secret dsn")))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, strings.Contains(rr.Body.String(), "secret dsn"))
	assert.Contains(t, rr.Body.String(), `"success":false`)
}

func TestRespondServiceError_Conflict(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondServiceError(rr, ConflictError{Message: "suppression impossible"})

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "suppression impossible")
}

func TestNotFoundError_Message(t *testing.T) {
	assert.Equal(t, "vendeur introuvable", NotFoundError{Resource: "vendeur"}.Error())
	assert.Equal(t, "annonce introuvable: abc", NotFoundError{Resource: "annonce", ID: "abc"}.Error())
}
