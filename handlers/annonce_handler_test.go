package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"engins-backoffice/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseAnnonceFilter(t *testing.T) {
	categorie := primitive.NewObjectID()
	req := httptest.NewRequest(http.MethodGet,
		"/api/admin/annonces?q=+pelle+&statut=active&etat=occasion&tri=prix_asc&categorie="+categorie.Hex()+"&prixMin=1000&prixMax=50000", nil)

	f, err := parseAnnonceFilter(req)
	require.NoError(t, err)
	assert.Equal(t, "pelle", f.Query)
	assert.Equal(t, "active", f.Statut)
	assert.Equal(t, "occasion", f.Etat)
	assert.Equal(t, "prix_asc", f.Tri)
	require.NotNil(t, f.Categorie)
	assert.Equal(t, categorie, *f.Categorie)
	assert.Nil(t, f.Vendeur)
	assert.Equal(t, 1000.0, *f.PrixMin)
	assert.Equal(t, 50000.0, *f.PrixMax)
}

func TestParseAnnonceFilterErrors(t *testing.T) {
	for _, query := range []string{"?tri=hasard", "?vendeur=123", "?prixMin=beaucoup"} {
		t.Run(query, func(t *testing.T) {
			_, err := parseAnnonceFilter(httptest.NewRequest(http.MethodGet, "/api/admin/annonces"+query, nil))
			assert.True(t, utils.IsValidation(err))
		})
	}
}
