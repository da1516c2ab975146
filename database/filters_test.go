package database

import (
	"testing"

	"engins-backoffice/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildAnnonceFilter(t *testing.T) {
	t.Run("vide", func(t *testing.T) {
		assert.Empty(t, BuildAnnonceFilter(models.AnnonceFilter{}))
	})

	t.Run("recherche texte échappée", func(t *testing.T) {
		filter := BuildAnnonceFilter(models.AnnonceFilter{Query: "  CAT 320.D+ "})
		or, ok := filter[BSONOr].([]bson.M)
		if !ok || len(or) != 3 {
			t.Fatalf("$or attendu sur 3 champs, obtenu %#v", filter[BSONOr])
		}
		pattern := or[0]["titre"].(bson.M)
		assert.Equal(t, `CAT 320\.D\+`, pattern[BSONRegex])
		assert.Equal(t, "i", pattern[BSONOptions])
	})

	t.Run("prix et références", func(t *testing.T) {
		cat := primitive.NewObjectID()
		min, max := 1000.0, 5000.0
		filter := BuildAnnonceFilter(models.AnnonceFilter{
			Categorie: &cat,
			Statut:    models.AnnonceActive,
			Etat:      models.EtatOccasion,
			PrixMin:   &min,
			PrixMax:   &max,
		})
		assert.Equal(t, cat, filter["categorie"])
		assert.Equal(t, "active", filter["statut"])
		assert.Equal(t, "occasion", filter["etat"])
		assert.Equal(t, bson.M{BSONGte: 1000.0, BSONLte: 5000.0}, filter["prix"])
	})

	t.Run("vendeurs actifs", func(t *testing.T) {
		ids := []primitive.ObjectID{primitive.NewObjectID()}
		filter := BuildAnnonceFilter(models.AnnonceFilter{VendeursActifs: ids})
		assert.Equal(t, bson.M{BSONIn: ids}, filter["vendeur"])
	})

	t.Run("vendeur explicite prioritaire", func(t *testing.T) {
		v := primitive.NewObjectID()
		filter := BuildAnnonceFilter(models.AnnonceFilter{Vendeur: &v, VendeursActifs: []primitive.ObjectID{}})
		assert.Equal(t, v, filter["vendeur"])
	})
}

func TestAnnonceSort(t *testing.T) {
	tests := []struct {
		tri  string
		want string
	}{
		{"prix_asc", "prix"},
		{"prix_desc", "prix"},
		{"vues", "vues"},
		{"", "createdAt"},
		{"inconnu", "createdAt"},
	}
	for _, tt := range tests {
		t.Run(tt.tri, func(t *testing.T) {
			sort := annonceSort(tt.tri)
			assert.Equal(t, tt.want, sort[0].Key)
		})
	}
	assert.Equal(t, 1, annonceSort("prix_asc")[0].Value)
	assert.Equal(t, -1, annonceSort("prix_desc")[0].Value)
}

func TestBuildVendeurFilter(t *testing.T) {
	actif := true
	filter := BuildVendeurFilter("Lyon", &actif)
	assert.Equal(t, true, filter["actif"])
	assert.Len(t, filter[BSONOr], 3)

	assert.Empty(t, BuildVendeurFilter(" ", nil))
}

func TestBuildDevisFilter(t *testing.T) {
	id := primitive.NewObjectID()
	filter := BuildDevisFilter(models.DevisNouveau, "dupont", &id)
	assert.Equal(t, "nouveau", filter["statut"])
	assert.Equal(t, id, filter["annonce"])
	assert.Len(t, filter[BSONOr], 4)
}

func TestIndexes(t *testing.T) {
	idx := indexes()
	assert.Contains(t, idx, "categories")
	assert.Contains(t, idx, "admins")
	unique := idx["categories"][0].Options.Unique
	if unique == nil || !*unique {
		t.Error("l'index slug doit être unique")
	}
}
