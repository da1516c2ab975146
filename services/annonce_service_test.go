package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

type annonceFixture struct {
	service    *AnnonceService
	store      *memoryAnnonceStore
	categories *memoryCategoryStore
	vendeurs   *memoryVendeurStore
	searches   *memorySearchLog
	images     *fakeImageHost
	categorie  primitive.ObjectID
	vendeur    primitive.ObjectID
}

func newAnnonceFixture(t *testing.T) *annonceFixture {
	t.Helper()
	f := &annonceFixture{
		store:      newMemoryAnnonceStore(),
		categories: newMemoryCategoryStore(),
		vendeurs:   newMemoryVendeurStore(),
		searches:   &memorySearchLog{},
		images:     &fakeImageHost{},
	}
	cat := &models.Category{Nom: "Pelles", Slug: "pelles", Niveau: 1}
	require.NoError(t, f.categories.Create(context.Background(), cat))
	f.categorie = cat.ID
	f.vendeur = f.vendeurs.put(models.Vendeur{Nom: "TP Services", Actif: true})

	f.service = NewAnnonceService(f.store, f.categories, f.vendeurs, f.searches, f.images, zaptest.NewLogger(t).Sugar())
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func (f *annonceFixture) request() models.AnnonceRequest {
	prix := 84500.0
	return models.AnnonceRequest{
		Titre:     " Pelle sur chenilles 320 ",
		Marque:    "Caterpillar",
		Modele:    "320",
		Etat:      models.EtatOccasion,
		Prix:      &prix,
		Annee:     2018,
		Categorie: f.categorie.Hex(),
		Vendeur:   f.vendeur.Hex(),
	}
}

func TestAnnonceService_Create(t *testing.T) {
	f := newAnnonceFixture(t)

	annonce, err := f.service.Create(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, "Pelle sur chenilles 320", annonce.Titre)
	assert.Equal(t, "EUR", annonce.Devise)
	assert.Equal(t, models.AnnonceActive, annonce.Statut)
	assert.NotNil(t, annonce.Caracteristiques)
	assert.Len(t, f.store.annonces, 1)
}

func TestAnnonceService_CreateValidation(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name  string
		edit  func(*models.AnnonceRequest)
		field string
	}{
		{"titre manquant", func(r *models.AnnonceRequest) { r.Titre = "" }, "titre"},
		{"état inconnu", func(r *models.AnnonceRequest) { r.Etat = "epave" }, "etat"},
		{"prix absent", func(r *models.AnnonceRequest) { r.Prix = nil }, "prix"},
		{"prix négatif", func(r *models.AnnonceRequest) { r.Prix = &negative }, "prix"},
		{"année trop ancienne", func(r *models.AnnonceRequest) { r.Annee = 1899 }, "annee"},
		{"année future", func(r *models.AnnonceRequest) { r.Annee = 2026 }, "annee"},
		{"statut inconnu", func(r *models.AnnonceRequest) { r.Statut = "archive" }, "statut"},
		{"catégorie invalide", func(r *models.AnnonceRequest) { r.Categorie = "xyz" }, "categorie"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAnnonceFixture(t)
			req := f.request()
			tt.edit(&req)

			_, err := f.service.Create(context.Background(), req)
			var verr utils.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAnnonceService_CreateNextYearAllowed(t *testing.T) {
	f := newAnnonceFixture(t)
	req := f.request()
	req.Annee = 2025

	_, err := f.service.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestAnnonceService_CreateUnknownReferences(t *testing.T) {
	f := newAnnonceFixture(t)

	req := f.request()
	req.Categorie = primitive.NewObjectID().Hex()
	_, err := f.service.Create(context.Background(), req)
	assert.True(t, utils.IsNotFound(err))

	req = f.request()
	req.Vendeur = primitive.NewObjectID().Hex()
	_, err = f.service.Create(context.Background(), req)
	assert.True(t, utils.IsNotFound(err))
}

func TestAnnonceService_GetCountsViews(t *testing.T) {
	f := newAnnonceFixture(t)
	id := f.store.put(models.Annonce{Titre: "Chargeuse", Vues: 4})

	annonce, err := f.service.Get(context.Background(), id, true)
	require.NoError(t, err)
	assert.Equal(t, 5, annonce.Vues)

	annonce, err = f.service.Get(context.Background(), id, false)
	require.NoError(t, err)
	assert.Equal(t, 5, annonce.Vues, "la consultation admin ne compte pas de vue")

	_, err = f.service.Get(context.Background(), primitive.NewObjectID(), true)
	assert.True(t, utils.IsNotFound(err))
}

func TestAnnonceService_GetPublic(t *testing.T) {
	f := newAnnonceFixture(t)
	active := f.store.put(models.Annonce{Titre: "Chargeuse", Statut: models.AnnonceActive, Vues: 2})
	brouillon := f.store.put(models.Annonce{Titre: "Nacelle", Statut: models.AnnonceBrouillon, Vues: 2})

	annonce, err := f.service.GetPublic(context.Background(), active)
	require.NoError(t, err)
	assert.Equal(t, 3, annonce.Vues)

	_, err = f.service.GetPublic(context.Background(), brouillon)
	assert.True(t, utils.IsNotFound(err))
	hidden, err := f.service.Get(context.Background(), brouillon, false)
	require.NoError(t, err)
	assert.Equal(t, 2, hidden.Vues, "une annonce non publiée ne compte pas de vue")
}

func TestAnnonceService_Update(t *testing.T) {
	f := newAnnonceFixture(t)
	created, err := f.service.Create(context.Background(), f.request())
	require.NoError(t, err)

	req := f.request()
	prix := 79000.0
	req.Prix = &prix
	updated, err := f.service.Update(context.Background(), created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 79000.0, updated.Prix)
	assert.Equal(t, 79000.0, f.store.annonces[created.ID].Prix)
}

func TestAnnonceService_UpdateStatus(t *testing.T) {
	f := newAnnonceFixture(t)
	id := f.store.put(models.Annonce{Statut: models.AnnonceActive})

	annonce, err := f.service.UpdateStatus(context.Background(), id, models.AnnonceVendue)
	require.NoError(t, err)
	assert.Equal(t, models.AnnonceVendue, annonce.Statut)

	_, err = f.service.UpdateStatus(context.Background(), id, "perdue")
	assert.True(t, utils.IsValidation(err))
}

func TestAnnonceService_List(t *testing.T) {
	f := newAnnonceFixture(t)
	prixMin, prixMax := 100.0, 50.0

	_, _, err := f.service.List(context.Background(), models.AnnonceFilter{PrixMin: &prixMin, PrixMax: &prixMax}, 1, 20)
	assert.True(t, utils.IsValidation(err))

	_, _, err = f.service.List(context.Background(), models.AnnonceFilter{Etat: "cassé"}, 1, 20)
	assert.True(t, utils.IsValidation(err))
}

func TestAnnonceService_Search(t *testing.T) {
	f := newAnnonceFixture(t)
	inactif := f.vendeurs.put(models.Vendeur{Nom: "Fermé", Actif: false})
	f.store.put(models.Annonce{Titre: "Active", Statut: models.AnnonceActive, Vendeur: f.vendeur})
	f.store.put(models.Annonce{Titre: "Brouillon", Statut: models.AnnonceBrouillon, Vendeur: f.vendeur})
	f.store.put(models.Annonce{Titre: "Vendeur inactif", Statut: models.AnnonceActive, Vendeur: inactif})

	annonces, total, err := f.service.Search(context.Background(), models.AnnonceFilter{Query: " Pelle ", Statut: models.AnnonceVendue, Etat: models.EtatNeuf}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, models.AnnonceActive, f.store.lastList.Statut, "le statut demandé est ignoré")
	require.Len(t, annonces, 1)
	assert.Equal(t, "Active", annonces[0].Titre)

	require.Len(t, f.searches.recherches, 1)
	assert.Equal(t, "pelle", f.searches.recherches[0].Terme)
	assert.Equal(t, total, f.searches.recherches[0].NombreResultats)
	assert.Equal(t, map[string]string{"etat": models.EtatNeuf}, f.searches.recherches[0].Filtres)
}

func TestAnnonceService_SearchInactiveSeller(t *testing.T) {
	f := newAnnonceFixture(t)
	inactif := f.vendeurs.put(models.Vendeur{Nom: "Fermé"})

	annonces, total, err := f.service.Search(context.Background(), models.AnnonceFilter{Vendeur: &inactif}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, annonces)
	assert.Zero(t, total)
}

func TestAnnonceService_SearchLogFailureIgnored(t *testing.T) {
	f := newAnnonceFixture(t)
	f.searches.err = errStoreDown

	_, _, err := f.service.Search(context.Background(), models.AnnonceFilter{Query: "grue"}, 1, 20)
	assert.NoError(t, err)
}

func TestAnnonceService_AddImages(t *testing.T) {
	f := newAnnonceFixture(t)
	id := f.store.put(models.Annonce{Images: []models.Image{}})

	annonce, err := f.service.AddImages(context.Background(), id, []Upload{
		{Reader: strings.NewReader(pngHeader), Filename: "face.png"},
		{Reader: strings.NewReader(pngHeader), Filename: "profil.png"},
	})
	require.NoError(t, err)
	assert.Len(t, annonce.Images, 2)
	assert.Len(t, f.store.annonces[id].Images, 2)
	assert.Equal(t, []string{"annonces/face.png", "annonces/profil.png"}, f.images.uploaded)
}

func TestAnnonceService_AddImagesRejectsDocuments(t *testing.T) {
	f := newAnnonceFixture(t)
	id := f.store.put(models.Annonce{})

	_, err := f.service.AddImages(context.Background(), id, []Upload{
		{Reader: strings.NewReader(pngHeader), Filename: "ok.png"},
		{Reader: strings.NewReader("%PDF-1.4 contrat"), Filename: "contrat.pdf"},
	})
	assert.True(t, utils.IsValidation(err))
	assert.Empty(t, f.images.uploaded, "aucun upload si un fichier est refusé")
}

func TestAnnonceService_AddImagesLimit(t *testing.T) {
	f := newAnnonceFixture(t)
	id := f.store.put(models.Annonce{Images: make([]models.Image, constants.MaxImages)})

	_, err := f.service.AddImages(context.Background(), id, []Upload{{Reader: strings.NewReader(pngHeader), Filename: "x.png"}})
	assert.True(t, utils.IsValidation(err))
}

func TestAnnonceService_AddImagesRollback(t *testing.T) {
	f := newAnnonceFixture(t)
	id := f.store.put(models.Annonce{})
	f.store.addErr = errors.New("écriture refusée")

	_, err := f.service.AddImages(context.Background(), id, []Upload{{Reader: strings.NewReader(pngHeader), Filename: "x.png"}})
	require.Error(t, err)
	require.Len(t, f.images.uploaded, 1)
	assert.Equal(t, f.images.uploaded, f.images.deleted, "les images hébergées sont supprimées")
}

func TestAnnonceService_RemoveImage(t *testing.T) {
	f := newAnnonceFixture(t)
	id := f.store.put(models.Annonce{Images: []models.Image{{ID: "annonces/a"}, {ID: "annonces/b"}}})

	annonce, err := f.service.RemoveImage(context.Background(), id, "annonces/a")
	require.NoError(t, err)
	assert.Equal(t, []models.Image{{ID: "annonces/b"}}, annonce.Images)
	assert.Equal(t, []string{"annonces/a"}, f.images.deleted)

	_, err = f.service.RemoveImage(context.Background(), id, "annonces/zzz")
	assert.True(t, utils.IsNotFound(err))
}

func TestAnnonceService_DeleteRemovesImages(t *testing.T) {
	f := newAnnonceFixture(t)
	f.images.err = errors.New("hébergeur indisponible")
	id := f.store.put(models.Annonce{Images: []models.Image{{ID: "annonces/a"}, {ID: "annonces/b"}}})

	require.NoError(t, f.service.Delete(context.Background(), id), "l'échec de l'hébergeur n'est pas bloquant")
	assert.Empty(t, f.store.annonces)
	assert.Equal(t, []string{"annonces/a", "annonces/b"}, f.images.deleted)
}
