package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AnnonceStore est la persistance des annonces
type AnnonceStore interface {
	Create(ctx context.Context, annonce *models.Annonce) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Annonce, error)
	FindAndIncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Annonce, error)
	List(ctx context.Context, f models.AnnonceFilter, page, limit int) ([]models.Annonce, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) error
	AddImages(ctx context.Context, id primitive.ObjectID, images []models.Image) error
	RemoveImage(ctx context.Context, id primitive.ObjectID, imageID string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CategoryLookup charge une catégorie par ID
type CategoryLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
}

// SellerDirectory donne accès aux vendeurs référencés par les annonces
type SellerDirectory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vendeur, error)
	ActiveIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// SearchLog journalise les recherches publiques
type SearchLog interface {
	Create(ctx context.Context, recherche *models.Recherche) error
}

// AnnonceService gère les annonces et leur galerie d'images
type AnnonceService struct {
	store      AnnonceStore
	categories CategoryLookup
	vendeurs   SellerDirectory
	searches   SearchLog
	images     ImageHost
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// NewAnnonceService crée une nouvelle instance de AnnonceService
func NewAnnonceService(store AnnonceStore, categories CategoryLookup, vendeurs SellerDirectory, searches SearchLog, images ImageHost, logger *zap.SugaredLogger) *AnnonceService {
	return &AnnonceService{
		store:      store,
		categories: categories,
		vendeurs:   vendeurs,
		searches:   searches,
		images:     images,
		logger:     logger,
		now:        time.Now,
	}
}

// List retourne une page d'annonces filtrées
func (s *AnnonceService) List(ctx context.Context, f models.AnnonceFilter, page, limit int) ([]models.Annonce, int64, error) {
	if f.Statut != "" {
		if err := utils.ValidateOneOf("statut", f.Statut, models.AnnonceStatuts); err != nil {
			return nil, 0, err
		}
	}
	if f.Etat != "" {
		if err := utils.ValidateOneOf("etat", f.Etat, models.AnnonceEtats); err != nil {
			return nil, 0, err
		}
	}
	if f.PrixMin != nil && f.PrixMax != nil && *f.PrixMin > *f.PrixMax {
		return nil, 0, utils.ValidationError{Field: "prixMin", Message: "prixMin doit être inférieur ou égal à prixMax"}
	}
	annonces, total, err := s.store.List(ctx, f, page, limit)
	if err != nil {
		return nil, 0, utils.Persistence("liste annonces", err)
	}
	return annonces, total, nil
}

// Search est la recherche publique: annonces actives de vendeurs actifs, journalisée pour les statistiques
func (s *AnnonceService) Search(ctx context.Context, f models.AnnonceFilter, page, limit int) ([]models.Annonce, int64, error) {
	actifs, err := s.vendeurs.ActiveIDs(ctx)
	if err != nil {
		return nil, 0, utils.Persistence("vendeurs actifs", err)
	}
	f.Statut = models.AnnonceActive
	f.VendeursActifs = actifs
	if f.Vendeur != nil && !containsID(actifs, *f.Vendeur) {
		return []models.Annonce{}, 0, nil
	}

	annonces, total, err := s.List(ctx, f, page, limit)
	if err != nil {
		return nil, 0, err
	}

	recherche := &models.Recherche{
		Terme:           strings.ToLower(strings.TrimSpace(f.Query)),
		Filtres:         searchFilters(f),
		NombreResultats: total,
	}
	if err := s.searches.Create(ctx, recherche); err != nil {
		s.logger.Warnw("⚠️  Journalisation de la recherche impossible", "terme", recherche.Terme, "error", err)
	}
	return annonces, total, nil
}

func searchFilters(f models.AnnonceFilter) map[string]string {
	filtres := map[string]string{}
	if f.Categorie != nil {
		filtres["categorie"] = f.Categorie.Hex()
	}
	if f.Vendeur != nil {
		filtres["vendeur"] = f.Vendeur.Hex()
	}
	if f.Etat != "" {
		filtres["etat"] = f.Etat
	}
	if f.PrixMin != nil {
		filtres["prixMin"] = fmt.Sprintf("%g", *f.PrixMin)
	}
	if f.PrixMax != nil {
		filtres["prixMax"] = fmt.Sprintf("%g", *f.PrixMax)
	}
	if len(filtres) == 0 {
		return nil
	}
	return filtres
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Get retourne une annonce; countView incrémente son compteur de vues
func (s *AnnonceService) Get(ctx context.Context, id primitive.ObjectID, countView bool) (*models.Annonce, error) {
	var (
		annonce *models.Annonce
		err     error
	)
	if countView {
		annonce, err = s.store.FindAndIncrementViews(ctx, id)
	} else {
		annonce, err = s.store.FindByID(ctx, id)
	}
	if err != nil {
		return nil, utils.Persistence("lecture annonce", err)
	}
	if annonce == nil {
		return nil, utils.NotFoundError{Resource: "annonce", ID: id.Hex()}
	}
	return annonce, nil
}

// GetPublic retourne une annonce active et compte la vue; les autres statuts sont introuvables
func (s *AnnonceService) GetPublic(ctx context.Context, id primitive.ObjectID) (*models.Annonce, error) {
	annonce, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if annonce.Statut != models.AnnonceActive {
		return nil, utils.NotFoundError{Resource: "annonce", ID: id.Hex()}
	}
	return s.Get(ctx, id, true)
}

// Create valide puis enregistre une annonce
func (s *AnnonceService) Create(ctx context.Context, req models.AnnonceRequest) (*models.Annonce, error) {
	annonce := &models.Annonce{}
	if err := s.apply(ctx, annonce, req); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, annonce); err != nil {
		return nil, utils.Persistence("création annonce", err)
	}
	s.logger.Infow("✓ Annonce créée", "id", annonce.ID.Hex(), "titre", annonce.Titre)
	return annonce, nil
}

// Update remplace les champs éditables d'une annonce (vues, favoris et images sont conservés)
func (s *AnnonceService) Update(ctx context.Context, id primitive.ObjectID, req models.AnnonceRequest) (*models.Annonce, error) {
	annonce, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, annonce, req); err != nil {
		return nil, err
	}

	update := bson.M{
		"titre":            annonce.Titre,
		"description":      annonce.Description,
		"marque":           annonce.Marque,
		"modele":           annonce.Modele,
		"pays":             annonce.Pays,
		"etat":             annonce.Etat,
		"prix":             annonce.Prix,
		"devise":           annonce.Devise,
		"annee":            annonce.Annee,
		"carburant":        annonce.Carburant,
		"dimensions":       annonce.Dimensions,
		"puissance":        annonce.Puissance,
		"kilometrage":      annonce.Kilometrage,
		"heures":           annonce.Heures,
		"caracteristiques": annonce.Caracteristiques,
		"categorie":        annonce.Categorie,
		"vendeur":          annonce.Vendeur,
		"statut":           annonce.Statut,
	}
	if err := s.store.Update(ctx, id, update); err != nil {
		return nil, utils.Persistence("mise à jour annonce", err)
	}
	annonce.UpdatedAt = s.now()
	return annonce, nil
}

// apply valide la requête et copie ses champs dans annonce
func (s *AnnonceService) apply(ctx context.Context, annonce *models.Annonce, req models.AnnonceRequest) error {
	for _, required := range [][2]string{{"titre", req.Titre}, {"marque", req.Marque}, {"modele", req.Modele}} {
		if err := utils.ValidateRequired(required[0], required[1]); err != nil {
			return err
		}
	}
	if err := utils.ValidateOneOf("etat", req.Etat, models.AnnonceEtats); err != nil {
		return err
	}
	if req.Prix == nil {
		return utils.ValidationError{Field: "prix", Message: "le prix est requis"}
	}
	if err := utils.ValidatePrice(*req.Prix); err != nil {
		return err
	}
	if err := utils.ValidateYear(req.Annee, s.now().Year()); err != nil {
		return err
	}
	statut := req.Statut
	if statut == "" {
		statut = models.AnnonceActive
	}
	if err := utils.ValidateOneOf("statut", statut, models.AnnonceStatuts); err != nil {
		return err
	}
	if req.Puissance < 0 || req.Kilometrage < 0 || req.Heures < 0 {
		return utils.ValidationError{Field: "caracteristiques", Message: "puissance, kilométrage et heures doivent être positifs"}
	}

	categorieID, err := primitive.ObjectIDFromHex(req.Categorie)
	if err != nil {
		return utils.ValidationError{Field: "categorie", Message: constants.ErrInvalidCategoryID}
	}
	vendeurID, err := primitive.ObjectIDFromHex(req.Vendeur)
	if err != nil {
		return utils.ValidationError{Field: "vendeur", Message: constants.ErrInvalidVendeurID}
	}
	categorie, err := s.categories.FindByID(ctx, categorieID)
	if err != nil {
		return utils.Persistence("lecture catégorie", err)
	}
	if categorie == nil {
		return utils.NotFoundError{Resource: "catégorie", ID: req.Categorie}
	}
	vendeur, err := s.vendeurs.FindByID(ctx, vendeurID)
	if err != nil {
		return utils.Persistence("lecture vendeur", err)
	}
	if vendeur == nil {
		return utils.NotFoundError{Resource: "vendeur", ID: req.Vendeur}
	}

	devise := strings.ToUpper(strings.TrimSpace(req.Devise))
	if devise == "" {
		devise = "EUR"
	}
	caracteristiques := req.Caracteristiques
	if caracteristiques == nil {
		caracteristiques = []models.Caracteristique{}
	}

	annonce.Titre = strings.TrimSpace(req.Titre)
	annonce.Description = strings.TrimSpace(req.Description)
	annonce.Marque = strings.TrimSpace(req.Marque)
	annonce.Modele = strings.TrimSpace(req.Modele)
	annonce.Pays = strings.TrimSpace(req.Pays)
	annonce.Etat = req.Etat
	annonce.Prix = *req.Prix
	annonce.Devise = devise
	annonce.Annee = req.Annee
	annonce.Carburant = strings.TrimSpace(req.Carburant)
	annonce.Dimensions = req.Dimensions
	annonce.Puissance = req.Puissance
	annonce.Kilometrage = req.Kilometrage
	annonce.Heures = req.Heures
	annonce.Caracteristiques = caracteristiques
	annonce.Categorie = categorieID
	annonce.Vendeur = vendeurID
	annonce.Statut = statut
	return nil
}

// UpdateStatus change le statut d'une annonce
func (s *AnnonceService) UpdateStatus(ctx context.Context, id primitive.ObjectID, statut string) (*models.Annonce, error) {
	if err := utils.ValidateOneOf("statut", statut, models.AnnonceStatuts); err != nil {
		return nil, err
	}
	annonce, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, id, bson.M{"statut": statut}); err != nil {
		return nil, utils.Persistence("statut annonce", err)
	}
	s.logger.Infow("Statut de l'annonce modifié", "id", id.Hex(), "from", annonce.Statut, "to", statut)
	annonce.Statut = statut
	return annonce, nil
}

// AddImages héberge les fichiers puis les ajoute à la galerie. Rien n'est enregistré si un fichier est refusé.
func (s *AnnonceService) AddImages(ctx context.Context, id primitive.ObjectID, uploads []Upload) (*models.Annonce, error) {
	if len(uploads) == 0 {
		return nil, utils.ValidationError{Field: "images", Message: constants.ErrNoFile}
	}
	annonce, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if len(annonce.Images)+len(uploads) > constants.MaxImages {
		return nil, utils.ValidationError{Field: "images", Message: fmt.Sprintf("une annonce ne peut pas contenir plus de %d images", constants.MaxImages)}
	}

	// Vérifier tous les fichiers avant le premier upload
	contents := make([][]byte, len(uploads))
	for i, upload := range uploads {
		data, contentType, err := sniffFile(upload.Reader, constants.MaxImageSize)
		if err != nil {
			return nil, utils.ValidationError{Field: "images", Message: fmt.Sprintf("%s: %v", upload.Filename, err)}
		}
		if !IsImage(contentType) {
			return nil, utils.ValidationError{Field: "images", Message: fmt.Sprintf("%s: seules les images sont acceptées", upload.Filename)}
		}
		contents[i] = data
	}

	images := make([]models.Image, 0, len(uploads))
	for i, upload := range uploads {
		image, err := s.images.Upload(ctx, bytes.NewReader(contents[i]), upload.Filename, FolderAnnonces)
		if err != nil {
			for _, done := range images {
				s.deleteImage(ctx, done.ID)
			}
			return nil, fmt.Errorf("erreur lors de l'upload de %s: %w", upload.Filename, err)
		}
		images = append(images, *image)
	}

	if err := s.store.AddImages(ctx, id, images); err != nil {
		for _, done := range images {
			s.deleteImage(ctx, done.ID)
		}
		return nil, utils.Persistence("ajout images", err)
	}
	annonce.Images = append(annonce.Images, images...)
	s.logger.Infow("✓ Images ajoutées", "id", id.Hex(), "count", len(images))
	return annonce, nil
}

// RemoveImage retire une image de la galerie puis de l'hébergeur
func (s *AnnonceService) RemoveImage(ctx context.Context, id primitive.ObjectID, imageID string) (*models.Annonce, error) {
	annonce, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	kept := make([]models.Image, 0, len(annonce.Images))
	for _, image := range annonce.Images {
		if image.ID != imageID {
			kept = append(kept, image)
		}
	}
	if len(kept) == len(annonce.Images) {
		return nil, utils.NotFoundError{Resource: "image", ID: imageID}
	}

	if err := s.store.RemoveImage(ctx, id, imageID); err != nil {
		return nil, utils.Persistence("suppression image", err)
	}
	s.deleteImage(ctx, imageID)
	annonce.Images = kept
	return annonce, nil
}

// Delete supprime l'annonce puis ses images chez l'hébergeur
func (s *AnnonceService) Delete(ctx context.Context, id primitive.ObjectID) error {
	annonce, err := s.Get(ctx, id, false)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return utils.Persistence("suppression annonce", err)
	}
	for _, image := range annonce.Images {
		s.deleteImage(ctx, image.ID)
	}
	s.logger.Infow("✓ Annonce supprimée", "id", id.Hex(), "images", len(annonce.Images))
	return nil
}

func (s *AnnonceService) deleteImage(ctx context.Context, id string) {
	if err := s.images.Delete(ctx, id); err != nil {
		s.logger.Warnw("⚠️  Suppression de l'image impossible", "image", id, "error", err)
	}
}
