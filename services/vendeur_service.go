package services

import (
	"bytes"
	"context"
	"strings"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Emplacements d'image d'un vendeur
const (
	VendeurLogo       = "logo"
	VendeurCouverture = "couverture"
)

// VendeurStore est la persistance des vendeurs
type VendeurStore interface {
	Create(ctx context.Context, vendeur *models.Vendeur) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vendeur, error)
	List(ctx context.Context, q string, actif *bool, page, limit int) ([]models.Vendeur, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SellerUsage compte les annonces d'un vendeur
type SellerUsage interface {
	CountByVendeur(ctx context.Context, vendeurID primitive.ObjectID) (int64, error)
}

// VendeurService gère les vendeurs
type VendeurService struct {
	store  VendeurStore
	usage  SellerUsage
	images ImageHost
	logger *zap.SugaredLogger
}

// NewVendeurService crée une nouvelle instance de VendeurService
func NewVendeurService(store VendeurStore, usage SellerUsage, images ImageHost, logger *zap.SugaredLogger) *VendeurService {
	return &VendeurService{store: store, usage: usage, images: images, logger: logger}
}

// Get retourne un vendeur par ID
func (s *VendeurService) Get(ctx context.Context, id primitive.ObjectID) (*models.Vendeur, error) {
	vendeur, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, utils.Persistence("lecture vendeur", err)
	}
	if vendeur == nil {
		return nil, utils.NotFoundError{Resource: "vendeur", ID: id.Hex()}
	}
	return vendeur, nil
}

// List retourne une page de vendeurs
func (s *VendeurService) List(ctx context.Context, q string, actif *bool, page, limit int) ([]models.Vendeur, int64, error) {
	vendeurs, total, err := s.store.List(ctx, q, actif, page, limit)
	if err != nil {
		return nil, 0, utils.Persistence("liste vendeurs", err)
	}
	return vendeurs, total, nil
}

// Create enregistre un vendeur, actif par défaut
func (s *VendeurService) Create(ctx context.Context, req models.VendeurRequest) (*models.Vendeur, error) {
	vendeur := &models.Vendeur{Actif: true}
	if err := applyVendeur(vendeur, req); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, vendeur); err != nil {
		return nil, utils.Persistence("création vendeur", err)
	}
	s.logger.Infow("✓ Vendeur créé", "id", vendeur.ID.Hex(), "nom", vendeur.Nom)
	return vendeur, nil
}

// Update remplace les informations du vendeur; note, actif et adresse absents sont conservés
func (s *VendeurService) Update(ctx context.Context, id primitive.ObjectID, req models.VendeurRequest) (*models.Vendeur, error) {
	vendeur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyVendeur(vendeur, req); err != nil {
		return nil, err
	}
	update := bson.M{
		"nom":         vendeur.Nom,
		"description": vendeur.Description,
		"note":        vendeur.Note,
		"actif":       vendeur.Actif,
		"email":       vendeur.Email,
		"telephone":   vendeur.Telephone,
		"siteWeb":     vendeur.SiteWeb,
		"adresse":     vendeur.Adresse,
	}
	if err := s.store.Update(ctx, id, update); err != nil {
		return nil, utils.Persistence("mise à jour vendeur", err)
	}
	vendeur.UpdatedAt = time.Now()
	return vendeur, nil
}

func applyVendeur(vendeur *models.Vendeur, req models.VendeurRequest) error {
	if err := utils.ValidateRequired("nom", req.Nom); err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			return err
		}
	}
	if strings.TrimSpace(req.Telephone) != "" {
		if err := utils.ValidatePhone(req.Telephone); err != nil {
			return err
		}
	}
	if req.Note != nil {
		if err := utils.ValidateRating(*req.Note); err != nil {
			return err
		}
		vendeur.Note = roundHalfUp(*req.Note, 1)
	}
	if req.Actif != nil {
		vendeur.Actif = *req.Actif
	}
	if req.Adresse != nil {
		vendeur.Adresse = *req.Adresse
	}
	vendeur.Nom = strings.TrimSpace(req.Nom)
	vendeur.Description = strings.TrimSpace(req.Description)
	vendeur.Email = email
	vendeur.Telephone = strings.TrimSpace(req.Telephone)
	vendeur.SiteWeb = strings.TrimSpace(req.SiteWeb)
	return nil
}

// SetActif active ou désactive un vendeur. Un vendeur inactif disparaît de la recherche publique.
func (s *VendeurService) SetActif(ctx context.Context, id primitive.ObjectID, actif bool) (*models.Vendeur, error) {
	vendeur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, id, bson.M{"actif": actif}); err != nil {
		return nil, utils.Persistence("activation vendeur", err)
	}
	vendeur.Actif = actif
	s.logger.Infow("Vendeur (dés)activé", "id", id.Hex(), "actif", actif)
	return vendeur, nil
}

// SetImage héberge le logo ou la couverture et remplace l'ancienne image
func (s *VendeurService) SetImage(ctx context.Context, id primitive.ObjectID, slot string, upload Upload) (*models.Vendeur, error) {
	if slot != VendeurLogo && slot != VendeurCouverture {
		return nil, utils.ValidationError{Field: "image", Message: "emplacement inconnu: " + slot}
	}
	vendeur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, contentType, err := sniffFile(upload.Reader, constants.MaxImageSize)
	if err != nil {
		return nil, utils.ValidationError{Field: slot, Message: err.Error()}
	}
	if !IsImage(contentType) {
		return nil, utils.ValidationError{Field: slot, Message: "seules les images sont acceptées"}
	}
	image, err := s.images.Upload(ctx, bytes.NewReader(data), upload.Filename, FolderVendeurs)
	if err != nil {
		return nil, err
	}

	previous := vendeur.Logo
	if slot == VendeurCouverture {
		previous = vendeur.Couverture
	}
	if err := s.store.Update(ctx, id, bson.M{slot: image}); err != nil {
		s.deleteImage(ctx, image.ID)
		return nil, utils.Persistence("image vendeur", err)
	}
	if previous != nil {
		s.deleteImage(ctx, previous.ID)
	}
	if slot == VendeurLogo {
		vendeur.Logo = image
	} else {
		vendeur.Couverture = image
	}
	return vendeur, nil
}

// Delete supprime un vendeur sans annonce, avec ses images
func (s *VendeurService) Delete(ctx context.Context, id primitive.ObjectID) error {
	vendeur, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.usage.CountByVendeur(ctx, id)
	if err != nil {
		return utils.Persistence("comptage annonces", err)
	}
	if count > 0 {
		return utils.ConflictError{Message: "impossible de supprimer un vendeur qui a encore des annonces"}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return utils.Persistence("suppression vendeur", err)
	}
	for _, image := range []*models.Image{vendeur.Logo, vendeur.Couverture} {
		if image != nil {
			s.deleteImage(ctx, image.ID)
		}
	}
	s.logger.Infow("✓ Vendeur supprimé", "id", id.Hex())
	return nil
}

func (s *VendeurService) deleteImage(ctx context.Context, id string) {
	if err := s.images.Delete(ctx, id); err != nil {
		s.logger.Warnw("⚠️  Suppression de l'image impossible", "image", id, "error", err)
	}
}
