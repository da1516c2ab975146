package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SpamWindow est la fenêtre pendant laquelle un même email ne peut pas redemander un devis sur la même annonce
const SpamWindow = 24 * time.Hour

// DevisStore est la persistance des demandes de devis
type DevisStore interface {
	Create(ctx context.Context, devis *models.Devis) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Devis, error)
	List(ctx context.Context, statut, q string, annonce *primitive.ObjectID, page, limit int) ([]models.Devis, int64, error)
	CountRecent(ctx context.Context, email string, annonce primitive.ObjectID, statut string, since time.Time) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ListingLookup charge une annonce par ID
type ListingLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Annonce, error)
}

// Upload est un fichier reçu d'un formulaire multipart
type Upload struct {
	Reader   io.Reader
	Filename string
}

// DevisService gère le cycle de vie des demandes de devis
type DevisService struct {
	store    DevisStore
	annonces ListingLookup
	images   ImageHost
	mailer   Mailer
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewDevisService crée une nouvelle instance de DevisService
func NewDevisService(store DevisStore, annonces ListingLookup, images ImageHost, mailer Mailer, logger *zap.SugaredLogger) *DevisService {
	return &DevisService{store: store, annonces: annonces, images: images, mailer: mailer, logger: logger, now: time.Now}
}

// Create enregistre une demande publique après contrôle anti-spam
func (s *DevisService) Create(ctx context.Context, req models.CreateDevisRequest) (*models.Devis, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateRequired("nom", req.Nom); err != nil {
		return nil, err
	}
	if err := utils.ValidateRequired("prenom", req.Prenom); err != nil {
		return nil, err
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := utils.ValidatePhone(req.Telephone); err != nil {
		return nil, err
	}
	annonceID, err := primitive.ObjectIDFromHex(req.Annonce)
	if err != nil {
		return nil, utils.ValidationError{Field: "annonce", Message: "ID annonce invalide"}
	}

	annonce, err := s.annonces.FindByID(ctx, annonceID)
	if err != nil {
		return nil, utils.Persistence("lecture annonce", err)
	}
	if annonce == nil {
		return nil, utils.NotFoundError{Resource: "annonce", ID: req.Annonce}
	}

	recent, err := s.store.CountRecent(ctx, req.Email, annonceID, models.DevisNouveau, s.now().Add(-SpamWindow))
	if err != nil {
		return nil, utils.Persistence("contrôle anti-spam", err)
	}
	if recent > 0 {
		return nil, utils.ConflictError{Message: "une demande de devis pour cette annonce est déjà en cours de traitement"}
	}

	devis := &models.Devis{
		Nom:        strings.TrimSpace(req.Nom),
		Prenom:     strings.TrimSpace(req.Prenom),
		Email:      req.Email,
		Telephone:  strings.TrimSpace(req.Telephone),
		Entreprise: strings.TrimSpace(req.Entreprise),
		Adresse:    req.Adresse,
		Ville:      strings.TrimSpace(req.Adresse.Ville),
		Pays:       strings.TrimSpace(req.Adresse.Pays),
		Annonce:    annonceID,
		Message:    strings.TrimSpace(req.Message),
		Statut:     models.DevisNouveau,
	}
	if err := s.store.Create(ctx, devis); err != nil {
		return nil, utils.Persistence("création devis", err)
	}

	s.logger.Infow("✓ Demande de devis créée", "id", devis.ID.Hex(), "annonce", req.Annonce, "email", devis.Email)
	return devis, nil
}

// Get retourne un devis par ID
func (s *DevisService) Get(ctx context.Context, id primitive.ObjectID) (*models.Devis, error) {
	devis, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, utils.Persistence("lecture devis", err)
	}
	if devis == nil {
		return nil, utils.NotFoundError{Resource: "devis", ID: id.Hex()}
	}
	return devis, nil
}

// List retourne une page de devis
func (s *DevisService) List(ctx context.Context, statut, q string, annonce *primitive.ObjectID, page, limit int) ([]models.Devis, int64, error) {
	if statut != "" {
		if err := utils.ValidateOneOf("statut", statut, models.DevisStatuts); err != nil {
			return nil, 0, err
		}
	}
	devis, total, err := s.store.List(ctx, statut, q, annonce, page, limit)
	if err != nil {
		return nil, 0, utils.Persistence("liste devis", err)
	}
	return devis, total, nil
}

// CanTransition indique si le statut from peut passer à to
func CanTransition(from, to string) bool {
	for _, next := range models.DevisTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus applique une transition de statut; l'acceptation crée le suivi de commande
func (s *DevisService) UpdateStatus(ctx context.Context, id primitive.ObjectID, statut string) (*models.Devis, error) {
	if err := utils.ValidateOneOf("statut", statut, models.DevisStatuts); err != nil {
		return nil, err
	}
	devis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if devis.Statut == statut {
		return devis, nil
	}
	if !CanTransition(devis.Statut, statut) {
		return nil, utils.ConflictError{Message: fmt.Sprintf("transition de statut impossible: %s -> %s", devis.Statut, statut)}
	}

	update := bson.M{"statut": statut}
	if statut == models.DevisAccepte && devis.SuiviCommande == nil {
		suivi := DefaultSuivi(s.now())
		update["suiviCommande"] = suivi
		devis.SuiviCommande = suivi
	}
	if err := s.store.Update(ctx, id, update); err != nil {
		return nil, utils.Persistence("mise à jour statut devis", err)
	}

	s.logger.Infow("Statut du devis modifié", "id", id.Hex(), "from", devis.Statut, "to", statut)
	devis.Statut = statut
	return devis, nil
}

// DefaultSuivi crée les étapes par défaut, la première déjà terminée
func DefaultSuivi(now time.Time) *models.SuiviCommande {
	etapes := make([]models.EtapeCommande, 0, len(models.EtapesParDefaut))
	for i, nom := range models.EtapesParDefaut {
		etape := models.EtapeCommande{Nom: nom, Statut: models.EtapeEnAttente}
		if i == 0 {
			date := now
			etape.Statut = models.EtapeTerminee
			etape.Progression = 100
			etape.Date = &date
		}
		etapes = append(etapes, etape)
	}
	return &models.SuiviCommande{Etapes: etapes, UpdatedAt: now}
}

// respondableStatuts sont les statuts depuis lesquels l'administrateur peut envoyer (ou renvoyer) une offre
var respondableStatuts = map[string]bool{
	models.DevisNouveau: true,
	models.DevisEnCours: true,
	models.DevisEnvoye:  true,
}

// Respond enregistre la réponse de l'administrateur, passe le devis à "envoye" et notifie le client.
// L'échec de l'email est journalisé sans annuler la réponse.
func (s *DevisService) Respond(ctx context.Context, id primitive.ObjectID, req models.ReponseAdminRequest, contrat *Upload) (*models.Devis, error) {
	iban := utils.NormalizeIBAN(req.IBAN)
	if err := utils.ValidateIBAN(iban); err != nil {
		return nil, err
	}
	bic := strings.ToUpper(strings.TrimSpace(req.BIC))
	if err := utils.ValidateBIC(bic); err != nil {
		return nil, err
	}
	if req.Montant <= 0 {
		return nil, utils.ValidationError{Field: "montant", Message: "le montant doit être supérieur à 0"}
	}

	devis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !respondableStatuts[devis.Statut] {
		return nil, utils.ConflictError{Message: fmt.Sprintf("impossible de répondre à un devis au statut %s", devis.Statut)}
	}

	devise := strings.ToUpper(strings.TrimSpace(req.Devise))
	if devise == "" {
		devise = "EUR"
	}
	reponse := &models.ReponseAdmin{
		IBAN:        iban,
		BIC:         bic,
		Montant:     roundHalfUp(req.Montant, 2),
		Devise:      devise,
		Message:     strings.TrimSpace(req.Message),
		DateReponse: req.DateReponse.OrNow(),
	}
	if devis.ReponseAdmin != nil {
		reponse.ContratURL = devis.ReponseAdmin.ContratURL
		reponse.ContratID = devis.ReponseAdmin.ContratID
	}

	if contrat != nil {
		file, err := s.images.Upload(ctx, contrat.Reader, contrat.Filename, FolderDevis)
		if err != nil {
			return nil, utils.ValidationError{Field: "contrat", Message: err.Error()}
		}
		if devis.ReponseAdmin != nil && devis.ReponseAdmin.ContratID != "" {
			s.deleteFile(ctx, devis.ReponseAdmin.ContratID)
		}
		reponse.ContratURL = file.URL
		reponse.ContratID = file.ID
	}

	if err := s.store.Update(ctx, id, bson.M{"reponseAdmin": reponse, "statut": models.DevisEnvoye}); err != nil {
		return nil, utils.Persistence("réponse devis", err)
	}
	devis.ReponseAdmin = reponse
	devis.Statut = models.DevisEnvoye

	s.notifyResponse(ctx, devis, req.Langue)
	return devis, nil
}

func (s *DevisService) notifyResponse(ctx context.Context, devis *models.Devis, langue string) {
	titre := devis.Annonce.Hex()
	if annonce, err := s.annonces.FindByID(ctx, devis.Annonce); err == nil && annonce != nil {
		titre = annonce.Titre
	}

	subject, body, err := RenderReponseDevis(langue, ReponseDevisEmail{
		Nom:        devis.Nom,
		Prenom:     devis.Prenom,
		Annonce:    titre,
		Montant:    fmt.Sprintf("%.2f", devis.ReponseAdmin.Montant),
		Devise:     devis.ReponseAdmin.Devise,
		IBAN:       devis.ReponseAdmin.IBAN,
		BIC:        devis.ReponseAdmin.BIC,
		Message:    devis.ReponseAdmin.Message,
		ContratURL: devis.ReponseAdmin.ContratURL,
	})
	if err != nil {
		s.logger.Errorw("❌ Rendu de l'email de réponse impossible", "id", devis.ID.Hex(), "error", err)
		return
	}
	if err := s.mailer.Send(devis.Email, subject, body); err != nil {
		s.logger.Errorw("❌ Envoi de l'email de réponse impossible", "id", devis.ID.Hex(), "email", devis.Email, "error", err)
	}
}

// ClientResponse enregistre les justificatifs déposés par le client (contrat signé, reçu de paiement)
func (s *DevisService) ClientResponse(ctx context.Context, id primitive.ObjectID, contratSigne, recu *Upload) (*models.Devis, error) {
	if contratSigne == nil && recu == nil {
		return nil, utils.ValidationError{Field: "fichiers", Message: "au moins un document est requis"}
	}
	devis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if devis.Statut != models.DevisEnvoye && devis.Statut != models.DevisAccepte {
		return nil, utils.ConflictError{Message: "aucune offre n'a encore été envoyée pour ce devis"}
	}

	reponse := &models.ReponseClient{}
	if devis.ReponseClient != nil {
		*reponse = *devis.ReponseClient
	}
	if contratSigne != nil {
		file, err := s.images.Upload(ctx, contratSigne.Reader, contratSigne.Filename, FolderDevis)
		if err != nil {
			return nil, utils.ValidationError{Field: "contratSigne", Message: err.Error()}
		}
		reponse.ContratSigneURL = file.URL
	}
	if recu != nil {
		file, err := s.images.Upload(ctx, recu.Reader, recu.Filename, FolderDevis)
		if err != nil {
			return nil, utils.ValidationError{Field: "recuPaiement", Message: err.Error()}
		}
		reponse.RecuPaiementURL = file.URL
	}
	reponse.DateReponse = s.now()

	if err := s.store.Update(ctx, id, bson.M{"reponseClient": reponse}); err != nil {
		return nil, utils.Persistence("réponse client", err)
	}
	devis.ReponseClient = reponse
	s.logger.Infow("✓ Justificatifs client reçus", "id", id.Hex())
	return devis, nil
}

// UpdateSuivi remplace la liste ordonnée des étapes de la commande
func (s *DevisService) UpdateSuivi(ctx context.Context, id primitive.ObjectID, etapes []models.EtapeCommande) (*models.Devis, error) {
	if len(etapes) == 0 {
		return nil, utils.ValidationError{Field: "etapes", Message: "au moins une étape est requise"}
	}
	for i, etape := range etapes {
		field := fmt.Sprintf("etapes[%d]", i)
		if strings.TrimSpace(etape.Nom) == "" {
			return nil, utils.ValidationError{Field: field, Message: "le nom de l'étape est requis"}
		}
		if err := utils.ValidateOneOf(field+".statut", etape.Statut, []string{models.EtapeEnAttente, models.EtapeEnCours, models.EtapeTerminee}); err != nil {
			return nil, err
		}
		if etape.Progression < 0 || etape.Progression > 100 {
			return nil, utils.ValidationError{Field: field + ".progression", Message: "la progression doit être comprise entre 0 et 100"}
		}
		etapes[i].Nom = strings.TrimSpace(etape.Nom)
	}

	devis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if devis.Statut != models.DevisAccepte {
		return nil, utils.ConflictError{Message: "le suivi de commande n'est disponible que pour un devis accepté"}
	}

	suivi := &models.SuiviCommande{Etapes: etapes, UpdatedAt: s.now()}
	if err := s.store.Update(ctx, id, bson.M{"suiviCommande": suivi}); err != nil {
		return nil, utils.Persistence("suivi commande", err)
	}
	devis.SuiviCommande = suivi
	return devis, nil
}

// Delete supprime un devis et son contrat
func (s *DevisService) Delete(ctx context.Context, id primitive.ObjectID) error {
	devis, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return utils.Persistence("suppression devis", err)
	}
	if devis.ReponseAdmin != nil && devis.ReponseAdmin.ContratID != "" {
		s.deleteFile(ctx, devis.ReponseAdmin.ContratID)
	}
	return nil
}

func (s *DevisService) deleteFile(ctx context.Context, id string) {
	if err := s.images.Delete(ctx, id); err != nil {
		s.logger.Warnw("⚠️  Suppression du fichier impossible", "file", id, "error", err)
	}
}
