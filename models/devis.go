package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts d'une demande de devis
const (
	DevisNouveau = "nouveau"
	DevisEnCours = "en_cours"
	DevisEnvoye  = "envoye"
	DevisAccepte = "accepte"
	DevisRefuse  = "refuse"
	DevisExpire  = "expire"
)

// Statuts d'une étape de suivi de commande
const (
	EtapeEnAttente = "en_attente"
	EtapeEnCours   = "en_cours"
	EtapeTerminee  = "termine"
)

var DevisStatuts = []string{DevisNouveau, DevisEnCours, DevisEnvoye, DevisAccepte, DevisRefuse, DevisExpire}

// DevisTransitions liste les statuts atteignables depuis chaque statut
var DevisTransitions = map[string][]string{
	DevisNouveau: {DevisEnCours, DevisRefuse, DevisExpire},
	DevisEnCours: {DevisEnvoye, DevisRefuse, DevisExpire},
	DevisEnvoye:  {DevisAccepte, DevisRefuse, DevisExpire},
}

// EtapesParDefaut sont créées lorsqu'un devis est accepté
var EtapesParDefaut = []string{"Confirmation de commande", "Paiement reçu", "Préparation", "Expédition", "Livraison"}

// ReponseAdmin est la réponse financière et contractuelle de l'administrateur
type ReponseAdmin struct {
	ContratURL  string    `json:"contratUrl,omitempty" bson:"contratUrl,omitempty"`
	ContratID   string    `json:"contratId,omitempty" bson:"contratId,omitempty"`
	IBAN        string    `json:"iban" bson:"iban"`
	BIC         string    `json:"bic" bson:"bic"`
	Montant     float64   `json:"montant" bson:"montant"`
	Devise      string    `json:"devise" bson:"devise"`
	Message     string    `json:"message,omitempty" bson:"message,omitempty"`
	DateReponse time.Time `json:"dateReponse" bson:"dateReponse"`
}

// ReponseClient contient les justificatifs déposés par le client
type ReponseClient struct {
	ContratSigneURL string    `json:"contratSigneUrl,omitempty" bson:"contratSigneUrl,omitempty"`
	RecuPaiementURL string    `json:"recuPaiementUrl,omitempty" bson:"recuPaiementUrl,omitempty"`
	DateReponse     time.Time `json:"dateReponse" bson:"dateReponse"`
}

// EtapeCommande est une étape du suivi de commande
type EtapeCommande struct {
	Nom         string     `json:"nom" bson:"nom"`
	Statut      string     `json:"statut" bson:"statut"`
	Progression int        `json:"progression" bson:"progression"` // 0 à 100
	Date        *time.Time `json:"date,omitempty" bson:"date,omitempty"`
}

// SuiviCommande est la liste ordonnée des étapes d'une commande
type SuiviCommande struct {
	Etapes    []EtapeCommande `json:"etapes" bson:"etapes"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Devis représente une demande de devis sur une annonce
type Devis struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Nom           string             `json:"nom" bson:"nom"`
	Prenom        string             `json:"prenom" bson:"prenom"`
	Email         string             `json:"email" bson:"email"`
	Telephone     string             `json:"telephone" bson:"telephone"`
	Entreprise    string             `json:"entreprise,omitempty" bson:"entreprise,omitempty"`
	Adresse       Adresse            `json:"adresse" bson:"adresse"`
	Ville         string             `json:"ville" bson:"ville"`
	Pays          string             `json:"pays" bson:"pays"`
	Annonce       primitive.ObjectID `json:"annonce" bson:"annonce"`
	Message       string             `json:"message" bson:"message"`
	Statut        string             `json:"statut" bson:"statut"`
	ReponseAdmin  *ReponseAdmin      `json:"reponseAdmin,omitempty" bson:"reponseAdmin,omitempty"`
	ReponseClient *ReponseClient     `json:"reponseClient,omitempty" bson:"reponseClient,omitempty"`
	SuiviCommande *SuiviCommande     `json:"suiviCommande,omitempty" bson:"suiviCommande,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateDevisRequest est le formulaire public de demande de devis
type CreateDevisRequest struct {
	Nom        string  `json:"nom"`
	Prenom     string  `json:"prenom"`
	Email      string  `json:"email"`
	Telephone  string  `json:"telephone"`
	Entreprise string  `json:"entreprise"`
	Adresse    Adresse `json:"adresse"`
	Annonce    string  `json:"annonce"`
	Message    string  `json:"message"`
}

// ReponseAdminRequest est la réponse saisie par l'administrateur
type ReponseAdminRequest struct {
	IBAN        string        `json:"iban"`
	BIC         string        `json:"bic"`
	Montant     float64       `json:"montant"`
	Devise      string        `json:"devise"`
	Message     string        `json:"message"`
	DateReponse *FlexibleTime `json:"dateReponse,omitempty"`
	Langue      string        `json:"langue"` // fr ou en, pour le modèle d'email
}

// SuiviRequest remplace la liste des étapes du suivi
type SuiviRequest struct {
	Etapes []EtapeCommande `json:"etapes"`
}
