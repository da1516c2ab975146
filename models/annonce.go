package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts d'une annonce
const (
	AnnonceActive    = "active"
	AnnonceVendue    = "vendue"
	AnnonceSuspendue = "suspendue"
	AnnonceBrouillon = "brouillon"
)

// États du matériel
const (
	EtatNeuf          = "neuf"
	EtatOccasion      = "occasion"
	EtatReconditionne = "reconditionne"
)

var AnnonceStatuts = []string{AnnonceActive, AnnonceVendue, AnnonceSuspendue, AnnonceBrouillon}
var AnnonceEtats = []string{EtatNeuf, EtatOccasion, EtatReconditionne}

// Dimensions physiques d'un engin
type Dimensions struct {
	Longueur float64 `json:"longueur,omitempty" bson:"longueur,omitempty"` // m
	Largeur  float64 `json:"largeur,omitempty" bson:"largeur,omitempty"`   // m
	Hauteur  float64 `json:"hauteur,omitempty" bson:"hauteur,omitempty"`   // m
	Poids    float64 `json:"poids,omitempty" bson:"poids,omitempty"`       // kg
}

// Caracteristique est un attribut libre (nom / valeur / unité)
type Caracteristique struct {
	Nom    string `json:"nom" bson:"nom"`
	Valeur string `json:"valeur" bson:"valeur"`
	Unite  string `json:"unite,omitempty" bson:"unite,omitempty"`
}

// Annonce représente un engin proposé à la vente
type Annonce struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Titre            string             `json:"titre" bson:"titre"`
	Description      string             `json:"description,omitempty" bson:"description,omitempty"`
	Marque           string             `json:"marque" bson:"marque"`
	Modele           string             `json:"modele" bson:"modele"`
	Pays             string             `json:"pays" bson:"pays"`
	Etat             string             `json:"etat" bson:"etat"`
	Prix             float64            `json:"prix" bson:"prix"`
	Devise           string             `json:"devise" bson:"devise"`
	Annee            int                `json:"annee" bson:"annee"`
	Carburant        string             `json:"carburant,omitempty" bson:"carburant,omitempty"`
	Dimensions       *Dimensions        `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	Puissance        float64            `json:"puissance,omitempty" bson:"puissance,omitempty"`     // ch
	Kilometrage      int                `json:"kilometrage,omitempty" bson:"kilometrage,omitempty"` // km
	Heures           int                `json:"heures,omitempty" bson:"heures,omitempty"`           // heures moteur
	Images           []Image            `json:"images" bson:"images"`
	Caracteristiques []Caracteristique  `json:"caracteristiques" bson:"caracteristiques"`
	Categorie        primitive.ObjectID `json:"categorie" bson:"categorie"`
	Vendeur          primitive.ObjectID `json:"vendeur" bson:"vendeur"`
	Vues             int                `json:"vues" bson:"vues"`
	Favoris          int                `json:"favoris" bson:"favoris"`
	Statut           string             `json:"statut" bson:"statut"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// AnnonceRequest représente le formulaire admin de création / modification d'annonce
type AnnonceRequest struct {
	Titre            string            `json:"titre"`
	Description      string            `json:"description"`
	Marque           string            `json:"marque"`
	Modele           string            `json:"modele"`
	Pays             string            `json:"pays"`
	Etat             string            `json:"etat"`
	Prix             *float64          `json:"prix"`
	Devise           string            `json:"devise"`
	Annee            int               `json:"annee"`
	Carburant        string            `json:"carburant"`
	Dimensions       *Dimensions       `json:"dimensions"`
	Puissance        float64           `json:"puissance"`
	Kilometrage      int               `json:"kilometrage"`
	Heures           int               `json:"heures"`
	Caracteristiques []Caracteristique `json:"caracteristiques"`
	Categorie        string            `json:"categorie"`
	Vendeur          string            `json:"vendeur"`
	Statut           string            `json:"statut"`
}

// AnnonceFilter regroupe les filtres de la liste des annonces
type AnnonceFilter struct {
	Query     string
	Categorie *primitive.ObjectID
	Vendeur   *primitive.ObjectID
	Statut    string
	Etat      string
	PrixMin   *float64
	PrixMax   *float64
	Tri       string // recent, prix_asc, prix_desc, vues
	// VendeursActifs restreint aux vendeurs actifs (recherche publique)
	VendeursActifs []primitive.ObjectID
}
