package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Adresse postale
type Adresse struct {
	Rue        string `json:"rue,omitempty" bson:"rue,omitempty"`
	CodePostal string `json:"codePostal,omitempty" bson:"codePostal,omitempty"`
	Ville      string `json:"ville,omitempty" bson:"ville,omitempty"`
	Pays       string `json:"pays,omitempty" bson:"pays,omitempty"`
}

// Vendeur représente l'entreprise qui propose les annonces
type Vendeur struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Nom         string             `json:"nom" bson:"nom"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Logo        *Image             `json:"logo,omitempty" bson:"logo,omitempty"`
	Couverture  *Image             `json:"couverture,omitempty" bson:"couverture,omitempty"`
	Note        float64            `json:"note" bson:"note"` // 0 à 5
	Actif       bool               `json:"actif" bson:"actif"`
	Email       string             `json:"email,omitempty" bson:"email,omitempty"`
	Telephone   string             `json:"telephone,omitempty" bson:"telephone,omitempty"`
	SiteWeb     string             `json:"siteWeb,omitempty" bson:"siteWeb,omitempty"`
	Adresse     Adresse            `json:"adresse" bson:"adresse"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// VendeurRequest représente le formulaire de création / modification d'un vendeur
type VendeurRequest struct {
	Nom         string   `json:"nom"`
	Description string   `json:"description"`
	Note        *float64 `json:"note"`
	Actif       *bool    `json:"actif"`
	Email       string   `json:"email"`
	Telephone   string   `json:"telephone"`
	SiteWeb     string   `json:"siteWeb"`
	Adresse     *Adresse `json:"adresse"`
}
