package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Niveaux de l'arbre des catégories
const (
	NiveauRacine = 1
	NiveauMax    = 3
)

// Category représente un nœud de l'arbre des catégories (3 niveaux maximum)
type Category struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Nom         string              `json:"nom" bson:"nom"`
	Slug        string              `json:"slug" bson:"slug"`
	Description string              `json:"description,omitempty" bson:"description,omitempty"`
	Icone       *Image              `json:"icone,omitempty" bson:"icone,omitempty"`
	Niveau      int                 `json:"niveau" bson:"niveau"`
	Parent      *primitive.ObjectID `json:"parent" bson:"parent"` // nil pour le niveau 1
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// CategoryNode est une catégorie avec ses enfants, pour l'affichage en arbre
type CategoryNode struct {
	Category
	Enfants []*CategoryNode `json:"enfants"`
}

// CategoryRequest représente la requête de création ou de modification d'une catégorie
type CategoryRequest struct {
	Nom         string  `json:"nom"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Parent      *string `json:"parent"`
	// ExpectedUpdatedAt permet de détecter une modification concurrente (optionnel)
	ExpectedUpdatedAt *time.Time `json:"expectedUpdatedAt,omitempty"`
}
