package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recherche est le journal d'une recherche publique, utilisé uniquement pour les statistiques
type Recherche struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Terme           string             `json:"terme" bson:"terme"`
	Filtres         map[string]string  `json:"filtres,omitempty" bson:"filtres,omitempty"`
	NombreResultats int64              `json:"nombreResultats" bson:"nombreResultats"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}
