package database

import (
	"context"
	"fmt"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RechercheRepository journalise les recherches publiques
type RechercheRepository struct {
	collection *mongo.Collection
}

// NewRechercheRepository crée une nouvelle instance de RechercheRepository
func NewRechercheRepository(db *mongo.Database) *RechercheRepository {
	return &RechercheRepository{
		collection: db.Collection(constants.CollectionRecherches),
	}
}

// Create enregistre une recherche
func (r *RechercheRepository) Create(ctx context.Context, recherche *models.Recherche) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	recherche.ID = primitive.NewObjectID()
	recherche.CreatedAt = storedNow()

	if _, err := r.collection.InsertOne(ctx, recherche); err != nil {
		return fmt.Errorf("erreur lors de l'enregistrement de la recherche: %w", err)
	}
	return nil
}
