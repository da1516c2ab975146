package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatsRepository exécute les pipelines d'agrégation des statistiques
type StatsRepository struct {
	db      *mongo.Database
	timeout time.Duration
}

// NewStatsRepository crée une nouvelle instance de StatsRepository
func NewStatsRepository(db *mongo.Database) *StatsRepository {
	return &StatsRepository{db: db, timeout: 30 * time.Second}
}

// Aggregate exécute le pipeline sur la collection et retourne les documents produits
func (r *StatsRepository) Aggregate(ctx context.Context, collection string, pipeline []bson.M) ([]bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Aggregate().SetAllowDiskUse(true)
	cursor, err := r.db.Collection(collection).Aggregate(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'agrégation %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	results := []bson.M{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage de l'agrégation %s: %w", collection, err)
	}
	return results, nil
}
