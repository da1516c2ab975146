package database

import (
	"context"
	"fmt"
	"time"

	"engins-backoffice/constants"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DB est l'instance de connexion à la base de données MongoDB
var DB *mongo.Database
var Client *mongo.Client

// Connect établit la connexion à la base de données MongoDB
func Connect(uri, dbName string, logger *zap.SugaredLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Options de connexion
	clientOptions := options.Client().ApplyURI(uri)

	// Connexion à MongoDB
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("erreur lors de la connexion à MongoDB: %w", err)
	}

	// Vérifier la connexion
	if err = client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("erreur lors du ping MongoDB: %w", err)
	}

	Client = client
	DB = client.Database(dbName)

	logger.Infow("✓ Connexion à MongoDB établie", "database", dbName)

	// Créer les index
	if err = createIndexes(ctx); err != nil {
		return fmt.Errorf("erreur lors de la création des index: %w", err)
	}
	logger.Info("✓ Index MongoDB créés")

	return nil
}

// storedNow retourne l'heure courante à la précision d'une date BSON (milliseconde, UTC),
// pour que la valeur renvoyée au client soit celle relue en base
func storedNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Ping vérifie que la connexion MongoDB est active
func Ping() error {
	if Client == nil {
		return fmt.Errorf("client MongoDB non initialisé")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Client.Ping(ctx, nil)
}

// Close ferme la connexion à la base de données
func Close() error {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return Client.Disconnect(ctx)
	}
	return nil
}

// indexes liste les index nécessaires par collection
func indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		constants.CollectionCategories: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "parent", Value: 1}}},
		},
		constants.CollectionAdmins: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		constants.CollectionAnnonces: {
			{Keys: bson.D{{Key: "categorie", Value: 1}}},
			{Keys: bson.D{{Key: "vendeur", Value: 1}}},
			{Keys: bson.D{{Key: "statut", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		constants.CollectionDevis: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "annonce", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "statut", Value: 1}}},
		},
		constants.CollectionRecherches: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
}

// createIndexes crée les index nécessaires
func createIndexes(ctx context.Context) error {
	for collection, models := range indexes() {
		if _, err := DB.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("erreur lors de la création des index %s: %w", collection, err)
		}
	}
	return nil
}
