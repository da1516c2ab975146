package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DevisRepository gère les opérations sur les demandes de devis
type DevisRepository struct {
	collection *mongo.Collection
}

// NewDevisRepository crée une nouvelle instance de DevisRepository
func NewDevisRepository(db *mongo.Database) *DevisRepository {
	return &DevisRepository{
		collection: db.Collection(constants.CollectionDevis),
	}
}

// BuildDevisFilter construit le filtre de la liste des devis
func BuildDevisFilter(statut, q string, annonce *primitive.ObjectID) bson.M {
	filter := bson.M{}
	if statut != "" {
		filter["statut"] = statut
	}
	if annonce != nil {
		filter["annonce"] = *annonce
	}
	if q = strings.TrimSpace(q); q != "" {
		pattern := bson.M{BSONRegex: regexp.QuoteMeta(q), BSONOptions: "i"}
		filter[BSONOr] = []bson.M{
			{"nom": pattern},
			{"prenom": pattern},
			{"email": pattern},
			{"entreprise": pattern},
		}
	}
	return filter
}

// Create insère une nouvelle demande de devis
func (r *DevisRepository) Create(ctx context.Context, devis *models.Devis) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := storedNow()
	devis.ID = primitive.NewObjectID()
	devis.CreatedAt = now
	devis.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, devis); err != nil {
		return fmt.Errorf("erreur lors de la création du devis: %w", err)
	}
	return nil
}

// FindByID recherche un devis par ID
func (r *DevisRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Devis, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var devis models.Devis
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&devis)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du devis: %w", err)
	}
	return &devis, nil
}

// List retourne une page de devis, les plus récents d'abord
func (r *DevisRepository) List(ctx context.Context, statut, q string, annonce *primitive.ObjectID, page, limit int) ([]models.Devis, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := BuildDevisFilter(statut, q, annonce)
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors du comptage des devis: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors de la recherche des devis: %w", err)
	}
	defer cursor.Close(ctx)

	devis := []models.Devis{}
	if err = cursor.All(ctx, &devis); err != nil {
		return nil, 0, fmt.Errorf("erreur lors du décodage des devis: %w", err)
	}
	return devis, total, nil
}

// CountRecent compte les devis d'un email sur une annonce avec ce statut depuis since
func (r *DevisRepository) CountRecent(ctx context.Context, email string, annonce primitive.ObjectID, statut string, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"email":     email,
		"annonce":   annonce,
		"statut":    statut,
		"createdAt": bson.M{BSONGte: since},
	})
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des devis récents: %w", err)
	}
	return count, nil
}

// Update applique un $set sur le devis
func (r *DevisRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update["updatedAt"] = storedNow()
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: update}); err != nil {
		return fmt.Errorf("erreur lors de la mise à jour du devis: %w", err)
	}
	return nil
}

// Delete supprime un devis
func (r *DevisRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression du devis: %w", err)
	}
	return nil
}
