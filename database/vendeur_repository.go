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

// VendeurRepository gère les opérations sur les vendeurs
type VendeurRepository struct {
	collection *mongo.Collection
}

// NewVendeurRepository crée une nouvelle instance de VendeurRepository
func NewVendeurRepository(db *mongo.Database) *VendeurRepository {
	return &VendeurRepository{
		collection: db.Collection(constants.CollectionVendeurs),
	}
}

// BuildVendeurFilter construit le filtre de la liste des vendeurs
func BuildVendeurFilter(q string, actif *bool) bson.M {
	filter := bson.M{}
	if q = strings.TrimSpace(q); q != "" {
		pattern := bson.M{BSONRegex: regexp.QuoteMeta(q), BSONOptions: "i"}
		filter[BSONOr] = []bson.M{{"nom": pattern}, {"email": pattern}, {"adresse.ville": pattern}}
	}
	if actif != nil {
		filter["actif"] = *actif
	}
	return filter
}

// Create insère un nouveau vendeur
func (r *VendeurRepository) Create(ctx context.Context, vendeur *models.Vendeur) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := storedNow()
	vendeur.ID = primitive.NewObjectID()
	vendeur.CreatedAt = now
	vendeur.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, vendeur); err != nil {
		return fmt.Errorf("erreur lors de la création du vendeur: %w", err)
	}
	return nil
}

// FindByID recherche un vendeur par ID
func (r *VendeurRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vendeur, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var vendeur models.Vendeur
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&vendeur)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du vendeur: %w", err)
	}
	return &vendeur, nil
}

// List retourne une page de vendeurs triés par nom
func (r *VendeurRepository) List(ctx context.Context, q string, actif *bool, page, limit int) ([]models.Vendeur, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := BuildVendeurFilter(q, actif)
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors du comptage des vendeurs: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "nom", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors de la recherche des vendeurs: %w", err)
	}
	defer cursor.Close(ctx)

	vendeurs := []models.Vendeur{}
	if err = cursor.All(ctx, &vendeurs); err != nil {
		return nil, 0, fmt.Errorf("erreur lors du décodage des vendeurs: %w", err)
	}
	return vendeurs, total, nil
}

// ActiveIDs retourne les identifiants des vendeurs actifs
func (r *VendeurRepository) ActiveIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"actif": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des vendeurs actifs: %w", err)
	}
	defer cursor.Close(ctx)

	ids := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("erreur lors du décodage du vendeur: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

// Update applique un $set sur le vendeur
func (r *VendeurRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update["updatedAt"] = storedNow()
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: update}); err != nil {
		return fmt.Errorf("erreur lors de la mise à jour du vendeur: %w", err)
	}
	return nil
}

// Delete supprime un vendeur
func (r *VendeurRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression du vendeur: %w", err)
	}
	return nil
}
