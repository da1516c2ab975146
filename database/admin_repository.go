package database

import (
	"context"
	"fmt"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AdminRepository gère les comptes du back office
type AdminRepository struct {
	collection *mongo.Collection
}

// NewAdminRepository crée une nouvelle instance de AdminRepository
func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{
		collection: db.Collection(constants.CollectionAdmins),
	}
}

// Create crée un nouvel administrateur
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	admin.ID = primitive.NewObjectID()
	admin.CreatedAt = storedNow()

	if _, err := r.collection.InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("cet email est déjà utilisé")
		}
		return fmt.Errorf("erreur lors de la création de l'administrateur: %w", err)
	}
	return nil
}

// FindByEmail recherche un administrateur par email
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID recherche un administrateur par ID
func (r *AdminRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AdminRepository) findOne(ctx context.Context, filter bson.M) (*models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var admin models.Admin
	err := r.collection.FindOne(ctx, filter).Decode(&admin)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'administrateur: %w", err)
	}
	return &admin, nil
}

// UpdateLastLogin enregistre la date de dernière connexion
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: bson.M{"lastLogin": storedNow()}})
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de la connexion: %w", err)
	}
	return nil
}
