package database

import (
	"context"
	"fmt"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CategoryRepository gère les opérations sur les catégories
type CategoryRepository struct {
	collection *mongo.Collection
}

// NewCategoryRepository crée une nouvelle instance de CategoryRepository
func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{
		collection: db.Collection(constants.CollectionCategories),
	}
}

// Create insère une nouvelle catégorie
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := storedNow()
	category.ID = primitive.NewObjectID()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, category)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.ErrDuplicateKey
		}
		return fmt.Errorf("erreur lors de la création de la catégorie: %w", err)
	}
	return nil
}

// FindByID recherche une catégorie par ID
func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindBySlug recherche une catégorie par slug
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *CategoryRepository) findOne(ctx context.Context, filter bson.M) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var category models.Category
	err := r.collection.FindOne(ctx, filter).Decode(&category)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de la catégorie: %w", err)
	}
	return &category, nil
}

// FindAll retourne toutes les catégories triées par niveau puis par nom
func (r *CategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	return r.find(ctx, bson.M{})
}

// FindChildren retourne les enfants directs d'une catégorie
func (r *CategoryRepository) FindChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Category, error) {
	return r.find(ctx, bson.M{"parent": parentID})
}

func (r *CategoryRepository) find(ctx context.Context, filter bson.M) ([]models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "niveau", Value: 1}, {Key: "nom", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des catégories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err = cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des catégories: %w", err)
	}
	return categories, nil
}

// CountChildren compte les enfants directs d'une catégorie
func (r *CategoryRepository) CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"parent": id})
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des sous-catégories: %w", err)
	}
	return count, nil
}

// Update remplace la catégorie si elle n'a pas été modifiée depuis previousUpdatedAt.
// Retourne false quand aucun document ne correspond (modification concurrente).
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category, previousUpdatedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	category.UpdatedAt = storedNow()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": category.ID, "updatedAt": previousUpdatedAt}, category)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, utils.ErrDuplicateKey
		}
		return false, fmt.Errorf("erreur lors de la mise à jour de la catégorie: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// ShiftLevels décale le niveau des catégories données de delta
func (r *CategoryRepository) ShiftLevels(ctx context.Context, ids []primitive.ObjectID, delta int) error {
	if len(ids) == 0 || delta == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{BSONIn: ids}},
		bson.M{BSONInc: bson.M{"niveau": delta}, BSONSet: bson.M{"updatedAt": storedNow()}},
	)
	if err != nil {
		return fmt.Errorf("erreur lors du recalcul des niveaux: %w", err)
	}
	return nil
}

// Delete supprime une catégorie
func (r *CategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression de la catégorie: %w", err)
	}
	return nil
}
