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

// AnnonceRepository gère les opérations sur les annonces
type AnnonceRepository struct {
	collection *mongo.Collection
}

// NewAnnonceRepository crée une nouvelle instance de AnnonceRepository
func NewAnnonceRepository(db *mongo.Database) *AnnonceRepository {
	return &AnnonceRepository{
		collection: db.Collection(constants.CollectionAnnonces),
	}
}

// BuildAnnonceFilter traduit les filtres de liste en requête MongoDB
func BuildAnnonceFilter(f models.AnnonceFilter) bson.M {
	filter := bson.M{}

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := bson.M{BSONRegex: regexp.QuoteMeta(q), BSONOptions: "i"}
		filter[BSONOr] = []bson.M{
			{"titre": pattern},
			{"marque": pattern},
			{"modele": pattern},
		}
	}
	if f.Categorie != nil {
		filter["categorie"] = *f.Categorie
	}
	if f.Vendeur != nil {
		filter["vendeur"] = *f.Vendeur
	} else if f.VendeursActifs != nil {
		filter["vendeur"] = bson.M{BSONIn: f.VendeursActifs}
	}
	if f.Statut != "" {
		filter["statut"] = f.Statut
	}
	if f.Etat != "" {
		filter["etat"] = f.Etat
	}
	if f.PrixMin != nil || f.PrixMax != nil {
		prix := bson.M{}
		if f.PrixMin != nil {
			prix[BSONGte] = *f.PrixMin
		}
		if f.PrixMax != nil {
			prix[BSONLte] = *f.PrixMax
		}
		filter["prix"] = prix
	}
	return filter
}

// annonceSort retourne l'ordre de tri correspondant au paramètre tri
func annonceSort(tri string) bson.D {
	switch tri {
	case "prix_asc":
		return bson.D{{Key: "prix", Value: 1}, {Key: "_id", Value: 1}}
	case "prix_desc":
		return bson.D{{Key: "prix", Value: -1}, {Key: "_id", Value: -1}}
	case "vues":
		return bson.D{{Key: "vues", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// Create insère une nouvelle annonce
func (r *AnnonceRepository) Create(ctx context.Context, annonce *models.Annonce) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := storedNow()
	annonce.ID = primitive.NewObjectID()
	annonce.CreatedAt = now
	annonce.UpdatedAt = now
	if annonce.Images == nil {
		annonce.Images = []models.Image{}
	}
	if annonce.Caracteristiques == nil {
		annonce.Caracteristiques = []models.Caracteristique{}
	}

	if _, err := r.collection.InsertOne(ctx, annonce); err != nil {
		return fmt.Errorf("erreur lors de la création de l'annonce: %w", err)
	}
	return nil
}

// FindByID recherche une annonce par ID
func (r *AnnonceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Annonce, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var annonce models.Annonce
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&annonce)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'annonce: %w", err)
	}
	return &annonce, nil
}

// FindAndIncrementViews incrémente le compteur de vues et retourne l'annonce à jour
func (r *AnnonceRepository) FindAndIncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Annonce, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var annonce models.Annonce
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{BSONInc: bson.M{"vues": 1}}, opts).Decode(&annonce)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'incrémentation des vues: %w", err)
	}
	return &annonce, nil
}

// List retourne une page d'annonces et le total correspondant aux filtres
func (r *AnnonceRepository) List(ctx context.Context, f models.AnnonceFilter, page, limit int) ([]models.Annonce, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := BuildAnnonceFilter(f)
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors du comptage des annonces: %w", err)
	}

	opts := options.Find().
		SetSort(annonceSort(f.Tri)).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors de la recherche des annonces: %w", err)
	}
	defer cursor.Close(ctx)

	annonces := []models.Annonce{}
	if err = cursor.All(ctx, &annonces); err != nil {
		return nil, 0, fmt.Errorf("erreur lors du décodage des annonces: %w", err)
	}
	return annonces, total, nil
}

// Update applique un $set sur l'annonce
func (r *AnnonceRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update["updatedAt"] = storedNow()
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: update}); err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de l'annonce: %w", err)
	}
	return nil
}

// AddImages ajoute des images à la fin de la galerie
func (r *AnnonceRepository) AddImages(ctx context.Context, id primitive.ObjectID, images []models.Image) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		BSONPush: bson.M{"images": bson.M{BSONEach: images}},
		BSONSet:  bson.M{"updatedAt": storedNow()},
	})
	if err != nil {
		return fmt.Errorf("erreur lors de l'ajout des images: %w", err)
	}
	return nil
}

// RemoveImage retire une image de la galerie
func (r *AnnonceRepository) RemoveImage(ctx context.Context, id primitive.ObjectID, imageID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		BSONPull: bson.M{"images": bson.M{"id": imageID}},
		BSONSet:  bson.M{"updatedAt": storedNow()},
	})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'image: %w", err)
	}
	return nil
}

// Delete supprime une annonce
func (r *AnnonceRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'annonce: %w", err)
	}
	return nil
}

// CountByCategorie compte les annonces rattachées à une catégorie
func (r *AnnonceRepository) CountByCategorie(ctx context.Context, categorieID primitive.ObjectID) (int64, error) {
	return r.count(ctx, bson.M{"categorie": categorieID})
}

// CountByVendeur compte les annonces d'un vendeur
func (r *AnnonceRepository) CountByVendeur(ctx context.Context, vendeurID primitive.ObjectID) (int64, error) {
	return r.count(ctx, bson.M{"vendeur": vendeurID})
}

func (r *AnnonceRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des annonces: %w", err)
	}
	return count, nil
}
