package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CategoryStore est la persistance de l'arbre des catégories
type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindAll(ctx context.Context) ([]models.Category, error)
	FindChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Category, error)
	CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error)
	Update(ctx context.Context, category *models.Category, previousUpdatedAt time.Time) (bool, error)
	ShiftLevels(ctx context.Context, ids []primitive.ObjectID, delta int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CategoryUsage compte les annonces rattachées à une catégorie
type CategoryUsage interface {
	CountByCategorie(ctx context.Context, categorieID primitive.ObjectID) (int64, error)
}

// CategoryService maintient l'arbre des catégories (3 niveaux, sans cycle)
type CategoryService struct {
	store  CategoryStore
	usage  CategoryUsage
	images ImageHost
	logger *zap.SugaredLogger
}

// NewCategoryService crée une nouvelle instance de CategoryService. usage et images peuvent être nil.
func NewCategoryService(store CategoryStore, usage CategoryUsage, images ImageHost, logger *zap.SugaredLogger) *CategoryService {
	return &CategoryService{store: store, usage: usage, images: images, logger: logger}
}

// CategoryInput regroupe les champs modifiables d'une catégorie
type CategoryInput struct {
	Nom         string
	Slug        string
	Description string
	// ParentID vaut nil pour une catégorie racine
	ParentID *primitive.ObjectID
	// ExpectedUpdatedAt active le contrôle de modification concurrente
	ExpectedUpdatedAt *time.Time
}

// Get retourne une catégorie par ID
func (s *CategoryService) Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	category, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, utils.Persistence("lecture catégorie", err)
	}
	if category == nil {
		return nil, utils.NotFoundError{Resource: "catégorie", ID: id.Hex()}
	}
	return category, nil
}

// List retourne toutes les catégories
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, utils.Persistence("liste catégories", err)
	}
	return categories, nil
}

// Create ajoute une catégorie; le niveau est déduit du parent
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	nom, slug, err := s.validateNames(ctx, in, nil)
	if err != nil {
		return nil, err
	}

	niveau := models.NiveauRacine
	if in.ParentID != nil {
		parent, err := s.loadParent(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		niveau = parent.Niveau + 1
	}

	category := &models.Category{
		Nom:         nom,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		Niveau:      niveau,
		Parent:      in.ParentID,
	}
	if err := s.store.Create(ctx, category); err != nil {
		if errors.Is(err, utils.ErrDuplicateKey) {
			return nil, duplicateSlug(slug)
		}
		return nil, utils.Persistence("création catégorie", err)
	}

	s.logger.Infow("✓ Catégorie créée", "id", category.ID.Hex(), "slug", slug, "niveau", niveau)
	return category, nil
}

// Update modifie nom, slug, description et parent d'une catégorie
func (s *CategoryService) Update(ctx context.Context, id primitive.ObjectID, in CategoryInput) (*models.Category, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ExpectedUpdatedAt != nil && !sameMillisecond(*in.ExpectedUpdatedAt, current.UpdatedAt) {
		return nil, concurrentUpdate()
	}

	nom, slug, err := s.validateNames(ctx, in, &id)
	if err != nil {
		return nil, err
	}

	niveau := models.NiveauRacine
	if in.ParentID != nil {
		if *in.ParentID == id {
			return nil, utils.ConflictError{Message: "une catégorie ne peut pas être son propre parent"}
		}
		cycle, err := s.CheckIfDescendant(ctx, *in.ParentID, id)
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, utils.ConflictError{Message: "impossible de déplacer une catégorie sous l'un de ses descendants"}
		}
		parent, err := s.loadParent(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		niveau = parent.Niveau + 1
	}

	delta := niveau - current.Niveau
	var descendants []primitive.ObjectID
	if delta != 0 {
		ids, height, err := s.subtree(ctx, id)
		if err != nil {
			return nil, err
		}
		if niveau+height > models.NiveauMax {
			return nil, utils.ConflictError{Message: fmt.Sprintf("le déplacement placerait des sous-catégories au-delà du niveau %d", models.NiveauMax)}
		}
		descendants = ids
	}

	previous := current.UpdatedAt
	updated := *current
	updated.Nom = nom
	updated.Slug = slug
	updated.Description = strings.TrimSpace(in.Description)
	updated.Parent = in.ParentID
	updated.Niveau = niveau

	// Les descendants sont décalés avant d'écrire le nœud, puis rétablis si l'écriture échoue
	if err := s.store.ShiftLevels(ctx, descendants, delta); err != nil {
		return nil, utils.Persistence("recalcul des niveaux", err)
	}

	ok, err := s.store.Update(ctx, &updated, previous)
	if err != nil || !ok {
		s.restoreLevels(ctx, id, descendants, delta)
		if err == nil {
			return nil, concurrentUpdate()
		}
		if errors.Is(err, utils.ErrDuplicateKey) {
			return nil, duplicateSlug(slug)
		}
		return nil, utils.Persistence("mise à jour catégorie", err)
	}
	if len(descendants) > 0 {
		s.logger.Infow("Niveaux des sous-catégories recalculés", "id", id.Hex(), "descendants", len(descendants), "delta", delta)
	}

	return &updated, nil
}

// restoreLevels annule le décalage des descendants quand le déplacement du nœud n'a pas été écrit
func (s *CategoryService) restoreLevels(ctx context.Context, id primitive.ObjectID, descendants []primitive.ObjectID, delta int) {
	if len(descendants) == 0 || delta == 0 {
		return
	}
	if err := s.store.ShiftLevels(ctx, descendants, -delta); err != nil {
		hexIDs := make([]string, len(descendants))
		for i, d := range descendants {
			hexIDs[i] = d.Hex()
		}
		s.logger.Errorw("❌ Niveaux des sous-catégories incohérents, réparation manuelle nécessaire",
			"id", id.Hex(), "descendants", hexIDs, "delta", delta, "error", err)
	}
}

// SetIcon remplace l'icône de la catégorie et supprime l'ancienne chez l'hébergeur
func (s *CategoryService) SetIcon(ctx context.Context, id primitive.ObjectID, icon *models.Image) (*models.Category, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	old := current.Icone
	updated := *current
	updated.Icone = icon
	ok, err := s.store.Update(ctx, &updated, current.UpdatedAt)
	if err != nil {
		return nil, utils.Persistence("mise à jour icône", err)
	}
	if !ok {
		return nil, concurrentUpdate()
	}
	if old != nil {
		s.deleteImage(ctx, old.ID)
	}
	return &updated, nil
}

// Delete supprime une catégorie sans enfant et non utilisée par une annonce
func (s *CategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	children, err := s.store.CountChildren(ctx, id)
	if err != nil {
		return utils.Persistence("comptage sous-catégories", err)
	}
	if children > 0 {
		return utils.ConflictError{Message: fmt.Sprintf("impossible de supprimer une catégorie qui contient %d sous-catégorie(s)", children)}
	}

	if s.usage != nil {
		used, err := s.usage.CountByCategorie(ctx, id)
		if err != nil {
			return utils.Persistence("comptage annonces", err)
		}
		if used > 0 {
			return utils.ConflictError{Message: fmt.Sprintf("impossible de supprimer une catégorie utilisée par %d annonce(s)", used)}
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return utils.Persistence("suppression catégorie", err)
	}
	if category.Icone != nil {
		s.deleteImage(ctx, category.Icone.ID)
	}

	s.logger.Infow("✓ Catégorie supprimée", "id", id.Hex(), "slug", category.Slug)
	return nil
}

// CheckIfDescendant remonte les parents depuis ancestorCandidateID et indique si nodeID est rencontré.
// La remontée est bornée par la profondeur maximale; la dépasser signale une chaîne corrompue.
func (s *CategoryService) CheckIfDescendant(ctx context.Context, ancestorCandidateID, nodeID primitive.ObjectID) (bool, error) {
	current := ancestorCandidateID
	for i := 0; i < models.NiveauMax; i++ {
		if current == nodeID {
			return true, nil
		}
		category, err := s.store.FindByID(ctx, current)
		if err != nil {
			return false, utils.Persistence("remontée des parents", err)
		}
		if category == nil || category.Parent == nil {
			return false, nil
		}
		current = *category.Parent
	}
	return false, fmt.Errorf("%w: chaîne de parents de %s plus longue que %d", utils.ErrIntegrity, ancestorCandidateID.Hex(), models.NiveauMax)
}

// Tree construit la forêt des catégories, chaque niveau trié par nom
func (s *CategoryService) Tree(ctx context.Context) ([]*models.CategoryNode, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(categories), nil
}

// BuildTree assemble les catégories en arbre. Une catégorie dont le parent est absent est placée à la racine.
func BuildTree(categories []models.Category) []*models.CategoryNode {
	nodes := make(map[primitive.ObjectID]*models.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &models.CategoryNode{Category: c, Enfants: []*models.CategoryNode{}}
	}

	roots := []*models.CategoryNode{}
	for _, c := range categories {
		node := nodes[c.ID]
		if c.Parent != nil {
			if parent, ok := nodes[*c.Parent]; ok && *c.Parent != c.ID {
				parent.Enfants = append(parent.Enfants, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*models.CategoryNode) {
	sort.Slice(nodes, func(i, j int) bool {
		return strings.ToLower(nodes[i].Nom) < strings.ToLower(nodes[j].Nom)
	})
	for _, n := range nodes {
		sortNodes(n.Enfants)
	}
}

// validateNames normalise nom et slug et vérifie l'unicité du slug (hors excludeID)
func (s *CategoryService) validateNames(ctx context.Context, in CategoryInput, excludeID *primitive.ObjectID) (string, string, error) {
	nom := strings.TrimSpace(in.Nom)
	if err := utils.ValidateRequired("nom", nom); err != nil {
		return "", "", err
	}
	slug := utils.NormalizeSlug(in.Slug, nom)
	if err := utils.ValidateSlug(slug); err != nil {
		return "", "", err
	}

	existing, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		return "", "", utils.Persistence("vérification slug", err)
	}
	if existing != nil && (excludeID == nil || existing.ID != *excludeID) {
		return "", "", duplicateSlug(slug)
	}
	return nom, slug, nil
}

// loadParent charge le parent et vérifie qu'il peut recevoir un enfant
func (s *CategoryService) loadParent(ctx context.Context, parentID primitive.ObjectID) (*models.Category, error) {
	parent, err := s.store.FindByID(ctx, parentID)
	if err != nil {
		return nil, utils.Persistence("lecture parent", err)
	}
	if parent == nil {
		return nil, utils.NotFoundError{Resource: "catégorie parente", ID: parentID.Hex()}
	}
	if parent.Niveau >= models.NiveauMax {
		return nil, utils.ValidationError{Field: "parent", Message: fmt.Sprintf("le parent est au niveau %d, profondeur maximale atteinte", parent.Niveau)}
	}
	return parent, nil
}

// subtree retourne les descendants de id et la hauteur du sous-arbre (0 pour une feuille)
func (s *CategoryService) subtree(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, int, error) {
	var descendants []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{id: true}
	frontier := []primitive.ObjectID{id}
	height := 0

	for len(frontier) > 0 {
		if height >= models.NiveauMax {
			return nil, 0, fmt.Errorf("%w: sous-arbre de %s plus profond que %d", utils.ErrIntegrity, id.Hex(), models.NiveauMax)
		}
		var next []primitive.ObjectID
		for _, parentID := range frontier {
			children, err := s.store.FindChildren(ctx, parentID)
			if err != nil {
				return nil, 0, utils.Persistence("lecture sous-catégories", err)
			}
			for _, child := range children {
				if seen[child.ID] {
					return nil, 0, fmt.Errorf("%w: cycle détecté sous %s", utils.ErrIntegrity, id.Hex())
				}
				seen[child.ID] = true
				next = append(next, child.ID)
			}
		}
		if len(next) == 0 {
			break
		}
		descendants = append(descendants, next...)
		frontier = next
		height++
	}
	return descendants, height, nil
}

func (s *CategoryService) deleteImage(ctx context.Context, id string) {
	if s.images == nil || id == "" {
		return
	}
	if err := s.images.Delete(ctx, id); err != nil {
		s.logger.Warnw("⚠️  Suppression de l'image impossible", "image", id, "error", err)
	}
}

func duplicateSlug(slug string) error {
	return utils.ValidationError{Field: "slug", Message: fmt.Sprintf("le slug %q est déjà utilisé", slug)}
}

// sameMillisecond compare deux dates à la précision stockée par MongoDB
func sameMillisecond(a, b time.Time) bool {
	return a.Truncate(time.Millisecond).Equal(b.Truncate(time.Millisecond))
}

func concurrentUpdate() error {
	return utils.ConflictError{Message: "la catégorie a été modifiée entre-temps, rechargez-la avant de réessayer"}
}
