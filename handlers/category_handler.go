package handlers

import (
	"net/http"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/services"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CategoryHandler expose l'arbre des catégories
type CategoryHandler struct {
	categories *services.CategoryService
	images     services.ImageHost
	logger     *zap.SugaredLogger
}

// NewCategoryHandler crée une nouvelle instance de CategoryHandler
func NewCategoryHandler(categories *services.CategoryService, images services.ImageHost, logger *zap.SugaredLogger) *CategoryHandler {
	return &CategoryHandler{categories: categories, images: images, logger: logger}
}

// List retourne toutes les catégories à plat
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "catégorie liste", err)
		return
	}
	utils.RespondSuccess(w, "", categories)
}

// Tree retourne l'arbre des catégories
func (h *CategoryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categories.Tree(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "catégorie arbre", err)
		return
	}
	utils.RespondSuccess(w, "", tree)
}

// Get retourne une catégorie
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidCategoryID)
	if !ok {
		return
	}
	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, "catégorie lecture", err)
		return
	}
	utils.RespondSuccess(w, "", category)
}

// Create crée une catégorie
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := categoryInput(req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	category, err := h.categories.Create(r.Context(), in)
	if err != nil {
		respondServiceError(w, h.logger, "catégorie création", err)
		return
	}
	utils.RespondCreated(w, "Catégorie créée", category)
}

// Update modifie une catégorie (nom, slug, description, parent)
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidCategoryID)
	if !ok {
		return
	}
	var req models.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := categoryInput(req)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	category, err := h.categories.Update(r.Context(), id, in)
	if err != nil {
		respondServiceError(w, h.logger, "catégorie modification", err)
		return
	}
	utils.RespondSuccess(w, "Catégorie modifiée", category)
}

// UploadIcon héberge l'icône reçue dans le champ "icone"
func (h *CategoryHandler) UploadIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidCategoryID)
	if !ok {
		return
	}
	if !parseMultipart(w, r) {
		return
	}
	upload, closeFiles, err := formUpload(r, "icone")
	defer closeFiles()
	if err != nil || upload == nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrNoFile)
		return
	}

	// Vérifier que la catégorie existe avant d'héberger le fichier
	if _, err := h.categories.Get(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, "catégorie icône", err)
		return
	}
	icon, err := h.images.Upload(r.Context(), upload.Reader, upload.Filename, services.FolderCategories)
	if err != nil {
		h.logger.Errorw("❌ Erreur upload icône", "id", id.Hex(), "error", err)
		utils.RespondError(w, http.StatusBadRequest, constants.ErrUpload+": "+err.Error())
		return
	}
	category, err := h.categories.SetIcon(r.Context(), id, icon)
	if err != nil {
		if delErr := h.images.Delete(r.Context(), icon.ID); delErr != nil {
			h.logger.Warnw("⚠️  Suppression de l'icône orpheline impossible", "image", icon.ID, "error", delErr)
		}
		respondServiceError(w, h.logger, "catégorie icône", err)
		return
	}
	utils.RespondSuccess(w, "Icône mise à jour", category)
}

// Delete supprime une catégorie
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidCategoryID)
	if !ok {
		return
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, "catégorie suppression", err)
		return
	}
	utils.RespondSuccess(w, "Catégorie supprimée", nil)
}

func categoryInput(req models.CategoryRequest) (services.CategoryInput, error) {
	in := services.CategoryInput{
		Nom:               req.Nom,
		Slug:              req.Slug,
		Description:       req.Description,
		ExpectedUpdatedAt: req.ExpectedUpdatedAt,
	}
	if req.Parent != nil && *req.Parent != "" {
		parentID, err := primitive.ObjectIDFromHex(*req.Parent)
		if err != nil {
			return in, utils.ValidationError{Field: "parent", Message: constants.ErrInvalidCategoryID}
		}
		in.ParentID = &parentID
	}
	return in, nil
}
