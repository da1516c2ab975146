package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/services"
	"engins-backoffice/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var annonceTris = []string{"recent", "prix_asc", "prix_desc", "vues"}

// AnnonceHandler gère les annonces (back office et recherche publique)
type AnnonceHandler struct {
	annonces *services.AnnonceService
	logger   *zap.SugaredLogger
}

// NewAnnonceHandler crée une nouvelle instance de AnnonceHandler
func NewAnnonceHandler(annonces *services.AnnonceService, logger *zap.SugaredLogger) *AnnonceHandler {
	return &AnnonceHandler{annonces: annonces, logger: logger}
}

// parseAnnonceFilter lit les filtres de liste depuis la query string
func parseAnnonceFilter(r *http.Request) (models.AnnonceFilter, error) {
	q := r.URL.Query()
	f := models.AnnonceFilter{
		Query:  strings.TrimSpace(q.Get("q")),
		Statut: q.Get("statut"),
		Etat:   q.Get("etat"),
		Tri:    q.Get("tri"),
	}
	if f.Tri != "" {
		if err := utils.ValidateOneOf("tri", f.Tri, annonceTris); err != nil {
			return f, err
		}
	}

	var err error
	if f.Categorie, err = parseOptionalID(r, "categorie"); err != nil {
		return f, err
	}
	if f.Vendeur, err = parseOptionalID(r, "vendeur"); err != nil {
		return f, err
	}
	if f.PrixMin, err = parseOptionalFloat(r, "prixMin"); err != nil {
		return f, err
	}
	if f.PrixMax, err = parseOptionalFloat(r, "prixMax"); err != nil {
		return f, err
	}
	return f, nil
}

type annonceLister func(ctx context.Context, f models.AnnonceFilter, page, limit int) ([]models.Annonce, int64, error)

// List retourne les annonces filtrées et paginées
func (h *AnnonceHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "liste annonces", h.annonces.List)
}

// Search est la recherche publique, limitée aux annonces actives des vendeurs actifs
func (h *AnnonceHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "recherche annonces", h.annonces.Search)
}

func (h *AnnonceHandler) list(w http.ResponseWriter, r *http.Request, op string, lister annonceLister) {
	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}
	f, err := parseAnnonceFilter(r)
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	annonces, total, err := lister(r.Context(), f, page, limit)
	if err != nil {
		respondServiceError(w, h.logger, op, err)
		return
	}
	utils.RespondPage(w, annonces, models.NewPagination(page, limit, total))
}

// Get retourne une annonce; ?noView=1 ne compte pas la consultation
func (h *AnnonceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidAnnonceID)
	if !ok {
		return
	}
	noView, _ := strconv.ParseBool(r.URL.Query().Get("noView"))
	annonce, err := h.annonces.Get(r.Context(), id, !noView)
	if err != nil {
		respondServiceError(w, h.logger, "lecture annonce", err)
		return
	}
	utils.RespondSuccess(w, "", annonce)
}

// GetPublic retourne une annonce active et compte la vue
func (h *AnnonceHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidAnnonceID)
	if !ok {
		return
	}
	annonce, err := h.annonces.GetPublic(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, "lecture annonce", err)
		return
	}
	utils.RespondSuccess(w, "", annonce)
}

// Create crée une annonce
func (h *AnnonceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.AnnonceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	annonce, err := h.annonces.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, "création annonce", err)
		return
	}
	utils.RespondCreated(w, "Annonce créée", annonce)
}

// Update modifie une annonce
func (h *AnnonceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidAnnonceID)
	if !ok {
		return
	}
	var req models.AnnonceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	annonce, err := h.annonces.Update(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, h.logger, "modification annonce", err)
		return
	}
	utils.RespondSuccess(w, "Annonce modifiée", annonce)
}

type statutRequest struct {
	Statut string `json:"statut"`
}

// UpdateStatus change le statut d'une annonce
func (h *AnnonceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidAnnonceID)
	if !ok {
		return
	}
	var req statutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	annonce, err := h.annonces.UpdateStatus(r.Context(), id, req.Statut)
	if err != nil {
		respondServiceError(w, h.logger, "statut annonce", err)
		return
	}
	utils.RespondSuccess(w, "Statut mis à jour", annonce)
}

// UploadImages ajoute les fichiers du champ "images" à la galerie
func (h *AnnonceHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidAnnonceID)
	if !ok {
		return
	}
	if !parseMultipart(w, r) {
		return
	}
	uploads, closeFiles, err := formUploads(r, "images")
	defer closeFiles()
	if err != nil || len(uploads) == 0 {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrNoFile)
		return
	}

	annonce, err := h.annonces.AddImages(r.Context(), id, uploads)
	if err != nil {
		respondServiceError(w, h.logger, "images annonce", err)
		return
	}
	utils.RespondSuccess(w, "Images ajoutées", annonce)
}

// DeleteImage retire une image de la galerie
func (h *AnnonceHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidAnnonceID)
	if !ok {
		return
	}
	imageID := mux.Vars(r)["imageId"]
	if imageID == "" {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidID)
		return
	}
	annonce, err := h.annonces.RemoveImage(r.Context(), id, imageID)
	if err != nil {
		respondServiceError(w, h.logger, "suppression image", err)
		return
	}
	utils.RespondSuccess(w, "Image supprimée", annonce)
}

// Delete supprime une annonce et ses images
func (h *AnnonceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidAnnonceID)
	if !ok {
		return
	}
	if err := h.annonces.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, "suppression annonce", err)
		return
	}
	utils.RespondSuccess(w, "Annonce supprimée", nil)
}
