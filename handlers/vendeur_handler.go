package handlers

import (
	"net/http"
	"strings"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/services"
	"engins-backoffice/utils"

	"go.uber.org/zap"
)

// VendeurHandler gère les vendeurs du back office
type VendeurHandler struct {
	vendeurs *services.VendeurService
	logger   *zap.SugaredLogger
}

// NewVendeurHandler crée une nouvelle instance de VendeurHandler
func NewVendeurHandler(vendeurs *services.VendeurService, logger *zap.SugaredLogger) *VendeurHandler {
	return &VendeurHandler{vendeurs: vendeurs, logger: logger}
}

// List retourne les vendeurs, filtrables par q et actif
func (h *VendeurHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}
	actif, err := parseOptionalBool(r, "actif")
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	vendeurs, total, err := h.vendeurs.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), actif, page, limit)
	if err != nil {
		respondServiceError(w, h.logger, "liste vendeurs", err)
		return
	}
	utils.RespondPage(w, vendeurs, models.NewPagination(page, limit, total))
}

// Get retourne un vendeur
func (h *VendeurHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidVendeurID)
	if !ok {
		return
	}
	vendeur, err := h.vendeurs.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, "lecture vendeur", err)
		return
	}
	utils.RespondSuccess(w, "", vendeur)
}

// Create crée un vendeur
func (h *VendeurHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.VendeurRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	vendeur, err := h.vendeurs.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, "création vendeur", err)
		return
	}
	utils.RespondCreated(w, "Vendeur créé", vendeur)
}

// Update modifie un vendeur
func (h *VendeurHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidVendeurID)
	if !ok {
		return
	}
	var req models.VendeurRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	vendeur, err := h.vendeurs.Update(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, h.logger, "modification vendeur", err)
		return
	}
	utils.RespondSuccess(w, "Vendeur modifié", vendeur)
}

type actifRequest struct {
	Actif *bool `json:"actif"`
}

// SetActif active ou désactive un vendeur
func (h *VendeurHandler) SetActif(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidVendeurID)
	if !ok {
		return
	}
	var req actifRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Actif == nil {
		utils.RespondError(w, http.StatusBadRequest, "Le champ actif est requis")
		return
	}
	vendeur, err := h.vendeurs.SetActif(r.Context(), id, *req.Actif)
	if err != nil {
		respondServiceError(w, h.logger, "activation vendeur", err)
		return
	}
	utils.RespondSuccess(w, "Vendeur mis à jour", vendeur)
}

// UploadLogo remplace le logo (champ "logo")
func (h *VendeurHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, services.VendeurLogo)
}

// UploadCouverture remplace l'image de couverture (champ "couverture")
func (h *VendeurHandler) UploadCouverture(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, services.VendeurCouverture)
}

func (h *VendeurHandler) uploadImage(w http.ResponseWriter, r *http.Request, slot string) {
	id, ok := parseID(w, r, constants.ErrInvalidVendeurID)
	if !ok {
		return
	}
	if !parseMultipart(w, r) {
		return
	}
	upload, closeFiles, err := formUpload(r, slot)
	defer closeFiles()
	if err != nil || upload == nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrNoFile)
		return
	}
	vendeur, err := h.vendeurs.SetImage(r.Context(), id, slot, *upload)
	if err != nil {
		respondServiceError(w, h.logger, "image vendeur", err)
		return
	}
	utils.RespondSuccess(w, "Image mise à jour", vendeur)
}

// Delete supprime un vendeur sans annonce
func (h *VendeurHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidVendeurID)
	if !ok {
		return
	}
	if err := h.vendeurs.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, "suppression vendeur", err)
		return
	}
	utils.RespondSuccess(w, "Vendeur supprimé", nil)
}
