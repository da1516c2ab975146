package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/services"
	"engins-backoffice/utils"

	"go.uber.org/zap"
)

// DevisHandler gère les demandes de devis
type DevisHandler struct {
	devis  *services.DevisService
	logger *zap.SugaredLogger
}

// NewDevisHandler crée une nouvelle instance de DevisHandler
func NewDevisHandler(devis *services.DevisService, logger *zap.SugaredLogger) *DevisHandler {
	return &DevisHandler{devis: devis, logger: logger}
}

// Create enregistre une demande de devis publique
func (h *DevisHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req models.CreateDevisRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	devis, err := h.devis.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, "création devis", err)
		return
	}
	utils.RespondCreated(w, "Demande de devis envoyée", devis)
}

// List retourne les devis filtrés par statut, q et annonce
func (h *DevisHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}
	annonce, err := parseOptionalID(r, "annonce")
	if err != nil {
		utils.RespondServiceError(w, err)
		return
	}
	q := r.URL.Query()
	devis, total, err := h.devis.List(r.Context(), q.Get("statut"), strings.TrimSpace(q.Get("q")), annonce, page, limit)
	if err != nil {
		respondServiceError(w, h.logger, "liste devis", err)
		return
	}
	utils.RespondPage(w, devis, models.NewPagination(page, limit, total))
}

// Get retourne un devis
func (h *DevisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidDevisID)
	if !ok {
		return
	}
	devis, err := h.devis.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, "lecture devis", err)
		return
	}
	utils.RespondSuccess(w, "", devis)
}

// UpdateStatus applique une transition de statut
func (h *DevisHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidDevisID)
	if !ok {
		return
	}
	var req statutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	devis, err := h.devis.UpdateStatus(r.Context(), id, req.Statut)
	if err != nil {
		respondServiceError(w, h.logger, "statut devis", err)
		return
	}
	utils.RespondSuccess(w, "Statut mis à jour", devis)
}

// Respond enregistre la réponse de l'administrateur.
// Accepte du JSON, ou un formulaire multipart avec le contrat dans le champ "contrat".
func (h *DevisHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidDevisID)
	if !ok {
		return
	}

	var (
		req     models.ReponseAdminRequest
		contrat *services.Upload
	)
	if strings.HasPrefix(r.Header.Get(constants.HeaderContentType), "multipart/form-data") {
		if !parseMultipart(w, r) {
			return
		}
		var err error
		if req, err = reponseFromForm(r); err != nil {
			utils.RespondServiceError(w, err)
			return
		}
		var closeFiles func()
		contrat, closeFiles, err = formUpload(r, "contrat")
		defer closeFiles()
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, constants.ErrNoFile)
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	devis, err := h.devis.Respond(r.Context(), id, req, contrat)
	if err != nil {
		respondServiceError(w, h.logger, "réponse devis", err)
		return
	}
	utils.RespondSuccess(w, "Réponse envoyée", devis)
}

func reponseFromForm(r *http.Request) (models.ReponseAdminRequest, error) {
	req := models.ReponseAdminRequest{
		IBAN:    r.FormValue("iban"),
		BIC:     r.FormValue("bic"),
		Devise:  r.FormValue("devise"),
		Message: r.FormValue("message"),
		Langue:  r.FormValue("langue"),
	}
	if v := strings.TrimSpace(r.FormValue("montant")); v != "" {
		montant, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
		if err != nil {
			return req, utils.ValidationError{Field: "montant", Message: "le montant doit être un nombre"}
		}
		req.Montant = montant
	}
	if v := strings.TrimSpace(r.FormValue("dateReponse")); v != "" {
		date, err := time.Parse(time.RFC3339, v)
		if err != nil {
			if date, err = time.Parse("2006-01-02", v); err != nil {
				return req, utils.ValidationError{Field: "dateReponse", Message: "date invalide"}
			}
		}
		req.DateReponse = &models.FlexibleTime{Time: date}
	}
	return req, nil
}

// ClientResponse reçoit le contrat signé ("contratSigne") et/ou le reçu de paiement ("recuPaiement")
func (h *DevisHandler) ClientResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidDevisID)
	if !ok {
		return
	}
	if !parseMultipart(w, r) {
		return
	}
	contrat, closeContrat, err := formUpload(r, "contratSigne")
	defer closeContrat()
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrNoFile)
		return
	}
	recu, closeRecu, err := formUpload(r, "recuPaiement")
	defer closeRecu()
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrNoFile)
		return
	}

	devis, err := h.devis.ClientResponse(r.Context(), id, contrat, recu)
	if err != nil {
		respondServiceError(w, h.logger, "réponse client", err)
		return
	}
	utils.RespondSuccess(w, "Documents reçus", devis)
}

// UpdateSuivi remplace les étapes du suivi de commande
func (h *DevisHandler) UpdateSuivi(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidDevisID)
	if !ok {
		return
	}
	var req models.SuiviRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	devis, err := h.devis.UpdateSuivi(r.Context(), id, req.Etapes)
	if err != nil {
		respondServiceError(w, h.logger, "suivi devis", err)
		return
	}
	utils.RespondSuccess(w, "Suivi mis à jour", devis)
}

// Delete supprime un devis
func (h *DevisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, constants.ErrInvalidDevisID)
	if !ok {
		return
	}
	if err := h.devis.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, "suppression devis", err)
		return
	}
	utils.RespondSuccess(w, "Devis supprimé", nil)
}
