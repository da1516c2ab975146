package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"

	"engins-backoffice/constants"
	"engins-backoffice/services"
	"engins-backoffice/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Pagination par défaut des listes
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// RequireMethod vérifie que la méthode HTTP est correcte. Retourne false et écrit l'erreur si non.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		utils.RespondError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
		return false
	}
	return true
}

// ParseObjectIDVar extrait et valide un ObjectID depuis les vars (clé configurable, msg d'erreur configurable).
func ParseObjectIDVar(w http.ResponseWriter, vars map[string]string, key, errMsg string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(vars[key])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, errMsg)
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseID lit la variable de route "id"
func parseID(w http.ResponseWriter, r *http.Request, errMsg string) (primitive.ObjectID, bool) {
	return ParseObjectIDVar(w, mux.Vars(r), "id", errMsg)
}

// ParsePagination lit page et limit; une valeur absente prend sa valeur par défaut
func ParsePagination(r *http.Request) (int, int, error) {
	page, limit := DefaultPage, DefaultLimit
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, utils.ValidationError{Field: "page", Message: "page doit être un entier supérieur ou égal à 1"}
		}
		page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return 0, 0, utils.ValidationError{Field: "limit", Message: "limit doit être compris entre 1 et 100"}
		}
		limit = n
	}
	return page, limit, nil
}

// parsePagination écrit l'erreur 400 si la pagination est invalide
func parsePagination(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page, limit, err := ParsePagination(r)
	if err != nil {
		utils.RespondServiceError(w, err)
		return 0, 0, false
	}
	return page, limit, true
}

// parseOptionalID lit un ObjectID optionnel dans la query string
func parseOptionalID(r *http.Request, key string) (*primitive.ObjectID, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		return nil, utils.ValidationError{Field: key, Message: constants.ErrInvalidID}
	}
	return &id, nil
}

// parseOptionalBool lit un booléen optionnel dans la query string
func parseOptionalBool(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, utils.ValidationError{Field: key, Message: key + " doit valoir true ou false"}
	}
	return &b, nil
}

// parseOptionalFloat lit un nombre optionnel dans la query string
func parseOptionalFloat(r *http.Request, key string) (*float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, utils.ValidationError{Field: key, Message: key + " doit être un nombre"}
	}
	return &f, nil
}

// decodeJSON décode le corps de la requête, écrit 400 en cas d'échec
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return false
	}
	return true
}

// parseMultipart parse le formulaire, écrit 400 en cas d'échec
func parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Erreur lors du parsing du formulaire")
		return false
	}
	return true
}

// formUploads ouvre les fichiers du champ; close libère les fichiers ouverts
func formUploads(r *http.Request, field string) ([]services.Upload, func(), error) {
	var (
		uploads []services.Upload
		files   []multipart.File
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	if r.MultipartForm == nil {
		return nil, closeAll, nil
	}
	for _, header := range r.MultipartForm.File[field] {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, file)
		uploads = append(uploads, services.Upload{Reader: file, Filename: header.Filename})
	}
	return uploads, closeAll, nil
}

// formUpload ouvre le premier fichier du champ, nil s'il est absent
func formUpload(r *http.Request, field string) (*services.Upload, func(), error) {
	uploads, closeAll, err := formUploads(r, field)
	if err != nil || len(uploads) == 0 {
		return nil, closeAll, err
	}
	return &uploads[0], closeAll, nil
}

// respondServiceError journalise les erreurs internes puis traduit l'erreur en réponse HTTP
func respondServiceError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	if utils.StatusFromError(err) == http.StatusInternalServerError {
		logger.Errorw("❌ Erreur serveur", "op", op, "error", err)
	}
	utils.RespondServiceError(w, err)
}
