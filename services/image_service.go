package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"engins-backoffice/models"
)

// ImageHost est l'hébergeur des images (icônes, logos, photos d'annonces, contrats)
type ImageHost interface {
	Upload(ctx context.Context, r io.Reader, filename, folder string) (*models.Image, error)
	Delete(ctx context.Context, id string) error
}

// Dossiers de rangement chez l'hébergeur
const (
	FolderCategories = "categories"
	FolderAnnonces   = "annonces"
	FolderVendeurs   = "vendeurs"
	FolderDevis      = "devis"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// allowedDocumentTypes s'ajoute aux images pour les contrats et justificatifs
var allowedDocumentTypes = map[string]string{
	"application/pdf": "pdf",
}

// sniffFile lit le fichier en mémoire et détecte son type à partir du contenu
func sniffFile(r io.Reader, maxSize int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("erreur lors de la lecture du fichier: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", fmt.Errorf("le fichier ne doit pas dépasser %d MB", maxSize>>20)
	}
	contentType := http.DetectContentType(data)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	// DetectContentType ne reconnaît pas toujours le webp
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		contentType = "image/webp"
	}
	if _, ok := allowedImageTypes[contentType]; ok {
		return data, contentType, nil
	}
	if _, ok := allowedDocumentTypes[contentType]; ok {
		return data, contentType, nil
	}
	return nil, "", fmt.Errorf("format de fichier non supporté (%s)", contentType)
}

// IsImage indique si le type MIME est une image acceptée
func IsImage(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}

// extension retourne l'extension associée au type MIME
func extension(contentType string) string {
	if ext, ok := allowedImageTypes[contentType]; ok {
		return ext
	}
	if ext, ok := allowedDocumentTypes[contentType]; ok {
		return ext
	}
	return "bin"
}

// imageDimensions lit largeur et hauteur sans décoder l'image entière
func imageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
