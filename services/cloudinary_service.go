package services

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"

	"go.uber.org/zap"
)

const cloudinaryAPI = "https://api.cloudinary.com/v1_1"

// CloudinaryService héberge les fichiers chez Cloudinary (upload signé)
type CloudinaryService struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// CloudinaryUploadResponse représente la réponse de Cloudinary
type CloudinaryUploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

// NewCloudinaryService crée une nouvelle instance de CloudinaryService
func NewCloudinaryService(cloudName, apiKey, apiSecret string, logger *zap.SugaredLogger) *CloudinaryService {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		logger.Warn("⚠️  Cloudinary non configuré - les uploads échoueront")
	}
	return &CloudinaryService{
		baseURL:   fmt.Sprintf("%s/%s", cloudinaryAPI, cloudName),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
		now:       time.Now,
	}
}

// sign calcule la signature Cloudinary: sha1 des paramètres triés suivis du secret
func (s *CloudinaryService) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + s.apiSecret))
	return hex.EncodeToString(sum[:])
}

// Upload envoie le fichier vers Cloudinary
func (s *CloudinaryService) Upload(ctx context.Context, r io.Reader, filename, folder string) (*models.Image, error) {
	data, contentType, err := sniffFile(r, constants.MaxImageSize)
	if err != nil {
		return nil, err
	}

	resourceType := "image"
	if !IsImage(contentType) {
		resourceType = "raw"
	}

	params := map[string]string{
		"folder":    folder,
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := writer.WriteField("api_key", s.apiKey); err != nil {
		return nil, err
	}
	if err := writer.WriteField("signature", s.sign(params)); err != nil {
		return nil, err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s/upload", s.baseURL, resourceType), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'envoi à Cloudinary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		s.logger.Errorw("❌ Cloudinary error", "status", resp.StatusCode, "body", string(bodyBytes))
		return nil, fmt.Errorf("cloudinary a retourné le code %d", resp.StatusCode)
	}

	var cloudinaryResp CloudinaryUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&cloudinaryResp); err != nil {
		return nil, fmt.Errorf("réponse Cloudinary invalide: %w", err)
	}

	format := cloudinaryResp.Format
	if format == "" {
		format = extension(contentType)
	}
	return &models.Image{
		ID:      cloudinaryResp.PublicID,
		URL:     cloudinaryResp.SecureURL,
		Largeur: cloudinaryResp.Width,
		Hauteur: cloudinaryResp.Height,
		Format:  format,
		Taille:  cloudinaryResp.Bytes,
	}, nil
}

// Delete supprime un fichier chez Cloudinary
func (s *CloudinaryService) Delete(ctx context.Context, id string) error {
	params := map[string]string{
		"public_id": id,
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", s.apiKey)
	form.Set("signature", s.sign(params))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s/destroy", s.baseURL, destroyResourceType(id)), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression Cloudinary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudinary a retourné le code %d", resp.StatusCode)
	}
	return nil
}

// destroyResourceType: les fichiers "raw" (contrats PDF) gardent leur extension dans le public_id
func destroyResourceType(publicID string) string {
	if strings.HasSuffix(strings.ToLower(publicID), ".pdf") {
		return "raw"
	}
	return "image"
}
