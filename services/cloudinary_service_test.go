package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCloudinary(t *testing.T, handler http.HandlerFunc) *CloudinaryService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewCloudinaryService("demo", "cle", "secret", zaptest.NewLogger(t).Sugar())
	svc.baseURL = server.URL + "/demo"
	svc.client = server.Client()
	svc.now = func() time.Time { return time.Unix(1710500000, 0) }
	return svc
}

func TestCloudinarySign(t *testing.T) {
	svc := NewCloudinaryService("demo", "cle", "abcd", zaptest.NewLogger(t).Sugar())
	a := svc.sign(map[string]string{"timestamp": "1315060510", "folder": "annonces"})
	b := svc.sign(map[string]string{"folder": "annonces", "timestamp": "1315060510"})
	assert.Equal(t, a, b, "l'ordre des paramètres n'a pas d'effet")
	assert.Len(t, a, 40)
}

func TestCloudinaryUpload(t *testing.T) {
	var gotPath, gotFolder, gotSignature string
	svc := newTestCloudinary(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.NoError(t, r.ParseMultipartForm(10<<20))
		gotFolder = r.FormValue("folder")
		gotSignature = r.FormValue("signature")
		json.NewEncoder(w).Encode(CloudinaryUploadResponse{
			PublicID: "annonces/abc", SecureURL: "https://res.cloudinary.com/demo/annonces/abc.png",
			Width: 64, Height: 48, Format: "png", Bytes: 512,
		})
	})

	img, err := svc.Upload(context.Background(), bytes.NewReader(encodedPNG(t, 64, 48)), "pelle.png", FolderAnnonces)
	require.NoError(t, err)
	assert.Equal(t, "/demo/image/upload", gotPath)
	assert.Equal(t, FolderAnnonces, gotFolder)
	assert.Equal(t, svc.sign(map[string]string{"folder": FolderAnnonces, "timestamp": "1710500000"}), gotSignature)
	assert.Equal(t, "annonces/abc", img.ID)
	assert.Equal(t, 64, img.Largeur)
	assert.EqualValues(t, 512, img.Taille)
}

func TestCloudinaryUploadDocumentUsesRaw(t *testing.T) {
	var gotPath string
	svc := newTestCloudinary(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(CloudinaryUploadResponse{PublicID: "devis/contrat.pdf", SecureURL: "https://res.cloudinary.com/demo/raw/devis/contrat.pdf"})
	})

	doc, err := svc.Upload(context.Background(), strings.NewReader("%PDF-1.7\ncontrat"), "contrat.pdf", FolderDevis)
	require.NoError(t, err)
	assert.Equal(t, "/demo/raw/upload", gotPath)
	assert.Equal(t, "pdf", doc.Format)
}

func TestCloudinaryUploadError(t *testing.T) {
	svc := newTestCloudinary(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	})

	_, err := svc.Upload(context.Background(), bytes.NewReader(encodedPNG(t, 2, 2)), "a.png", FolderAnnonces)
	assert.ErrorContains(t, err, "401")
}

func TestCloudinaryDelete(t *testing.T) {
	var paths []string
	svc := newTestCloudinary(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.FormValue("signature"))
		w.Write([]byte(`{"result":"ok"}`))
	})

	require.NoError(t, svc.Delete(context.Background(), "annonces/abc"))
	require.NoError(t, svc.Delete(context.Background(), "devis/contrat.pdf"))
	assert.Equal(t, []string{"/demo/image/destroy", "/demo/raw/destroy"}, paths)
}
