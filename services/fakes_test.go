package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("connexion perdue")

// memoryCategoryStore est un CategoryStore en mémoire
type memoryCategoryStore struct {
	mu         sync.Mutex
	categories map[primitive.ObjectID]models.Category
	findErr    error
	updateErr  error
	shiftErr   error
	// shiftErr n'est rendue qu'après shiftErrFrom appels réussis à ShiftLevels
	shiftCalls   int
	shiftErrFrom int
	// beforeUpdate simule une écriture concurrente juste avant Update
	beforeUpdate func()
}

func newMemoryCategoryStore() *memoryCategoryStore {
	return &memoryCategoryStore{categories: map[primitive.ObjectID]models.Category{}}
}

func (m *memoryCategoryStore) Create(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if existing.Slug == c.Slug {
			return utils.ErrDuplicateKey
		}
	}
	// Comme MongoDB, la copie stockée perd les nanosecondes que l'appelant conserve
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	stored.CreatedAt = stored.CreatedAt.Truncate(time.Millisecond)
	stored.UpdatedAt = stored.UpdatedAt.Truncate(time.Millisecond)
	m.categories[c.ID] = stored
	return nil
}

func (m *memoryCategoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memoryCategoryStore) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memoryCategoryStore) FindAll(_ context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := []models.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryCategoryStore) FindChildren(_ context.Context, parentID primitive.ObjectID) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Category{}
	for _, c := range m.categories {
		if c.Parent != nil && *c.Parent == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryCategoryStore) CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error) {
	children, err := m.FindChildren(ctx, id)
	return int64(len(children)), err
}

func (m *memoryCategoryStore) Update(_ context.Context, c *models.Category, previous time.Time) (bool, error) {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return false, m.updateErr
	}
	existing, ok := m.categories[c.ID]
	if !ok || !existing.UpdatedAt.Equal(previous) {
		return false, nil
	}
	for id, other := range m.categories {
		if id != c.ID && other.Slug == c.Slug {
			return false, utils.ErrDuplicateKey
		}
	}
	c.UpdatedAt = previous.Add(time.Millisecond)
	m.categories[c.ID] = *c
	return true, nil
}

func (m *memoryCategoryStore) ShiftLevels(_ context.Context, ids []primitive.ObjectID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ids) == 0 || delta == 0 {
		return nil
	}
	m.shiftCalls++
	if m.shiftErr != nil && m.shiftCalls > m.shiftErrFrom {
		return m.shiftErr
	}
	for _, id := range ids {
		c := m.categories[id]
		c.Niveau += delta
		m.categories[id] = c
	}
	return nil
}

func (m *memoryCategoryStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
	return nil
}

// touch simule une modification par un autre administrateur
func (m *memoryCategoryStore) touch(id primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.categories[id]
	c.UpdatedAt = c.UpdatedAt.Add(time.Second)
	m.categories[id] = c
}

type fakeUsage map[primitive.ObjectID]int64

func (f fakeUsage) CountByCategorie(_ context.Context, id primitive.ObjectID) (int64, error) {
	return f[id], nil
}

// fakeImageHost enregistre les uploads et suppressions
type fakeImageHost struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeImageHost) Upload(_ context.Context, r io.Reader, filename, folder string) (*models.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := folder + "/" + filename
	f.uploaded = append(f.uploaded, id)
	return &models.Image{ID: id, URL: "https://cdn.example.com/" + id, Format: "png", Taille: int64(len(data))}, nil
}

func (f *fakeImageHost) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

// fakeMailer enregistre les emails envoyés
type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) Send(to, subject, _ string) error {
	f.sent = append(f.sent, to+"|"+subject)
	return f.err
}

// memoryDevisStore est un DevisStore en mémoire; Update applique les champs connus
type memoryDevisStore struct {
	mu     sync.Mutex
	devis  map[primitive.ObjectID]models.Devis
	recent int64
	err    error
}

func newMemoryDevisStore() *memoryDevisStore {
	return &memoryDevisStore{devis: map[primitive.ObjectID]models.Devis{}}
}

func (m *memoryDevisStore) Create(_ context.Context, d *models.Devis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	d.ID = primitive.NewObjectID()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	m.devis[d.ID] = *d
	return nil
}

func (m *memoryDevisStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Devis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.devis[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memoryDevisStore) List(_ context.Context, statut, _ string, _ *primitive.ObjectID, _, _ int) ([]models.Devis, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Devis{}
	for _, d := range m.devis {
		if statut == "" || d.Statut == statut {
			out = append(out, d)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryDevisStore) CountRecent(_ context.Context, _ string, _ primitive.ObjectID, _ string, _ time.Time) (int64, error) {
	return m.recent, nil
}

func (m *memoryDevisStore) Update(_ context.Context, id primitive.ObjectID, update bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	d := m.devis[id]
	for field, value := range update {
		switch field {
		case "statut":
			d.Statut = value.(string)
		case "reponseAdmin":
			d.ReponseAdmin = value.(*models.ReponseAdmin)
		case "reponseClient":
			d.ReponseClient = value.(*models.ReponseClient)
		case "suiviCommande":
			d.SuiviCommande = value.(*models.SuiviCommande)
		}
	}
	m.devis[id] = d
	return nil
}

func (m *memoryDevisStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devis, id)
	return nil
}

func (m *memoryDevisStore) put(d models.Devis) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = primitive.NewObjectID()
	m.devis[d.ID] = d
	return d.ID
}

// fakeListings répond aux recherches d'annonces par ID
type fakeListings map[primitive.ObjectID]models.Annonce

func (f fakeListings) FindByID(_ context.Context, id primitive.ObjectID) (*models.Annonce, error) {
	a, ok := f[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// pngHeader suffit à la détection du type MIME
const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

// memoryAnnonceStore est un AnnonceStore en mémoire
type memoryAnnonceStore struct {
	mu       sync.Mutex
	annonces map[primitive.ObjectID]models.Annonce
	lastList models.AnnonceFilter
	err      error
	addErr   error
}

func newMemoryAnnonceStore() *memoryAnnonceStore {
	return &memoryAnnonceStore{annonces: map[primitive.ObjectID]models.Annonce{}}
}

func (m *memoryAnnonceStore) Create(_ context.Context, a *models.Annonce) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	a.ID = primitive.NewObjectID()
	if a.Images == nil {
		a.Images = []models.Image{}
	}
	m.annonces[a.ID] = *a
	return nil
}

func (m *memoryAnnonceStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Annonce, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.annonces[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memoryAnnonceStore) FindAndIncrementViews(_ context.Context, id primitive.ObjectID) (*models.Annonce, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.annonces[id]
	if !ok {
		return nil, nil
	}
	a.Vues++
	m.annonces[id] = a
	return &a, nil
}

func (m *memoryAnnonceStore) List(_ context.Context, f models.AnnonceFilter, _, _ int) ([]models.Annonce, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = f
	out := []models.Annonce{}
	for _, a := range m.annonces {
		if f.Statut != "" && a.Statut != f.Statut {
			continue
		}
		if f.VendeursActifs != nil && !containsID(f.VendeursActifs, a.Vendeur) {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (m *memoryAnnonceStore) Update(_ context.Context, id primitive.ObjectID, update bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.annonces[id]
	if statut, ok := update["statut"].(string); ok {
		a.Statut = statut
	}
	if titre, ok := update["titre"].(string); ok {
		a.Titre = titre
	}
	if prix, ok := update["prix"].(float64); ok {
		a.Prix = prix
	}
	m.annonces[id] = a
	return nil
}

func (m *memoryAnnonceStore) AddImages(_ context.Context, id primitive.ObjectID, images []models.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	a := m.annonces[id]
	a.Images = append(a.Images, images...)
	m.annonces[id] = a
	return nil
}

func (m *memoryAnnonceStore) RemoveImage(_ context.Context, id primitive.ObjectID, imageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.annonces[id]
	kept := []models.Image{}
	for _, img := range a.Images {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	a.Images = kept
	m.annonces[id] = a
	return nil
}

func (m *memoryAnnonceStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.annonces, id)
	return nil
}

func (m *memoryAnnonceStore) CountByVendeur(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.annonces {
		if a.Vendeur == id {
			n++
		}
	}
	return n, nil
}

func (m *memoryAnnonceStore) put(a models.Annonce) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = primitive.NewObjectID()
	m.annonces[a.ID] = a
	return a.ID
}

// memoryVendeurStore est un VendeurStore en mémoire, utilisable aussi comme SellerDirectory
type memoryVendeurStore struct {
	mu       sync.Mutex
	vendeurs map[primitive.ObjectID]models.Vendeur
}

func newMemoryVendeurStore() *memoryVendeurStore {
	return &memoryVendeurStore{vendeurs: map[primitive.ObjectID]models.Vendeur{}}
}

func (m *memoryVendeurStore) Create(_ context.Context, v *models.Vendeur) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = primitive.NewObjectID()
	m.vendeurs[v.ID] = *v
	return nil
}

func (m *memoryVendeurStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Vendeur, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendeurs[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *memoryVendeurStore) List(_ context.Context, _ string, actif *bool, _, _ int) ([]models.Vendeur, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Vendeur{}
	for _, v := range m.vendeurs {
		if actif == nil || v.Actif == *actif {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryVendeurStore) ActiveIDs(_ context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []primitive.ObjectID{}
	for id, v := range m.vendeurs {
		if v.Actif {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memoryVendeurStore) Update(_ context.Context, id primitive.ObjectID, update bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.vendeurs[id]
	for field, value := range update {
		switch field {
		case "nom":
			v.Nom = value.(string)
		case "actif":
			v.Actif = value.(bool)
		case "note":
			v.Note = value.(float64)
		case "logo":
			v.Logo = value.(*models.Image)
		case "couverture":
			v.Couverture = value.(*models.Image)
		}
	}
	m.vendeurs[id] = v
	return nil
}

func (m *memoryVendeurStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vendeurs, id)
	return nil
}

func (m *memoryVendeurStore) put(v models.Vendeur) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = primitive.NewObjectID()
	m.vendeurs[v.ID] = v
	return v.ID
}

// memorySearchLog conserve les recherches journalisées
type memorySearchLog struct {
	mu         sync.Mutex
	recherches []models.Recherche
	err        error
}

func (m *memorySearchLog) Create(_ context.Context, r *models.Recherche) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recherches = append(m.recherches, *r)
	return nil
}
