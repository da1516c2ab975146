package constants

// Messages d'erreur HTTP courants
const (
	ErrMethodNotAllowed  = "Méthode non autorisée"
	ErrServerError       = "Erreur serveur"
	ErrInvalidData       = "Données invalides"
	ErrNotAuthenticated  = "Non authentifié"
	ErrInvalidToken      = "Token invalide ou expiré"
	ErrAdminOnly         = "Accès refusé - Admin uniquement"
	ErrInvalidID         = "ID invalide"
	ErrInvalidCategoryID = "ID catégorie invalide"
	ErrInvalidAnnonceID  = "ID annonce invalide"
	ErrInvalidVendeurID  = "ID vendeur invalide"
	ErrInvalidDevisID    = "ID devis invalide"
	ErrAnnonceNotFound   = "Annonce non trouvée"
	ErrVendeurNotFound   = "Vendeur non trouvé"
	ErrDevisNotFound     = "Devis non trouvé"
	ErrNoFieldToUpdate   = "Aucune donnée à mettre à jour"
	ErrBadCredentials    = "Email ou mot de passe incorrect"
	ErrUpload            = "Erreur lors de l'upload de l'image"
	ErrNoFile            = "Aucun fichier fourni"
)

// En-têtes HTTP
const (
	HeaderContentType     = "Content-Type"
	HeaderApplicationJSON = "application/json"
)

// Noms des collections MongoDB
const (
	CollectionCategories = "categories"
	CollectionAnnonces   = "annonces"
	CollectionVendeurs   = "vendeurs"
	CollectionDevis      = "devis"
	CollectionRecherches = "recherches"
	CollectionAdmins     = "admins"
)

// Limites d'upload
const (
	MaxUploadSize = 10 << 20 // 10 MB par requête multipart
	MaxImageSize  = 5 << 20  // 5 MB par image
	MaxImages     = 20       // images par annonce
)
