package models

// Image représente un fichier hébergé chez le fournisseur d'images
type Image struct {
	ID      string `json:"id" bson:"id"` // identifiant côté hébergeur (public_id Cloudinary ou clé S3)
	URL     string `json:"url" bson:"url"`
	Largeur int    `json:"largeur" bson:"largeur"`
	Hauteur int    `json:"hauteur" bson:"hauteur"`
	Format  string `json:"format" bson:"format"`
	Taille  int64  `json:"taille" bson:"taille"` // en octets
}
