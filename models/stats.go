package models

import "time"

// EntityOverview regroupe les compteurs communs à chaque collection
type EntityOverview struct {
	Total           int64            `json:"total"`
	ParStatut       map[string]int64 `json:"parStatut,omitempty"`
	Derniers7Jours  int64            `json:"derniers7Jours"`
	Derniers30Jours int64            `json:"derniers30Jours"`
	Croissance      int              `json:"croissance"` // en %
}

// AnnoncesOverview ajoute les agrégats propres aux annonces
type AnnoncesOverview struct {
	EntityOverview
	PrixMoyen     float64 `json:"prixMoyen"`
	VuesTotales   int64   `json:"vuesTotales"`
	FavorisTotaux int64   `json:"favorisTotaux"`
}

// VendeursOverview ajoute les agrégats propres aux vendeurs
type VendeursOverview struct {
	EntityOverview
	Actifs      int64   `json:"actifs"`
	NoteMoyenne float64 `json:"noteMoyenne"`
}

// DevisOverview ajoute les agrégats propres aux devis
type DevisOverview struct {
	EntityOverview
	TauxConversion int     `json:"tauxConversion"` // acceptés / total, en %
	MontantMoyen   float64 `json:"montantMoyen"`
}

// CategoriesOverview compte les catégories par niveau
type CategoriesOverview struct {
	EntityOverview
	ParNiveau map[string]int64 `json:"parNiveau"`
}

// RecherchesOverview résume le journal des recherches
type RecherchesOverview struct {
	EntityOverview
	ResultatsMoyens float64 `json:"resultatsMoyens"`
}

// OverviewStats est l'instantané affiché sur le tableau de bord
type OverviewStats struct {
	Annonces    AnnoncesOverview   `json:"annonces"`
	Vendeurs    VendeursOverview   `json:"vendeurs"`
	Devis       DevisOverview      `json:"devis"`
	Categories  CategoriesOverview `json:"categories"`
	Recherches  RecherchesOverview `json:"recherches"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// DefaultOverviewStats retourne des statistiques à zéro, utilisées quand l'agrégation échoue
func DefaultOverviewStats() OverviewStats {
	empty := func() EntityOverview {
		return EntityOverview{ParStatut: map[string]int64{}}
	}
	return OverviewStats{
		Annonces:    AnnoncesOverview{EntityOverview: empty()},
		Vendeurs:    VendeursOverview{EntityOverview: empty()},
		Devis:       DevisOverview{EntityOverview: empty()},
		Categories:  CategoriesOverview{EntityOverview: empty(), ParNiveau: map[string]int64{}},
		Recherches:  RecherchesOverview{EntityOverview: empty()},
		GeneratedAt: time.Now(),
	}
}

// RankingEntry est une ligne d'un classement
type RankingEntry struct {
	ID      string             `json:"id"`
	Label   string             `json:"label"`
	Score   float64            `json:"score"`
	Signaux map[string]float64 `json:"signaux"`
}

// Ranking est un classement top-N
type Ranking struct {
	Type    string         `json:"type"`
	Periode string         `json:"periode"`
	Limit   int            `json:"limit"`
	Entrees []RankingEntry `json:"entrees"`
}

// TimeSeriesPoint est la valeur d'un intervalle (heure, jour, semaine ou mois)
type TimeSeriesPoint struct {
	Bucket  string             `json:"bucket"`
	Valeurs map[string]float64 `json:"valeurs"`
}

// TimeSeries est une série temporelle découpée en intervalles calendaires
type TimeSeries struct {
	Type        string            `json:"type"`
	Periode     string            `json:"periode"`
	Granularite string            `json:"granularite"`
	Points      []TimeSeriesPoint `json:"points"`
}
