package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// Types de classement
const (
	RankingListings   = "listings"
	RankingSellers    = "sellers"
	RankingCategories = "categories"
	RankingBrands     = "brands"
	RankingSearches   = "searches"
	RankingCities     = "cities"
	RankingPrices     = "prices"
)

// Types de séries temporelles
const (
	SeriesListings    = "listings"
	SeriesQuotes      = "quotes"
	SeriesSearches    = "searches"
	SeriesSellers     = "sellers"
	SeriesRevenue     = "revenue"
	SeriesViews       = "views"
	SeriesConversions = "conversions"
)

// Limites des classements
const (
	DefaultRankingLimit = 10
	MaxRankingLimit     = 100
	MaxPeriodDays       = 3650
)

// PeriodAll désactive le filtre de date des classements
const PeriodAll = "all"

// weight est un terme du score: coef * signal
type weight struct {
	signal string
	coef   float64
}

// rankingDef décrit un classement: les étapes produisent des documents
// {_id, label, <signaux>} et le score est une combinaison linéaire des signaux.
type rankingDef struct {
	collection string
	dateField  string
	match      bson.M
	stages     func() []bson.M
	signals    []string
	score      []weight
	ties       []string
	// label calcule le libellé côté Go quand le pipeline ne le fournit pas
	label func(id interface{}) string
}

// Bornes des tranches de prix (EUR)
var priceBoundaries = []interface{}{0, 10000, 25000, 50000, 100000, 250000, 500000}

const priceOverflow = "500000+"

func sumOf(field string) bson.M { return bson.M{"$sum": field} }

func countIf(field string, value interface{}) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{field, value}}, 1, 0}}}
}

// lookupLabel joint la collection from sur _id et expose son champ nom comme label
func lookupLabel(from, fallback string) []bson.M {
	return []bson.M{
		{"$lookup": bson.M{"from": from, "localField": "_id", "foreignField": "_id", "as": "ref"}},
		{"$unwind": bson.M{"path": "$ref", "preserveNullAndEmptyArrays": true}},
		{"$addFields": bson.M{"label": bson.M{"$ifNull": bson.A{"$ref.nom", fallback}}}},
		{"$project": bson.M{"ref": 0}},
	}
}

var rankingDefs = map[string]rankingDef{
	RankingListings: {
		collection: constants.CollectionAnnonces,
		dateField:  "createdAt",
		stages: func() []bson.M {
			return []bson.M{
				{"$lookup": bson.M{"from": constants.CollectionDevis, "localField": "_id", "foreignField": "annonce", "as": "demandes"}},
				{"$project": bson.M{
					"label":   "$titre",
					"vues":    bson.M{"$ifNull": bson.A{"$vues", 0}},
					"favoris": bson.M{"$ifNull": bson.A{"$favoris", 0}},
					"devis":   bson.M{"$size": "$demandes"},
				}},
			}
		},
		signals: []string{"vues", "favoris", "devis"},
		score:   []weight{{"vues", 1}, {"favoris", 3}, {"devis", 5}},
		ties:    []string{"vues", "favoris"},
	},
	RankingSellers: {
		collection: constants.CollectionAnnonces,
		dateField:  "createdAt",
		stages: func() []bson.M {
			stages := []bson.M{
				{"$group": bson.M{
					"_id":             "$vendeur",
					"annonceIds":      bson.M{"$push": "$_id"},
					"annoncesActives": countIf("$statut", models.AnnonceActive),
					"vuesTotales":     sumOf("$vues"),
					"favorisTotaux":   sumOf("$favoris"),
				}},
				{"$lookup": bson.M{
					"from": constants.CollectionDevis,
					"let":  bson.M{"ids": "$annonceIds"},
					"pipeline": bson.A{
						bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
							bson.M{"$in": bson.A{"$annonce", "$$ids"}},
							bson.M{"$eq": bson.A{"$statut", models.DevisAccepte}},
						}}}},
						bson.M{"$count": "n"},
					},
					"as": "acceptes",
				}},
				{"$addFields": bson.M{"devisAcceptes": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$acceptes.n", 0}}, 0}}}},
				{"$project": bson.M{"annonceIds": 0, "acceptes": 0}},
			}
			return append(stages, lookupLabel(constants.CollectionVendeurs, "Vendeur inconnu")...)
		},
		signals: []string{"annoncesActives", "vuesTotales", "favorisTotaux", "devisAcceptes"},
		score:   []weight{{"annoncesActives", 10}, {"vuesTotales", 0.1}, {"favorisTotaux", 2}, {"devisAcceptes", 50}},
		ties:    []string{"vuesTotales", "annoncesActives"},
	},
	RankingCategories: {
		collection: constants.CollectionAnnonces,
		dateField:  "createdAt",
		stages: func() []bson.M {
			stages := []bson.M{
				{"$group": bson.M{
					"_id":      "$categorie",
					"annonces": bson.M{"$sum": 1},
					"vues":     sumOf("$vues"),
					"favoris":  sumOf("$favoris"),
				}},
			}
			return append(stages, lookupLabel(constants.CollectionCategories, "Catégorie inconnue")...)
		},
		signals: []string{"annonces", "vues", "favoris"},
		score:   []weight{{"annonces", 5}, {"vues", 0.1}, {"favoris", 1}},
		ties:    []string{"annonces", "vues"},
	},
	RankingBrands: {
		collection: constants.CollectionAnnonces,
		dateField:  "createdAt",
		match:      bson.M{"marque": bson.M{"$nin": bson.A{nil, ""}}},
		stages: func() []bson.M {
			return []bson.M{
				{"$group": bson.M{
					"_id":       "$marque",
					"annonces":  bson.M{"$sum": 1},
					"vues":      sumOf("$vues"),
					"prixMoyen": bson.M{"$avg": "$prix"},
				}},
				{"$addFields": bson.M{"label": "$_id"}},
			}
		},
		signals: []string{"annonces", "vues", "prixMoyen"},
		score:   []weight{{"annonces", 1}, {"vues", 0.05}},
		ties:    []string{"annonces", "prixMoyen"},
	},
	RankingSearches: {
		collection: constants.CollectionRecherches,
		dateField:  "createdAt",
		match:      bson.M{"terme": bson.M{"$nin": bson.A{nil, ""}}},
		stages: func() []bson.M {
			return []bson.M{
				{"$group": bson.M{
					"_id":             bson.M{"$toLower": "$terme"},
					"recherches":      bson.M{"$sum": 1},
					"resultatsMoyens": bson.M{"$avg": "$nombreResultats"},
				}},
				{"$addFields": bson.M{"label": "$_id"}},
			}
		},
		signals: []string{"recherches", "resultatsMoyens"},
		score:   []weight{{"recherches", 1}},
		ties:    []string{"resultatsMoyens"},
	},
	RankingCities: {
		collection: constants.CollectionDevis,
		dateField:  "createdAt",
		match:      bson.M{"ville": bson.M{"$nin": bson.A{nil, ""}}},
		stages: func() []bson.M {
			return []bson.M{
				{"$group": bson.M{
					"_id":      "$ville",
					"devis":    bson.M{"$sum": 1},
					"acceptes": countIf("$statut", models.DevisAccepte),
				}},
				{"$addFields": bson.M{"label": "$_id"}},
			}
		},
		signals: []string{"devis", "acceptes"},
		score:   []weight{{"devis", 1}, {"acceptes", 2}},
		ties:    []string{"acceptes"},
	},
	RankingPrices: {
		collection: constants.CollectionAnnonces,
		dateField:  "createdAt",
		stages: func() []bson.M {
			return []bson.M{
				{"$bucket": bson.M{
					"groupBy":    "$prix",
					"boundaries": priceBoundaries,
					"default":    priceOverflow,
					"output": bson.M{
						"annonces": bson.M{"$sum": 1},
						"vues":     sumOf("$vues"),
					},
				}},
			}
		},
		signals: []string{"annonces", "vues"},
		score:   []weight{{"annonces", 1}},
		ties:    []string{"vues"},
		label:   priceRangeLabel,
	},
}

// priceRangeLabel transforme la borne basse d'un $bucket en libellé "10000 - 25000"
func priceRangeLabel(id interface{}) string {
	if s, ok := id.(string); ok {
		return s
	}
	low := toInt64(id)
	for i, b := range priceBoundaries {
		if toInt64(b) == low && i+1 < len(priceBoundaries) {
			return fmt.Sprintf("%d - %d", low, toInt64(priceBoundaries[i+1]))
		}
	}
	return strconv.FormatInt(low, 10)
}

// scoreExpr traduit les pondérations en expression d'agrégation
func scoreExpr(weights []weight) bson.M {
	terms := bson.A{}
	for _, w := range weights {
		field := bson.M{"$ifNull": bson.A{"$" + w.signal, 0}}
		if w.coef == 1 {
			terms = append(terms, field)
		} else {
			terms = append(terms, bson.M{"$multiply": bson.A{field, w.coef}})
		}
	}
	return bson.M{"$add": terms}
}

// buildRankingPipeline assemble: filtre de période, étapes du type, score, tri, limite
func buildRankingPipeline(def rankingDef, since *time.Time, limit int) []bson.M {
	match := bson.M{}
	for k, v := range def.match {
		match[k] = v
	}
	if since != nil {
		match[def.dateField] = bson.M{"$gte": *since}
	}

	pipeline := []bson.M{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.M{"$match": match})
	}
	pipeline = append(pipeline, def.stages()...)
	pipeline = append(pipeline, bson.M{"$addFields": bson.M{"score": scoreExpr(def.score)}})

	sort := bson.D{{Key: "score", Value: -1}}
	for _, tie := range def.ties {
		sort = append(sort, bson.E{Key: tie, Value: -1})
	}
	sort = append(sort, bson.E{Key: "label", Value: 1})
	pipeline = append(pipeline, bson.M{"$sort": sort}, bson.M{"$limit": limit})
	return pipeline
}

// Granularités des séries temporelles
const (
	GranularityHour  = "heure"
	GranularityDay   = "jour"
	GranularityWeek  = "semaine"
	GranularityMonth = "mois"
)

// seriesWindow décrit le découpage d'une période de série temporelle
type seriesWindow struct {
	granularity string
	mongoFormat string
	count       int
}

var seriesWindows = map[string]seriesWindow{
	"24h": {GranularityHour, "%Y-%m-%dT%H:00", 24},
	"7d":  {GranularityDay, "%Y-%m-%d", 7},
	"30d": {GranularityDay, "%Y-%m-%d", 30},
	"3m":  {GranularityWeek, "%G-W%V", 13},
	"1y":  {GranularityMonth, "%Y-%m", 12},
}

// bucketKey formate t comme le fait $dateToString pour la granularité
func bucketKey(t time.Time, granularity string, loc *time.Location) string {
	t = t.In(loc)
	switch granularity {
	case GranularityHour:
		return t.Format("2006-01-02T15:00")
	case GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GranularityMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// windowBuckets retourne le début de la fenêtre et la liste ordonnée des intervalles jusqu'à now inclus
func windowBuckets(w seriesWindow, now time.Time, loc *time.Location) (time.Time, []string) {
	now = now.In(loc)
	var start time.Time
	var step func(time.Time) time.Time

	switch w.granularity {
	case GranularityHour:
		start = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, loc).Add(-time.Duration(w.count-1) * time.Hour)
		step = func(t time.Time) time.Time { return t.Add(time.Hour) }
	case GranularityWeek:
		day := startOfDay(now, loc)
		offset := (int(day.Weekday()) + 6) % 7 // lundi = 0
		start = day.AddDate(0, 0, -offset-7*(w.count-1))
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	case GranularityMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(w.count - 1), 0)
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	default:
		start = startOfDay(now, loc).AddDate(0, 0, -(w.count - 1))
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	}

	keys := make([]string, 0, w.count)
	for t := start; !t.After(now); t = step(t) {
		key := bucketKey(t, w.granularity, loc)
		// le passage à l'heure d'hiver répète une heure locale
		if len(keys) > 0 && keys[len(keys)-1] == key {
			continue
		}
		keys = append(keys, key)
	}
	return start, keys
}

// seriesSource décrit une agrégation par intervalle sur une collection
type seriesSource struct {
	collection string
	dateField  string
	match      bson.M
	// split ventile le compte par valeur de ce champ (ex. statut)
	split       string
	splitValues []string
	values      map[string]bson.M
	// rounding fixe le nombre de décimales par valeur (0 par défaut)
	rounding map[string]int
}

// seriesDef combine une ou plusieurs sources fusionnées par intervalle
type seriesDef struct {
	sources []seriesSource
	derive  func(valeurs map[string]float64)
}

var seriesDefs = map[string]seriesDef{
	SeriesListings: {sources: []seriesSource{{
		collection:  constants.CollectionAnnonces,
		dateField:   "createdAt",
		split:       "statut",
		splitValues: models.AnnonceStatuts,
	}}},
	SeriesQuotes: {sources: []seriesSource{{
		collection:  constants.CollectionDevis,
		dateField:   "createdAt",
		split:       "statut",
		splitValues: models.DevisStatuts,
	}}},
	SeriesSearches: {sources: []seriesSource{{
		collection: constants.CollectionRecherches,
		dateField:  "createdAt",
		values: map[string]bson.M{
			"recherches":      {"$sum": 1},
			"resultatsMoyens": {"$avg": "$nombreResultats"},
		},
		rounding: map[string]int{"resultatsMoyens": 1},
	}}},
	SeriesSellers: {sources: []seriesSource{{
		collection: constants.CollectionVendeurs,
		dateField:  "createdAt",
		values: map[string]bson.M{
			"nouveaux": {"$sum": 1},
			"actifs":   countIf("$actif", true),
		},
	}}},
	SeriesRevenue: {sources: []seriesSource{{
		collection: constants.CollectionDevis,
		dateField:  "reponseAdmin.dateReponse",
		match:      bson.M{"statut": models.DevisAccepte},
		values: map[string]bson.M{
			"montant": sumOf("$reponseAdmin.montant"),
			"devis":   {"$sum": 1},
		},
	}}},
	SeriesViews: {sources: []seriesSource{{
		collection: constants.CollectionAnnonces,
		dateField:  "createdAt",
		values: map[string]bson.M{
			"vues":    sumOf("$vues"),
			"favoris": sumOf("$favoris"),
		},
	}}},
	SeriesConversions: {
		sources: []seriesSource{
			{
				collection: constants.CollectionAnnonces,
				dateField:  "createdAt",
				values:     map[string]bson.M{"annonces": {"$sum": 1}},
			},
			{
				collection: constants.CollectionDevis,
				dateField:  "createdAt",
				values: map[string]bson.M{
					"devis":    {"$sum": 1},
					"acceptes": countIf("$statut", models.DevisAccepte),
				},
			},
		},
		derive: func(v map[string]float64) {
			v["taux"] = float64(percent(v["acceptes"], v["devis"]))
		},
	},
}

// valueNames liste les clés produites par la source pour l'initialisation à zéro
func (src seriesSource) valueNames() []string {
	if src.split != "" {
		return append([]string{"total"}, src.splitValues...)
	}
	names := make([]string, 0, len(src.values))
	for name := range src.values {
		names = append(names, name)
	}
	return names
}

// buildSeriesPipeline groupe les documents de la source par intervalle (et par split)
func buildSeriesPipeline(src seriesSource, w seriesWindow, since time.Time, loc *time.Location) []bson.M {
	match := bson.M{src.dateField: bson.M{"$gte": since}}
	for k, v := range src.match {
		match[k] = v
	}

	id := bson.M{"bucket": bson.M{"$dateToString": bson.M{
		"format":   w.mongoFormat,
		"date":     "$" + src.dateField,
		"timezone": loc.String(),
	}}}
	group := bson.M{}
	if src.split != "" {
		id["split"] = "$" + src.split
		group["count"] = bson.M{"$sum": 1}
	}
	for name, acc := range src.values {
		group[name] = acc
	}
	group["_id"] = id

	return []bson.M{
		{"$match": match},
		{"$group": group},
		{"$sort": bson.D{{Key: "_id.bucket", Value: 1}}},
	}
}

// overviewDef décrit l'instantané d'une collection
type overviewDef struct {
	collection  string
	statusField string
	// breakdown ventile aussi par ce champ (ex. niveau des catégories)
	breakdown string
	totals    bson.M
}

var overviewDefs = map[string]overviewDef{
	constants.CollectionAnnonces: {
		collection:  constants.CollectionAnnonces,
		statusField: "statut",
		totals: bson.M{
			"prixMoyen": bson.M{"$avg": "$prix"},
			"vues":      sumOf("$vues"),
			"favoris":   sumOf("$favoris"),
		},
	},
	constants.CollectionVendeurs: {
		collection: constants.CollectionVendeurs,
		totals: bson.M{
			"actifs":      countIf("$actif", true),
			"noteMoyenne": bson.M{"$avg": "$note"},
		},
	},
	constants.CollectionDevis: {
		collection:  constants.CollectionDevis,
		statusField: "statut",
		totals: bson.M{
			"montantMoyen": bson.M{"$avg": "$reponseAdmin.montant"},
		},
	},
	constants.CollectionCategories: {
		collection: constants.CollectionCategories,
		breakdown:  "niveau",
	},
	constants.CollectionRecherches: {
		collection: constants.CollectionRecherches,
		totals: bson.M{
			"resultatsMoyens": bson.M{"$avg": "$nombreResultats"},
		},
	},
}

// buildOverviewPipeline calcule tous les compteurs d'une collection en une passe ($facet)
func buildOverviewPipeline(def overviewDef, now time.Time) []bson.M {
	facets := bson.M{
		"total": bson.A{bson.M{"$count": "n"}},
		"j7": bson.A{
			bson.M{"$match": bson.M{"createdAt": bson.M{"$gte": now.AddDate(0, 0, -7)}}},
			bson.M{"$count": "n"},
		},
		"j30": bson.A{
			bson.M{"$match": bson.M{"createdAt": bson.M{"$gte": now.AddDate(0, 0, -30)}}},
			bson.M{"$count": "n"},
		},
	}
	if def.statusField != "" {
		facets["parStatut"] = bson.A{bson.M{"$group": bson.M{"_id": "$" + def.statusField, "n": bson.M{"$sum": 1}}}}
	}
	if def.breakdown != "" {
		facets["breakdown"] = bson.A{bson.M{"$group": bson.M{"_id": "$" + def.breakdown, "n": bson.M{"$sum": 1}}}}
	}
	if len(def.totals) > 0 {
		group := bson.M{"_id": nil}
		for k, v := range def.totals {
			group[k] = v
		}
		facets["totaux"] = bson.A{bson.M{"$group": group}}
	}
	return []bson.M{{"$facet": facets}}
}

// parsePeriod lit "Nd" (1 <= N <= 3650) ou "all"; vide vaut "30d"
func parsePeriod(period string) (string, int, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = "30d"
	}
	if period == PeriodAll {
		return period, 0, nil
	}
	if !strings.HasSuffix(period, "d") {
		return "", 0, utils.ValidationError{Field: "period", Message: "période invalide, attendu Nd ou all"}
	}
	days, err := strconv.Atoi(strings.TrimSuffix(period, "d"))
	if err != nil || days < 1 || days > MaxPeriodDays {
		return "", 0, utils.ValidationError{Field: "period", Message: fmt.Sprintf("période invalide, attendu de 1d à %dd ou all", MaxPeriodDays)}
	}
	return period, days, nil
}

// parseSeriesPeriod valide une période de série temporelle; vide vaut "30d"
func parseSeriesPeriod(period string) (string, seriesWindow, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = "30d"
	}
	w, ok := seriesWindows[period]
	if !ok {
		return "", seriesWindow{}, utils.ValidationError{Field: "period", Message: "période invalide, attendu 24h, 7d, 30d, 3m ou 1y"}
	}
	return period, w, nil
}

// parseLimit valide la taille d'un classement; 0 vaut la valeur par défaut
func parseLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultRankingLimit, nil
	}
	if limit < 1 || limit > MaxRankingLimit {
		return 0, utils.ValidationError{Field: "limit", Message: fmt.Sprintf("la limite doit être comprise entre 1 et %d", MaxRankingLimit)}
	}
	return limit, nil
}
