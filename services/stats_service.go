package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"engins-backoffice/constants"
	"engins-backoffice/models"
	"engins-backoffice/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StatsStore exécute un pipeline d'agrégation sur une collection
type StatsStore interface {
	Aggregate(ctx context.Context, collection string, pipeline []bson.M) ([]bson.M, error)
}

// StatsCache met en cache les résultats coûteux (instantané et classements)
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// StatsService calcule les statistiques du tableau de bord. Il ne modifie aucune donnée.
type StatsService struct {
	store  StatsStore
	cache  StatsCache
	loc    *time.Location
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewStatsService crée une nouvelle instance de StatsService. cache peut être nil.
func NewStatsService(store StatsStore, cache StatsCache, loc *time.Location, logger *zap.SugaredLogger) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{store: store, cache: cache, loc: loc, logger: logger, now: time.Now}
}

const overviewCacheKey = "stats:overview"

// Overview calcule l'instantané de toutes les collections
func (s *StatsService) Overview(ctx context.Context) (*models.OverviewStats, error) {
	var cached models.OverviewStats
	if s.cacheGet(ctx, overviewCacheKey, &cached) {
		return &cached, nil
	}

	now := s.now()
	stats := models.DefaultOverviewStats()
	stats.GeneratedAt = now

	annonces, totaux, _, err := s.overviewOf(ctx, constants.CollectionAnnonces, now)
	if err != nil {
		return nil, err
	}
	stats.Annonces.EntityOverview = annonces
	stats.Annonces.PrixMoyen = roundHalfUp(toFloat(totaux["prixMoyen"]), 0)
	stats.Annonces.VuesTotales = toInt64(totaux["vues"])
	stats.Annonces.FavorisTotaux = toInt64(totaux["favoris"])

	vendeurs, totaux, _, err := s.overviewOf(ctx, constants.CollectionVendeurs, now)
	if err != nil {
		return nil, err
	}
	stats.Vendeurs.EntityOverview = vendeurs
	stats.Vendeurs.Actifs = toInt64(totaux["actifs"])
	stats.Vendeurs.NoteMoyenne = roundHalfUp(toFloat(totaux["noteMoyenne"]), 1)

	devis, totaux, _, err := s.overviewOf(ctx, constants.CollectionDevis, now)
	if err != nil {
		return nil, err
	}
	stats.Devis.EntityOverview = devis
	stats.Devis.TauxConversion = percent(float64(devis.ParStatut[models.DevisAccepte]), float64(devis.Total))
	stats.Devis.MontantMoyen = roundHalfUp(toFloat(totaux["montantMoyen"]), 0)

	categories, _, niveaux, err := s.overviewOf(ctx, constants.CollectionCategories, now)
	if err != nil {
		return nil, err
	}
	stats.Categories.EntityOverview = categories
	stats.Categories.ParNiveau = niveaux

	recherches, totaux, _, err := s.overviewOf(ctx, constants.CollectionRecherches, now)
	if err != nil {
		return nil, err
	}
	stats.Recherches.EntityOverview = recherches
	stats.Recherches.ResultatsMoyens = roundHalfUp(toFloat(totaux["resultatsMoyens"]), 1)

	s.cacheSet(ctx, overviewCacheKey, stats)
	return &stats, nil
}

// overviewOf exécute le $facet d'une collection et retourne les compteurs communs,
// le document des totaux et la ventilation éventuelle
func (s *StatsService) overviewOf(ctx context.Context, collection string, now time.Time) (models.EntityOverview, bson.M, map[string]int64, error) {
	def := overviewDefs[collection]
	results, err := s.store.Aggregate(ctx, collection, buildOverviewPipeline(def, now))
	if err != nil {
		return models.EntityOverview{}, nil, nil, utils.Persistence("statistiques "+collection, err)
	}

	doc := bson.M{}
	if len(results) > 0 {
		doc = results[0]
	}

	overview := models.EntityOverview{
		Total:           toInt64(firstDoc(doc["total"])["n"]),
		ParStatut:       countsByKey(doc["parStatut"]),
		Derniers7Jours:  toInt64(firstDoc(doc["j7"])["n"]),
		Derniers30Jours: toInt64(firstDoc(doc["j30"])["n"]),
	}
	overview.Croissance = overviewGrowth(overview.Derniers7Jours, overview.Derniers30Jours)

	return overview, firstDoc(doc["totaux"]), countsByKey(doc["breakdown"]), nil
}

// countsByKey convertit [{_id, n}] en map
func countsByKey(v interface{}) map[string]int64 {
	out := map[string]int64{}
	for _, d := range docs(v) {
		key := formatID(d["_id"])
		if key == "" {
			key = "inconnu"
		}
		out[key] += toInt64(d["n"])
	}
	return out
}

// TopRanking calcule le classement top-N d'un type sur la période
func (s *StatsService) TopRanking(ctx context.Context, rankingType string, limit int, period string) (*models.Ranking, error) {
	def, ok := rankingDefs[rankingType]
	if !ok {
		return nil, utils.ValidationError{Field: "type", Message: fmt.Sprintf("type de classement inconnu: %s", rankingType)}
	}
	limit, err := parseLimit(limit)
	if err != nil {
		return nil, err
	}
	period, days, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("stats:top:%s:%d:%s", rankingType, limit, period)
	var cached models.Ranking
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	var since *time.Time
	if period != PeriodAll {
		t := s.now().AddDate(0, 0, -days)
		since = &t
	}

	results, err := s.store.Aggregate(ctx, def.collection, buildRankingPipeline(def, since, limit))
	if err != nil {
		return nil, utils.Persistence("classement "+rankingType, err)
	}

	ranking := &models.Ranking{
		Type:    rankingType,
		Periode: period,
		Limit:   limit,
		Entrees: rankEntries(def, results, limit),
	}
	s.cacheSet(ctx, key, ranking)
	return ranking, nil
}

// rankEntries recalcule le score de chaque document puis trie: score, critères de départage, libellé
func rankEntries(def rankingDef, results []bson.M, limit int) []models.RankingEntry {
	entries := make([]models.RankingEntry, 0, len(results))
	for _, doc := range results {
		signaux := make(map[string]float64, len(def.signals))
		for _, name := range def.signals {
			signaux[name] = roundHalfUp(toFloat(doc[name]), 2)
		}

		score := 0.0
		for _, w := range def.score {
			score += w.coef * signaux[w.signal]
		}

		id := formatID(doc["_id"])
		var label string
		if def.label != nil {
			label = def.label(doc["_id"])
		} else if l, ok := doc["label"].(string); ok {
			label = l
		}
		if label == "" {
			label = id
		}

		entries = append(entries, models.RankingEntry{
			ID:      id,
			Label:   label,
			Score:   roundHalfUp(score, 2),
			Signaux: signaux,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		for _, tie := range def.ties {
			if a.Signaux[tie] != b.Signaux[tie] {
				return a.Signaux[tie] > b.Signaux[tie]
			}
		}
		return a.Label < b.Label
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// TimeSeries découpe la période en intervalles calendaires et agrège chaque intervalle
func (s *StatsService) TimeSeries(ctx context.Context, seriesType, period string) (*models.TimeSeries, error) {
	def, ok := seriesDefs[seriesType]
	if !ok {
		return nil, utils.ValidationError{Field: "type", Message: fmt.Sprintf("type de série inconnu: %s", seriesType)}
	}
	period, window, err := parseSeriesPeriod(period)
	if err != nil {
		return nil, err
	}

	since, keys := windowBuckets(window, s.now(), s.loc)

	buckets := make(map[string]map[string]float64, len(keys))
	for _, key := range keys {
		valeurs := map[string]float64{}
		for _, src := range def.sources {
			for _, name := range src.valueNames() {
				valeurs[name] = 0
			}
		}
		buckets[key] = valeurs
	}

	for _, src := range def.sources {
		results, err := s.store.Aggregate(ctx, src.collection, buildSeriesPipeline(src, window, since, s.loc))
		if err != nil {
			return nil, utils.Persistence("série "+seriesType, err)
		}
		mergeSeries(buckets, src, results)
	}

	series := &models.TimeSeries{
		Type:        seriesType,
		Periode:     period,
		Granularite: window.granularity,
		Points:      make([]models.TimeSeriesPoint, 0, len(keys)),
	}
	for _, key := range keys {
		valeurs := buckets[key]
		if def.derive != nil {
			def.derive(valeurs)
		}
		series.Points = append(series.Points, models.TimeSeriesPoint{Bucket: key, Valeurs: valeurs})
	}
	return series, nil
}

// mergeSeries ajoute les résultats d'une source dans les intervalles; un intervalle absent reste à zéro
func mergeSeries(buckets map[string]map[string]float64, src seriesSource, results []bson.M) {
	for _, doc := range results {
		id, _ := doc["_id"].(bson.M)
		key, _ := id["bucket"].(string)
		valeurs, ok := buckets[key]
		if !ok {
			continue
		}

		if src.split != "" {
			count := toFloat(doc["count"])
			split, _ := id["split"].(string)
			if split == "" {
				split = "inconnu"
			}
			valeurs[split] += count
			valeurs["total"] += count
			continue
		}

		for name := range src.values {
			valeurs[name] += roundHalfUp(toFloat(doc[name]), src.rounding[name])
		}
	}
}

func (s *StatsService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warnw("⚠️  Cache statistiques indisponible", "key", key, "error", err)
		return false
	}
	return found
}

func (s *StatsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warnw("⚠️  Écriture du cache statistiques impossible", "key", key, "error", err)
	}
}

// formatID rend un _id d'agrégation lisible
func formatID(v interface{}) string {
	switch id := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case int32, int64, int, float64:
		return strconv.FormatFloat(toFloat(id), 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
