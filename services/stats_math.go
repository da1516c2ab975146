package services

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// roundHalfUp arrondit au plus proche à decimals chiffres, les demis vers le haut
func roundHalfUp(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	p := math.Pow(10, float64(decimals))
	return math.Floor(x*p+0.5) / p
}

// growthRate compare current à previous, en pourcentage entier.
// Un previous nul donne 100 si current > 0, sinon 0.
func growthRate(current, previous int64) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(roundHalfUp(float64(current-previous)/float64(previous)*100, 0))
}

// overviewGrowth applique l'heuristique du tableau de bord: les 7 derniers jours
// comparés au reste de la fenêtre de 30 jours, avec un minimum de 1.
func overviewGrowth(last7, last30 int64) int {
	previous := last30 - last7
	if previous < 1 {
		previous = 1
	}
	return growthRate(last7, previous)
}

// percent retourne part/total en pourcentage entier, 0 si total est nul
func percent(part, total float64) int {
	if total == 0 {
		return 0
	}
	return int(roundHalfUp(part/total*100, 0))
}

// toFloat convertit une valeur numérique BSON, 0 pour nil ou un type inattendu
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case float64:
		if math.IsNaN(n) {
			return 0
		}
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}

func toInt64(v interface{}) int64 {
	return int64(math.Round(toFloat(v)))
}

// firstDoc retourne le premier document d'un résultat de facette
func firstDoc(v interface{}) bson.M {
	switch arr := v.(type) {
	case bson.A:
		if len(arr) > 0 {
			if doc, ok := arr[0].(bson.M); ok {
				return doc
			}
		}
	case []interface{}:
		if len(arr) > 0 {
			if doc, ok := arr[0].(bson.M); ok {
				return doc
			}
		}
	}
	return bson.M{}
}

// docs convertit un tableau BSON en documents
func docs(v interface{}) []bson.M {
	var items []interface{}
	switch arr := v.(type) {
	case bson.A:
		items = arr
	case []interface{}:
		items = arr
	case []bson.M:
		return arr
	}
	out := make([]bson.M, 0, len(items))
	for _, item := range items {
		if doc, ok := item.(bson.M); ok {
			out = append(out, doc)
		}
	}
	return out
}

// startOfDay retourne minuit du jour de t dans loc
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
