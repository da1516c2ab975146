package models

import (
	"fmt"
	"strings"
	"time"
)

// FlexibleTime accepte les formats de date envoyés par les formulaires du back office
type FlexibleTime struct {
	time.Time
}

var flexibleLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"02/01/2006",
}

// UnmarshalJSON essaie chaque format connu, en heure locale pour les formats sans fuseau
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		ft.Time = time.Time{}
		return nil
	}

	for _, layout := range flexibleLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			ft.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("format de date invalide: %s", s)
}

// MarshalJSON renvoie la date au format RFC3339, ou null si elle est vide
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	if ft.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte("\"" + ft.Time.Format(time.RFC3339) + "\""), nil
}

// OrNow retourne la date, ou l'instant présent si elle n'a pas été fournie
func (ft *FlexibleTime) OrNow() time.Time {
	if ft == nil || ft.Time.IsZero() {
		return time.Now()
	}
	return ft.Time
}
