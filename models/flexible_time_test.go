package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexibleTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"format RFC3339", `"2025-12-31T20:00:00Z"`, false},
		{"format ISO sans fuseau", `"2025-12-31T20:00:00"`, false},
		{"format court", `"2025-12-31T20:00"`, false},
		{"date seule", `"2025-12-31"`, false},
		{"format français", `"31/12/2025"`, false},
		{"null", `null`, false},
		{"vide", `""`, false},
		{"invalide", `"invalid"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft FlexibleTime
			err := json.Unmarshal([]byte(tt.input), &ft)
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalJSON() erreur = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFlexibleTime_MarshalJSON(t *testing.T) {
	var empty FlexibleTime
	data, err := json.Marshal(empty)
	if err != nil {
		t.Fatalf("MarshalJSON() erreur = %v", err)
	}
	if string(data) != "null" {
		t.Errorf("MarshalJSON() = %s, attendu null", data)
	}

	ft := FlexibleTime{Time: time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC)}
	data, err = json.Marshal(ft)
	if err != nil {
		t.Fatalf("MarshalJSON() erreur = %v", err)
	}
	if string(data) != `"2025-12-31T20:00:00Z"` {
		t.Errorf("MarshalJSON() = %s", data)
	}
}

func TestFlexibleTime_OrNow(t *testing.T) {
	var nilTime *FlexibleTime
	if nilTime.OrNow().IsZero() {
		t.Error("OrNow() sur nil doit retourner maintenant")
	}
	fixed := &FlexibleTime{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	if !fixed.OrNow().Equal(fixed.Time) {
		t.Errorf("OrNow() = %v, attendu %v", fixed.OrNow(), fixed.Time)
	}
}
