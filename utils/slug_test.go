package utils

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pelles sur chenilles", "pelles-sur-chenilles"},
		{"Matériel de levage", "materiel-de-levage"},
		{"  Grues / Nacelles  ", "grues-nacelles"},
		{"Chariots élévateurs (4x4)", "chariots-elevateurs-4x4"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, attendu %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeSlug(t *testing.T) {
	if got := NormalizeSlug("  Mini-Pelles ", "ignoré"); got != "mini-pelles" {
		t.Errorf("NormalizeSlug() = %q", got)
	}
	if got := NormalizeSlug("", "Tombereaux articulés"); got != "tombereaux-articules" {
		t.Errorf("NormalizeSlug() = %q", got)
	}
}
