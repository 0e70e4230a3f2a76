package catalog

import "testing"

func TestOptionsForCategory(t *testing.T) {
	tests := []struct {
		name           string
		category       string
		wantPlacements []string
		wantSizes      []string
	}{
		{
			name:           "drinkware",
			category:       "Caneca de Cerâmica",
			wantPlacements: []string{"Frente", "Envolvente"},
			wantSizes:      []string{"Padrão", "Grande"},
		},
		{
			name:           "social media",
			category:       "Story Instagram",
			wantPlacements: []string{"Fundo Total", "Centralizado Overlay"},
			wantSizes:      []string{"1:1", "9:16", "16:9"},
		},
		{
			name:           "unknown falls back to apparel",
			category:       "Prancha de Surf",
			wantPlacements: []string{"Frente", "Costas", "Peito Esquerdo", "Manga"},
			wantSizes:      []string{"P", "M", "G", "GG"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PlacementsFor(tc.category); !equal(got, tc.wantPlacements) {
				t.Fatalf("PlacementsFor(%q) = %v, want %v", tc.category, got, tc.wantPlacements)
			}
			if got := SizesFor(tc.category); !equal(got, tc.wantSizes) {
				t.Fatalf("SizesFor(%q) = %v, want %v", tc.category, got, tc.wantSizes)
			}
		})
	}
}

func TestResolvePlacementAndSize(t *testing.T) {
	if got := ResolvePlacement("Caneca de Cerâmica", "Envolvente"); got != "Envolvente" {
		t.Fatalf("valid placement replaced: %q", got)
	}
	if got := ResolvePlacement("Caneca de Cerâmica", "Manga"); got != "Frente" {
		t.Fatalf("invalid placement not replaced: %q", got)
	}
	if got := ResolveSize("Boné Trucker", ""); got != "Único" {
		t.Fatalf("empty size not resolved: %q", got)
	}
}

func TestMatchCategoryIgnoresCase(t *testing.T) {
	got, ok := MatchCategory("  caneca de cerâmica ")
	if !ok || got != "Caneca de Cerâmica" {
		t.Fatalf("MatchCategory = %q, %v", got, ok)
	}
	if _, ok := MatchCategory("Nave Espacial"); ok {
		t.Fatalf("unexpected match for unknown category")
	}
}

func TestListsAreCopies(t *testing.T) {
	cats := Categories()
	cats[0] = "changed"
	if Categories()[0] == "changed" {
		t.Fatalf("Categories exposes internal slice")
	}
	if !IsMaterial("leather") || IsMaterial("wood") {
		t.Fatalf("IsMaterial mismatch")
	}
	if !IsBackground("custom") || IsBackground("space") {
		t.Fatalf("IsBackground mismatch")
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
