package handlers

import (
	"net/http"

	"mockupstudio/internal/catalog"
)

type productDTO struct {
	Category   string   `json:"category"`
	Type       string   `json:"type"`
	Placements []string `json:"placements"`
	Sizes      []string `json:"sizes"`
}

type catalogResponse struct {
	Products    []productDTO     `json:"products"`
	Styles      []string         `json:"styles"`
	Colors      []string         `json:"colors"`
	Materials   []catalog.Option `json:"materials"`
	Backgrounds []catalog.Option `json:"backgrounds"`
}

// Catalog lists every selectable option.
func (a *App) Catalog(w http.ResponseWriter, r *http.Request) {
	products := catalog.Products()
	out := catalogResponse{
		Products:    make([]productDTO, 0, len(products)),
		Styles:      catalog.Styles(),
		Colors:      catalog.Colors(),
		Materials:   catalog.Materials(),
		Backgrounds: catalog.Backgrounds(),
	}
	for _, p := range products {
		out.Products = append(out.Products, productDTO{
			Category:   p.Category,
			Type:       string(p.Type),
			Placements: catalog.PlacementsFor(p.Category),
			Sizes:      catalog.SizesFor(p.Category),
		})
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	a.json(w, http.StatusOK, out)
}
