// Package catalog holds the product, style, color, material and background
// options offered to users, together with the per-product placement and size
// choices.
package catalog

import "strings"

// ProductType groups categories that share placement and size options.
type ProductType string

const (
	TypeApparel     ProductType = "apparel"
	TypeHeadwear    ProductType = "headwear"
	TypeDrinkware   ProductType = "drinkware"
	TypeStationery  ProductType = "stationery"
	TypeDigital     ProductType = "digital"
	TypeBags        ProductType = "bags"
	TypeSignage     ProductType = "signage"
	TypePackaging   ProductType = "packaging"
	TypeVehicle     ProductType = "vehicle"
	TypeMerch       ProductType = "merch"
	TypeBooks       ProductType = "books"
	TypeFurniture   ProductType = "furniture"
	TypeSocialMedia ProductType = "social_media"
	TypeBrandingKit ProductType = "branding_kit"
	TypeCorporate   ProductType = "corporate"
)

// Product is one selectable mockup category.
type Product struct {
	Category string      `json:"category"`
	Type     ProductType `json:"type"`
}

// Option is a selectable identifier with a display label and description.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Generic values used when one batch targets several products.
const (
	GenericPlacement = "Posicionamento frontal otimizado"
	GenericSize      = "Tamanho padrão"
)

var products = []Product{
	{"Manual de Identidade Visual", TypeBrandingKit},
	{"Apresentação de Logo (Grid)", TypeBrandingKit},
	{"Papelaria Corporativa Completa", TypeBrandingKit},
	{"Cartão de Visita Premium", TypeStationery},
	{"Pasta para Documentos de Agência", TypeCorporate},
	{"Crachá e Cordão Executivo", TypeCorporate},
	{"Papel Timbrado A4", TypeStationery},
	{"Kit Boas-Vindas Empresa", TypeBrandingKit},

	{"Post Instagram (Feed 1:1)", TypeSocialMedia},
	{"Carrossel de Conteúdo", TypeSocialMedia},
	{"Story Instagram", TypeSocialMedia},
	{"Capa de LinkedIn Corporativa", TypeSocialMedia},
	{"Banner de Canal YouTube", TypeSocialMedia},
	{"Template para Reels/TikTok", TypeSocialMedia},
	{"Anúncio Facebook Ads", TypeSocialMedia},
	{"Capa de Podcast", TypeSocialMedia},

	{"Camiseta Polo", TypeApparel},
	{"Camiseta Manga Longa", TypeApparel},
	{"Regata", TypeApparel},
	{"Camiseta Básica (T-Shirt)", TypeApparel},
	{"Moletom Hoodie", TypeApparel},
	{"Uniforme Social Executivo", TypeApparel},
	{"Avental de Marca", TypeApparel},

	{"Boné Clássico", TypeHeadwear},
	{"Boné Trucker", TypeHeadwear},
	{"Caneta Metálica", TypeMerch},
	{"Chaveiro", TypeMerch},
	{"Mochila para Notebook", TypeBags},
	{"Ecobag de Algodão", TypeBags},

	{"Caneca de Cerâmica", TypeDrinkware},
	{"Garrafa Térmica (Tumbler)", TypeDrinkware},
	{"Copo de Café Descartável", TypeDrinkware},

	{"Fachada de Loja/Agência", TypeSignage},
	{"Banner Roll-up", TypeSignage},
	{"Outdoor Digital", TypeSignage},
	{"Totem de Recepção", TypeSignage},
	{"Adesivo de Veículo Corporativo", TypeVehicle},

	{"Sacola de Papel Luxo", TypePackaging},
	{"Caixa de Envio E-commerce", TypePackaging},
}

var productIndex = func() map[string]Product {
	idx := make(map[string]Product, len(products))
	for _, p := range products {
		idx[p.Category] = p
	}
	return idx
}()

var styles = []string{
	"Fotorrealista (Alta Definição)",
	"Estúdio Minimalista Clean",
	"Escritório de Agência Moderno",
	"Estilo Lifestyle Urbano",
	"Cena Corporativa Executiva",
	"Social Media Vibe (Dinâmico)",
	"Luxo / Premium",
	"Renderização 3D Futurista",
	"Mão Segurando o Produto",
}

var colors = []string{
	"Branco Puro",
	"Preto Piano",
	"Cinza Espacial",
	"Azul Real",
	"Vermelho Vibrante",
	"Verde Tiffany",
	"Dourado Premium",
	"Prata Metálico",
	"Rosa Millennial",
	"Roxo Agency",
	"Bege Minimalista",
}

var sizesByType = map[ProductType][]string{
	TypeApparel:     {"P", "M", "G", "GG"},
	TypeHeadwear:    {"Único"},
	TypeDrinkware:   {"Padrão", "Grande"},
	TypeStationery:  {"A4", "A5", "Padrão"},
	TypeBooks:       {"Capa Dura", "Digital"},
	TypeDigital:     {"Mobile", "Desktop"},
	TypeBags:        {"Média", "Grande"},
	TypeSignage:     {"Padrão", "Grande Formato"},
	TypePackaging:   {"Padrão"},
	TypeFurniture:   {"Executivo"},
	TypeMerch:       {"Padrão"},
	TypeSocialMedia: {"1:1", "9:16", "16:9"},
	TypeBrandingKit: {"Completo"},
	TypeCorporate:   {"Padrão"},
}

var placementsByType = map[ProductType][]string{
	TypeApparel:     {"Frente", "Costas", "Peito Esquerdo", "Manga"},
	TypeHeadwear:    {"Frente", "Lateral"},
	TypeDrinkware:   {"Frente", "Envolvente"},
	TypeStationery:  {"Centralizado"},
	TypeBooks:       {"Capa"},
	TypeDigital:     {"Tela"},
	TypeBags:        {"Frente"},
	TypeSignage:     {"Centralizado"},
	TypePackaging:   {"Topo", "Frente"},
	TypeFurniture:   {"Encosto"},
	TypeMerch:       {"Centralizado"},
	TypeSocialMedia: {"Fundo Total", "Centralizado Overlay"},
	TypeBrandingKit: {"Visão Geral"},
	TypeCorporate:   {"Centralizado"},
}

var backgrounds = []Option{
	{ID: "studio", Label: "Estúdio Isolado", Description: "Fundo limpo e profissional"},
	{ID: "lifestyle", Label: "Lifestyle / Realista", Description: "Ambiente de uso real"},
	{ID: "solid", Label: "Cor Sólida", Description: "Fundo na cor base do produto"},
	{ID: "custom", Label: "Cena Personalizada", Description: "Insira sua imagem real (Mockup segurando/pegando)"},
}

var materials = []Option{
	{ID: "matte", Label: "Fosco (Matte)", Description: "Superfície sem brilho, toque suave"},
	{ID: "glossy", Label: "Brilhante", Description: "Reflexos nítidos e acabamento polido"},
	{ID: "metallic", Label: "Metálico", Description: "Brilho industrial e reflexos metálicos"},
	{ID: "fabric", Label: "Tecido / Fibra", Description: "Trama de fios e textura têxtil visível"},
	{ID: "leather", Label: "Couro / Couro Sintético", Description: "Padrão de grão e rugosidade natural"},
	{ID: "paper", Label: "Papel Premium", Description: "Textura de celulose ou offset"},
}

// Products returns every selectable product in display order.
func Products() []Product {
	return append([]Product(nil), products...)
}

// Categories returns the product category names in display order.
func Categories() []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Category
	}
	return out
}

// Lookup returns the product for an exact category name.
func Lookup(category string) (Product, bool) {
	p, ok := productIndex[category]
	return p, ok
}

// Styles returns the visual style options.
func Styles() []string { return append([]string(nil), styles...) }

// Colors returns the base color options.
func Colors() []string { return append([]string(nil), colors...) }

// Backgrounds returns the background type options.
func Backgrounds() []Option { return append([]Option(nil), backgrounds...) }

// Materials returns the material finish options.
func Materials() []Option { return append([]Option(nil), materials...) }

// SizesFor returns the size choices for a category. Unknown categories use
// the apparel sizes.
func SizesFor(category string) []string {
	return append([]string(nil), optionsFor(sizesByType, category)...)
}

// PlacementsFor returns the placement choices for a category. Unknown
// categories use the apparel placements.
func PlacementsFor(category string) []string {
	return append([]string(nil), optionsFor(placementsByType, category)...)
}

func optionsFor(byType map[ProductType][]string, category string) []string {
	if p, ok := productIndex[category]; ok {
		if opts, ok := byType[p.Type]; ok {
			return opts
		}
	}
	return byType[TypeApparel]
}

// ResolvePlacement keeps placement when it is valid for the category and
// otherwise returns the category's first placement.
func ResolvePlacement(category, placement string) string {
	return resolve(PlacementsFor(category), placement)
}

// ResolveSize keeps size when it is valid for the category and otherwise
// returns the category's first size.
func ResolveSize(category, size string) string {
	return resolve(SizesFor(category), size)
}

func resolve(options []string, value string) string {
	value = strings.TrimSpace(value)
	for _, opt := range options {
		if opt == value {
			return value
		}
	}
	if len(options) == 0 {
		return value
	}
	return options[0]
}

// IsBackground reports whether id is a known background type.
func IsBackground(id string) bool {
	return hasOption(backgrounds, id)
}

// IsMaterial reports whether id is a known material.
func IsMaterial(id string) bool {
	return hasOption(materials, id)
}

func hasOption(opts []Option, id string) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}

// MatchCategory finds a catalog category by case-insensitive name.
func MatchCategory(name string) (string, bool) {
	return matchFold(Categories(), name)
}

// MatchStyle finds a style option by case-insensitive name.
func MatchStyle(name string) (string, bool) {
	return matchFold(styles, name)
}

// MatchColor finds a color option by case-insensitive name.
func MatchColor(name string) (string, bool) {
	return matchFold(colors, name)
}

func matchFold(options []string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, opt := range options {
		if strings.EqualFold(opt, name) {
			return opt, true
		}
	}
	return "", false
}
