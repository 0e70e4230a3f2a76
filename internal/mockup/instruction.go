package mockup

import (
	"fmt"
	"strings"

	"mockupstudio/internal/domain"
)

const (
	photoKeywords = "Professional Product Photography, DSLR quality, natural studio lighting, soft shadows, 8k resolution, realistic depth of field, commercial advertisement style."
	renderKeywords = "Ultra-high quality 3D Digital Mockup, PBR Materials (Physically Based Rendering), Ray-traced reflections, Octane Render style, Unreal Engine 5 cinematic lighting, 8k resolution, clean digital surfaces, perfect geometry."
)

var materialDescriptions = map[string]string{
	"matte":    "Acabamento fosco (matte) premium, sem reflexos especulares, textura suave e aveludada.",
	"glossy":   "Acabamento brilhante (glossy) vibrante, com reflexos nítidos de luz de estúdio, superfície polida.",
	"metallic": "Acabamento metálico industrial, reflexos de metal escovado, brilho metálico característico.",
	"fabric":   "Textura têxtil realista, trama de fios visível sob zoom, fibras naturais perceptíveis.",
	"leather":  "Textura de couro autêntica, padrão de grão irregular, rugosidade tátil realista.",
	"paper":    "Textura de papel premium, celulose visível, toque poroso e orgânico.",
}

const defaultMaterialDescription = "Acabamento de material realista de alta qualidade."

// MaterialDescription returns the texture description for a material tag.
func MaterialDescription(material string) string {
	if desc, ok := materialDescriptions[strings.ToLower(strings.TrimSpace(material))]; ok {
		return desc
	}
	return defaultMaterialDescription
}

// usesScene reports whether the request integrates the design into a
// user-supplied scene. A custom background without a scene renders as studio.
func usesScene(req domain.GenerationRequest) bool {
	return req.BackgroundType == domain.BackgroundCustom && !req.Scene.Empty()
}

func backgroundInstruction(req domain.GenerationRequest) string {
	switch {
	case usesScene(req):
		return "INTEGRATION: Place the product naturally into the provided custom scene. Match the lighting, shadows, and perspective of the scene."
	case req.BackgroundType == domain.BackgroundSolid:
		return fmt.Sprintf("BACKGROUND: A pure, clean, solid flat background with the hex color matching the product's base color (%s). No shadows on the background, minimal modern look.", req.Color)
	case req.BackgroundType == domain.BackgroundLifestyle:
		return fmt.Sprintf("BACKGROUND: A realistic and relevant lifestyle environment for a %s. Use depth of field to keep the focus on the product. The environment should be modern and professional.", req.Category)
	default:
		return "BACKGROUND: A clean, professional isolated studio background with soft infinite floor and professional lighting."
	}
}

// BuildInstruction renders the text part of a generation request.
func BuildInstruction(req domain.GenerationRequest) string {
	kind, keywords := "Photo Mockup", photoKeywords
	if req.RenderMode == domain.Render3D {
		kind, keywords = "3D Render", renderKeywords
	}

	lines := []string{
		fmt.Sprintf("TASK: Create a %s of a %s.", kind, req.Category),
		"- RENDER MODE: " + keywords,
		fmt.Sprintf("- DESIGN ATTACHMENT: Apply the provided graphic onto the %s.", req.Category),
		fmt.Sprintf("- BASE COLOR: %s.", req.Color),
		"- MATERIAL TEXTURE: " + MaterialDescription(req.Material),
		fmt.Sprintf("- POSITIONING: %s.", req.Placement),
	}
	if size := strings.TrimSpace(req.Size); size != "" {
		lines = append(lines, fmt.Sprintf("- SIZE: %s.", size))
	}
	lines = append(lines,
		fmt.Sprintf("- VISUAL STYLE: %s.", req.Style),
		"- "+backgroundInstruction(req),
	)
	if note := strings.TrimSpace(req.VariationNote); note != "" {
		lines = append(lines, "NOTE: "+note)
	}
	lines = append(lines, fmt.Sprintf("The design must follow the curves, folds, and perspective of the %s perfectly.", req.Category))
	return strings.Join(lines, "\n")
}

// CleanInstruction is the background-removal prompt.
const CleanInstruction = `TASK: Background Removal and Asset Extraction.
GOAL: Extract the logo/graphic from the image and provide it on a pure transparent background.
- Remove all shadows, backgrounds, and extra elements.
- Rectify perspective: Output the design perfectly flat and centered.
- Enhance edges: Crisp, sharp alpha channel extraction.
- OUTPUT: PNG with transparency containing ONLY the clean design asset.`
