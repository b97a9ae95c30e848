package media

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/velvetrowhq/velvetrow-backend/pkg/cloudinary"
	"github.com/velvetrowhq/velvetrow-backend/pkg/enums"
)

// variantPreset names one precomputed transformation.
type variantPreset struct {
	name      string
	width     int
	height    int
	crop      string
	format    string
	frameGrab bool
}

var imageVariantPresets = []variantPreset{
	{name: "thumbnail", width: 150, height: 150, crop: "fill", format: "auto"},
	{name: "card", width: 400, height: 300, crop: "fill", format: "auto"},
	{name: "hero", width: 1200, height: 600, crop: "fill", format: "auto"},
	{name: "gallery", width: 800, height: 800, crop: "fit", format: "auto"},
}

var videoVariantPresets = []variantPreset{
	{name: "thumbnail", width: 300, height: 200, crop: "fill", format: "jpg", frameGrab: true},
	{name: "preview", width: 600, height: 400, crop: "fill", format: "jpg", frameGrab: true},
}

func (p variantPreset) transformation() cloudinary.Transformation {
	t := cloudinary.Transformation{
		Width:   p.width,
		Height:  p.height,
		Crop:    p.crop,
		Quality: "auto:good",
	}
	if p.frameGrab {
		t.FetchFormat = p.format
		t.StartOffset = "0"
	} else {
		t.FetchFormat = p.format
	}
	return t
}

// buildVariants derives the fixed named variant set for the asset. Pure
// precomputation; URL construction never touches the network.
func buildVariants(urls assetURLBuilder, m *Media) []Variant {
	presets := imageVariantPresets
	resourceType := cloudinary.ResourceTypeImage
	if m.MediaType == enums.MediaTypeVideo {
		presets = videoVariantPresets
		resourceType = cloudinary.ResourceTypeVideo
	}

	variants := make([]Variant, 0, len(presets))
	for _, preset := range presets {
		transform := preset.transformation()
		variants = append(variants, Variant{
			MediaID:              m.ID,
			Name:                 preset.name,
			TransformationString: transform.Encode(),
			URL:                  urls.TransformationURL(m.CloudinaryPublicID, []cloudinary.Transformation{transform}, resourceType),
			Width:                preset.width,
			Height:               preset.height,
			Format:               preset.format,
		})
	}
	return variants
}

// generateVariants persists the variant set best-effort: per-variant
// failures are collected for logging but never block the upload response.
func (s *service) generateVariants(ctx context.Context, m *Media) error {
	var errs error
	for _, variant := range buildVariants(s.assets, m) {
		if err := s.store.SaveVariant(ctx, variant); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("variant %s: %w", variant.Name, err))
		}
	}
	return errs
}
