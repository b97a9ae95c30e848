package cloudinary

import (
	"fmt"
	"strings"
)

// Transformation models a single Cloudinary delivery transformation. Zero
// fields are omitted from the encoded string.
type Transformation struct {
	Width       int
	Height      int
	Crop        string
	Gravity     string
	Quality     string
	FetchFormat string
	DPR         string
	VideoCodec  string
	StartOffset string
}

// Encode serializes the transformation into Cloudinary's URL parameter form,
// e.g. "c_fill,g_auto,h_150,q_auto:good,w_150". Field order is fixed so the
// output is deterministic for identical inputs.
func (t Transformation) Encode() string {
	parts := make([]string, 0, 8)
	if t.Crop != "" {
		parts = append(parts, "c_"+t.Crop)
	}
	if t.DPR != "" {
		parts = append(parts, "dpr_"+t.DPR)
	}
	if t.FetchFormat != "" {
		parts = append(parts, "f_"+t.FetchFormat)
	}
	if t.Gravity != "" {
		parts = append(parts, "g_"+t.Gravity)
	}
	if t.Height > 0 {
		parts = append(parts, fmt.Sprintf("h_%d", t.Height))
	}
	if t.Quality != "" {
		parts = append(parts, "q_"+t.Quality)
	}
	if t.StartOffset != "" {
		parts = append(parts, "so_"+t.StartOffset)
	}
	if t.VideoCodec != "" {
		parts = append(parts, "vc_"+t.VideoCodec)
	}
	if t.Width > 0 {
		parts = append(parts, fmt.Sprintf("w_%d", t.Width))
	}
	return strings.Join(parts, ",")
}

// EncodeChain serializes a transformation list into slash-separated URL
// components, skipping empty entries.
func EncodeChain(transforms []Transformation) string {
	encoded := make([]string, 0, len(transforms))
	for _, t := range transforms {
		if s := t.Encode(); s != "" {
			encoded = append(encoded, s)
		}
	}
	return strings.Join(encoded, "/")
}

// DefaultImageTransformations is the preset applied to image uploads when the
// caller supplies no explicit transformation list.
func DefaultImageTransformations() []Transformation {
	return []Transformation{{Quality: "auto:good", FetchFormat: "auto", DPR: "auto"}}
}

// DefaultVideoTransformations re-encodes uploaded video as h264/mp4.
func DefaultVideoTransformations() []Transformation {
	return []Transformation{{Quality: "auto:good", VideoCodec: "h264", FetchFormat: "mp4"}}
}

// TransformationURL builds a delivery URL for the public id. Pure URL
// construction; no network call is made and the result is deterministic.
func (c *Client) TransformationURL(publicID string, transforms []Transformation, resourceType ResourceType) string {
	rt := resourceType
	if rt == "" {
		rt = ResourceTypeImage
	}
	base := fmt.Sprintf("%s/%s/%s/upload", c.deliveryBaseURL, c.cloudName, rt)
	if chain := EncodeChain(transforms); chain != "" {
		return fmt.Sprintf("%s/%s/%s", base, chain, publicID)
	}
	return fmt.Sprintf("%s/%s", base, publicID)
}

// ResponsiveImageURL returns the optimized-delivery URL cached on every image
// record at upload time.
func (c *Client) ResponsiveImageURL(publicID string) string {
	return c.TransformationURL(publicID, DefaultImageTransformations(), ResourceTypeImage)
}

// VideoDeliveryURL returns the h264/mp4 delivery URL cached on every video
// record at upload time.
func (c *Client) VideoDeliveryURL(publicID string) string {
	return c.TransformationURL(publicID, DefaultVideoTransformations(), ResourceTypeVideo)
}

// VideoThumbnailURL captures a jpg frame from the start of the video.
func (c *Client) VideoThumbnailURL(publicID string, width, height int) string {
	return c.TransformationURL(publicID, []Transformation{{
		Width:       width,
		Height:      height,
		Crop:        "fill",
		FetchFormat: "jpg",
		StartOffset: "0",
	}}, ResourceTypeVideo)
}
