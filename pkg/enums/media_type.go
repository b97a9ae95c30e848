package enums

import (
	"fmt"
	"strings"
)

// MediaType distinguishes stored binary kinds. It is derived once from the
// MIME prefix at upload time and never changed afterwards.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

var validMediaTypes = []MediaType{
	MediaTypeImage,
	MediaTypeVideo,
}

// IsValid reports whether the value matches the canonical media type enum.
func (m MediaType) IsValid() bool {
	for _, candidate := range validMediaTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

func (m MediaType) String() string {
	return string(m)
}

// ParseMediaType converts the raw string to MediaType.
func ParseMediaType(value string) (MediaType, error) {
	for _, candidate := range validMediaTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media type %q", value)
}

// MediaTypeFromMime derives the media type from a MIME string: video/* maps
// to video, everything else to image.
func MediaTypeFromMime(mimeType string) MediaType {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "video/") {
		return MediaTypeVideo
	}
	return MediaTypeImage
}
