package media

import (
	"time"

	"github.com/google/uuid"

	"github.com/velvetrowhq/velvetrow-backend/pkg/cloudinary"
	"github.com/velvetrowhq/velvetrow-backend/pkg/enums"
)

// Media is the metadata record for one uploaded image or video. The remote
// reference fields (public id, secure URL) and the cached transformation URL
// are set once at upload time and never recomputed on metadata edits.
type Media struct {
	ID uuid.UUID `json:"id"`

	CloudinaryPublicID  string `json:"cloudinary_public_id"`
	CloudinarySecureURL string `json:"cloudinary_secure_url"`
	TransformationURL   string `json:"transformation_url"`

	Alt         string   `json:"alt"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IsActive    bool     `json:"is_active"`
	IsPrimary   bool     `json:"is_primary"`

	OriginalName string             `json:"original_name"`
	FileName     string             `json:"file_name"`
	MimeType     string             `json:"mime_type"`
	FileSize     int64              `json:"file_size"`
	Width        int                `json:"width,omitempty"`
	Height       int                `json:"height,omitempty"`
	Duration     float64            `json:"duration,omitempty"`
	MediaType    enums.MediaType    `json:"media_type"`
	Format       string             `json:"format"`
	Context      enums.MediaContext `json:"context"`
	UploadedBy   string             `json:"uploaded_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Variant is a precomputed named transformation cached per asset.
type Variant struct {
	MediaID              uuid.UUID `json:"media_id"`
	Name                 string    `json:"name"`
	TransformationString string    `json:"transformation_string"`
	URL                  string    `json:"url"`
	Width                int       `json:"width"`
	Height               int       `json:"height"`
	Format               string    `json:"format"`
}

// UploadOptions configures one ingest call.
type UploadOptions struct {
	Context      enums.MediaContext
	ProductID    string
	CollectionID string
	// Folder overrides the default {root}/{context} remote destination.
	Folder      string
	Tags        []string
	IsPrimary   bool
	Alt         string
	Title       string
	Description string
	// Transformations replaces the default upload preset when non-empty.
	Transformations []cloudinary.Transformation
}

// UpdateInput is a merge-patch over the mutable descriptive fields. Nil
// pointers leave the stored value untouched.
type UpdateInput struct {
	Alt         *string
	Title       *string
	Description *string
	Tags        *[]string
	IsPrimary   *bool
	IsActive    *bool
}

// SearchFilters narrow a text search; all present filters are ANDed.
type SearchFilters struct {
	Context   *enums.MediaContext `json:"context,omitempty"`
	MediaType *enums.MediaType    `json:"media_type,omitempty"`
	Tags      []string            `json:"tags,omitempty"`
}

// clone returns a copy safe to hand to callers; tag slices are never shared.
func (m *Media) clone() *Media {
	out := *m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	return &out
}

// hasTag reports a case-sensitive tag membership check.
func (m *Media) hasTag(tag string) bool {
	for _, candidate := range m.Tags {
		if candidate == tag {
			return true
		}
	}
	return false
}
