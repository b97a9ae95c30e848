package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaVariant stores a named transformation rendition of a media record.
type MediaVariant struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	MediaID              uuid.UUID `gorm:"column:media_id;type:uuid;not null;uniqueIndex:idx_media_variant_name"`
	Name                 string    `gorm:"column:name;not null;uniqueIndex:idx_media_variant_name"`
	TransformationString string    `gorm:"column:transformation_string;not null"`
	URL                  string    `gorm:"column:url;not null"`
	Width                int       `gorm:"column:width"`
	Height               int       `gorm:"column:height"`
	Format               string    `gorm:"column:format"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (MediaVariant) TableName() string { return "media_variants" }
