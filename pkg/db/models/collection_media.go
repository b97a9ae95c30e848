package models

import (
	"time"

	"github.com/google/uuid"
)

// CollectionMedia stores ordered media entries for merchandising collections.
type CollectionMedia struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID string    `gorm:"column:collection_id;not null;uniqueIndex:idx_collection_media_pair"`
	MediaID      uuid.UUID `gorm:"column:media_id;type:uuid;not null;uniqueIndex:idx_collection_media_pair"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CollectionMedia) TableName() string { return "collection_media" }
