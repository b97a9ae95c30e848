package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductMedia links media records to catalog products.
type ProductMedia struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID string    `gorm:"column:product_id;not null;uniqueIndex:idx_product_media_pair"`
	MediaID   uuid.UUID `gorm:"column:media_id;type:uuid;not null;uniqueIndex:idx_product_media_pair"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProductMedia) TableName() string { return "product_media" }
