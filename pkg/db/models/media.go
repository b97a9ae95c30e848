package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velvetrowhq/velvetrow-backend/pkg/enums"
)

// Media captures Cloudinary-backed asset metadata for the platform.
type Media struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CloudinaryPublicID  string             `gorm:"column:cloudinary_public_id;not null;unique"`
	CloudinarySecureURL string             `gorm:"column:cloudinary_secure_url;not null"`
	TransformationURL   string             `gorm:"column:transformation_url"`
	Alt                 string             `gorm:"column:alt"`
	Title               string             `gorm:"column:title"`
	Description         string             `gorm:"column:description"`
	Tags                []string           `gorm:"column:tags;serializer:json"`
	IsActive            bool               `gorm:"column:is_active;not null;default:true"`
	IsPrimary           bool               `gorm:"column:is_primary;not null;default:false"`
	OriginalName        string             `gorm:"column:original_name;not null"`
	FileName            string             `gorm:"column:file_name;not null"`
	MimeType            string             `gorm:"column:mime_type;not null"`
	FileSize            int64              `gorm:"column:file_size;not null"`
	Width               int                `gorm:"column:width"`
	Height              int                `gorm:"column:height"`
	Duration            float64            `gorm:"column:duration"`
	MediaType           enums.MediaType    `gorm:"column:media_type;not null"`
	Format              string             `gorm:"column:format"`
	Context             enums.MediaContext `gorm:"column:context;not null;index"`
	UploadedBy          string             `gorm:"column:uploaded_by"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name; GORM would otherwise pluralize to "medias".
func (Media) TableName() string { return "media" }
