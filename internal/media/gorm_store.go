package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velvetrowhq/velvetrow-backend/pkg/db/models"
	"github.com/velvetrowhq/velvetrow-backend/pkg/enums"
)

// GormStore persists metadata in the relational database. Tag filtering
// happens in memory after the SQL filters because tags live in a JSON
// column shared across postgres and the sqlite test driver.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore binds the store to a GORM connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

// Migrate creates the media tables. Production deployments run the SQL
// migrations instead; this keeps the sqlite test suite self-contained.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.Media{},
		&models.MediaVariant{},
		&models.ProductMedia{},
		&models.CollectionMedia{},
	)
}

func toMediaModel(m *Media) *models.Media {
	return &models.Media{
		ID:                  m.ID,
		CloudinaryPublicID:  m.CloudinaryPublicID,
		CloudinarySecureURL: m.CloudinarySecureURL,
		TransformationURL:   m.TransformationURL,
		Alt:                 m.Alt,
		Title:               m.Title,
		Description:         m.Description,
		Tags:                m.Tags,
		IsActive:            m.IsActive,
		IsPrimary:           m.IsPrimary,
		OriginalName:        m.OriginalName,
		FileName:            m.FileName,
		MimeType:            m.MimeType,
		FileSize:            m.FileSize,
		Width:               m.Width,
		Height:              m.Height,
		Duration:            m.Duration,
		MediaType:           m.MediaType,
		Format:              m.Format,
		Context:             m.Context,
		UploadedBy:          m.UploadedBy,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func fromMediaModel(row models.Media) Media {
	return Media{
		ID:                  row.ID,
		CloudinaryPublicID:  row.CloudinaryPublicID,
		CloudinarySecureURL: row.CloudinarySecureURL,
		TransformationURL:   row.TransformationURL,
		Alt:                 row.Alt,
		Title:               row.Title,
		Description:         row.Description,
		Tags:                row.Tags,
		IsActive:            row.IsActive,
		IsPrimary:           row.IsPrimary,
		OriginalName:        row.OriginalName,
		FileName:            row.FileName,
		MimeType:            row.MimeType,
		FileSize:            row.FileSize,
		Width:               row.Width,
		Height:              row.Height,
		Duration:            row.Duration,
		MediaType:           row.MediaType,
		Format:              row.Format,
		Context:             row.Context,
		UploadedBy:          row.UploadedBy,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func (s *GormStore) Create(ctx context.Context, m *Media) error {
	if err := s.db.WithContext(ctx).Create(toMediaModel(m)).Error; err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

func (s *GormStore) GetByID(ctx context.Context, id uuid.UUID) (*Media, error) {
	var row models.Media
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("find media: %w", err)
	}
	record := fromMediaModel(row)
	return &record, nil
}

func (s *GormStore) Update(ctx context.Context, m *Media) error {
	result := s.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("id = ?", m.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(toMediaModel(m))
	if result.Error != nil {
		return fmt.Errorf("update media: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound()
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Media{})
	if result.Error != nil {
		return fmt.Errorf("delete media: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound()
	}
	return nil
}

func (s *GormStore) AttachToProduct(ctx context.Context, productID string, mediaID uuid.UUID) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ProductMedia{}).
		Where("product_id = ? AND media_id = ?", productID, mediaID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check product association: %w", err)
	}
	if count > 0 {
		return nil
	}
	link := models.ProductMedia{ID: uuid.New(), ProductID: productID, MediaID: mediaID}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return fmt.Errorf("attach media to product: %w", err)
	}
	return nil
}

func (s *GormStore) AttachToCollection(ctx context.Context, collectionID string, mediaID uuid.UUID) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.CollectionMedia{}).
		Where("collection_id = ? AND media_id = ?", collectionID, mediaID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check collection association: %w", err)
	}
	if count > 0 {
		return nil
	}

	var maxOrder int
	err = s.db.WithContext(ctx).
		Model(&models.CollectionMedia{}).
		Where("collection_id = ?", collectionID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&maxOrder).Error
	if err != nil {
		return fmt.Errorf("resolve display order: %w", err)
	}

	link := models.CollectionMedia{
		ID:           uuid.New(),
		CollectionID: collectionID,
		MediaID:      mediaID,
		DisplayOrder: maxOrder + 1,
	}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return fmt.Errorf("attach media to collection: %w", err)
	}
	return nil
}

func (s *GormStore) RemoveAssociations(ctx context.Context, mediaID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Where("media_id = ?", mediaID).Delete(&models.ProductMedia{}).Error; err != nil {
		return fmt.Errorf("remove product associations: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("media_id = ?", mediaID).Delete(&models.CollectionMedia{}).Error; err != nil {
		return fmt.Errorf("remove collection associations: %w", err)
	}
	return nil
}

func (s *GormStore) ProductIDsFor(ctx context.Context, mediaID uuid.UUID) ([]string, error) {
	var productIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.ProductMedia{}).
		Where("media_id = ?", mediaID).
		Pluck("product_id", &productIDs).Error
	if err != nil {
		return nil, fmt.Errorf("list product associations: %w", err)
	}
	return productIDs, nil
}

func (s *GormStore) ClearPrimary(ctx context.Context, productID string, exceptID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("is_primary = ? AND id <> ?", true, exceptID).
		Where("id IN (?)", s.db.Model(&models.ProductMedia{}).
			Select("media_id").
			Where("product_id = ?", productID)).
		Updates(map[string]any{"is_primary": false, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("clear primary flags: %w", err)
	}
	return nil
}

func (s *GormStore) ListByProduct(ctx context.Context, productID string) ([]Media, error) {
	var rows []models.Media
	err := s.db.WithContext(ctx).
		Joins("JOIN product_media ON product_media.media_id = media.id").
		Where("product_media.product_id = ? AND media.is_active = ?", productID, true).
		Order("media.is_primary DESC, media.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list product media: %w", err)
	}
	return fromMediaModels(rows), nil
}

func (s *GormStore) GetPrimary(ctx context.Context, productID string) (*Media, error) {
	var row models.Media
	err := s.db.WithContext(ctx).
		Joins("JOIN product_media ON product_media.media_id = media.id").
		Where("product_media.product_id = ? AND media.is_active = ? AND media.is_primary = ?", productID, true, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("find primary media: %w", err)
	}
	record := fromMediaModel(row)
	return &record, nil
}

func (s *GormStore) ListByContext(ctx context.Context, mediaContext enums.MediaContext, limit, offset int) ([]Media, error) {
	query := s.db.WithContext(ctx).
		Where("context = ? AND is_active = ?", mediaContext, true).
		Order("created_at DESC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Media
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list media by context: %w", err)
	}
	return fromMediaModels(rows), nil
}

func (s *GormStore) Search(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]Media, error) {
	q := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC")
	if filters.Context != nil {
		q = q.Where("context = ?", *filters.Context)
	}
	if filters.MediaType != nil {
		q = q.Where("media_type = ?", *filters.MediaType)
	}
	if query != "" {
		needle := "%" + strings.ToLower(query) + "%"
		q = q.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(alt) LIKE ? OR LOWER(file_name) LIKE ? OR LOWER(original_name) LIKE ?",
			needle, needle, needle, needle, needle,
		)
	}

	var rows []models.Media
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("search media: %w", err)
	}

	// The tag filter and pagination run in memory so results paginate the
	// same way regardless of which filters are set.
	results := make([]Media, 0, len(rows))
	for _, row := range rows {
		record := fromMediaModel(row)
		if len(filters.Tags) > 0 && !hasAllTags(&record, filters.Tags) {
			continue
		}
		results = append(results, record)
	}
	return paginate(results, limit, offset), nil
}

func fromMediaModels(rows []models.Media) []Media {
	out := make([]Media, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromMediaModel(row))
	}
	return out
}

func (s *GormStore) SaveVariant(ctx context.Context, v Variant) error {
	var existing models.MediaVariant
	err := s.db.WithContext(ctx).
		Where("media_id = ? AND name = ?", v.MediaID, v.Name).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := models.MediaVariant{
			ID:                   uuid.New(),
			MediaID:              v.MediaID,
			Name:                 v.Name,
			TransformationString: v.TransformationString,
			URL:                  v.URL,
			Width:                v.Width,
			Height:               v.Height,
			Format:               v.Format,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("find variant: %w", err)
	default:
		existing.TransformationString = v.TransformationString
		existing.URL = v.URL
		existing.Width = v.Width
		existing.Height = v.Height
		existing.Format = v.Format
		if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return fmt.Errorf("update variant: %w", err)
		}
		return nil
	}
}

func (s *GormStore) GetVariants(ctx context.Context, mediaID uuid.UUID) ([]Variant, error) {
	var rows []models.MediaVariant
	err := s.db.WithContext(ctx).
		Where("media_id = ?", mediaID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	out := make([]Variant, 0, len(rows))
	for _, row := range rows {
		out = append(out, Variant{
			MediaID:              row.MediaID,
			Name:                 row.Name,
			TransformationString: row.TransformationString,
			URL:                  row.URL,
			Width:                row.Width,
			Height:               row.Height,
			Format:               row.Format,
		})
	}
	return out, nil
}

func (s *GormStore) DeleteVariants(ctx context.Context, mediaID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Where("media_id = ?", mediaID).Delete(&models.MediaVariant{}).Error; err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}
	return nil
}
