package media

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/velvetrowhq/velvetrow-backend/pkg/cloudinary"
	"github.com/velvetrowhq/velvetrow-backend/pkg/enums"
	pkgerrors "github.com/velvetrowhq/velvetrow-backend/pkg/errors"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
	"github.com/velvetrowhq/velvetrow-backend/pkg/metrics"
	"github.com/velvetrowhq/velvetrow-backend/pkg/pagination"
)

type assetURLBuilder interface {
	TransformationURL(publicID string, transforms []cloudinary.Transformation, resourceType cloudinary.ResourceType) string
}

type assetStore interface {
	assetURLBuilder
	UploadFile(ctx context.Context, data []byte, fileName string, opts cloudinary.UploadOptions) (*cloudinary.UploadResult, error)
	DeleteFile(ctx context.Context, publicID string, resourceType cloudinary.ResourceType) (string, error)
	ResponsiveImageURL(publicID string) string
	VideoDeliveryURL(publicID string) string
	RootFolder() string
}

type eventPublisher interface {
	PublishMediaEvent(ctx context.Context, event Event) error
}

// Event is the payload published after successful mutations. Publication is
// best-effort and never fails the request.
type Event struct {
	Type       string    `json:"type"`
	MediaID    string    `json:"media_id"`
	PublicID   string    `json:"public_id"`
	MediaType  string    `json:"media_type"`
	Context    string    `json:"context"`
	ProductID  string    `json:"product_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventMediaUploaded = "media.uploaded"
	EventMediaDeleted  = "media.deleted"
)

// Service orchestrates ingest, mutation, and lookup of media metadata.
type Service interface {
	Upload(ctx context.Context, data []byte, originalName, mimeType string, opts UploadOptions, uploadedBy string) (*Media, error)
	Update(ctx context.Context, id uuid.UUID, patch UpdateInput) (*Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Media, error)
	GetProductMedia(ctx context.Context, productID string) ([]Media, error)
	GetPrimaryProductMedia(ctx context.Context, productID string) (*Media, error)
	GetMediaByContext(ctx context.Context, mediaContext enums.MediaContext, limit, offset int) ([]Media, error)
	Search(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]Media, error)
	GetVariants(ctx context.Context, id uuid.UUID) ([]Variant, error)
}

type service struct {
	store     Store
	assets    assetStore
	publisher eventPublisher
	ingest    StoreIngestPolicy
	logg      *logger.Logger
	met       *metrics.MediaMetrics

	// productLocks serializes every mutation of one product's association
	// list so the single-primary invariant holds even under concurrency.
	productLocks sync.Map
}

// ServiceParams wires the service dependencies. Publisher and Metrics are
// optional.
type ServiceParams struct {
	Store     Store
	Assets    assetStore
	Publisher eventPublisher
	Logger    *logger.Logger
	Metrics   *metrics.MediaMetrics
}

// NewService constructs the media service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("media store required")
	}
	if params.Assets == nil {
		return nil, fmt.Errorf("asset store required")
	}
	return &service{
		store:     params.Store,
		assets:    params.Assets,
		publisher: params.Publisher,
		logg:      params.Logger,
		met:       params.Metrics,
	}, nil
}

func (s *service) lockProduct(productID string) func() {
	value, _ := s.productLocks.LoadOrStore(productID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *service) Upload(ctx context.Context, data []byte, originalName, mimeType string, opts UploadOptions, uploadedBy string) (*Media, error) {
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file payload is empty")
	}
	originalName = strings.TrimSpace(originalName)
	if originalName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "original file name is required")
	}
	if !opts.Context.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media context")
	}
	if !s.ingest.Allows(mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("mime type %q is not accepted; allowed: %s", mimeType, strings.Join(s.ingest.AllowedMimes(), ", ")))
	}

	mediaType := enums.MediaTypeFromMime(mimeType)
	resourceType := cloudinary.ResourceTypeImage
	if mediaType == enums.MediaTypeVideo {
		resourceType = cloudinary.ResourceTypeVideo
	}

	folder := opts.Folder
	if folder == "" {
		folder = fmt.Sprintf("%s/%s", s.assets.RootFolder(), opts.Context)
	}

	result, err := s.assets.UploadFile(ctx, data, originalName, cloudinary.UploadOptions{
		Folder:          folder,
		ResourceType:    resourceType,
		Tags:            opts.Tags,
		Context:         fmt.Sprintf("%s|product_id:%s", opts.Context, opts.ProductID),
		Transformations: opts.Transformations,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload asset")
	}

	transformationURL := s.assets.ResponsiveImageURL(result.PublicID)
	if mediaType == enums.MediaTypeVideo {
		transformationURL = s.assets.VideoDeliveryURL(result.PublicID)
	}

	now := time.Now().UTC()
	record := &Media{
		ID:                  uuid.New(),
		CloudinaryPublicID:  result.PublicID,
		CloudinarySecureURL: result.SecureURL,
		TransformationURL:   transformationURL,
		Alt:                 opts.Alt,
		Title:               opts.Title,
		Description:         opts.Description,
		Tags:                opts.Tags,
		IsActive:            true,
		IsPrimary:           opts.IsPrimary,
		OriginalName:        originalName,
		FileName:            remoteFileName(result.PublicID),
		MimeType:            mimeType,
		FileSize:            fileSize(result.Bytes, len(data)),
		Width:               result.Width,
		Height:              result.Height,
		Duration:            result.Duration,
		MediaType:           mediaType,
		Format:              result.Format,
		Context:             opts.Context,
		UploadedBy:          uploadedBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if opts.ProductID != "" {
		unlock := s.lockProduct(opts.ProductID)
		defer unlock()
	}

	if err := s.store.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media record")
	}

	if opts.ProductID != "" {
		if record.IsPrimary {
			if err := s.store.ClearPrimary(ctx, opts.ProductID, record.ID); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear previous primary")
			}
		}
		if err := s.store.AttachToProduct(ctx, opts.ProductID, record.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach media to product")
		}
	}
	if opts.CollectionID != "" {
		if err := s.store.AttachToCollection(ctx, opts.CollectionID, record.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach media to collection")
		}
	}

	if err := s.generateVariants(ctx, record); err != nil {
		for range multierr.Errors(err) {
			s.met.IncVariantFailure(record.MediaType.String())
		}
		if s.logg != nil {
			lctx := s.logg.WithMediaID(ctx, record.ID.String())
			s.logg.Warn(s.logg.WithField(lctx, "error", err.Error()), "variant generation incomplete")
		}
	}

	s.publish(ctx, Event{
		Type:       EventMediaUploaded,
		MediaID:    record.ID.String(),
		PublicID:   record.CloudinaryPublicID,
		MediaType:  record.MediaType.String(),
		Context:    record.Context.String(),
		ProductID:  opts.ProductID,
		OccurredAt: now,
	})

	return record, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch UpdateInput) (*Media, error) {
	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Alt != nil {
		record.Alt = *patch.Alt
	}
	if patch.Title != nil {
		record.Title = *patch.Title
	}
	if patch.Description != nil {
		record.Description = *patch.Description
	}
	if patch.Tags != nil {
		record.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.IsActive != nil {
		record.IsActive = *patch.IsActive
	}

	promoting := patch.IsPrimary != nil && *patch.IsPrimary && !record.IsPrimary
	if patch.IsPrimary != nil {
		record.IsPrimary = *patch.IsPrimary
	}
	record.UpdatedAt = time.Now().UTC()

	productIDs, err := s.store.ProductIDsFor(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve product associations")
	}

	// Demotion and the promoted write must land inside one critical
	// section; locks are taken in sorted order and held until the update
	// below persists.
	if promoting && len(productIDs) > 0 {
		sorted := append([]string(nil), productIDs...)
		sort.Strings(sorted)
		unlocks := make([]func(), 0, len(sorted))
		for _, productID := range sorted {
			unlocks = append(unlocks, s.lockProduct(productID))
		}
		defer func() {
			for i := len(unlocks) - 1; i >= 0; i-- {
				unlocks[i]()
			}
		}()
		for _, productID := range sorted {
			if err := s.store.ClearPrimary(ctx, productID, id); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear previous primary")
			}
		}
	}

	if err := s.store.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media update")
	}
	return record, nil
}

// Delete removes the remote asset first, then cached variants, then
// associations, then the primary record. The ordering minimizes dangling
// references on partial failure; each step is safe to re-run.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	resourceType := cloudinary.ResourceTypeImage
	if record.MediaType == enums.MediaTypeVideo {
		resourceType = cloudinary.ResourceTypeVideo
	}
	if _, err := s.assets.DeleteFile(ctx, record.CloudinaryPublicID, resourceType); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete remote asset")
	}

	if err := s.store.DeleteVariants(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cached variants")
	}
	if err := s.store.RemoveAssociations(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove associations")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete media record")
	}

	s.publish(ctx, Event{
		Type:       EventMediaDeleted,
		MediaID:    record.ID.String(),
		PublicID:   record.CloudinaryPublicID,
		MediaType:  record.MediaType.String(),
		Context:    record.Context.String(),
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Media, error) {
	return s.store.GetByID(ctx, id)
}

func (s *service) GetProductMedia(ctx context.Context, productID string) ([]Media, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.store.ListByProduct(ctx, productID)
}

func (s *service) GetPrimaryProductMedia(ctx context.Context, productID string) (*Media, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.store.GetPrimary(ctx, productID)
}

func (s *service) GetMediaByContext(ctx context.Context, mediaContext enums.MediaContext, limit, offset int) ([]Media, error) {
	if !mediaContext.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media context")
	}
	page := pagination.Normalize(limit, offset)
	return s.store.ListByContext(ctx, mediaContext, page.Limit, page.Offset)
}

func (s *service) Search(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]Media, error) {
	page := pagination.Normalize(limit, offset)
	return s.store.Search(ctx, query, filters, page.Limit, page.Offset)
}

func (s *service) GetVariants(ctx context.Context, id uuid.UUID) ([]Variant, error) {
	return s.store.GetVariants(ctx, id)
}

func (s *service) publish(ctx context.Context, event Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMediaEvent(ctx, event); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "event_type", event.Type), "media event publish failed")
	}
}

func remoteFileName(publicID string) string {
	if idx := strings.LastIndex(publicID, "/"); idx >= 0 {
		return publicID[idx+1:]
	}
	return publicID
}

func fileSize(remoteBytes int64, localLen int) int64 {
	if remoteBytes > 0 {
		return remoteBytes
	}
	return int64(localLen)
}
