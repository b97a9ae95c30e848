package media

import (
	"context"

	"github.com/google/uuid"

	"github.com/velvetrowhq/velvetrow-backend/pkg/enums"
	pkgerrors "github.com/velvetrowhq/velvetrow-backend/pkg/errors"
)

// Store is the metadata persistence contract shared by every backend. The
// in-memory, MongoDB, and Postgres implementations are interchangeable and
// are exercised by one behavioral suite; calling code never branches on
// backend identity.
type Store interface {
	// Create persists a new record. The id must already be allocated.
	Create(ctx context.Context, m *Media) error
	// GetByID returns the record or a not-found error.
	GetByID(ctx context.Context, id uuid.UUID) (*Media, error)
	// Update replaces the stored record identified by m.ID.
	Update(ctx context.Context, m *Media) error
	// Delete removes the primary record only. Associations and variants are
	// removed by their own operations so the cascade ordering stays with the
	// caller.
	Delete(ctx context.Context, id uuid.UUID) error

	// AttachToProduct appends the media id to the product's association list.
	AttachToProduct(ctx context.Context, productID string, mediaID uuid.UUID) error
	// AttachToCollection appends with display order max(existing)+1.
	AttachToCollection(ctx context.Context, collectionID string, mediaID uuid.UUID) error
	// RemoveAssociations drops every product and collection entry for the id.
	RemoveAssociations(ctx context.Context, mediaID uuid.UUID) error
	// ProductIDsFor returns the products the media id is associated with.
	ProductIDsFor(ctx context.Context, mediaID uuid.UUID) ([]string, error)
	// ClearPrimary unsets is_primary on all of the product's media except the
	// given id.
	ClearPrimary(ctx context.Context, productID string, exceptID uuid.UUID) error

	// ListByProduct returns active records, primary first then newest first.
	ListByProduct(ctx context.Context, productID string) ([]Media, error)
	// GetPrimary returns the single active primary record or a not-found
	// error.
	GetPrimary(ctx context.Context, productID string) (*Media, error)
	// ListByContext returns active records newest first, paginated.
	ListByContext(ctx context.Context, mediaContext enums.MediaContext, limit, offset int) ([]Media, error)
	// Search matches the query case-insensitively as a substring across
	// title, description, alt, file name, and original name; filters are
	// ANDed. Results come back newest first.
	Search(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]Media, error)

	// SaveVariant upserts one cached transformation record.
	SaveVariant(ctx context.Context, v Variant) error
	GetVariants(ctx context.Context, mediaID uuid.UUID) ([]Variant, error)
	DeleteVariants(ctx context.Context, mediaID uuid.UUID) error
}

func notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
}
