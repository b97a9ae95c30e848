package media

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/velvetrowhq/velvetrow-backend/pkg/enums"
)

// MemoryStore keeps all metadata in owned maps guarded by a single
// read-write lock. It is the default backend when neither Mongo nor Postgres
// is configured, and the reference implementation for the behavioral
// contract suite.
type MemoryStore struct {
	mu sync.RWMutex

	records     map[uuid.UUID]*Media
	productIdx  map[string][]uuid.UUID
	collections map[string][]collectionEntry
	variants    map[uuid.UUID][]Variant
}

type collectionEntry struct {
	mediaID      uuid.UUID
	displayOrder int
}

// NewMemoryStore constructs an empty store. Each test gets a fresh instance;
// nothing is process-global.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[uuid.UUID]*Media),
		productIdx:  make(map[string][]uuid.UUID),
		collections: make(map[string][]collectionEntry),
		variants:    make(map[uuid.UUID][]Variant),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, m *Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[m.ID] = m.clone()
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, notFound()
	}
	return record.clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, m *Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[m.ID]; !ok {
		return notFound()
	}
	s.records[m.ID] = m.clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return notFound()
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) AttachToProduct(_ context.Context, productID string, mediaID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.productIdx[productID] {
		if existing == mediaID {
			return nil
		}
	}
	s.productIdx[productID] = append(s.productIdx[productID], mediaID)
	return nil
}

func (s *MemoryStore) AttachToCollection(_ context.Context, collectionID string, mediaID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.collections[collectionID]
	next := 0
	for _, entry := range entries {
		if entry.mediaID == mediaID {
			return nil
		}
		if entry.displayOrder > next {
			next = entry.displayOrder
		}
	}
	s.collections[collectionID] = append(entries, collectionEntry{mediaID: mediaID, displayOrder: next + 1})
	return nil
}

func (s *MemoryStore) RemoveAssociations(_ context.Context, mediaID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for productID, ids := range s.productIdx {
		filtered := ids[:0]
		for _, id := range ids {
			if id != mediaID {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) == 0 {
			delete(s.productIdx, productID)
		} else {
			s.productIdx[productID] = filtered
		}
	}
	for collectionID, entries := range s.collections {
		filtered := entries[:0]
		for _, entry := range entries {
			if entry.mediaID != mediaID {
				filtered = append(filtered, entry)
			}
		}
		if len(filtered) == 0 {
			delete(s.collections, collectionID)
		} else {
			s.collections[collectionID] = filtered
		}
	}
	return nil
}

func (s *MemoryStore) ProductIDsFor(_ context.Context, mediaID uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var productIDs []string
	for productID, ids := range s.productIdx {
		for _, id := range ids {
			if id == mediaID {
				productIDs = append(productIDs, productID)
				break
			}
		}
	}
	sort.Strings(productIDs)
	return productIDs, nil
}

func (s *MemoryStore) ClearPrimary(_ context.Context, productID string, exceptID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.productIdx[productID] {
		if id == exceptID {
			continue
		}
		if record, ok := s.records[id]; ok && record.IsPrimary {
			record.IsPrimary = false
			record.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (s *MemoryStore) ListByProduct(_ context.Context, productID string) ([]Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Media
	for _, id := range s.productIdx[productID] {
		if record, ok := s.records[id]; ok && record.IsActive {
			out = append(out, *record.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetPrimary(_ context.Context, productID string) (*Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.productIdx[productID] {
		if record, ok := s.records[id]; ok && record.IsActive && record.IsPrimary {
			return record.clone(), nil
		}
	}
	return nil, notFound()
}

func (s *MemoryStore) ListByContext(_ context.Context, mediaContext enums.MediaContext, limit, offset int) ([]Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Media
	for _, record := range s.records {
		if record.IsActive && record.Context == mediaContext {
			matched = append(matched, *record.clone())
		}
	}
	sortNewestFirst(matched)
	return paginate(matched, limit, offset), nil
}

func (s *MemoryStore) Search(_ context.Context, query string, filters SearchFilters, limit, offset int) ([]Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(query))

	var matched []Media
	for _, record := range s.records {
		if !record.IsActive {
			continue
		}
		if filters.Context != nil && record.Context != *filters.Context {
			continue
		}
		if filters.MediaType != nil && record.MediaType != *filters.MediaType {
			continue
		}
		if !hasAllTags(record, filters.Tags) {
			continue
		}
		if needle != "" && !matchesQuery(record, needle) {
			continue
		}
		matched = append(matched, *record.clone())
	}
	sortNewestFirst(matched)
	return paginate(matched, limit, offset), nil
}

func (s *MemoryStore) SaveVariant(_ context.Context, v Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.variants[v.MediaID]
	for i, candidate := range existing {
		if candidate.Name == v.Name {
			existing[i] = v
			return nil
		}
	}
	s.variants[v.MediaID] = append(existing, v)
	return nil
}

func (s *MemoryStore) GetVariants(_ context.Context, mediaID uuid.UUID) ([]Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Variant(nil), s.variants[mediaID]...), nil
}

func (s *MemoryStore) DeleteVariants(_ context.Context, mediaID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.variants, mediaID)
	return nil
}

// matchesQuery checks the case-insensitive substring match across the
// descriptive and provenance text fields.
func matchesQuery(record *Media, needle string) bool {
	for _, field := range []string{record.Title, record.Description, record.Alt, record.FileName, record.OriginalName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func hasAllTags(record *Media, tags []string) bool {
	for _, tag := range tags {
		if !record.hasTag(tag) {
			return false
		}
	}
	return true
}

func sortNewestFirst(records []Media) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID.String() > records[j].ID.String()
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

func paginate(records []Media, limit, offset int) []Media {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
