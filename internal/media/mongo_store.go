package media

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/velvetrowhq/velvetrow-backend/pkg/enums"
)

const (
	mediaCollection           = "media"
	productMediaCollection    = "product_media"
	collectionMediaCollection = "collection_media"
	variantCollection         = "media_variants"
)

// MongoStore persists metadata in the document store. Matching semantics
// mirror the in-memory backend: substring search uses case-insensitive
// regex rather than a text index so both backends rank identically.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore binds the store to a database handle and ensures its
// indexes exist.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	s := &MongoStore{db: db}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

var _ Store = (*MongoStore)(nil)

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(mediaCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "context", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create media indexes: %w", err)
	}
	_, err = s.db.Collection(productMediaCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "product_id", Value: 1}}},
		{Keys: bson.D{{Key: "media_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create product_media indexes: %w", err)
	}
	_, err = s.db.Collection(collectionMediaCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "collection_id", Value: 1}, {Key: "display_order", Value: 1}}},
		{Keys: bson.D{{Key: "media_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create collection_media indexes: %w", err)
	}
	_, err = s.db.Collection(variantCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "media_id", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create variant indexes: %w", err)
	}
	return nil
}

type mediaDoc struct {
	ID                  string    `bson:"_id"`
	CloudinaryPublicID  string    `bson:"cloudinary_public_id"`
	CloudinarySecureURL string    `bson:"cloudinary_secure_url"`
	TransformationURL   string    `bson:"transformation_url"`
	Alt                 string    `bson:"alt"`
	Title               string    `bson:"title"`
	Description         string    `bson:"description"`
	Tags                []string  `bson:"tags"`
	IsActive            bool      `bson:"is_active"`
	IsPrimary           bool      `bson:"is_primary"`
	OriginalName        string    `bson:"original_name"`
	FileName            string    `bson:"file_name"`
	MimeType            string    `bson:"mime_type"`
	FileSize            int64     `bson:"file_size"`
	Width               int       `bson:"width,omitempty"`
	Height              int       `bson:"height,omitempty"`
	Duration            float64   `bson:"duration,omitempty"`
	MediaType           string    `bson:"media_type"`
	Format              string    `bson:"format"`
	Context             string    `bson:"context"`
	UploadedBy          string    `bson:"uploaded_by,omitempty"`
	CreatedAt           time.Time `bson:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at"`
}

func toDoc(m *Media) mediaDoc {
	return mediaDoc{
		ID:                  m.ID.String(),
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
		MediaType:           m.MediaType.String(),
		Format:              m.Format,
		Context:             m.Context.String(),
		UploadedBy:          m.UploadedBy,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func (d mediaDoc) toMedia() (Media, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return Media{}, fmt.Errorf("parse media id %q: %w", d.ID, err)
	}
	return Media{
		ID:                  id,
		CloudinaryPublicID:  d.CloudinaryPublicID,
		CloudinarySecureURL: d.CloudinarySecureURL,
		TransformationURL:   d.TransformationURL,
		Alt:                 d.Alt,
		Title:               d.Title,
		Description:         d.Description,
		Tags:                d.Tags,
		IsActive:            d.IsActive,
		IsPrimary:           d.IsPrimary,
		OriginalName:        d.OriginalName,
		FileName:            d.FileName,
		MimeType:            d.MimeType,
		FileSize:            d.FileSize,
		Width:               d.Width,
		Height:              d.Height,
		Duration:            d.Duration,
		MediaType:           enums.MediaType(d.MediaType),
		Format:              d.Format,
		Context:             enums.MediaContext(d.Context),
		UploadedBy:          d.UploadedBy,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}, nil
}

func (s *MongoStore) Create(ctx context.Context, m *Media) error {
	_, err := s.db.Collection(mediaCollection).InsertOne(ctx, toDoc(m))
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

func (s *MongoStore) GetByID(ctx context.Context, id uuid.UUID) (*Media, error) {
	var doc mediaDoc
	err := s.db.Collection(mediaCollection).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("find media: %w", err)
	}
	record, err := doc.toMedia()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *MongoStore) Update(ctx context.Context, m *Media) error {
	result, err := s.db.Collection(mediaCollection).ReplaceOne(ctx, bson.M{"_id": m.ID.String()}, toDoc(m))
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	if result.MatchedCount == 0 {
		return notFound()
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Collection(mediaCollection).DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if result.DeletedCount == 0 {
		return notFound()
	}
	return nil
}

func (s *MongoStore) AttachToProduct(ctx context.Context, productID string, mediaID uuid.UUID) error {
	filter := bson.M{"product_id": productID, "media_id": mediaID.String()}
	update := bson.M{"$setOnInsert": bson.M{
		"product_id": productID,
		"media_id":   mediaID.String(),
		"created_at": time.Now().UTC(),
	}}
	_, err := s.db.Collection(productMediaCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("attach media to product: %w", err)
	}
	return nil
}

func (s *MongoStore) AttachToCollection(ctx context.Context, collectionID string, mediaID uuid.UUID) error {
	coll := s.db.Collection(collectionMediaCollection)

	count, err := coll.CountDocuments(ctx, bson.M{"collection_id": collectionID, "media_id": mediaID.String()})
	if err != nil {
		return fmt.Errorf("check collection membership: %w", err)
	}
	if count > 0 {
		return nil
	}

	// display_order = max(existing)+1, assigned at insertion time
	opts := options.FindOne().SetSort(bson.D{{Key: "display_order", Value: -1}})
	var top struct {
		DisplayOrder int `bson:"display_order"`
	}
	err = coll.FindOne(ctx, bson.M{"collection_id": collectionID}, opts).Decode(&top)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("resolve display order: %w", err)
	}

	_, err = coll.InsertOne(ctx, bson.M{
		"collection_id": collectionID,
		"media_id":      mediaID.String(),
		"display_order": top.DisplayOrder + 1,
		"created_at":    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("attach media to collection: %w", err)
	}
	return nil
}

func (s *MongoStore) RemoveAssociations(ctx context.Context, mediaID uuid.UUID) error {
	filter := bson.M{"media_id": mediaID.String()}
	if _, err := s.db.Collection(productMediaCollection).DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("remove product associations: %w", err)
	}
	if _, err := s.db.Collection(collectionMediaCollection).DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("remove collection associations: %w", err)
	}
	return nil
}

func (s *MongoStore) ProductIDsFor(ctx context.Context, mediaID uuid.UUID) ([]string, error) {
	cursor, err := s.db.Collection(productMediaCollection).Find(ctx, bson.M{"media_id": mediaID.String()})
	if err != nil {
		return nil, fmt.Errorf("list product associations: %w", err)
	}
	defer cursor.Close(ctx)

	var productIDs []string
	for cursor.Next(ctx) {
		var row struct {
			ProductID string `bson:"product_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode product association: %w", err)
		}
		productIDs = append(productIDs, row.ProductID)
	}
	return productIDs, cursor.Err()
}

func (s *MongoStore) ClearPrimary(ctx context.Context, productID string, exceptID uuid.UUID) error {
	ids, err := s.mediaIDsForProduct(ctx, productID)
	if err != nil {
		return err
	}
	others := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exceptID.String() {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return nil
	}
	_, err = s.db.Collection(mediaCollection).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": others}, "is_primary": true},
		bson.M{"$set": bson.M{"is_primary": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("clear primary flags: %w", err)
	}
	return nil
}

func (s *MongoStore) mediaIDsForProduct(ctx context.Context, productID string) ([]string, error) {
	cursor, err := s.db.Collection(productMediaCollection).Find(ctx, bson.M{"product_id": productID})
	if err != nil {
		return nil, fmt.Errorf("list product media ids: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var row struct {
			MediaID string `bson:"media_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode product media id: %w", err)
		}
		ids = append(ids, row.MediaID)
	}
	return ids, cursor.Err()
}

func (s *MongoStore) ListByProduct(ctx context.Context, productID string) ([]Media, error) {
	ids, err := s.mediaIDsForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "is_primary", Value: -1},
		{Key: "created_at", Value: -1},
	})
	return s.findMedia(ctx, bson.M{"_id": bson.M{"$in": ids}, "is_active": true}, opts)
}

func (s *MongoStore) GetPrimary(ctx context.Context, productID string) (*Media, error) {
	ids, err := s.mediaIDsForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, notFound()
	}

	var doc mediaDoc
	err = s.db.Collection(mediaCollection).FindOne(ctx, bson.M{
		"_id":        bson.M{"$in": ids},
		"is_active":  true,
		"is_primary": true,
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("find primary media: %w", err)
	}
	record, err := doc.toMedia()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *MongoStore) ListByContext(ctx context.Context, mediaContext enums.MediaContext, limit, offset int) ([]Media, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	return s.findMedia(ctx, bson.M{"context": mediaContext.String(), "is_active": true}, opts)
}

func (s *MongoStore) Search(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]Media, error) {
	filter := bson.M{"is_active": true}
	if filters.Context != nil {
		filter["context"] = filters.Context.String()
	}
	if filters.MediaType != nil {
		filter["media_type"] = filters.MediaType.String()
	}
	if len(filters.Tags) > 0 {
		filter["tags"] = bson.M{"$all": filters.Tags}
	}
	if query != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"alt": pattern},
			bson.M{"file_name": pattern},
			bson.M{"original_name": pattern},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	return s.findMedia(ctx, filter, opts)
}

func (s *MongoStore) findMedia(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Media, error) {
	cursor, err := s.db.Collection(mediaCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find media: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mediaDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	out := make([]Media, 0, len(docs))
	for _, doc := range docs {
		record, err := doc.toMedia()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *MongoStore) SaveVariant(ctx context.Context, v Variant) error {
	filter := bson.M{"media_id": v.MediaID.String(), "name": v.Name}
	update := bson.M{"$set": bson.M{
		"media_id":              v.MediaID.String(),
		"name":                  v.Name,
		"transformation_string": v.TransformationString,
		"url":                   v.URL,
		"width":                 v.Width,
		"height":                v.Height,
		"format":                v.Format,
	}}
	_, err := s.db.Collection(variantCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save variant: %w", err)
	}
	return nil
}

func (s *MongoStore) GetVariants(ctx context.Context, mediaID uuid.UUID) ([]Variant, error) {
	cursor, err := s.db.Collection(variantCollection).Find(ctx, bson.M{"media_id": mediaID.String()})
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Variant
	for cursor.Next(ctx) {
		var row struct {
			MediaID              string `bson:"media_id"`
			Name                 string `bson:"name"`
			TransformationString string `bson:"transformation_string"`
			URL                  string `bson:"url"`
			Width                int    `bson:"width"`
			Height               int    `bson:"height"`
			Format               string `bson:"format"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode variant: %w", err)
		}
		id, err := uuid.Parse(row.MediaID)
		if err != nil {
			return nil, fmt.Errorf("parse variant media id: %w", err)
		}
		out = append(out, Variant{
			MediaID:              id,
			Name:                 row.Name,
			TransformationString: row.TransformationString,
			URL:                  row.URL,
			Width:                row.Width,
			Height:               row.Height,
			Format:               row.Format,
		})
	}
	return out, cursor.Err()
}

func (s *MongoStore) DeleteVariants(ctx context.Context, mediaID uuid.UUID) error {
	if _, err := s.db.Collection(variantCollection).DeleteMany(ctx, bson.M{"media_id": mediaID.String()}); err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}
	return nil
}
