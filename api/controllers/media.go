package controllers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetrowhq/velvetrow-backend/api/middleware"
	"github.com/velvetrowhq/velvetrow-backend/api/responses"
	"github.com/velvetrowhq/velvetrow-backend/api/validators"
	"github.com/velvetrowhq/velvetrow-backend/internal/media"
	"github.com/velvetrowhq/velvetrow-backend/pkg/enums"
	pkgerrors "github.com/velvetrowhq/velvetrow-backend/pkg/errors"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
	"github.com/velvetrowhq/velvetrow-backend/pkg/metrics"
	"github.com/velvetrowhq/velvetrow-backend/pkg/pagination"
)

const multipartMemoryLimit = 32 << 20

// MediaDeps bundles the dependencies the media handlers share.
type MediaDeps struct {
	Service media.Service
	Policy  media.UploadRequestPolicy
	Metrics *metrics.MediaMetrics
	// MaxFiles caps one batch upload request.
	MaxFiles int
	Logger   *logger.Logger
}

func (d MediaDeps) maxFiles() int {
	if d.MaxFiles <= 0 {
		return 10
	}
	return d.MaxFiles
}

// MediaUpload ingests one multipart file plus its descriptive form fields.
func MediaUpload(deps MediaDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Service == nil {
			responses.WriteError(r.Context(), deps.Logger, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), deps.Logger, w, pkgerrors.Wrap(pkgerrors.CodePayloadTooLarge, err, "request body too large or malformed"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), deps.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, `multipart field "file" is required`))
			return
		}
		defer file.Close()

		opts, err := uploadOptionsFromForm(r)
		if err != nil {
			responses.WriteError(r.Context(), deps.Logger, w, err)
			return
		}

		record, err := ingestOne(r, deps, file, header, opts)
		if err != nil {
			responses.WriteError(r.Context(), deps.Logger, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, uploadResponse{Message: "media uploaded", Media: *record})
	}
}

type uploadResponse struct {
	Message string      `json:"message"`
	Media   media.Media `json:"media"`
}

type batchUploadResult struct {
	Message string            `json:"message"`
	Media   []media.Media     `json:"media"`
	Failed  []batchFailedFile `json:"failed,omitempty"`
}

type batchFailedFile struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// MediaUploadBatch ingests several files from one request. Files are
// processed independently; a bad file is reported, not fatal to its siblings.
func MediaUploadBatch(deps MediaDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Service == nil {
			responses.WriteError(r.Context(), deps.Logger, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), deps.Logger, w, pkgerrors.Wrap(pkgerrors.CodePayloadTooLarge, err, "request body too large or malformed"))
			return
		}

		if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
			responses.WriteError(r.Context(), deps.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, `multipart field "files" is required`))
			return
		}

		headers := r.MultipartForm.File["files"]
		if len(headers) > deps.maxFiles() {
			responses.WriteError(r.Context(), deps.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "too many files in one request").
				WithDetails(map[string]any{"max_files": deps.maxFiles(), "received": len(headers)}))
			return
		}

		opts, err := uploadOptionsFromForm(r)
		if err != nil {
			responses.WriteError(r.Context(), deps.Logger, w, err)
			return
		}

		result := batchUploadResult{Message: "media uploaded", Media: []media.Media{}}
		for _, header := range headers {
			file, openErr := header.Open()
			if openErr != nil {
				result.Failed = append(result.Failed, batchFailedFile{FileName: header.Filename, Error: "unreadable file part"})
				continue
			}

			record, ingestErr := ingestOne(r, deps, file, header, opts)
			file.Close()
			if ingestErr != nil {
				result.Failed = append(result.Failed, batchFailedFile{FileName: header.Filename, Error: publicFailureMessage(ingestErr)})
				continue
			}
			result.Media = append(result.Media, *record)

			// Only the first file of a batch may claim the primary slot.
			opts.IsPrimary = false
		}

		status := http.StatusCreated
		if len(result.Media) == 0 {
			result.Message = "no files uploaded"
			status = http.StatusBadRequest
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func ingestOne(r *http.Request, deps MediaDeps, file multipart.File, header *multipart.FileHeader, opts media.UploadOptions) (*media.Media, error) {
	check := deps.Policy.Validate(media.FileInfo{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
	})
	if !check.IsValid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file failed validation").
			WithDetails(map[string]any{"errors": check.Errors})
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read file part")
	}

	mediaType := enums.MediaTypeFromMime(header.Header.Get("Content-Type"))
	start := time.Now()

	record, err := deps.Service.Upload(r.Context(), data, header.Filename, header.Header.Get("Content-Type"), opts, middleware.UserIDFromContext(r.Context()))
	deps.Metrics.ObserveUploadDuration(mediaType.String(), time.Since(start))
	deps.Metrics.IncUpload(mediaType.String(), err == nil)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// publicFailureMessage keeps per-file batch errors aligned with what
// responses.WriteError would have exposed for the same failure.
func publicFailureMessage(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return pkgerrors.MetadataFor(pkgerrors.CodeInternal).PublicMessage
	}
	meta := pkgerrors.MetadataFor(typed.Code())
	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeConflict, pkgerrors.CodePayloadTooLarge:
		if m := typed.Message(); m != "" {
			return m
		}
	}
	return meta.PublicMessage
}

func uploadOptionsFromForm(r *http.Request) (media.UploadOptions, error) {
	rawContext := validators.SanitizeString(r.FormValue("context"), 64)
	if rawContext == "" {
		return media.UploadOptions{}, pkgerrors.New(pkgerrors.CodeValidation, `form field "context" is required`)
	}
	mediaContext, err := enums.ParseMediaContext(rawContext)
	if err != nil {
		return media.UploadOptions{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media context")
	}

	opts := media.UploadOptions{
		Context:      mediaContext,
		ProductID:    validators.SanitizeString(r.FormValue("product_id"), 128),
		CollectionID: validators.SanitizeString(r.FormValue("collection_id"), 128),
		IsPrimary:    strings.EqualFold(r.FormValue("is_primary"), "true"),
		Alt:          validators.SanitizeString(r.FormValue("alt"), 512),
		Title:        validators.SanitizeString(r.FormValue("title"), 512),
		Description:  validators.SanitizeString(r.FormValue("description"), 2048),
	}
	if raw := r.FormValue("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				opts.Tags = append(opts.Tags, trimmed)
			}
		}
	}

	if opts.IsPrimary && opts.ProductID == "" {
		return media.UploadOptions{}, pkgerrors.New(pkgerrors.CodeValidation, "is_primary requires product_id")
	}

	return opts, nil
}

// MediaGet returns one record by id.
func MediaGet(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := mediaIDFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

type mediaUpdateRequest struct {
	Alt         *string   `json:"alt" validate:"omitempty,max=512"`
	Title       *string   `json:"title" validate:"omitempty,max=512"`
	Description *string   `json:"description" validate:"omitempty,max=2048"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=50"`
	IsPrimary   *bool     `json:"is_primary"`
	IsActive    *bool     `json:"is_active"`
}

// MediaUpdate applies a merge patch to the descriptive fields.
func MediaUpdate(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := mediaIDFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload mediaUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Update(r.Context(), id, media.UpdateInput{
			Alt:         payload.Alt,
			Title:       payload.Title,
			Description: payload.Description,
			Tags:        payload.Tags,
			IsPrimary:   payload.IsPrimary,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// MediaDelete removes the remote asset and every stored trace of the record.
func MediaDelete(svc media.Service, met *metrics.MediaMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := mediaIDFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Delete(r.Context(), id)
		met.IncDelete(err == nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "media deleted", "id": id.String()})
	}
}

// MediaVariants lists the generated renditions for one record.
func MediaVariants(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := mediaIDFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variants, err := svc.GetVariants(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variants)
	}
}

// ProductMedia lists a product's active media, primary first.
func ProductMedia(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		records, err := svc.GetProductMedia(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productMediaResponse{ProductID: productID, Media: records})
	}
}

// ProductPrimaryMedia returns the active primary image for a product.
func ProductPrimaryMedia(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		record, err := svc.GetPrimaryProductMedia(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// MediaByContext pages through a context's records, newest first.
func MediaByContext(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaContext, err := enums.ParseMediaContext(chi.URLParam(r, "context"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media context"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, pagination.MaxOffset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.GetMediaByContext(r.Context(), mediaContext, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contextMediaResponse{
			Context: mediaContext,
			Limit:   limit,
			Offset:  offset,
			Count:   len(records),
			Media:   records,
		})
	}
}

// MediaSearch runs a text search over the descriptive fields with optional
// context, type, and tag filters.
func MediaSearch(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := validators.SanitizeString(r.URL.Query().Get("q"), 256)

		filters := media.SearchFilters{
			Tags: validators.ParseQueryCSV(r, "tags"),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("context")); raw != "" {
			mediaContext, err := enums.ParseMediaContext(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media context"))
				return
			}
			filters.Context = &mediaContext
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("media_type")); raw != "" {
			mediaType, err := enums.ParseMediaType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media type"))
				return
			}
			filters.MediaType = &mediaType
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, pagination.MaxOffset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.Search(r.Context(), query, filters, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, searchMediaResponse{
			Query:   query,
			Filters: filters,
			Limit:   limit,
			Offset:  offset,
			Count:   len(records),
			Media:   records,
		})
	}
}

type productMediaResponse struct {
	ProductID string        `json:"product_id"`
	Media     []media.Media `json:"media"`
}

type contextMediaResponse struct {
	Context enums.MediaContext `json:"context"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
	Count   int                `json:"count"`
	Media   []media.Media      `json:"media"`
}

type searchMediaResponse struct {
	Query   string              `json:"query"`
	Filters media.SearchFilters `json:"filters"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	Count   int                 `json:"count"`
	Media   []media.Media       `json:"media"`
}

func mediaIDFromRoute(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "mediaId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media id")
	}
	return id, nil
}
