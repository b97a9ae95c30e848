package media

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxUploadBytes caps uploads at 10 MiB unless configured otherwise.
const DefaultMaxUploadBytes = 10 << 20

const maxFileNameLength = 255

// FileInfo is the subset of an inbound file the policies inspect.
type FileInfo struct {
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

// ValidationResult collects every violated rule; IsValid is true iff the
// list is empty.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// UploadRequestPolicy is the route-level allow-list applied before an upload
// request reaches the store. It is deliberately narrower than
// StoreIngestPolicy; the two sets diverge in the deployed clients and are
// kept as separate named policies rather than unified.
type UploadRequestPolicy struct {
	MaxBytes int64
}

var (
	requestAllowedMimes = map[string]struct{}{
		"image/jpeg": {},
		"image/jpg":  {},
		"image/png":  {},
		"image/webp": {},
		"video/mp4":  {},
	}
	requestAllowedExtensions = map[string]struct{}{
		".jpg":  {},
		".jpeg": {},
		".png":  {},
		".webp": {},
		".mp4":  {},
	}
	fileNameStemPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// NewUploadRequestPolicy applies the default size cap when maxBytes is not
// positive.
func NewUploadRequestPolicy(maxBytes int64) UploadRequestPolicy {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return UploadRequestPolicy{MaxBytes: maxBytes}
}

// Validate runs every rule and reports all violations rather than stopping
// at the first.
func (p UploadRequestPolicy) Validate(file FileInfo) ValidationResult {
	var errs []string

	mime := strings.ToLower(strings.TrimSpace(file.MimeType))
	if _, ok := requestAllowedMimes[mime]; !ok {
		errs = append(errs, fmt.Sprintf("file type %q is not allowed; allowed types: %s", file.MimeType, joinSorted(requestAllowedMimes)))
	}

	ext := strings.ToLower(filepath.Ext(file.OriginalName))
	if _, ok := requestAllowedExtensions[ext]; !ok {
		errs = append(errs, fmt.Sprintf("file extension %q is not allowed; allowed extensions: %s", ext, joinSorted(requestAllowedExtensions)))
	}

	if file.Size > p.MaxBytes {
		errs = append(errs, fmt.Sprintf("file size %d bytes exceeds the maximum of %d bytes", file.Size, p.MaxBytes))
	}

	if len(file.OriginalName) > maxFileNameLength {
		errs = append(errs, fmt.Sprintf("file name exceeds %d characters", maxFileNameLength))
	}

	stem := strings.TrimSuffix(file.OriginalName, filepath.Ext(file.OriginalName))
	if !fileNameStemPattern.MatchString(stem) {
		errs = append(errs, "file name may only contain letters, digits, dots, underscores, and hyphens")
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// StoreIngestPolicy is the store-level MIME allow-list. It additionally
// accepts QuickTime and AVI containers that the route-level policy rejects;
// preserving that asymmetry is an explicit policy decision.
type StoreIngestPolicy struct{}

var ingestAllowedMimes = map[string]struct{}{
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/webp":      {},
	"video/mp4":       {},
	"video/quicktime": {},
	"video/x-msvideo": {},
}

// Allows reports whether the MIME type may enter the store.
func (StoreIngestPolicy) Allows(mimeType string) bool {
	_, ok := ingestAllowedMimes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

// AllowedMimes lists the accepted types for error messages.
func (StoreIngestPolicy) AllowedMimes() []string {
	return sortedKeys(ingestAllowedMimes)
}

func joinSorted(set map[string]struct{}) string {
	return strings.Join(sortedKeys(set), ", ")
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
