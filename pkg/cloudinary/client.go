package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
)

const (
	defaultAPIBaseURL      = "https://api.cloudinary.com/v1_1"
	defaultDeliveryBaseURL = "https://res.cloudinary.com"
	requestTimeout         = 30 * time.Second
	pingTimeout            = 5 * time.Second
)

// ResourceType selects the Cloudinary upload pipeline.
type ResourceType string

const (
	ResourceTypeImage ResourceType = "image"
	ResourceTypeVideo ResourceType = "video"
	ResourceTypeAuto  ResourceType = "auto"
)

// Client talks to the Cloudinary upload and admin APIs. Uploads are signed
// with the account secret; admin calls use basic auth.
type Client struct {
	httpClient      *http.Client
	cloudName       string
	apiKey          string
	apiSecret       string
	rootFolder      string
	apiBaseURL      string
	deliveryBaseURL string
	logg            *logger.Logger
	now             func() time.Time
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient constructs a Cloudinary client from configuration. Credentials
// are not verified here; ValidateConfig and Ping cover that separately so a
// misconfigured process can still boot and report itself unhealthy.
func NewClient(cfg config.CloudinaryConfig, logg *logger.Logger) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: requestTimeout},
		cloudName:       cfg.CloudName,
		apiKey:          cfg.APIKey,
		apiSecret:       cfg.APISecret,
		rootFolder:      cfg.RootFolder,
		apiBaseURL:      defaultAPIBaseURL,
		deliveryBaseURL: defaultDeliveryBaseURL,
		logg:            logg,
		now:             time.Now,
	}
}

// ValidateConfig reports whether all three required credential values are
// present. Side-effect free; no network call.
func (c *Client) ValidateConfig() bool {
	return c.cloudName != "" && c.apiKey != "" && c.apiSecret != ""
}

// RootFolder returns the tenant root under which context subfolders are
// created.
func (c *Client) RootFolder() string {
	return c.rootFolder
}

// Ping probes the admin API liveness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/ping", c.apiBaseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping cloudinary: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudinary ping returned status %d", resp.StatusCode)
	}
	return nil
}

// UploadOptions configures a single upload.
type UploadOptions struct {
	// Folder overrides the default {root}/{context} destination.
	Folder string
	// ResourceType defaults to auto-detection by the remote store.
	ResourceType ResourceType
	// PublicID pins the remote handle; empty lets the store generate one.
	PublicID string
	// Overwrite defaults to false; the store then guarantees uniqueness.
	Overwrite bool
	Tags      []string
	// Context is an opaque "key=value" metadata string stored remotely.
	Context string
	// Transformations replaces the per-resource-type default preset.
	Transformations []Transformation
}

// UploadResult is the remote asset descriptor returned on success.
type UploadResult struct {
	PublicID     string  `json:"public_id"`
	SecureURL    string  `json:"secure_url"`
	Format       string  `json:"format"`
	ResourceType string  `json:"resource_type"`
	Bytes        int64   `json:"bytes"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Duration     float64 `json:"duration"`
	Version      int64   `json:"version"`
	CreatedAt    string  `json:"created_at"`
}

// UploadFile pushes bytes to Cloudinary with signed parameters. Remote
// failures are wrapped and returned; there is no retry, so the call is
// at-most-once from the caller's perspective.
func (c *Client) UploadFile(ctx context.Context, data []byte, fileName string, opts UploadOptions) (*UploadResult, error) {
	resourceType := opts.ResourceType
	if resourceType == "" {
		resourceType = ResourceTypeAuto
	}

	transforms := opts.Transformations
	if len(transforms) == 0 {
		switch resourceType {
		case ResourceTypeVideo:
			transforms = DefaultVideoTransformations()
		default:
			transforms = DefaultImageTransformations()
		}
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
		"overwrite": strconv.FormatBool(opts.Overwrite),
	}
	if opts.Folder != "" {
		params["folder"] = opts.Folder
	}
	if opts.PublicID != "" {
		params["public_id"] = opts.PublicID
	}
	if len(opts.Tags) > 0 {
		params["tags"] = strings.Join(opts.Tags, ",")
	}
	if opts.Context != "" {
		params["context"] = opts.Context
	}
	if chain := EncodeChain(transforms); chain != "" {
		params["transformation"] = chain
	}
	params["signature"] = c.signParams(params)
	params["api_key"] = c.apiKey

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write upload payload: %w", err)
	}
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/upload", c.apiBaseURL, c.cloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload to cloudinary: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(resp, "upload")
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &result, nil
}

// ImageUploadOptions adds an optional resize/crop step to UploadOptions.
type ImageUploadOptions struct {
	UploadOptions
	Width   int
	Height  int
	Crop    string
	Gravity string
}

// UploadImage uploads with the image pipeline, appending a resize transform
// after the quality preset when dimensions are requested.
func (c *Client) UploadImage(ctx context.Context, data []byte, fileName string, opts ImageUploadOptions) (*UploadResult, error) {
	upload := opts.UploadOptions
	upload.ResourceType = ResourceTypeImage
	if len(upload.Transformations) == 0 {
		upload.Transformations = DefaultImageTransformations()
		if opts.Width > 0 || opts.Height > 0 {
			crop := opts.Crop
			if crop == "" {
				crop = "fill"
			}
			gravity := opts.Gravity
			if gravity == "" {
				gravity = "auto"
			}
			upload.Transformations = append(upload.Transformations, Transformation{
				Width:   opts.Width,
				Height:  opts.Height,
				Crop:    crop,
				Gravity: gravity,
			})
		}
	}
	return c.UploadFile(ctx, data, fileName, upload)
}

// UploadVideo uploads with the video pipeline and the h264/mp4 preset.
func (c *Client) UploadVideo(ctx context.Context, data []byte, fileName string, opts UploadOptions) (*UploadResult, error) {
	opts.ResourceType = ResourceTypeVideo
	if len(opts.Transformations) == 0 {
		opts.Transformations = DefaultVideoTransformations()
	}
	return c.UploadFile(ctx, data, fileName, opts)
}

// DeleteFile destroys the remote asset. The remote reports "not found" for
// unknown ids in the result string; callers decide whether that is fatal.
func (c *Client) DeleteFile(ctx context.Context, publicID string, resourceType ResourceType) (string, error) {
	rt := resourceType
	if rt == "" {
		rt = ResourceTypeImage
	}

	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	params["signature"] = c.signParams(params)
	params["api_key"] = c.apiKey

	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/destroy", c.apiBaseURL, c.cloudName, rt)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("destroy cloudinary asset: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", c.remoteError(resp, "destroy")
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode destroy response: %w", err)
	}
	return result.Result, nil
}

// DeleteFiles destroys each id in turn, collecting per-id results. A remote
// failure stops the batch and surfaces the error with the partial results.
func (c *Client) DeleteFiles(ctx context.Context, publicIDs []string, resourceType ResourceType) (map[string]string, error) {
	results := make(map[string]string, len(publicIDs))
	for _, id := range publicIDs {
		result, err := c.DeleteFile(ctx, id, resourceType)
		if err != nil {
			return results, fmt.Errorf("destroy %s: %w", id, err)
		}
		results[id] = result
	}
	return results, nil
}

// SearchOptions pages through the remote search API.
type SearchOptions struct {
	MaxResults int
	NextCursor string
}

// SearchResult is the raw paginated response from the remote search API.
type SearchResult struct {
	TotalCount int              `json:"total_count"`
	NextCursor string           `json:"next_cursor"`
	Resources  []SearchResource `json:"resources"`
}

// SearchResource is one matched remote asset.
type SearchResource struct {
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	Bytes        int64  `json:"bytes"`
	SecureURL    string `json:"secure_url"`
	CreatedAt    string `json:"created_at"`
}

// Search passes an expression to the remote search API.
func (c *Client) Search(ctx context.Context, expression string, opts SearchOptions) (*SearchResult, error) {
	payload := map[string]any{"expression": expression}
	if opts.MaxResults > 0 {
		payload["max_results"] = opts.MaxResults
	}
	if opts.NextCursor != "" {
		payload["next_cursor"] = opts.NextCursor
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode search payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/resources/search", c.apiBaseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search cloudinary: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(resp, "search")
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &result, nil
}

// signParams computes the upload-API signature: SHA-1 over the sorted,
// ampersand-joined parameters concatenated with the secret. The api_key and
// signature fields themselves are never part of the signed payload.
func (c *Client) signParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, params[key]))
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

func (c *Client) remoteError(resp *http.Response, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("cloudinary %s failed (status %d): %s", op, resp.StatusCode, payload.Error.Message)
	}
	return fmt.Errorf("cloudinary %s failed (status %d)", op, resp.StatusCode)
}

func closeBody(body io.Closer) {
	if body != nil {
		_ = body.Close()
	}
}
