package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velvetrowhq/velvetrow-backend/internal/media"
	"github.com/velvetrowhq/velvetrow-backend/internal/validation"
	pkgauth "github.com/velvetrowhq/velvetrow-backend/pkg/auth"
	"github.com/velvetrowhq/velvetrow-backend/pkg/cloudinary"
	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
)

type routerAssets struct {
	uploadCount int
}

func (s *routerAssets) UploadFile(_ context.Context, _ []byte, _ string, opts cloudinary.UploadOptions) (*cloudinary.UploadResult, error) {
	s.uploadCount++
	publicID := fmt.Sprintf("%s/upload_%d", opts.Folder, s.uploadCount)
	return &cloudinary.UploadResult{
		PublicID:  publicID,
		SecureURL: "https://res.cloudinary.com/test/" + publicID,
		Format:    "jpg",
		Width:     800,
		Height:    600,
	}, nil
}

func (s *routerAssets) DeleteFile(_ context.Context, _ string, _ cloudinary.ResourceType) (string, error) {
	return "ok", nil
}

func (s *routerAssets) TransformationURL(publicID string, transforms []cloudinary.Transformation, resourceType cloudinary.ResourceType) string {
	return fmt.Sprintf("https://res.cloudinary.com/test/%s/%s/%s", resourceType, cloudinary.EncodeChain(transforms), publicID)
}

func (s *routerAssets) ResponsiveImageURL(publicID string) string {
	return s.TransformationURL(publicID, cloudinary.DefaultImageTransformations(), cloudinary.ResourceTypeImage)
}

func (s *routerAssets) VideoDeliveryURL(publicID string) string {
	return s.TransformationURL(publicID, cloudinary.DefaultVideoTransformations(), cloudinary.ResourceTypeVideo)
}

func (s *routerAssets) RootFolder() string { return "velvetrow" }

type healthyAsset struct{}

func (healthyAsset) ValidateConfig() bool {
	return true
}

func (healthyAsset) Ping(context.Context) error {
	return nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "velvetrow",
			ExpirationMinutes: 60,
		},
		Media: config.MediaConfig{
			MaxUploadBytes:     10 << 20,
			MaxFilesPerRequest: 10,
		},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()

	cfg := testRouterConfig()
	svc, err := media.NewService(media.ServiceParams{
		Store:  media.NewMemoryStore(),
		Assets: &routerAssets{},
	})
	if err != nil {
		t.Fatalf("create media service: %v", err)
	}

	validationService := validation.NewService(healthyAsset{}, nil, media.NewUploadRequestPolicy(cfg.Media.MaxUploadBytes))

	handler := NewRouter(RouterParams{
		Config:       cfg,
		MediaService: svc,
		Validation:   validationService,
	})
	return handler, cfg
}

func bearerToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   "merchandiser",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func uploadRequest(t *testing.T, token string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="dress.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte("jpeg-bytes"))
	writer.WriteField("context", "product")
	writer.WriteField("product_id", "prod_1")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func TestRouterPublicEndpointsSkipAuth(t *testing.T) {
	handler, _ := newTestRouter(t)

	for _, path := range []string{"/health/live", "/api/public/ping"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
	}
}

func TestRouterHealthIsDegradedWithoutMongo(t *testing.T) {
	for _, name := range config.RequiredEnvVars {
		t.Setenv(name, "set-for-test")
	}
	for _, name := range config.OptionalEnvVars {
		t.Setenv(name, "set-for-test")
	}
	handler, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusPartialContent {
		t.Fatalf("expected 206 got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouterProtectedEndpointsRequireAuth(t *testing.T) {
	handler, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/media/search", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, ""))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for upload got %d", w.Code)
	}
}

func TestRouterUploadThenFetchRoundTrip(t *testing.T) {
	handler, cfg := newTestRouter(t)
	token := bearerToken(t, cfg)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, token))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201 got %d: %s", w.Code, w.Body.String())
	}

	var uploaded struct {
		Data struct {
			Media media.Media `json:"media"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/media/"+uploaded.Data.Media.ID.String(), nil)
	req.Header.Set("Authorization", token)
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200 got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/media/product/prod_1", nil)
	req.Header.Set("Authorization", token)
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("product media: expected 200 got %d: %s", w.Code, w.Body.String())
	}

	var listed struct {
		Data struct {
			ProductID string        `json:"product_id"`
			Media     []media.Media `json:"media"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&listed); err != nil {
		t.Fatalf("decode product media: %v", err)
	}
	if listed.Data.ProductID != "prod_1" || len(listed.Data.Media) != 1 {
		t.Fatalf("expected one record for prod_1, got %+v", listed.Data)
	}
}

func TestRouterValidateFileIsPublic(t *testing.T) {
	handler, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"originalname":"a.jpg","mimetype":"image/jpeg","size":100}`)
	req := httptest.NewRequest(http.MethodPost, "/health/validate-file", body)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	handler, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}
