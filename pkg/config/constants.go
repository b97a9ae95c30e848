package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "VELVETROW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names the validation service reports on by name.
const (
	EnvCloudinaryCloudName = "VELVETROW_CLOUDINARY_CLOUD_NAME"
	EnvCloudinaryAPIKey    = "VELVETROW_CLOUDINARY_API_KEY"
	EnvCloudinaryAPISecret = "VELVETROW_CLOUDINARY_API_SECRET"
	EnvJWTSecret           = "VELVETROW_JWT_SECRET"

	EnvMongoURI       = "VELVETROW_MONGO_URI"
	EnvMaxUploadBytes = "VELVETROW_MEDIA_MAX_UPLOAD_BYTES"
	EnvMaxFiles       = "VELVETROW_MEDIA_MAX_FILES"
)

// RequiredEnvVars must all be set for the service to report a healthy
// environment. OptionalEnvVars produce warnings when absent.
var (
	RequiredEnvVars = []string{
		EnvCloudinaryCloudName,
		EnvCloudinaryAPIKey,
		EnvCloudinaryAPISecret,
		EnvJWTSecret,
	}
	OptionalEnvVars = []string{
		EnvMongoURI,
		EnvMaxUploadBytes,
		EnvMaxFiles,
	}
)
