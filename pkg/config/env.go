package config

// EnvPrefix is handed to envconfig; every field carries an explicit envconfig tag.
const EnvPrefix = "TRIPGATHER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "TRIPGATHER_APP_ENV"
	EnvPort         = "TRIPGATHER_APP_PORT"
	EnvDBDSN        = "TRIPGATHER_DB_DSN"
	EnvDBHost       = "TRIPGATHER_DB_HOST"
	EnvDBUser       = "TRIPGATHER_DB_USER"
	EnvDBName       = "TRIPGATHER_DB_NAME"
	EnvRedisURL     = "TRIPGATHER_REDIS_URL"
	EnvJWTSecret    = "TRIPGATHER_JWT_SECRET"
	EnvJWTExpMins   = "TRIPGATHER_JWT_EXPIRATION_MINUTES"
	EnvGCSBucket    = "TRIPGATHER_GCS_BUCKET_NAME"
	EnvCronInterval = "TRIPGATHER_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
