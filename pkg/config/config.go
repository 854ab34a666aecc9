package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Cookie        CookieConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Realtime      RealtimeConfig
	GCP           GCPConfig
	Storage       StorageConfig
	Media         MediaConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string   `envconfig:"TRIPGATHER_APP_ENV" required:"true"`
	Port            string   `envconfig:"TRIPGATHER_APP_PORT" required:"true"`
	LogLevel        string   `envconfig:"TRIPGATHER_LOG_LEVEL" default:"info"`
	LogWarnStack    bool     `envconfig:"TRIPGATHER_LOG_WARN_STACK" default:"false"`
	FrontendOrigins []string `envconfig:"TRIPGATHER_FRONTEND_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TRIPGATHER_DB_DSN"`

	LegacyHost     string `envconfig:"TRIPGATHER_DB_HOST"`
	LegacyPort     int    `envconfig:"TRIPGATHER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRIPGATHER_DB_USER"`
	LegacyPassword string `envconfig:"TRIPGATHER_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRIPGATHER_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRIPGATHER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRIPGATHER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRIPGATHER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRIPGATHER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRIPGATHER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRIPGATHER_REDIS_URL"`
	Address      string        `envconfig:"TRIPGATHER_REDIS_ADDR"`
	Password     string        `envconfig:"TRIPGATHER_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRIPGATHER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRIPGATHER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRIPGATHER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRIPGATHER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRIPGATHER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRIPGATHER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TRIPGATHER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TRIPGATHER_JWT_ISSUER" default:"tripgather"`
	ExpirationMinutes      int    `envconfig:"TRIPGATHER_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"TRIPGATHER_REFRESH_TOKEN_TTL_MINUTES" default:"20160"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// CookieConfig shapes the accessToken/refreshToken cookies handed to the browser.
type CookieConfig struct {
	Domain   string `envconfig:"TRIPGATHER_COOKIE_DOMAIN"`
	Secure   bool   `envconfig:"TRIPGATHER_COOKIE_SECURE" default:"true"`
	SameSite string `envconfig:"TRIPGATHER_COOKIE_SAMESITE" default:"lax"`
}

// SameSiteMode maps the configured string onto net/http's enum.
func (c CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(strings.TrimSpace(c.SameSite)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRIPGATHER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRIPGATHER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRIPGATHER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRIPGATHER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRIPGATHER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"TRIPGATHER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"TRIPGATHER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"TRIPGATHER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignUpWindow     time.Duration `envconfig:"TRIPGATHER_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignUpEmailLimit int           `envconfig:"TRIPGATHER_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignUpIPLimit    int           `envconfig:"TRIPGATHER_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRIPGATHER_AUTO_MIGRATE" default:"false"`
}

// RealtimeConfig tunes the websocket hub and its cross-instance relay.
type RealtimeConfig struct {
	RedisChannel string        `envconfig:"TRIPGATHER_REALTIME_REDIS_CHANNEL" default:"tripgather:realtime"`
	UseRedis     bool          `envconfig:"TRIPGATHER_REALTIME_USE_REDIS" default:"true"`
	WriteWait    time.Duration `envconfig:"TRIPGATHER_REALTIME_WRITE_WAIT" default:"10s"`
	PongWait     time.Duration `envconfig:"TRIPGATHER_REALTIME_PONG_WAIT" default:"60s"`
	SendBuffer   int           `envconfig:"TRIPGATHER_REALTIME_SEND_BUFFER" default:"256"`
}

type GCPConfig struct {
	CredentialsJSON        string `envconfig:"TRIPGATHER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TRIPGATHER_GOOGLE_APPLICATION_CREDENTIALS"`
}

// StorageConfig points group images at a GCS bucket. An empty bucket disables uploads.
type StorageConfig struct {
	BucketName    string `envconfig:"TRIPGATHER_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"TRIPGATHER_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

// Enabled reports whether a bucket has been configured.
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.BucketName) != ""
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"TRIPGATHER_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured megabytes into a byte ceiling.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"TRIPGATHER_CRON_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"TRIPGATHER_CRON_LOCK_TTL" default:"55m"`
	LonelyDMEnabled bool          `envconfig:"TRIPGATHER_CRON_LONELY_DM_ENABLED" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
