package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server      ServerConfig     `env:",prefix=SERVER_"`
	Postgres    PostgresConfig   `env:",prefix=POSTGRES_"`
	DatabaseURL string           `env:"DATABASE_URL"`
	Redis       RedisConfig      `env:",prefix=REDIS_"`
	JWT         JWTConfig        `env:",prefix=JWT_"`
	Security    SecurityConfig   `env:",prefix="`
	CORS        CORSConfig       `env:",prefix=CORS_"`
	Log         LogConfig        `env:",prefix=LOG_"`
	Upload      UploadConfig     `env:",prefix=UPLOAD_"`
	S3          S3Config         `env:",prefix=S3_"`
	Notify      NotifyConfig     `env:",prefix=NOTIFY_"`
	Migrations  MigrationsConfig `env:",prefix=MIGRATE_"`
	Env         string           `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`

	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

type PostgresConfig struct {
	Host           string   `env:"HOST,default=localhost"`
	Port           string   `env:"PORT,default=5432"`
	User           string   `env:"USER,default=pages_service"`
	Password       string   `env:"PASSWORD,default=pages_service_password"`
	DBName         string   `env:"DB,default=pages_service_db"`
	SSLMode        string   `env:"SSLMODE,default=disable"`
	ConnectTimeout int      `env:"CONNECT_TIMEOUT,default=10"`
	MaxOpenConns   int      `env:"MAX_OPEN_CONNS,default=10"`
	MaxIdleConns   int      `env:"MAX_IDLE_CONNS,default=5"`
	MaxIdleTime    Duration `env:"MAX_IDLE_TIME,default=30s"`
}

type RedisConfig struct {
	Enabled  bool   `env:"ENABLED,default=false"`
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
	PoolSize int    `env:"POOL_SIZE,default=10"`
}

type JWTConfig struct {
	Secret             string   `env:"SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=1h"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=7d"`
	ResetTokenExpiry   Duration `env:"RESET_TOKEN_EXPIRY,default=1h"`
}

// RateLimit is a request budget within a fixed window
type RateLimit struct {
	Requests int
	Window   Duration
}

type SecurityConfig struct {
	BCryptCost     int    `env:"BCRYPT_COST,default=12"`
	RateLimitStore string `env:"RATE_LIMIT_STORE,default=memory"`

	RegisterLimit        int      `env:"RATE_LIMIT_REGISTER_REQUESTS,default=5"`
	RegisterWindow       Duration `env:"RATE_LIMIT_REGISTER_WINDOW,default=15m"`
	LoginLimit           int      `env:"RATE_LIMIT_LOGIN_REQUESTS,default=10"`
	LoginWindow          Duration `env:"RATE_LIMIT_LOGIN_WINDOW,default=15m"`
	FailedLoginLimit     int      `env:"RATE_LIMIT_FAILED_LOGIN_REQUESTS,default=3"`
	FailedLoginWindow    Duration `env:"RATE_LIMIT_FAILED_LOGIN_WINDOW,default=5m"`
	ForgotPasswordLimit  int      `env:"RATE_LIMIT_FORGOT_PASSWORD_REQUESTS,default=3"`
	ForgotPasswordWindow Duration `env:"RATE_LIMIT_FORGOT_PASSWORD_WINDOW,default=15m"`
	ResetPasswordLimit   int      `env:"RATE_LIMIT_RESET_PASSWORD_REQUESTS,default=5"`
	ResetPasswordWindow  Duration `env:"RATE_LIMIT_RESET_PASSWORD_WINDOW,default=15m"`

	APIRatePerSecond float64 `env:"API_RATE_PER_SECOND,default=50"`
	APIRateBurst     int     `env:"API_RATE_BURST,default=100"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

type LogConfig struct {
	Level      string `env:"LEVEL,default=info"`
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB,default=100"`
	MaxBackups int    `env:"MAX_BACKUPS,default=5"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS,default=30"`
	Compress   bool   `env:"COMPRESS,default=true"`
}

type UploadConfig struct {
	Driver      string `env:"DRIVER,default=local"`
	Dir         string `env:"DIR,default=public/images/users"`
	URLPrefix   string `env:"URL_PREFIX,default=/images/users"`
	MaxBytes    int64  `env:"MAX_BYTES,default=5242880"`
	Concurrency int64  `env:"CONCURRENCY,default=4"`
}

type S3Config struct {
	Bucket        string `env:"BUCKET"`
	Region        string `env:"REGION,default=us-east-1"`
	Endpoint      string `env:"ENDPOINT"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
	KeyPrefix     string `env:"KEY_PREFIX,default=images/users"`
}

type NotifyConfig struct {
	Driver       string `env:"DRIVER,default=log"`
	ResetURL     string `env:"RESET_URL,default=http://localhost:3000/reset-password"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=465"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	From         string `env:"FROM,default=no-reply@localhost"`
	Concurrency  int    `env:"WORKER_CONCURRENCY,default=5"`
}

type MigrationsConfig struct {
	OnStart bool   `env:"ON_START,default=false"`
	Token   string `env:"TOKEN"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode, p.ConnectTimeout)
}

// PostgresDSN prefers DATABASE_URL over the discrete settings
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.Postgres.DSN()
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func (s SecurityConfig) Register() RateLimit {
	return RateLimit{Requests: s.RegisterLimit, Window: s.RegisterWindow}
}

func (s SecurityConfig) Login() RateLimit {
	return RateLimit{Requests: s.LoginLimit, Window: s.LoginWindow}
}

func (s SecurityConfig) FailedLogin() RateLimit {
	return RateLimit{Requests: s.FailedLoginLimit, Window: s.FailedLoginWindow}
}

func (s SecurityConfig) ForgotPassword() RateLimit {
	return RateLimit{Requests: s.ForgotPasswordLimit, Window: s.ForgotPasswordWindow}
}

func (s SecurityConfig) ResetPassword() RateLimit {
	return RateLimit{Requests: s.ResetPasswordLimit, Window: s.ResetPasswordWindow}
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	switch c.Security.RateLimitStore {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("RATE_LIMIT_STORE=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q", c.Security.RateLimitStore)
	}

	switch c.Upload.Driver {
	case "local":
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("UPLOAD_DRIVER=s3 requires S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown UPLOAD_DRIVER %q", c.Upload.Driver)
	}

	switch c.Notify.Driver {
	case "log":
	case "smtp":
		if c.Notify.SMTPHost == "" {
			return fmt.Errorf("NOTIFY_DRIVER=smtp requires NOTIFY_SMTP_HOST")
		}
	case "queue":
		if !c.Redis.Enabled {
			return fmt.Errorf("NOTIFY_DRIVER=queue requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_DRIVER %q", c.Notify.Driver)
	}

	return nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
