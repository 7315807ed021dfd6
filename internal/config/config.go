package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Token    TokenConfig    `env:",prefix=TOKEN_"`
	Identity IdentityConfig `env:",prefix=IDENTITY_"`
	IDGen    IDGenConfig    `env:",prefix=IDGEN_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=identity_service"`
	Password string `env:"PASSWORD,default=identity_service_password"`
	DBName   string `env:"DB,default=identity_service_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// TokenConfig governs issued credentials: the HS256 secret and expiry for
// stateless access credentials, and the lifetime of stored refresh tokens.
type TokenConfig struct {
	Secret             string   `env:"SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=1h"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=7d"`
}

// IdentityConfig points at the external identity provider. Audience is the
// OAuth client id expected in verified ID tokens.
type IdentityConfig struct {
	IssuerURL string `env:"ISSUER_URL,default=https://accounts.google.com"`
	Audience  string `env:"AUDIENCE,required"`
}

// IDGenConfig configures the display-id generator. NodeID must be unique
// per running instance (0-1023).
type IDGenConfig struct {
	NodeID     int64 `env:"NODE_ID,default=0"`
	MaxRetries int   `env:"MAX_RETRIES,default=3"`
}

type SecurityConfig struct {
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.Token.Secret) < 32 {
		return nil, fmt.Errorf("TOKEN_SECRET must be at least 32 characters long")
	}

	if config.IDGen.NodeID < 0 || config.IDGen.NodeID > 1023 {
		return nil, fmt.Errorf("IDGEN_NODE_ID must be between 0 and 1023")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
