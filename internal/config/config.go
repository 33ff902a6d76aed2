package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	StoreDriver    string
	PostgresDSN    string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RedisPassword  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	SecretKey      string
	CORSOrigins    []string
	LogLevel       string
}

// Load reads the environment. Problems are reported by Validate.
func Load() *Config {
	return &Config{
		Port:           getenv("PORT", "5000"),
		StoreDriver:    strings.ToLower(getenv("STORE_DRIVER", DriverMongo)),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		MongoURI:       getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getenv("MONGO_DB", "blog"),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "blog-covers"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
		SecretKey:      getenv("SECRET_KEY", ""),
		CORSOrigins:    splitList(getenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.SecretKey == "" {
		problems = append(problems, "SECRET_KEY is required")
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required for the mongo driver")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			problems = append(problems, "POSTGRES_DSN is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.Port == "" {
		problems = append(problems, "PORT must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
