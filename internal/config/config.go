package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Gemini   GeminiConfig
	Retry    RetryConfig
	Storage  StorageConfig
	Database DatabaseConfig
	History  HistoryConfig
	Redis    RedisConfig
	Qdrant   QdrantConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	RequestTimeout time.Duration
}

type GeminiConfig struct {
	APIKey          string
	Model           string
	EmbedModel      string
	MaxOutputTokens int32
	Temperature     float32
}

type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
}

type StorageConfig struct {
	Driver      string
	UploadPath  string
	MaxFileSize int64
	S3          S3Config
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type HistoryConfig struct {
	Enabled   bool
	Workers   int
	QueueSize int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	TopK       int
}

type LogConfig struct {
	Level  string
	Format string
}

var defaults = map[string]any{
	"PORT":                     "5000",
	"ENV":                      "development",
	"REQUEST_TIMEOUT":          "90s",
	"GEMINI_API_KEY":           "",
	"GEMINI_MODEL":             "gemini-2.5-flash",
	"GEMINI_EMBED_MODEL":       "text-embedding-004",
	"GEMINI_MAX_OUTPUT_TOKENS": 2048,
	"GEMINI_TEMPERATURE":       0.4,
	"RETRY_MAX_RETRIES":        3,
	"RETRY_INITIAL_DELAY":      "1s",
	"STORAGE_DRIVER":           "local",
	"UPLOAD_PATH":              "./uploads",
	"MAX_FILE_SIZE":            10 * 1024 * 1024,
	"S3_BUCKET":                "",
	"S3_REGION":                "auto",
	"S3_ENDPOINT":              "",
	"S3_ACCESS_KEY":            "",
	"S3_SECRET_KEY":            "",
	"DB_HOST":                  "localhost",
	"DB_PORT":                  "5432",
	"DB_USER":                  "postgres",
	"DB_PASSWORD":              "postgres",
	"DB_NAME":                  "resume_reviewer",
	"HISTORY_ENABLED":          false,
	"HISTORY_WORKERS":          2,
	"HISTORY_QUEUE_SIZE":       100,
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"CACHE_TTL":                "24h",
	"QDRANT_URL":               "",
	"QDRANT_API_KEY":           "",
	"QDRANT_COLLECTION":        "ats_guidelines",
	"GUIDANCE_TOP_K":           4,
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "json",
}

// Load reads an optional .env file, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and default values.")
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Env:            v.GetString("ENV"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Gemini: GeminiConfig{
			APIKey:          v.GetString("GEMINI_API_KEY"),
			Model:           v.GetString("GEMINI_MODEL"),
			EmbedModel:      v.GetString("GEMINI_EMBED_MODEL"),
			MaxOutputTokens: v.GetInt32("GEMINI_MAX_OUTPUT_TOKENS"),
			Temperature:     float32(v.GetFloat64("GEMINI_TEMPERATURE")),
		},
		Retry: RetryConfig{
			MaxRetries:   v.GetInt("RETRY_MAX_RETRIES"),
			InitialDelay: v.GetDuration("RETRY_INITIAL_DELAY"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("STORAGE_DRIVER")),
			UploadPath:  v.GetString("UPLOAD_PATH"),
			MaxFileSize: v.GetInt64("MAX_FILE_SIZE"),
			S3: S3Config{
				Bucket:    v.GetString("S3_BUCKET"),
				Region:    v.GetString("S3_REGION"),
				Endpoint:  v.GetString("S3_ENDPOINT"),
				AccessKey: v.GetString("S3_ACCESS_KEY"),
				SecretKey: v.GetString("S3_SECRET_KEY"),
			},
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
		},
		History: HistoryConfig{
			Enabled:   v.GetBool("HISTORY_ENABLED"),
			Workers:   v.GetInt("HISTORY_WORKERS"),
			QueueSize: v.GetInt("HISTORY_QUEUE_SIZE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: v.GetDuration("CACHE_TTL"),
		},
		Qdrant: QdrantConfig{
			URL:        v.GetString("QDRANT_URL"),
			APIKey:     v.GetString("QDRANT_API_KEY"),
			Collection: v.GetString("QDRANT_COLLECTION"),
			TopK:       v.GetInt("GUIDANCE_TOP_K"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// Validate reports settings that would make the service unusable.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES must not be negative, got %d", c.Retry.MaxRetries)
	}
	if c.Storage.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Storage.MaxFileSize)
	}
	if c.Storage.Driver != "local" && c.Storage.Driver != "s3" {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) GuidanceEnabled() bool {
	return c.Qdrant.URL != ""
}
