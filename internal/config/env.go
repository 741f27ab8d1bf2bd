package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL     string        `yaml:"database_url"`
	SslCertPath     string        `yaml:"ssl_cert_path"`
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	AwsAccessKey    string        `yaml:"aws_access_key"`
	AwsSecretKey    string        `yaml:"aws_secret_key"`
	AwsRegion       string        `yaml:"aws_region"`
	BucketName      string        `yaml:"bucket_name"`
	AIAPIKey        string        `yaml:"gemini_api_key"`
	GenModel        string        `yaml:"gen_model"`
	GenSystemPrompt string        `yaml:"gen_system_prompt"`
	GenTimeout      time.Duration `yaml:"gen_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	Port            string        `yaml:"port"`
	LogMode         string        `yaml:"log_mode"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		TokenTTL:       24 * time.Hour,
		AwsRegion:      "us-east-2",
		GenModel:       "gemini-1.5-flash",
		GenTimeout:     60 * time.Second,
		MaxUploadBytes: 10 << 20,
		AllowedOrigins: []string{"http://localhost:5173"},
		Port:           "8080",
		LogMode:        "dev",
	}
}

// LoadConfig loads .env, then the optional CONFIG_FILE yaml overlay, then the
// environment. Later sources win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SslCertPath = getEnv("SSL_CERT_PATH", cfg.SslCertPath)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.TokenTTL)
	cfg.AwsAccessKey = getEnv("AWS_ACCESS_KEY", cfg.AwsAccessKey)
	cfg.AwsSecretKey = getEnv("AWS_SECRET_KEY", cfg.AwsSecretKey)
	cfg.AwsRegion = getEnv("AWS_REGION", cfg.AwsRegion)
	cfg.BucketName = getEnv("BUCKET_NAME", cfg.BucketName)
	cfg.AIAPIKey = getEnv("GEMINI_API_KEY", cfg.AIAPIKey)
	cfg.GenModel = getEnv("GEN_MODEL", cfg.GenModel)
	cfg.GenSystemPrompt = getEnv("GEN_SYSTEM_PROMPT", cfg.GenSystemPrompt)
	cfg.GenTimeout = getEnvDuration("GEN_TIMEOUT", cfg.GenTimeout)
	cfg.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogMode = getEnv("LOG_MODE", cfg.LogMode)
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or nonsensical setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET not set"))
	}
	if c.GenTimeout <= 0 {
		errs = append(errs, errors.New("GEN_TIMEOUT must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.BucketName != "" && (c.AwsAccessKey == "" || c.AwsSecretKey == "") {
		errs = append(errs, errors.New("BUCKET_NAME set but AWS_ACCESS_KEY/AWS_SECRET_KEY missing"))
	}
	return errors.Join(errs...)
}

// ArchiveEnabled reports whether uploaded sheets are copied to object storage.
func (c *Config) ArchiveEnabled() bool { return c.BucketName != "" }

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
