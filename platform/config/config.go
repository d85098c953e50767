package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env                 string
	DatabaseURL         string
	RedisURL            string
	CredentialKey       []byte // 32-byte AES key for credential decryption
	SuppliersFile       string
	FTPTimeout          time.Duration
	FTPMaxRetries       int
	HTTPTimeout         time.Duration
	HTTPRetryAttempts   int
	PriceCacheTTL       time.Duration
	ArchiveEnabled      bool
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinIOBucket         string
	ReportEmailEnabled  bool
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	ReportFromAddress   string
	ReportToAddresses   []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	key, err := decodeKey(getEnv("CREDENTIAL_ENCRYPTION_KEY", ""))
	if err != nil {
		return nil, err
	}

	minioEndpoint := getEnv("MINIO_ENDPOINT", "")
	archiveEnabled := strings.EqualFold(getEnv("ARCHIVE_ENABLED", "true"), "true") && minioEndpoint != ""

	smtpHost := getEnv("SMTP_HOST", "")
	reportEnabled := strings.EqualFold(getEnv("REPORT_EMAIL_ENABLED", "true"), "true") && smtpHost != ""

	// A malformed timeout or retry count must fail the startup. Falling
	// back to zero would silently disable network timeouts.
	var envErrs []error
	duration := func(name, fallback string) time.Duration {
		d, err := time.ParseDuration(getEnv(name, fallback))
		if err != nil {
			envErrs = append(envErrs, fmt.Errorf("%s: %w", name, err))
		}
		return d
	}
	integer := func(name, fallback string) int {
		n, err := strconv.Atoi(getEnv(name, fallback))
		if err != nil {
			envErrs = append(envErrs, fmt.Errorf("%s: %w", name, err))
		}
		return n
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "localhost:6379"),
		CredentialKey:      key,
		SuppliersFile:      getEnv("SUPPLIERS_FILE", "suppliers.yaml"),
		FTPTimeout:         duration("FTP_TIMEOUT", "30s"),
		FTPMaxRetries:      integer("FTP_MAX_RETRIES", "2"),
		HTTPTimeout:        duration("HTTP_TIMEOUT", "30s"),
		HTTPRetryAttempts:  integer("HTTP_RETRY_ATTEMPTS", "3"),
		PriceCacheTTL:      duration("PRICE_CACHE_TTL", "24h"),
		ArchiveEnabled:     archiveEnabled,
		MinIOEndpoint:      minioEndpoint,
		MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucket:        getEnv("MINIO_BUCKET", "catalog-files"),
		ReportEmailEnabled: reportEnabled,
		SMTPHost:           smtpHost,
		SMTPPort:           integer("SMTP_PORT", "587"),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		ReportFromAddress:  getEnv("REPORT_FROM_ADDRESS", ""),
		ReportToAddresses:  splitCSV(getEnv("REPORT_TO_ADDRESSES", "")),
	}

	if len(envErrs) > 0 {
		return nil, errors.Join(envErrs...)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ArchiveEnabled && (cfg.MinIOAccessKey == "" || cfg.MinIOSecretKey == "") {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	if cfg.ReportEmailEnabled && (cfg.ReportFromAddress == "" || len(cfg.ReportToAddresses) == 0) {
		return nil, fmt.Errorf("REPORT_FROM_ADDRESS and REPORT_TO_ADDRESSES are required when report email is enabled")
	}

	return cfg, nil
}

func decodeKey(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("CREDENTIAL_ENCRYPTION_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("CREDENTIAL_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
