// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Pipeline PipelineConfig
	Upload   UploadConfig
	MinIO    MinIOConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Port        string `validate:"required,numeric"`
	Env         string `validate:"oneof=development production test"`
	CORSOrigins []string
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn warning error"`
}

type PipelineConfig struct {
	TickInterval time.Duration `validate:"gt=0"`
	Seed         uint64
}

type UploadConfig struct {
	MaxFiles      int   `validate:"gte=1"`
	MaxFileSize   int64 `validate:"gte=1"`
	RatePerMinute int   `validate:"gte=0"`
}

type MinIOConfig struct {
	Enabled    bool
	Endpoint   string `validate:"required_if=Enabled true"`
	AccessKey  string
	SecretKey  string
	Bucket     string `validate:"required_if=Enabled true"`
	UseSSL     bool
	PresignTTL time.Duration `validate:"gt=0"`
}

type DatabaseConfig struct {
	DSN string
}

// Load reads config.yaml (optional) and the environment. Environment keys
// use underscores, e.g. PIPELINE_TICK_INTERVAL or MINIO_ENDPOINT.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORT is what most hosting platforms inject.
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.cors_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("log.level", "info")
	v.SetDefault("pipeline.tick_interval", "800ms")
	v.SetDefault("pipeline.seed", 0)
	v.SetDefault("upload.max_files", 50)
	v.SetDefault("upload.max_file_size", 2<<30)
	v.SetDefault("upload.rate_per_minute", 30)
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "cardiac-wsi")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.presign_ttl", "1h")
	v.SetDefault("database.dsn", "")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:        v.GetString("server.port"),
			Env:         v.GetString("server.env"),
			CORSOrigins: splitList(v.GetString("server.cors_origins")),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("log.level")),
		},
		Pipeline: PipelineConfig{
			TickInterval: v.GetDuration("pipeline.tick_interval"),
			Seed:         v.GetUint64("pipeline.seed"),
		},
		Upload: UploadConfig{
			MaxFiles:      v.GetInt("upload.max_files"),
			MaxFileSize:   v.GetInt64("upload.max_file_size"),
			RatePerMinute: v.GetInt("upload.rate_per_minute"),
		},
		MinIO: MinIOConfig{
			Enabled:    v.GetBool("minio.enabled"),
			Endpoint:   v.GetString("minio.endpoint"),
			AccessKey:  v.GetString("minio.access_key"),
			SecretKey:  v.GetString("minio.secret_key"),
			Bucket:     v.GetString("minio.bucket"),
			UseSSL:     v.GetBool("minio.use_ssl"),
			PresignTTL: v.GetDuration("minio.presign_ttl"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("database.dsn"),
		},
	}
}

var validate = validator.New()

func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
