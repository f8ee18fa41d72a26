package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/semmidev/phylax-mongo/internal/infrastructure/scheduler"
	"github.com/semmidev/phylax-mongo/internal/infrastructure/timefmt"
)

const DefaultRetain = 10

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Export  ExportConfig  `mapstructure:"export"`
	Storage StorageConfig `mapstructure:"storage"`
	Backup  BackupConfig  `mapstructure:"backup"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

type AppConfig struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
}

type ExportConfig struct {
	Engine  string `mapstructure:"engine"`
	Command string `mapstructure:"command"`
	Options string `mapstructure:"options"`
}

type StorageConfig struct {
	Backend              string `mapstructure:"backend"`
	Bucket               string `mapstructure:"bucket"`
	StorageClass         string `mapstructure:"storage_class"`
	ServerSideEncryption string `mapstructure:"server_side_encryption"`

	// AWS S3
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`

	// Local filesystem
	LocalPath string `mapstructure:"local_path"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`
}

type BackupConfig struct {
	Prefix         string        `mapstructure:"prefix"`
	Filename       string        `mapstructure:"filename"`
	DateFormat     string        `mapstructure:"date_format"`
	Format         string        `mapstructure:"format"`
	StagingDir     string        `mapstructure:"staging_dir"`
	CleanupStaging bool          `mapstructure:"cleanup_staging"`
	UniqueSuffix   bool          `mapstructure:"unique_suffix"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Schedule       string        `mapstructure:"schedule"`

	// Retain is parsed leniently by Load, see parseRetain.
	Retain int `mapstructure:"-"`
}

type NotifyConfig struct {
	WebhookURL     string        `mapstructure:"webhook_url"`
	TelegramToken  string        `mapstructure:"telegram_token"`
	TelegramChatID string        `mapstructure:"telegram_chat_id"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

var envBindings = map[string][]string{
	"app.environment":                {"ENVIRONMENT"},
	"app.log_level":                  {"LOG_LEVEL"},
	"app.log_file":                   {"LOG_FILE"},
	"export.engine":                  {"EXPORT_ENGINE"},
	"export.command":                 {"EXPORT_COMMAND"},
	"export.options":                 {"MONGODUMP_OPTIONS", "EXPORT_OPTIONS"},
	"storage.backend":                {"STORAGE_BACKEND"},
	"storage.bucket":                 {"S3_BUCKET"},
	"storage.storage_class":          {"S3_STORAGE_CLASS"},
	"storage.server_side_encryption": {"S3_SSE"},
	"storage.region":                 {"AWS_REGION"},
	"storage.endpoint":               {"S3_ENDPOINT"},
	"storage.access_key":             {"AWS_ACCESS_KEY_ID"},
	"storage.secret_key":             {"AWS_SECRET_ACCESS_KEY"},
	"storage.local_path":             {"LOCAL_STORAGE_PATH"},
	"storage.credentials_file":       {"GDRIVE_CREDENTIALS_FILE"},
	"storage.folder_id":              {"GDRIVE_FOLDER_ID"},
	"backup.prefix":                  {"FOLDER_PREFIX"},
	"backup.filename":                {"ZIP_FILENAME"},
	"backup.date_format":             {"DATE_FORMAT"},
	"backup.retain":                  {"BACKUPS_TO_RETAIN"},
	"backup.format":                  {"ARCHIVE_FORMAT"},
	"backup.staging_dir":             {"STAGING_DIR"},
	"backup.cleanup_staging":         {"CLEANUP_STAGING"},
	"backup.unique_suffix":           {"UNIQUE_SUFFIX"},
	"backup.timeout":                 {"BACKUP_TIMEOUT"},
	"backup.schedule":                {"BACKUP_SCHEDULE"},
	"notify.webhook_url":             {"SLACK_WEBHOOK_URL", "NOTIFY_WEBHOOK_URL"},
	"notify.telegram_token":          {"TELEGRAM_BOT_TOKEN"},
	"notify.telegram_chat_id":        {"TELEGRAM_CHAT_ID"},
	"notify.timeout":                 {"NOTIFY_TIMEOUT"},
}

var defaultCommands = map[string]string{
	"mongodb":    "mongodump",
	"postgresql": "pg_dump",
	"mysql":      "mysqldump",
}

// Load reads the optional YAML file at path and overlays the environment.
// An empty path means environment and defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.environment", "unknown")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("export.engine", "mongodb")
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.storage_class", "STANDARD")
	v.SetDefault("storage.server_side_encryption", "AES256")
	v.SetDefault("backup.prefix", "mongodb_backups")
	v.SetDefault("backup.filename", "mongodb_backup")
	v.SetDefault("backup.date_format", timefmt.DefaultPattern)
	v.SetDefault("backup.retain", DefaultRetain)
	v.SetDefault("backup.format", "zip")
	v.SetDefault("backup.staging_dir", os.TempDir())
	v.SetDefault("backup.cleanup_staging", true)
	v.SetDefault("backup.unique_suffix", true)
	v.SetDefault("backup.timeout", 15*time.Minute)
	v.SetDefault("notify.timeout", 10*time.Second)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Backup.Retain = parseRetain(v.GetString("backup.retain"))

	if cfg.Export.Command == "" {
		cfg.Export.Command = defaultCommands[cfg.Export.Engine]
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// parseRetain falls back to DefaultRetain for anything that is not a
// non-negative integer. Zero is a legal value.
func parseRetain(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return DefaultRetain
	}
	return n
}

func (c *Config) Validate() error {
	if _, ok := defaultCommands[c.Export.Engine]; !ok {
		return fmt.Errorf("export.engine %q is not supported", c.Export.Engine)
	}

	switch c.Storage.Backend {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 backend")
		}
	case "local":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("storage.local_path is required for the local backend")
		}
	case "gdrive":
		if c.Storage.FolderID == "" {
			return fmt.Errorf("storage.folder_id is required for the gdrive backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}

	switch c.Backup.Format {
	case "zip", "tar.gz":
	default:
		return fmt.Errorf("backup.format %q is not supported", c.Backup.Format)
	}

	if strings.TrimSpace(c.Backup.Filename) == "" {
		return fmt.Errorf("backup.filename is required")
	}
	if c.Backup.StagingDir == "" {
		return fmt.Errorf("backup.staging_dir is required")
	}
	if c.Backup.Timeout <= 0 {
		return fmt.Errorf("backup.timeout must be positive")
	}

	if c.Backup.Schedule != "" {
		if _, err := scheduler.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("backup.schedule: %w", err)
		}
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		return fmt.Errorf("notify.telegram_token and notify.telegram_chat_id must be set together")
	}

	return nil
}

// NotificationsEnabled reports whether at least one channel is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.Notify.WebhookURL != "" || c.Notify.TelegramToken != ""
}
