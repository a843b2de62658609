package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrEmptySourceURL  = errors.New("error getting YW_SOURCE_URL: variable not specified or contains an empty string")
	ErrEmptyFolderID   = errors.New("error getting YW_DRIVE_FOLDER_ID: required by the drive store backend")
	ErrEmptyRecipients = errors.New("error getting YW_MAIL_TO: at least one recipient is required for email delivery")
	ErrEmptyChatIDs    = errors.New("error getting YW_TELEGRAM_CHAT_IDS: at least one chat is required for telegram delivery")
	ErrUnknownBackend  = errors.New("unknown YW_STORE_BACKEND, available: drive, sqlite")
	ErrUnknownNotifier = errors.New("unknown YW_NOTIFIER, available: smtp, resend, telegram, noop")
	ErrInvalidChatID   = errors.New("YW_TELEGRAM_CHAT_IDS must hold integer chat ids")
	ErrInvalidSegment  = errors.New("YW_SOURCE_ID_SEGMENT must be at least 1")
	ErrInvalidTimeout  = errors.New("YW_SOURCE_TIMEOUT must be a positive duration")
)

const (
	BackendDrive  = "drive"
	BackendSQLite = "sqlite"

	NotifierSMTP     = "smtp"
	NotifierResend   = "resend"
	NotifierTelegram = "telegram"
	NotifierNoop     = "noop"
)

type Config struct {
	Env      string // Env is the current environment: local, development, production.
	WorkDir  string // WorkDir holds the local artifacts of a run.
	Source   Source
	Store    Store
	Mail     Mail
	Notifier string
	SMTP     SMTP
	Resend   Resend
	Tg       Telegram
	Workbook bool
	Metrics  Metrics
}

// Source describes the listing page request.
type Source struct {
	URL            string
	UserAgent      string
	Referer        string
	AcceptLanguage string
	Timeout        time.Duration
	IDSegment      int
}

type Store struct {
	Backend         string
	DriveFolderID   string
	CredentialsFile string
	SQLitePath      string
}

type Mail struct {
	From    string
	To      []string
	Subject string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
}

type Resend struct {
	APIKey string
}

type Telegram struct {
	Token   string  // Token is an unique telegram bot token.
	ChatIDs []int64 // ChatIDs receive the plain-text report.
}

type Metrics struct {
	PushgatewayURL string
	Job            string
}

// LoadEnvFile loads variables from a dotenv file. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	return nil
}

// Load reads the configuration from environment variables and an optional
// config file, each falling back to a default, and validates it.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Automatically binds environment variables to config keys
	v.SetEnvPrefix("YW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// optional args
	v.SetDefault("ENV", "production")
	v.SetDefault("WORK_DIR", ".")
	v.SetDefault("SOURCE_URL", "https://yachts360.com/boats-for-sale/?page=1&pp=250&view=list")
	v.SetDefault("SOURCE_USER_AGENT",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36")
	v.SetDefault("SOURCE_REFERER", "https://yachts360.com/")
	v.SetDefault("SOURCE_ACCEPT_LANGUAGE", "en-US,en;q=0.9")
	v.SetDefault("SOURCE_TIMEOUT", "60s")
	v.SetDefault("SOURCE_ID_SEGMENT", 1)
	v.SetDefault("STORE_BACKEND", BackendDrive)
	v.SetDefault("DRIVE_CREDENTIALS_FILE", "creds.json")
	v.SetDefault("SQLITE_PATH", "yacht-watch.db")
	v.SetDefault("NOTIFIER", NotifierSMTP)
	v.SetDefault("MAIL_SUBJECT", "Yacht Listings Changes")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("WORKBOOK_ENABLED", false)
	v.SetDefault("PUSHGATEWAY_JOB", "yacht_watch")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Env:     v.GetString("ENV"),
		WorkDir: v.GetString("WORK_DIR"),
		Source: Source{
			URL:            v.GetString("SOURCE_URL"),
			UserAgent:      v.GetString("SOURCE_USER_AGENT"),
			Referer:        v.GetString("SOURCE_REFERER"),
			AcceptLanguage: v.GetString("SOURCE_ACCEPT_LANGUAGE"),
			Timeout:        v.GetDuration("SOURCE_TIMEOUT"),
			IDSegment:      v.GetInt("SOURCE_ID_SEGMENT"),
		},
		Store: Store{
			Backend:         strings.ToLower(v.GetString("STORE_BACKEND")),
			DriveFolderID:   v.GetString("DRIVE_FOLDER_ID"),
			CredentialsFile: v.GetString("DRIVE_CREDENTIALS_FILE"),
			SQLitePath:      v.GetString("SQLITE_PATH"),
		},
		Mail: Mail{
			From:    v.GetString("MAIL_FROM"),
			To:      splitList(v.GetString("MAIL_TO")),
			Subject: v.GetString("MAIL_SUBJECT"),
		},
		Notifier: strings.ToLower(v.GetString("NOTIFIER")),
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
		},
		Resend:   Resend{APIKey: v.GetString("RESEND_API_KEY")},
		Tg:       Telegram{Token: v.GetString("TELEGRAM_TOKEN")},
		Workbook: v.GetBool("WORKBOOK_ENABLED"),
		Metrics: Metrics{
			PushgatewayURL: v.GetString("PUSHGATEWAY_URL"),
			Job:            v.GetString("PUSHGATEWAY_JOB"),
		},
	}

	chatIDs, err := parseChatIDs(v.GetString("TELEGRAM_CHAT_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.Tg.ChatIDs = chatIDs

	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.SMTP.Username
	}

	if err = cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Source.URL == "" {
		return ErrEmptySourceURL
	}
	if c.Source.IDSegment < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSegment, c.Source.IDSegment)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidTimeout, c.Source.Timeout)
	}

	switch c.Store.Backend {
	case BackendDrive:
		if c.Store.DriveFolderID == "" {
			return ErrEmptyFolderID
		}
	case BackendSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}

	switch c.Notifier {
	case NotifierSMTP, NotifierResend:
		if len(c.Mail.To) == 0 {
			return ErrEmptyRecipients
		}
	case NotifierTelegram:
		if len(c.Tg.ChatIDs) == 0 {
			return ErrEmptyChatIDs
		}
	case NotifierNoop:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNotifier, c.Notifier)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func parseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(s) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidChatID, part)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
