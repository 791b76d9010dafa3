package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Mail      MailConfig      `mapstructure:"mail"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	VerifyToken string `mapstructure:"verify_token"`
}

type StorageConfig struct {
	// Backend selects the context store: postgres, file or memory.
	Backend string `mapstructure:"backend"`
	// FilePath backs the file store; the ledger lives next to it.
	FilePath string `mapstructure:"file_path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	IntentModel string        `mapstructure:"intent_model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Retries     int           `mapstructure:"retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type MailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	FetchCount   int    `mapstructure:"fetch_count"`
}

type WhatsAppConfig struct {
	// Provider selects the notifier: twilio, meta or telegram.
	Provider string `mapstructure:"provider"`
	// To is the identity that receives inbox alerts.
	To string `mapstructure:"to"`

	TwilioAccountSID string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken  string `mapstructure:"twilio_auth_token"`
	TwilioFrom       string `mapstructure:"twilio_from"`

	MetaPhoneNumberID string `mapstructure:"meta_phone_number_id"`
	MetaAccessToken   string `mapstructure:"meta_access_token"`

	TelegramToken string `mapstructure:"telegram_token"`
}

type SchedulerConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
	ReminderWindow   time.Duration `mapstructure:"reminder_window"`
	MenuSize         int           `mapstructure:"menu_size"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", 5000)
	v.SetDefault("storage.backend", "postgres")
	v.SetDefault("storage.file_path", "context.json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "email_bot_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.1-8b-instant")
	v.SetDefault("llm.intent_model", "llama-3.1-8b-instant")
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.retries", 5)
	v.SetDefault("llm.retry_delay", 2*time.Second)
	v.SetDefault("mail.fetch_count", 3)
	v.SetDefault("whatsapp.provider", "twilio")
	v.SetDefault("scheduler.poll_interval", 5*time.Minute)
	v.SetDefault("scheduler.reminder_interval", time.Hour)
	v.SetDefault("scheduler.reminder_window", 24*time.Hour)
	v.SetDefault("scheduler.menu_size", 3)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// Secrets usually arrive through the environment, not the config file.
	if key := v.GetString("GROQ_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if key := v.GetString("OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if sid := v.GetString("TWILIO_ACCOUNT_SID"); sid != "" {
		config.WhatsApp.TwilioAccountSID = sid
	}
	if tok := v.GetString("TWILIO_AUTH_TOKEN"); tok != "" {
		config.WhatsApp.TwilioAuthToken = tok
	}
	if tok := v.GetString("META_ACCESS_TOKEN"); tok != "" {
		config.WhatsApp.MetaAccessToken = tok
	}
	if tok := v.GetString("META_VERIFY_TOKEN"); tok != "" {
		config.Server.VerifyToken = tok
	}
	if tok := v.GetString("TELEGRAM_TOKEN"); tok != "" {
		config.WhatsApp.TelegramToken = tok
	}
	if tok := v.GetString("GMAIL_REFRESH_TOKEN"); tok != "" {
		config.Mail.RefreshToken = tok
	}

	return &config, nil
}
