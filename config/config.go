// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration resolved at startup.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string
	// LogFormat is "json" or "text".
	LogFormat string
	// CORSAllowedOrigins empty means any origin, without credentials.
	CORSAllowedOrigins []string

	MongoURI      string
	MongoDatabase string
	RedisURL      string

	NewsAPIKey         string
	FirecrawlAPIKey    string
	FirecrawlServerURL string
	UnsplashAccessKey  string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string

	MailjetAPIKey        string
	MailjetAPISecret     string
	MailjetSenderName    string
	MailjetSenderEmail   string
	MailjetContactListID int64
	MailjetBaseURL       string

	MJMLTemplatePath string
	MJMLBinary       string

	RunsListLimit     int
	WindowHours       int
	MaxSections       int
	WorkerConcurrency int
	TopicPresetsFile  string

	HTTPConnectTimeout time.Duration
	HTTPReadTimeout    time.Duration
	LLMTimeout         time.Duration
	ImageTimeout       time.Duration
	RenderTimeout      time.Duration
}

// Load reads a .env file when present and then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "newsletter"),
		RedisURL:      os.Getenv("REDIS_URL"),

		NewsAPIKey:         os.Getenv("NEWSAPI_KEY"),
		FirecrawlAPIKey:    os.Getenv("FIRECRAWL_API_KEY"),
		FirecrawlServerURL: strings.TrimRight(getEnv("FIRECRAWL_SERVER_URL", "https://api.firecrawl.dev"), "/"),
		UnsplashAccessKey:  os.Getenv("UNSPLASH_ACCESS_KEY"),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: strings.TrimRight(getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"), "/"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "gpt-4o-mini"),

		MailjetAPIKey:        os.Getenv("MAILJET_API_KEY"),
		MailjetAPISecret:     os.Getenv("MAILJET_API_SECRET"),
		MailjetSenderName:    getEnv("MAILJET_SENDER_NAME", "Weekly Brief"),
		MailjetSenderEmail:   getEnv("MAILJET_SENDER_EMAIL", "no-reply@example.com"),
		MailjetContactListID: int64(getEnvInt("MAILJET_CONTACT_LIST_ID", 0)),
		MailjetBaseURL:       strings.TrimRight(getEnv("MAILJET_BASE_URL", "https://api.mailjet.com/v3/REST"), "/"),

		MJMLTemplatePath: os.Getenv("MJML_TEMPLATE_PATH"),
		MJMLBinary:       getEnv("MJML_BINARY", "mjml"),

		RunsListLimit:     getEnvInt("RUNS_LIST_LIMIT", 10),
		WindowHours:       getEnvInt("WINDOW_HOURS", 72),
		MaxSections:       getEnvInt("MAX_SECTIONS", 5),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		TopicPresetsFile:  os.Getenv("TOPIC_PRESETS_FILE"),

		HTTPConnectTimeout: 5 * time.Second,
		HTTPReadTimeout:    15 * time.Second,
		LLMTimeout:         60 * time.Second,
		ImageTimeout:       20 * time.Second,
		RenderTimeout:      60 * time.Second,
	}
}

// NewsAPIEnabled reports whether the news aggregator has a credential.
func (c Config) NewsAPIEnabled() bool { return c.NewsAPIKey != "" }

// FirecrawlEnabled reports whether the search backend is usable.
func (c Config) FirecrawlEnabled() bool {
	return c.FirecrawlAPIKey != "" && c.FirecrawlServerURL != ""
}

// MailjetEnabled reports whether real email drafts can be created.
func (c Config) MailjetEnabled() bool {
	return c.MailjetAPIKey != "" && c.MailjetAPISecret != ""
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
