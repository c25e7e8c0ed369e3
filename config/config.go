package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the discovery service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Ranking   RankingConfig   `mapstructure:"ranking"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug             bool          `mapstructure:"debug"`
	LogLevel          string        `mapstructure:"log_level"`
	MaxProcessingTime time.Duration `mapstructure:"max_processing_time"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig configures the keyword-generation provider. BaseURL defaults
// to the Groq OpenAI-compatible endpoint; any chat-completions server works.
type LLMConfig struct {
	Type        string        `mapstructure:"type"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SourcesConfig holds per-source credentials and limits.
type SourcesConfig struct {
	Timeout    time.Duration   `mapstructure:"timeout"`
	Retries    int             `mapstructure:"retries"`
	Backoff    time.Duration   `mapstructure:"backoff"`
	Reddit     RedditConfig    `mapstructure:"reddit"`
	YouTube    YouTubeConfig   `mapstructure:"youtube"`
	Wikipedia  WikipediaConfig `mapstructure:"wikipedia"`
	News       NewsConfig      `mapstructure:"news"`
	MaxResults int             `mapstructure:"max_results"`
}

// RedditConfig configures the forum-discussion source. With no client
// credentials the fetcher falls back to the public JSON endpoint.
type RedditConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	Subreddits   []string `mapstructure:"subreddits"`
}

// YouTubeConfig configures the video-platform source.
type YouTubeConfig struct {
	APIKey     string `mapstructure:"api_key"`
	MaxResults int    `mapstructure:"max_results"`
}

// WikipediaConfig configures the encyclopedia source.
type WikipediaConfig struct {
	Language string `mapstructure:"language"`
}

// NewsConfig configures the news source ladder: Google CSE first, then
// NewsAPI, then a constructed Google News link.
type NewsConfig struct {
	GoogleCSEKey string `mapstructure:"google_cse_key"`
	GoogleCSEID  string `mapstructure:"google_cse_id"`
	NewsAPIKey   string `mapstructure:"newsapi_key"`
	MaxResults   int    `mapstructure:"max_results"`
}

// RankingConfig carries the scoring weights. The defaults were chosen
// empirically in the original system and are preserved as-is.
type RankingConfig struct {
	PrimaryInText      int `mapstructure:"primary_in_text"`
	PrimaryInContext   int `mapstructure:"primary_in_context"`
	SecondaryInText    int `mapstructure:"secondary_in_text"`
	WeightDiscussion   int `mapstructure:"weight_discussion"`
	WeightVideo        int `mapstructure:"weight_video"`
	WeightArticle      int `mapstructure:"weight_article"`
	WeightBackground   int `mapstructure:"weight_background"`
	SocialProofDivisor int `mapstructure:"social_proof_divisor"`
	SocialProofCap     int `mapstructure:"social_proof_cap"`
	CapDiscussion      int `mapstructure:"cap_discussion"`
	CapVideo           int `mapstructure:"cap_video"`
	CapArticle         int `mapstructure:"cap_article"`
	CapBackground      int `mapstructure:"cap_background"`
}

// Validate rejects weight configurations that would break cap invariants.
func (r RankingConfig) Validate() error {
	if r.CapDiscussion <= 0 || r.CapVideo <= 0 || r.CapArticle <= 0 || r.CapBackground <= 0 {
		return fmt.Errorf("ranking: category caps must be positive")
	}
	if r.SocialProofDivisor <= 0 {
		return fmt.Errorf("ranking: social_proof_divisor must be positive")
	}
	return nil
}

// StorageConfig contains persistence settings. Both stores are optional:
// the engine runs fully in-memory without them.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig configures the discovery-history store.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles a connection string from the individual fields unless a
// full URL was provided.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	if p.Host == "" || p.DBName == "" {
		return ""
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig configures the bundle cache.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// TelemetryConfig contains telemetry and monitoring settings.
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	PeriodicLogs bool `mapstructure:"periodic_logs"`
}

// LoadConfig reads configuration from file and environment. Defaults make
// the service runnable with zero configuration (every credential empty,
// every fetcher degrading to its keyless path).
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.max_processing_time", 45*time.Second)
	viper.SetDefault("general.user_agent", "ClipExplain/1.0")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("llm.type", "openai")
	viper.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.model", "openai/gpt-oss-120b")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 500)
	viper.SetDefault("llm.timeout", 30*time.Second)
	viper.SetDefault("sources.timeout", 10*time.Second)
	viper.SetDefault("sources.retries", 1)
	viper.SetDefault("sources.backoff", 300*time.Millisecond)
	viper.SetDefault("sources.max_results", 5)
	viper.SetDefault("sources.reddit.subreddits", []string{"movies", "television"})
	viper.SetDefault("sources.youtube.max_results", 6)
	viper.SetDefault("sources.wikipedia.language", "en")
	viper.SetDefault("sources.news.max_results", 6)
	viper.SetDefault("ranking.primary_in_text", 3)
	viper.SetDefault("ranking.primary_in_context", 1)
	viper.SetDefault("ranking.secondary_in_text", 1)
	viper.SetDefault("ranking.weight_discussion", 2)
	viper.SetDefault("ranking.weight_video", 2)
	viper.SetDefault("ranking.weight_article", 2)
	viper.SetDefault("ranking.weight_background", 1)
	viper.SetDefault("ranking.social_proof_divisor", 1000)
	viper.SetDefault("ranking.social_proof_cap", 5)
	viper.SetDefault("ranking.cap_discussion", 5)
	viper.SetDefault("ranking.cap_video", 6)
	viper.SetDefault("ranking.cap_article", 6)
	viper.SetDefault("ranking.cap_background", 4)
	viper.SetDefault("storage.redis.ttl", 15*time.Minute)
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.periodic_logs", false)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("CLIPEXPLAIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine: defaults plus env cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if err := config.Ranking.Validate(); err != nil {
		panic(err)
	}
	return &config
}
