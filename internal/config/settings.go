package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	PublicHost string `mapstructure:"public_host"`
}

type OpenAIConfig struct {
	APIKey          string `mapstructure:"api_key"`
	RealtimeURL     string `mapstructure:"realtime_url"`
	RealtimeModel   string `mapstructure:"realtime_model"`
	CompletionModel string `mapstructure:"completion_model"`
	EmbeddingModel  string `mapstructure:"embedding_model"`
	Voice           string `mapstructure:"voice"`
}

type TwilioConfig struct {
	AccountSID     string `mapstructure:"account_sid"`
	AuthToken      string `mapstructure:"auth_token"`
	APIBaseURL     string `mapstructure:"api_base_url"`
	SupportNumber  string `mapstructure:"support_number"`
	RecordCalls    bool   `mapstructure:"record_calls"`
	RecordingDelay int    `mapstructure:"recording_delay_secs"`
	FromNumber     string `mapstructure:"from_number"`
}

type QdrantConfig struct {
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Name)
}

type EmbeddingConfig struct {
	Provider     string `mapstructure:"provider"` // "openai" or "gemini"
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
}

// RelayConfig tunes the per-call relay loops. Durations are seconds in the
// config file to keep viper unmarshalling simple.
type RelayConfig struct {
	WatchdogIntervalSecs int    `mapstructure:"watchdog_interval_secs"`
	IdleCeilingSecs      int    `mapstructure:"idle_ceiling_secs"`
	FillerAudioPath      string `mapstructure:"filler_audio_path"`
	Introduction         string `mapstructure:"introduction"`
}

func (r RelayConfig) WatchdogInterval() time.Duration {
	if r.WatchdogIntervalSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(r.WatchdogIntervalSecs) * time.Second
}

func (r RelayConfig) IdleCeiling() time.Duration {
	if r.IdleCeilingSecs <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(r.IdleCeilingSecs) * time.Second
}

type Settings struct {
	Server       ServerConfig    `mapstructure:"server"`
	OpenAI       OpenAIConfig    `mapstructure:"openai"`
	Twilio       TwilioConfig    `mapstructure:"twilio"`
	Qdrant       QdrantConfig    `mapstructure:"qdrant"`
	Redis        RedisConfig     `mapstructure:"redis"`
	DB           DBConfig        `mapstructure:"database"`
	Embedding    EmbeddingConfig `mapstructure:"embedding"`
	Relay        RelayConfig     `mapstructure:"relay"`
	SessionStore string          `mapstructure:"session_store"` // "memory" or "redis"
	Env          string          `mapstructure:"env"`
	Debug        bool            `mapstructure:"debug"`
}

func Load() (*Settings, error) {
	viper.SetConfigName("config_" + genEnv())
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&settings)

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Validate enforces the credentials without which the service must not
// accept calls.
func (s *Settings) Validate() error {
	if s.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if s.Twilio.AccountSID == "" || s.Twilio.AuthToken == "" {
		return fmt.Errorf("twilio account_sid and auth_token are required")
	}
	if s.Qdrant.URL == "" {
		return fmt.Errorf("qdrant.url is required")
	}
	if s.SessionStore == "redis" && s.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when session_store is redis")
	}
	if s.Embedding.Provider == "gemini" && s.Embedding.GeminiAPIKey == "" {
		return fmt.Errorf("embedding.gemini_api_key is required when provider is gemini")
	}
	return nil
}

func applyDefaults(s *Settings) {
	if s.Server.Port == 0 {
		s.Server.Port = 5050
	}
	if s.OpenAI.RealtimeURL == "" {
		s.OpenAI.RealtimeURL = "wss://api.openai.com/v1/realtime"
	}
	if s.OpenAI.RealtimeModel == "" {
		s.OpenAI.RealtimeModel = "gpt-4o-realtime-preview-2024-10-01"
	}
	if s.OpenAI.CompletionModel == "" {
		s.OpenAI.CompletionModel = "gpt-4o-mini"
	}
	if s.OpenAI.EmbeddingModel == "" {
		s.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if s.OpenAI.Voice == "" {
		s.OpenAI.Voice = "alloy"
	}
	if s.Twilio.APIBaseURL == "" {
		s.Twilio.APIBaseURL = "https://api.twilio.com"
	}
	if s.Qdrant.Collection == "" {
		s.Qdrant.Collection = "knowledge_base"
	}
	if s.Embedding.Provider == "" {
		s.Embedding.Provider = "openai"
	}
	if s.SessionStore == "" {
		s.SessionStore = "memory"
	}
}

func genEnv() string {
	env := viper.GetString("ENV")
	if env == "" {
		return "dev"
	}
	return env
}
