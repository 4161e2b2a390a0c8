package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/kmf-ai/server/internal/llm"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config is the full service configuration, sourced from the environment
// (and a .env file for local runs).
type Config struct {
	Env string `envconfig:"APP_ENV" default:"development"`

	HTTP  HTTPConfig
	Log   LogConfig
	Store StoreConfig
	Redis RedisConfig
	Model ModelConfig
	Chat  ChatConfig
	Tools ToolsConfig
}

type HTTPConfig struct {
	Port            string        `envconfig:"HTTP_PORT" default:"8080"`
	APIToken        string        `envconfig:"API_TOKEN"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY"`
}

type StoreConfig struct {
	Driver   string `envconfig:"STORE_DRIVER" default:"mongo"`
	URI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	Database string `envconfig:"EXAMS_DATABASE_NAME" default:"kcse_exams_edb"`
	Fixture  string `envconfig:"STORE_FIXTURE"`
	// SearchPerSubject caps each subject's share of an all-subject search.
	SearchPerSubject int `envconfig:"STORE_SEARCH_PER_SUBJECT" default:"20"`
}

// RedisConfig enables the metadata cache when URL is set.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	TTL          time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

type ModelConfig struct {
	Provider      string  `envconfig:"MODEL_PROVIDER" default:"gemini"`
	Name          string  `envconfig:"MODEL"`
	Temperature   float32 `envconfig:"MODEL_TEMPERATURE" default:"0.2"`
	GeminiAPIKey  string  `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey  string  `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string  `envconfig:"OPENAI_BASE_URL"`
}

type ChatConfig struct {
	MaxRounds  int           `envconfig:"CHAT_MAX_ROUNDS" default:"5"`
	ChunkDelay time.Duration `envconfig:"CHAT_CHUNK_DELAY" default:"100ms"`
}

// ToolsConfig holds the default result limits and question_text budgets of
// the query tools.
type ToolsConfig struct {
	SubjectLimit    int `envconfig:"TOOLS_SUBJECT_LIMIT" default:"20"`
	TopicLimit      int `envconfig:"TOOLS_TOPIC_LIMIT" default:"15"`
	DifficultyLimit int `envconfig:"TOOLS_DIFFICULTY_LIMIT" default:"15"`
	FormLimit       int `envconfig:"TOOLS_FORM_LIMIT" default:"15"`
	SearchLimit     int `envconfig:"TOOLS_SEARCH_LIMIT" default:"20"`

	SubjectTextLen    int `envconfig:"TOOLS_SUBJECT_TEXT_LEN" default:"200"`
	YearTextLen       int `envconfig:"TOOLS_YEAR_TEXT_LEN" default:"200"`
	PaperTextLen      int `envconfig:"TOOLS_PAPER_TEXT_LEN" default:"300"`
	TopicTextLen      int `envconfig:"TOOLS_TOPIC_TEXT_LEN" default:"250"`
	DifficultyTextLen int `envconfig:"TOOLS_DIFFICULTY_TEXT_LEN" default:"250"`
	FormTextLen       int `envconfig:"TOOLS_FORM_TEXT_LEN" default:"250"`
	SearchTextLen     int `envconfig:"TOOLS_SEARCH_TEXT_LEN" default:"300"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Environment() Environment {
	return ParseEnvironment(c.Env)
}

// Validate checks the combinations envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMongo:
		if c.Store.URI == "" {
			return fmt.Errorf("config: MONGODB_URI is required for the mongo store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Model.Provider {
	case llm.ProviderGemini:
	case llm.ProviderOpenAI:
		if c.Model.OpenAIAPIKey == "" {
			return fmt.Errorf("config: OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("config: unknown MODEL_PROVIDER %q", c.Model.Provider)
	}

	if c.Chat.MaxRounds < 1 {
		return fmt.Errorf("config: CHAT_MAX_ROUNDS must be at least 1, got %d", c.Chat.MaxRounds)
	}

	if c.Chat.ChunkDelay < 0 {
		return fmt.Errorf("config: CHAT_CHUNK_DELAY must not be negative")
	}

	return nil
}
