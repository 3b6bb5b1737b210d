package bootstrap

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	EnginePath        string        `mapstructure:"ENGINE_PATH"`
	EngineArgs        string        `mapstructure:"ENGINE_ARGS"`
	EngineDepth       int           `mapstructure:"ENGINE_DEPTH"`
	EngineInitTimeout time.Duration `mapstructure:"ENGINE_INIT_TIMEOUT"`
	CloudEvalUrl      string        `mapstructure:"CLOUD_EVAL_URL"`
	CloudEvalTimeout  time.Duration `mapstructure:"CLOUD_EVAL_TIMEOUT"`
	EvalCacheTTL      time.Duration `mapstructure:"EVAL_CACHE_TTL"`
	TimelineTTL       time.Duration `mapstructure:"TIMELINE_TTL"`
	RedisUrl          string        `mapstructure:"REDIS_URL"`
	MongoUri          string        `mapstructure:"MONGO_URI"`
	MongoDatabase     string        `mapstructure:"MONGO_DATABASE"`
	LlmApiKey         string        `mapstructure:"LLM_API_KEY"`
	LlmModel          string        `mapstructure:"LLM_MODEL"`
	LlmMaxTokens      int           `mapstructure:"LLM_MAX_TOKENS"`
	BetaPasscode      string        `mapstructure:"BETA_PASSCODE"`
	IsLocalCors       bool          `mapstructure:"LOCAL_CORS"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	LogDev            bool          `mapstructure:"LOG_DEV"`
}

var defaults = map[string]any{
	"SERVER_PORT":         "8080",
	"ENGINE_PATH":         "stockfish",
	"ENGINE_ARGS":         "",
	"ENGINE_DEPTH":        15,
	"ENGINE_INIT_TIMEOUT": 10 * time.Second,
	"CLOUD_EVAL_URL":      "https://lichess.org",
	"CLOUD_EVAL_TIMEOUT":  5 * time.Second,
	"EVAL_CACHE_TTL":      24 * time.Hour,
	"TIMELINE_TTL":        7 * 24 * time.Hour,
	"REDIS_URL":           "",
	"MONGO_URI":           "",
	"MONGO_DATABASE":      "askgm",
	"LLM_API_KEY":         "",
	"LLM_MODEL":           "mistral-large-latest",
	"LLM_MAX_TOKENS":      1024,
	"BETA_PASSCODE":       "",
	"LOCAL_CORS":          false,
	"LOG_LEVEL":           "info",
	"LOG_DEV":             false,
}

// Setup reads cfgPath if it exists and overlays the environment. A missing
// file leaves the defaults and environment in effect.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !isMissing(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EngineArgList splits ENGINE_ARGS on whitespace.
func (c *Config) EngineArgList() []string {
	return strings.Fields(c.EngineArgs)
}

func isMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
