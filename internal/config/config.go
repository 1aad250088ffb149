package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Config is the main configuration structure
type Config struct {
	Log        logConfig        `yaml:"log"`
	Http       httpConfig       `yaml:"http"`
	Postgres   postgresConfig   `yaml:"postgres"`
	Bot        botConfig        `yaml:"bot"`
	Limits     limitsConfig     `yaml:"limits"`
	OpenAI     openAIConfig     `yaml:"openai"`
	Stability  stabilityConfig  `yaml:"stability"`
	ElevenLabs elevenLabsConfig `yaml:"elevenlabs"`
	Payment    paymentConfig    `yaml:"payment"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() {
	// Start with defaults
	_loaded = &defaultConfig

	configFile := os.Getenv("KAZKA_CONFIG_FILE")
	if configFile == "" {
		configFile = "kazka.yaml"
	}

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Successfully loaded config from file: %s", configFile)
	}

	// Apply environment variable overrides (highest priority)
	ApplyEnvOverrides()
}

func LoadDefault() {
	config := defaultConfig
	_loaded = &config
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := defaultConfig

	// Merge YAML values over defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = &cfg
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the loaded config
func ApplyEnvOverrides() {
	if _loaded == nil {
		LoadDefault()
	}
	config := *_loaded

	if httpHost := os.Getenv("KAZKA_HTTP_HOST"); httpHost != "" {
		config.Http.Host = httpHost
	}
	if httpPort := os.Getenv("KAZKA_HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			config.Http.Port = port
		}
	}

	if dbEnabled := os.Getenv("KAZKA_DB_ENABLED"); dbEnabled != "" {
		if enabled, err := strconv.ParseBool(dbEnabled); err == nil {
			config.Postgres.Enabled = enabled
		}
	}
	if dbHost := os.Getenv("KAZKA_DB_HOST"); dbHost != "" {
		config.Postgres.Host = dbHost
	}
	if dbPort := os.Getenv("KAZKA_DB_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			config.Postgres.Port = port
		}
	}
	if dbUser := os.Getenv("KAZKA_DB_USER"); dbUser != "" {
		config.Postgres.User = dbUser
	}
	if dbPassword := os.Getenv("KAZKA_DB_PASSWORD"); dbPassword != "" {
		config.Postgres.Password = dbPassword
	}
	if dbName := os.Getenv("KAZKA_DB_NAME"); dbName != "" {
		config.Postgres.Database = dbName
	}

	if botUsername := os.Getenv("BOT_USERNAME"); botUsername != "" {
		config.Bot.Username = botUsername
	}
	if defaultLang := os.Getenv("KAZKA_DEFAULT_LANGUAGE"); defaultLang != "" {
		config.Bot.DefaultLanguage = defaultLang
	}
	if freeGen := os.Getenv("KAZKA_FREE_GENERATIONS"); freeGen != "" {
		if n, err := strconv.Atoi(freeGen); err == nil {
			config.Limits.FreeGenerations = n
		}
	}

	if openaiAPIKey := os.Getenv("OPENAI_API_KEY"); openaiAPIKey != "" {
		config.OpenAI.APIKey = openaiAPIKey
	}
	if openaiModel := os.Getenv("KAZKA_OPENAI_MODEL"); openaiModel != "" {
		config.OpenAI.Model = openaiModel
	}
	if stabilityAPIKey := os.Getenv("STABILITY_API_KEY"); stabilityAPIKey != "" {
		config.Stability.APIKey = stabilityAPIKey
	}
	if elevenlabsAPIKey := os.Getenv("ELEVENLABS_API_KEY"); elevenlabsAPIKey != "" {
		config.ElevenLabs.APIKey = elevenlabsAPIKey
	}
	if stripeSecretKey := os.Getenv("STRIPE_SECRET_KEY"); stripeSecretKey != "" {
		config.Payment.StripeSecretKey = stripeSecretKey
	}
	if paymentLink := os.Getenv("KAZKA_PAYMENT_LINK"); paymentLink != "" {
		config.Payment.StaticLink = paymentLink
	}

	_loaded = &config
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Log: logConfig{
		Level:  "info",
		Format: "json",
	},
	Http: httpConfig{
		Host: "0.0.0.0",
		Port: 8080,
	},
	Postgres: postgresConfig{
		Enabled:            false,
		User:               "postgres",
		Password:           "postgres",
		Host:               "localhost",
		Port:               5432,
		Database:           "kazka",
		MaxOpenConnections: 10,
	},
	Bot: botConfig{
		Username:        "kazka_bot",
		DefaultLanguage: "uk",
	},
	Limits: limitsConfig{
		FreeGenerations: 10,
	},
	OpenAI: openAIConfig{
		Model:         "gpt-4o",
		StoryMinChars: 1450,
		StoryMaxChars: 1650,
	},
	Stability: stabilityConfig{
		Model: "sd3.5-large-turbo",
	},
	ElevenLabs: elevenLabsConfig{
		ModelID: "eleven_multilingual_v2",
	},
	Payment: paymentConfig{
		Amount:   100,
		Currency: "uah",
	},
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type httpConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type postgresConfig struct {
	Enabled            bool   `yaml:"enabled"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Database           string `yaml:"database"`
	MaxOpenConnections int    `yaml:"max_open_connections"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

type botConfig struct {
	Username        string `yaml:"username"`
	DefaultLanguage string `yaml:"default_language"`
}

type limitsConfig struct {
	FreeGenerations int `yaml:"free_generations"`
}

type openAIConfig struct {
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	StoryMinChars int    `yaml:"story_min_chars"`
	StoryMaxChars int    `yaml:"story_max_chars"`
}

type stabilityConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type elevenLabsConfig struct {
	APIKey  string            `yaml:"api_key"`
	ModelID string            `yaml:"model_id"`
	Voices  map[string]string `yaml:"voices"`
}

type paymentConfig struct {
	StripeSecretKey string `yaml:"stripe_secret_key"`
	StaticLink      string `yaml:"static_link"`
	Amount          int    `yaml:"amount"`
	Currency        string `yaml:"currency"`
	SuccessURL      string `yaml:"success_url"`
	CancelURL       string `yaml:"cancel_url"`
}

// Logger returns the log configuration
func Logger() logConfig {
	return _loaded.Log
}

// Http returns the HTTP configuration
func Http() httpConfig {
	return _loaded.Http
}

// Postgres returns the PostgreSQL configuration
func Postgres() postgresConfig {
	return _loaded.Postgres
}

// Bot returns the bot configuration
func Bot() botConfig {
	return _loaded.Bot
}

// Limits returns the quota configuration
func Limits() limitsConfig {
	return _loaded.Limits
}

// OpenAI returns the text provider configuration
func OpenAI() openAIConfig {
	return _loaded.OpenAI
}

// Stability returns the image provider configuration
func Stability() stabilityConfig {
	return _loaded.Stability
}

// ElevenLabs returns the speech provider configuration
func ElevenLabs() elevenLabsConfig {
	return _loaded.ElevenLabs
}

// Payment returns the payment configuration
func Payment() paymentConfig {
	return _loaded.Payment
}

// Get returns the loaded configuration
func Get() *Config {
	if _loaded == nil {
		panic("config not loaded")
	}
	return _loaded
}
