package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env     string
		Debug   bool
		AppName string
		Build   string

		RollbarToken string

		API     APIConfig
		Session SessionConfig
	}

	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	SessionConfig struct {
		// File is where auth tokens are persisted between runs.
		File string
	}
)

// NewConfig loads the configuration from defaults, an optional config/.env.<env>
// file and the environment (variables prefixed with the current ENV).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("apiBaseUrl", "http://localhost:8000")
	v.SetDefault("apiTimeout", 30*time.Second)
	v.SetDefault("sessionFile", defaultSessionFile())

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		RollbarToken: v.GetString("rollbarToken"),
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("apiBaseUrl"), "/"),
			Timeout: v.GetDuration("apiTimeout"),
		},
		Session: SessionConfig{
			File: v.GetString("sessionFile"),
		},
	}
}

func (c *Config) IsTest() bool { return c.Env == "TEST" }

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "darasa", "session.json")
}
