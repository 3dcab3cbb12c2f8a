package config

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads configuration from an optional .env file and the process
// environment.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()

	if len(envFilePath) > 0 {
		for _, path := range envFilePath {
			if err := godotenv.Load(path); err == nil {
				logger.Info("environment loaded from file", "path", path)
				return loadFromEnv()
			}
		}
	}
	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file found, using system environment variables")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	slog.Default().Info("app config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.Url),
		"lock_ttl", cfg.Lock.TTL,
		"exchange_api_url", cfg.Exchange.ApiUrl,
		"exchange_api_key", maskValue(cfg.Exchange.ApiKey),
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
