package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	Port     int `env:"PORT" env-default:"8080"`
	Database DatabaseConfig
	Speech   SpeechConfig
	Predict  PredictConfig
}

type DatabaseConfig struct {
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Name     string `env:"DB_NAME"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

type SpeechConfig struct {
	URL             string `env:"SPEECH_URL"`
	APIKey          string `env:"SPEECH_API_KEY"`
	TimeoutSec      int    `env:"SPEECH_TIMEOUT_SEC" env-default:"180"`
	PollIntervalSec int    `env:"SPEECH_POLL_INTERVAL_SEC" env-default:"3"`
}

type PredictConfig struct {
	URL        string `env:"PREDICT_URL"`
	TimeoutSec int    `env:"PREDICT_TIMEOUT_SEC" env-default:"120"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}

	return &cfg
}
