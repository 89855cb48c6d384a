package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// Optional: when set, bearer tokens on incoming requests are validated
	// and the token subject overrides the client-supplied userId.
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Gemini provider settings. The API key may be left empty and resolved
	// from Secret Manager instead (see GeminiAPIKeySecretName).
	GeminiAPIKey       string  `envconfig:"GEMINI_API_KEY"`
	GeminiModel        string  `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-exp"`
	AITemperature      float64 `envconfig:"AI_TEMPERATURE" default:"0.7"`
	AIMaxOutputTokens  int     `envconfig:"AI_MAX_OUTPUT_TOKENS" default:"2000"`
	ProviderTimeoutSec int     `envconfig:"PROVIDER_TIMEOUT_SEC" default:"30"`

	// Daily free generation allotment per user.
	FreeDailyLimit int `envconfig:"AI_FREE_DAILY_LIMIT" default:"3"`

	// GCP settings for Secret Manager and Pub/Sub telemetry. Both are
	// optional; the features are skipped when the project ID is unset.
	GCPProjectID           string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile     string `envconfig:"GCP_CREDENTIALS_FILE"`
	GeminiAPIKeySecretName string `envconfig:"GEMINI_API_KEY_SECRET_NAME" default:"gemini-api-key"`
	SynthesisTopic         string `envconfig:"SYNTHESIS_TELEMETRY_TOPIC" default:"config_synthesized"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
