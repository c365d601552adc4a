package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment" validate:"required"`
	Task       TaskConfig       `mapstructure:"task"       validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`

	// MaxOpenConns also caps enrichment concurrency unless
	// enrichment.max_concurrency says otherwise.
	MaxOpenConns int `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns int `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains the settings used to issue and verify API bearer tokens.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// PromptTemplatePath overrides the embedded prompt template when set.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`

	MaxRetries        int `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`

	// MaxLabels caps how many tags are kept from a single model answer.
	MaxLabels int `mapstructure:"max_labels" validate:"gt=0,lte=20"`
}

// EnrichmentConfig holds the defaults for bulk tag enrichment. Batch size and
// concurrency can still be overridden per invocation.
type EnrichmentConfig struct {
	BatchSize                int    `mapstructure:"batch_size"                 validate:"gt=0"`
	Concurrency              int    `mapstructure:"concurrency"                validate:"gt=0"`
	StallThreshold           int    `mapstructure:"stall_threshold"            validate:"gt=0"`
	ClassifierTimeoutSeconds int    `mapstructure:"classifier_timeout_seconds" validate:"gt=0"`
	Locator                  string `mapstructure:"locator"                    validate:"oneof=set_difference chunked"`
	ChunkSize                int    `mapstructure:"chunk_size"                 validate:"gt=0"`

	// MaxConcurrency caps the concurrency a caller may request. Zero means
	// database.max_open_conns, so per-item writes inside one chunk do not
	// queue for a connection.
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"gte=0"`

	RunRetentionMinutes      int    `mapstructure:"run_retention_minutes"      validate:"gt=0"`

	// Timezone is the IANA location used to turn window dates into day bounds.
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// TaskConfig contains settings for the background task runner.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count"           validate:"gt=0"`
	QueueSize           int `mapstructure:"queue_size"             validate:"gt=0"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gt=0"`
}
