package config

import "fmt"

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Nats          NatsConfig          `mapstructure:"nats"`
	Session       SessionConfig       `mapstructure:"session"`
	Engagement    EngagementConfig    `mapstructure:"engagement"`
	PayGate       PayGateConfig       `mapstructure:"paygate"`
	Email         EmailConfig         `mapstructure:"email"`
	SMS           SMSConfig           `mapstructure:"sms"`
	Privacy       PrivacyConfig       `mapstructure:"privacy"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	Domain         string     `mapstructure:"domain"`
	CORS           CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type NatsConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// SessionConfig controls the join-window gate around the scheduled start and
// the cadence of the waiting-room expiry sweeper.
type SessionConfig struct {
	GraceBeforeMinutes   int `mapstructure:"grace_before_minutes"`
	GraceAfterMinutes    int `mapstructure:"grace_after_minutes"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
}

// EngagementConfig controls the mood-check-in prompt throttle.
type EngagementConfig struct {
	DailyCap    int `mapstructure:"daily_cap"`
	EveningHour int `mapstructure:"evening_hour"`
}

type PayGateConfig struct {
	CallbackURL string `mapstructure:"callback_url"`
	MerchantID  string `mapstructure:"merchant_id"`
	Sandbox     bool   `mapstructure:"sandbox"`
}

type EmailConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SMSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	SMSIR   SMSIRConfig `mapstructure:"smsir"`
}

type SMSIRConfig struct {
	APIKey     string `mapstructure:"api_key"`
	SecretKey  string `mapstructure:"secret_key"`
	TemplateID string `mapstructure:"template_id"`
}

type PrivacyConfig struct {
	// EncryptionKey is a 32-byte hex string used for AES-256-GCM encryption
	// of patient-reported free text (intake notes, feedback comments).
	EncryptionKey string `mapstructure:"encryption_key"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Validate rejects values the services cannot run with. Defaults for absent
// keys are applied by viper in ReadConfig, so an explicit zero survives here.
func (c *Config) Validate() error {
	if c.Session.GraceBeforeMinutes < 0 {
		return fmt.Errorf("session.grace_before_minutes must not be negative, got %d", c.Session.GraceBeforeMinutes)
	}
	if c.Session.GraceAfterMinutes < 0 {
		return fmt.Errorf("session.grace_after_minutes must not be negative, got %d", c.Session.GraceAfterMinutes)
	}
	if c.Session.SweepIntervalSeconds < 1 {
		return fmt.Errorf("session.sweep_interval_seconds must be at least 1, got %d", c.Session.SweepIntervalSeconds)
	}
	if c.Engagement.DailyCap < 0 {
		return fmt.Errorf("engagement.daily_cap must not be negative, got %d", c.Engagement.DailyCap)
	}
	if c.Engagement.EveningHour < 0 || c.Engagement.EveningHour > 23 {
		return fmt.Errorf("engagement.evening_hour must be between 0 and 23, got %d", c.Engagement.EveningHour)
	}
	return nil
}
