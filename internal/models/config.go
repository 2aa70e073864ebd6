package models

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Policy    PolicyConfig
	Transfer  TransferConfig
	Server    ServerConfig
	Relay     RelayConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"sqlite3"`
	Path            string        `env:"DATABASE_PATH" envDefault:"multisig.db"`
	DSN             string        `env:"DATABASE_DSN"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"30s"`
	PingTimeout     time.Duration `env:"DB_PING_TIMEOUT" envDefault:"5s"`
}

// PolicyConfig selects execution behaviour shared by every wallet
type PolicyConfig struct {
	AutoExecuteOnConfirm  bool `env:"POLICY_AUTO_EXECUTE" envDefault:"false"`
	EnforceSpendingLimits bool `env:"POLICY_ENFORCE_LIMITS" envDefault:"true"`
}

// TransferConfig selects and configures the transfer backend
type TransferConfig struct {
	Backend    string `env:"TRANSFER_BACKEND" envDefault:"subledger"`
	AssetsFile string `env:"ASSETS_FILE" envDefault:"assets.yaml"`

	FormanceServerURL    string `env:"FORMANCE_SERVER_URL"`
	FormanceClientID     string `env:"FORMANCE_CLIENT_ID"`
	FormanceClientSecret string `env:"FORMANCE_CLIENT_SECRET"`
	FormanceLedger       string `env:"FORMANCE_LEDGER" envDefault:"multisig"`

	PrimeAccessKey   string `env:"PRIME_ACCESS_KEY"`
	PrimePassphrase  string `env:"PRIME_PASSPHRASE"`
	PrimeSigningKey  string `env:"PRIME_SIGNING_KEY"`
	PrimePortfolioId string `env:"PRIME_PORTFOLIO_ID"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR" envDefault:":8080"`
	AuthMode        string        `env:"AUTH_MODE" envDefault:"signature"`
	SignatureSkew   time.Duration `env:"AUTH_SIGNATURE_SKEW" envDefault:"5m"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// RelayConfig holds event relay settings
type RelayConfig struct {
	PollingInterval time.Duration `env:"RELAY_POLLING_INTERVAL" envDefault:"5s"`
	BatchSize       int           `env:"RELAY_BATCH_SIZE" envDefault:"100"`
	WebhookURL      string        `env:"RELAY_WEBHOOK_URL"`
	WebhookTimeout  time.Duration `env:"RELAY_WEBHOOK_TIMEOUT" envDefault:"10s"`
	StartAfterSeq   int64         `env:"RELAY_START_AFTER_SEQ" envDefault:"0"`
}

// TelemetryConfig enables OTLP trace export when an endpoint is set
type TelemetryConfig struct {
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"multisig-wallet"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}
