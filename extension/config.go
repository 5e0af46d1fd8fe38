package extension

import "time"

// Config holds the Accrual extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.accrual" or "accrual" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// UsageBatchSize is the number of usage events to buffer before flushing
	// to the store (default: 100).
	UsageBatchSize int `json:"usage_batch_size" mapstructure:"usage_batch_size" yaml:"usage_batch_size"`

	// UsageFlushInterval is how frequently the usage buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	UsageFlushInterval time.Duration `json:"usage_flush_interval" mapstructure:"usage_flush_interval" yaml:"usage_flush_interval"`

	// RecalcInterval is how often the accrual recalculation sweeps pending
	// invoices (default: 1h). Zero disables the periodic worker.
	RecalcInterval time.Duration `json:"recalc_interval" mapstructure:"recalc_interval" yaml:"recalc_interval"`

	// PaymentTermDays is the number of days between an invoice being
	// finalized and its due date (default: 30).
	PaymentTermDays int `json:"payment_term_days" mapstructure:"payment_term_days" yaml:"payment_term_days"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UsageBatchSize:     100,
		UsageFlushInterval: 5 * time.Second,
		RecalcInterval:     time.Hour,
		PaymentTermDays:    30,
	}
}
