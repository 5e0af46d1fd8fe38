package extension

import (
	"time"

	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/plugin"
	"github.com/xraph/accrual/store"
)

// Option configures the Accrual Forge extension.
type Option func(*Extension)

// WithStore sets the store for the accrual engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes an accrual.Option through to the underlying engine.
func WithEngineOption(opt accrual.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an accrual plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, accrual.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithUsageBatchSize sets the number of usage events to buffer before flushing.
func WithUsageBatchSize(size int) Option {
	return func(e *Extension) { e.config.UsageBatchSize = size }
}

// WithUsageFlushInterval sets how frequently the usage buffer is flushed.
func WithUsageFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.UsageFlushInterval = d }
}

// WithRecalcInterval sets how often the accrual recalculation sweeps
// pending invoices.
func WithRecalcInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.RecalcInterval = d }
}

// WithPaymentTerm sets the number of days between invoice finalization
// and its due date.
func WithPaymentTerm(days int) Option {
	return func(e *Extension) { e.config.PaymentTermDays = days }
}
