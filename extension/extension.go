// Package extension provides the Forge extension adapter for Accrual.
//
// It implements the forge.Extension interface to integrate the accrual
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.accrual" or "accrual" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/store"
	"github.com/xraph/accrual/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "accrual"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Invoice pro-ration and usage billing engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the accrual engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *accrual.Engine
	store      store.Store
	engineOpts []accrual.Option
}

// New creates a new Accrual Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying accrual engine.
// This is nil until Register is called.
func (e *Extension) Engine() *accrual.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the accrual engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts := e.buildEngineOpts()

	eng := accrual.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*accrual.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("accrual: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("accrual: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs accrual.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []accrual.Option {
	opts := make([]accrual.Option, 0, len(e.engineOpts)+3)

	if e.config.UsageBatchSize > 0 || e.config.UsageFlushInterval > 0 {
		batchSize := e.config.UsageBatchSize
		flushInterval := e.config.UsageFlushInterval
		defaults := DefaultConfig()
		if batchSize == 0 {
			batchSize = defaults.UsageBatchSize
		}
		if flushInterval == 0 {
			flushInterval = defaults.UsageFlushInterval
		}
		opts = append(opts, accrual.WithUsageConfig(batchSize, flushInterval))
	}

	opts = append(opts, accrual.WithRecalcInterval(e.config.RecalcInterval))

	if e.config.PaymentTermDays > 0 {
		opts = append(opts, accrual.WithPaymentTerm(e.config.PaymentTermDays))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("accrual: configuration is required but not found in config files; " +
				"ensure 'extensions.accrual' or 'accrual' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("accrual: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("usage_batch_size", e.config.UsageBatchSize),
		forge.F("usage_flush_interval", e.config.UsageFlushInterval),
		forge.F("recalc_interval", e.config.RecalcInterval),
		forge.F("payment_term_days", e.config.PaymentTermDays),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.accrual" first (namespaced pattern).
	if cm.IsSet("extensions.accrual") {
		if err := cm.Bind("extensions.accrual", &cfg); err == nil {
			e.Logger().Debug("accrual: loaded config from file",
				forge.F("key", "extensions.accrual"),
			)
			return cfg, true
		}
		e.Logger().Warn("accrual: failed to bind extensions.accrual config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "accrual" key.
	if cm.IsSet("accrual") {
		if err := cm.Bind("accrual", &cfg); err == nil {
			e.Logger().Debug("accrual: loaded config from file",
				forge.F("key", "accrual"),
			)
			return cfg, true
		}
		e.Logger().Warn("accrual: failed to bind accrual config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.UsageBatchSize == 0 {
		cfg.UsageBatchSize = defaults.UsageBatchSize
	}
	if cfg.UsageFlushInterval == 0 {
		cfg.UsageFlushInterval = defaults.UsageFlushInterval
	}
	if cfg.RecalcInterval == 0 {
		cfg.RecalcInterval = defaults.RecalcInterval
	}
	if cfg.PaymentTermDays == 0 {
		cfg.PaymentTermDays = defaults.PaymentTermDays
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.UsageBatchSize == 0 && programmaticConfig.UsageBatchSize != 0 {
		yamlConfig.UsageBatchSize = programmaticConfig.UsageBatchSize
	}
	if yamlConfig.UsageFlushInterval == 0 && programmaticConfig.UsageFlushInterval != 0 {
		yamlConfig.UsageFlushInterval = programmaticConfig.UsageFlushInterval
	}
	if yamlConfig.RecalcInterval == 0 && programmaticConfig.RecalcInterval != 0 {
		yamlConfig.RecalcInterval = programmaticConfig.RecalcInterval
	}
	if yamlConfig.PaymentTermDays == 0 && programmaticConfig.PaymentTermDays != 0 {
		yamlConfig.PaymentTermDays = programmaticConfig.PaymentTermDays
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
