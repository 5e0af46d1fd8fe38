package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onPlanCreated        []OnPlanCreated
	onPlanArchived       []OnPlanArchived
	onResourceActivated  []OnResourceActivated
	onResourceTerminated []OnResourceTerminated
	onPlanChanged        []OnPlanChanged
	onInvoiceCreated     []OnInvoiceCreated
	onInvoiceFinalized   []OnInvoiceFinalized
	onInvoicePaid        []OnInvoicePaid
	onInvoiceCanceled    []OnInvoiceCanceled
	onItemRegistered     []OnItemRegistered
	onItemTerminated     []OnItemTerminated
	onComponentSkipped   []OnComponentSkipped
	onUsageApplied       []OnUsageApplied
	onUsageFlushed       []OnUsageFlushed
	onRecalcCompleted    []OnRecalcCompleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPlanCreated); ok {
		r.onPlanCreated = append(r.onPlanCreated, v)
	}
	if v, ok := p.(OnPlanArchived); ok {
		r.onPlanArchived = append(r.onPlanArchived, v)
	}
	if v, ok := p.(OnResourceActivated); ok {
		r.onResourceActivated = append(r.onResourceActivated, v)
	}
	if v, ok := p.(OnResourceTerminated); ok {
		r.onResourceTerminated = append(r.onResourceTerminated, v)
	}
	if v, ok := p.(OnPlanChanged); ok {
		r.onPlanChanged = append(r.onPlanChanged, v)
	}
	if v, ok := p.(OnInvoiceCreated); ok {
		r.onInvoiceCreated = append(r.onInvoiceCreated, v)
	}
	if v, ok := p.(OnInvoiceFinalized); ok {
		r.onInvoiceFinalized = append(r.onInvoiceFinalized, v)
	}
	if v, ok := p.(OnInvoicePaid); ok {
		r.onInvoicePaid = append(r.onInvoicePaid, v)
	}
	if v, ok := p.(OnInvoiceCanceled); ok {
		r.onInvoiceCanceled = append(r.onInvoiceCanceled, v)
	}
	if v, ok := p.(OnItemRegistered); ok {
		r.onItemRegistered = append(r.onItemRegistered, v)
	}
	if v, ok := p.(OnItemTerminated); ok {
		r.onItemTerminated = append(r.onItemTerminated, v)
	}
	if v, ok := p.(OnComponentSkipped); ok {
		r.onComponentSkipped = append(r.onComponentSkipped, v)
	}
	if v, ok := p.(OnUsageApplied); ok {
		r.onUsageApplied = append(r.onUsageApplied, v)
	}
	if v, ok := p.(OnUsageFlushed); ok {
		r.onUsageFlushed = append(r.onUsageFlushed, v)
	}
	if v, ok := p.(OnRecalcCompleted); ok {
		r.onRecalcCompleted = append(r.onRecalcCompleted, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnPlanCreated)(nil)).Elem(), "OnPlanCreated")
	checkInterface(reflect.TypeOf((*OnResourceActivated)(nil)).Elem(), "OnResourceActivated")
	checkInterface(reflect.TypeOf((*OnResourceTerminated)(nil)).Elem(), "OnResourceTerminated")
	checkInterface(reflect.TypeOf((*OnInvoiceCreated)(nil)).Elem(), "OnInvoiceCreated")
	checkInterface(reflect.TypeOf((*OnInvoiceFinalized)(nil)).Elem(), "OnInvoiceFinalized")
	checkInterface(reflect.TypeOf((*OnItemRegistered)(nil)).Elem(), "OnItemRegistered")
	checkInterface(reflect.TypeOf((*OnUsageApplied)(nil)).Elem(), "OnUsageApplied")
	checkInterface(reflect.TypeOf((*OnRecalcCompleted)(nil)).Elem(), "OnRecalcCompleted")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPlanCreated emits a plan created event.
func (r *Registry) EmitPlanCreated(ctx context.Context, plan interface{}) {
	r.mu.RLock()
	plugins := r.onPlanCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPlanCreated(ctx, plan)
		}); err != nil {
			r.logger.Warn("plugin OnPlanCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPlanArchived emits a plan archived event.
func (r *Registry) EmitPlanArchived(ctx context.Context, planID string) {
	r.mu.RLock()
	plugins := r.onPlanArchived
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPlanArchived(ctx, planID)
		}); err != nil {
			r.logger.Warn("plugin OnPlanArchived failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitResourceActivated emits a resource activated event.
func (r *Registry) EmitResourceActivated(ctx context.Context, res interface{}) {
	r.mu.RLock()
	plugins := r.onResourceActivated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnResourceActivated(ctx, res)
		}); err != nil {
			r.logger.Warn("plugin OnResourceActivated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitResourceTerminated emits a resource terminated event.
func (r *Registry) EmitResourceTerminated(ctx context.Context, res interface{}) {
	r.mu.RLock()
	plugins := r.onResourceTerminated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnResourceTerminated(ctx, res)
		}); err != nil {
			r.logger.Warn("plugin OnResourceTerminated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPlanChanged emits a plan changed event.
func (r *Registry) EmitPlanChanged(ctx context.Context, res interface{}, oldPlanID, newPlanID string) {
	r.mu.RLock()
	plugins := r.onPlanChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPlanChanged(ctx, res, oldPlanID, newPlanID)
		}); err != nil {
			r.logger.Warn("plugin OnPlanChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceCreated emits an invoice created event.
func (r *Registry) EmitInvoiceCreated(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInvoiceCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceCreated(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceFinalized emits an invoice finalized event.
func (r *Registry) EmitInvoiceFinalized(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInvoiceFinalized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceFinalized(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceFinalized failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoicePaid emits an invoice paid event.
func (r *Registry) EmitInvoicePaid(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInvoicePaid
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoicePaid(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoicePaid failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceCanceled emits an invoice canceled event.
func (r *Registry) EmitInvoiceCanceled(ctx context.Context, inv interface{}, reason string) {
	r.mu.RLock()
	plugins := r.onInvoiceCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceCanceled(ctx, inv, reason)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceCanceled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitItemRegistered emits an item registered event.
func (r *Registry) EmitItemRegistered(ctx context.Context, item interface{}) {
	r.mu.RLock()
	plugins := r.onItemRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnItemRegistered(ctx, item)
		}); err != nil {
			r.logger.Warn("plugin OnItemRegistered failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitItemTerminated emits an item terminated event.
func (r *Registry) EmitItemTerminated(ctx context.Context, item interface{}) {
	r.mu.RLock()
	plugins := r.onItemTerminated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnItemTerminated(ctx, item)
		}); err != nil {
			r.logger.Warn("plugin OnItemTerminated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitComponentSkipped emits a component skipped event.
func (r *Registry) EmitComponentSkipped(ctx context.Context, resourceID, componentType string) {
	r.mu.RLock()
	plugins := r.onComponentSkipped
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnComponentSkipped(ctx, resourceID, componentType)
		}); err != nil {
			r.logger.Warn("plugin OnComponentSkipped failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUsageApplied emits a usage applied event.
func (r *Registry) EmitUsageApplied(ctx context.Context, report interface{}) {
	r.mu.RLock()
	plugins := r.onUsageApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUsageApplied(ctx, report)
		}); err != nil {
			r.logger.Warn("plugin OnUsageApplied failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUsageFlushed emits a usage flushed event.
func (r *Registry) EmitUsageFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onUsageFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUsageFlushed(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnUsageFlushed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRecalcCompleted emits a recalculation completed event.
func (r *Registry) EmitRecalcCompleted(ctx context.Context, customers, failures int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onRecalcCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRecalcCompleted(ctx, customers, failures, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnRecalcCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
