// Package bootstrap decides at process start whether to instrument SDK calls.
//
// Instrumentation is switched on by LLM_WAREHOUSE_ENABLED. Nothing done here
// can stop the host program: failures become a logged warning and the
// process continues uninstrumented. Importing bootstrap/auto runs Init from
// an init function.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/petal-labs/warehouse/config"
	"github.com/petal-labs/warehouse/core"
	"github.com/petal-labs/warehouse/install"
	"github.com/petal-labs/warehouse/intercept"
)

type options struct {
	cfg     *config.Config
	logger  *slog.Logger
	enabled func(string) bool
	force   bool
	catalog []install.Target
	extra   []core.Sink
}

// Option configures Init.
type Option func(*options)

// WithConfig uses cfg instead of loading it from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger for warnings and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithForce installs regardless of LLM_WAREHOUSE_ENABLED.
func WithForce() Option {
	return func(o *options) { o.force = true }
}

// WithCatalog replaces the default install catalog.
func WithCatalog(targets []install.Target) Option {
	return func(o *options) { o.catalog = targets }
}

// WithSink adds a sink next to the configured ones.
func WithSink(s core.Sink) Option {
	return func(o *options) {
		if s != nil {
			o.extra = append(o.extra, s)
		}
	}
}

var (
	mu      sync.Mutex
	started bool
	active  *Sinks
)

// Init installs instrumentation when enabled and reports whether it did.
// Only the first call that gets past the gate has any effect.
func Init(ctx context.Context, opts ...Option) (installed bool) {
	o := options{logger: slog.Default(), enabled: core.EnvTruthy}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.force && !o.enabled(core.EnvEnabled) {
		return false
	}

	mu.Lock()
	defer mu.Unlock()
	if started {
		return install.Installed()
	}
	started = true

	defer func() {
		if r := recover(); r != nil {
			warn(o.logger, fmt.Errorf("panic: %v", r))
			installed = false
		}
	}()

	if err := run(ctx, o); err != nil {
		warn(o.logger, err)
		return false
	}
	return true
}

func run(ctx context.Context, o options) error {
	cfg := o.cfg
	if cfg == nil {
		var err error
		if cfg, err = config.FromEnv(); err != nil {
			return err
		}
	}
	debug := cfg.Debug || core.DebugEnabled()
	if debug {
		o.logger.Info("[llm-warehouse] bootstrap enabling instrumentation", "sink", cfg.Sink.Kind)
	}

	sinks, err := BuildSinks(ctx, cfg, o.logger)
	if err != nil {
		return err
	}
	sinks.Add(o.extra...)

	engine := intercept.NewEngine(sinks, intercept.WithLogger(o.logger), intercept.WithDebug(debug))
	ctrlOpts := []install.Option{install.WithLogger(o.logger), install.WithDebug(debug)}
	if o.catalog != nil {
		ctrlOpts = append(ctrlOpts, install.WithCatalog(o.catalog))
	}
	ctrl := install.New(engine, ctrlOpts...)
	if !install.SetDefault(ctrl) {
		_ = sinks.Close(ctx)
		return errors.New("instrumentation already installed by another controller")
	}
	ctrl.InstallAll()
	active = sinks
	return nil
}

func warn(l *slog.Logger, err error) {
	l.Warn("llm-warehouse failed to patch", "error", err)
}

// Shutdown flushes and closes the sinks created by Init.
// The instrumentation stays installed; records submitted afterwards are dropped.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	s := active
	active = nil
	mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close(ctx)
}
