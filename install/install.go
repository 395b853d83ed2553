// Package install applies instrumentation to every known SDK entry point
// exactly once per process.
//
// Targets whose adapter is not linked into the binary, or whose slot does not
// exist, are skipped. A failure on one target never prevents the others
// from being instrumented.
package install

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/petal-labs/warehouse/core"
	"github.com/petal-labs/warehouse/intercept"
	"github.com/petal-labs/warehouse/providers"
)

// Status is the outcome of installing one target.
type Status string

const (
	StatusPending       Status = "pending"
	StatusInstalled     Status = "installed"
	StatusOwnerNotFound Status = "skipped: owner not found"
	StatusAttrMissing   Status = "skipped: attribute missing"
	StatusFailed        Status = "failed"

	// StatusAlreadyInstrumented means another controller instrumented the slot first.
	StatusAlreadyInstrumented Status = "skipped: already instrumented"
)

// TargetStatus reports what happened to one catalog entry.
type TargetStatus struct {
	Target Target
	Status Status
	Err    error
}

// Resolver finds an owner by name.
type Resolver func(name string) (*intercept.Owner, error)

// Controller installs a catalog of targets with an engine.
// Controller is safe for concurrent use.
type Controller struct {
	engine    *intercept.Engine
	catalog   []Target
	resolve   Resolver
	watch     bool
	logger    *slog.Logger
	debug     bool
	once      sync.Once
	done      atomic.Bool
	installMu sync.Mutex
	sealed    bool   // guarded by installMu
	stopWatch func() // guarded by installMu
	mu        sync.Mutex
	statuses  []TargetStatus
}

// Option configures a Controller.
type Option func(*Controller)

// WithCatalog replaces the default catalog.
func WithCatalog(targets []Target) Option {
	return func(c *Controller) {
		c.catalog = append([]Target(nil), targets...)
	}
}

// WithResolver replaces providers.Resolve as the owner lookup.
func WithResolver(r Resolver) Option {
	return func(c *Controller) {
		if r != nil {
			c.resolve = r
			c.watch = false
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDebug overrides the diagnostic toggle read from LLM_WAREHOUSE_DEBUG.
func WithDebug(on bool) Option {
	return func(c *Controller) {
		c.debug = on
	}
}

// New creates a controller that installs with engine.
// A nil engine gets one that discards records.
func New(engine *intercept.Engine, opts ...Option) *Controller {
	c := &Controller{
		engine:  engine,
		catalog: DefaultCatalog(),
		resolve: providers.Resolve,
		watch:   true,
		logger:  slog.Default(),
		debug:   core.DebugEnabled(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = intercept.NewEngine(nil, intercept.WithLogger(c.logger), intercept.WithDebug(c.debug))
	}
	c.statuses = make([]TargetStatus, len(c.catalog))
	for i, t := range c.catalog {
		c.statuses[i] = TargetStatus{Target: t, Status: StatusPending}
	}
	return c
}

// Engine returns the engine used for installation.
func (c *Controller) Engine() *intercept.Engine {
	return c.engine
}

// InstallAll instruments every catalog target. Only the first call has any
// effect; later calls return immediately.
//
// Owners that register after InstallAll are still instrumented until the
// controller is sealed, which happens at the first instrumented call or on
// an explicit Seal.
func (c *Controller) InstallAll() {
	if c.done.Load() {
		c.diag("patch already applied, skipping")
		return
	}
	c.once.Do(func() {
		c.installMu.Lock()
		defer c.installMu.Unlock()
		if c.watch && !c.sealed {
			c.stopWatch = providers.Watch(c.installLate)
			c.engine.OnFirstCall(c.Seal)
		}
		for i, t := range c.catalog {
			st := c.installOne(t)
			c.mu.Lock()
			c.statuses[i] = st
			c.mu.Unlock()
		}
		c.done.Store(true)
	})
}

// installLate instruments targets of an owner registered after InstallAll
// found it missing.
func (c *Controller) installLate(owner *intercept.Owner) {
	c.installMu.Lock()
	defer c.installMu.Unlock()
	if c.sealed {
		return
	}
	for i, t := range c.catalog {
		if t.Owner != owner.Name() {
			continue
		}
		c.mu.Lock()
		missing := c.statuses[i].Status == StatusOwnerNotFound
		c.mu.Unlock()
		if !missing {
			continue
		}
		st := c.installOne(t)
		c.mu.Lock()
		c.statuses[i] = st
		c.mu.Unlock()
	}
}

// Seal stops instrumenting owners registered from now on. Targets still
// missing stay skipped. Seal is idempotent.
func (c *Controller) Seal() {
	c.installMu.Lock()
	defer c.installMu.Unlock()
	if c.sealed {
		return
	}
	c.sealed = true
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	c.diag("sealed, late registrations are no longer instrumented")
}

// Installed reports whether InstallAll has completed.
func (c *Controller) Installed() bool {
	return c.done.Load()
}

// Report returns the per-target outcome of the installation.
func (c *Controller) Report() []TargetStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TargetStatus(nil), c.statuses...)
}

func (c *Controller) installOne(t Target) (st TargetStatus) {
	st.Target = t
	defer func() {
		if r := recover(); r != nil {
			st.Status = StatusFailed
			st.Err = fmt.Errorf("install %s: panic: %v", t, r)
			c.diag("install failed", "target", t.String(), "error", st.Err)
		}
	}()

	owner, err := c.resolve(t.Owner)
	if err != nil || owner == nil {
		st.Status = StatusOwnerNotFound
		if err == nil {
			err = fmt.Errorf("%w: %s", core.ErrOwnerNotFound, t.Owner)
		}
		st.Err = err
		if !errors.Is(err, core.ErrOwnerNotFound) {
			st.Status = StatusFailed
		}
		c.diag("owner unavailable, skipping", "target", t.String(), "error", err)
		return st
	}
	if _, ok := owner.Lookup(t.Attr); !ok {
		st.Status = StatusAttrMissing
		c.diag("attribute not found, skipping", "target", t.String())
		return st
	}

	if !c.engine.Install(owner, t.Attr, t.Label) {
		st.Status = StatusAlreadyInstrumented
		return st
	}
	st.Status = StatusInstalled
	return st
}

func (c *Controller) diag(msg string, args ...any) {
	if !c.debug {
		return
	}
	c.logger.Info("[llm-warehouse] "+msg, args...)
}
