package policy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"financecalc/internal/finance"
	"financecalc/internal/log"
)

// Provider holds the active tax policy and swaps it atomically on reload.
// Readers never block; a failed reload keeps the previous policy.
type Provider struct {
	store   Store
	logger  *log.Logger
	current atomic.Pointer[finance.TaxPolicy]

	mu         sync.Mutex // serializes reloads
	loadedAt   time.Time
	lastErr    error
	reloadHook func(finance.TaxPolicy)
}

// NewProvider creates a provider seeded with the embedded default, so
// Current is usable before the first Reload.
func NewProvider(store Store, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.Discard()
	}
	p := &Provider{store: store, logger: logger.WithComponent(log.ComponentPolicy)}
	def := Default()
	p.current.Store(&def)
	return p
}

// OnReload registers a callback invoked after each successful reload that
// changed the policy.
func (p *Provider) OnReload(fn func(finance.TaxPolicy)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloadHook = fn
}

// Current returns the active policy.
func (p *Provider) Current() finance.TaxPolicy {
	return *p.current.Load()
}

// Reload fetches the policy from the store and activates it.
func (p *Provider) Reload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, err := p.store.Load(ctx)
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		p.lastErr = err
		p.logger.WarnContext(ctx, "Tax policy reload failed, keeping previous policy",
			log.FieldOperation, log.OpReload, log.FieldError, err.Error())
		return fmt.Errorf("reload tax policy: %w", err)
	}

	prev := p.current.Load()
	changed := prev.Fingerprint() != next.Fingerprint()
	p.current.Store(&next)
	p.loadedAt = time.Now()
	p.lastErr = nil

	if changed {
		p.logger.InfoContext(ctx, "Tax policy activated",
			log.FieldOperation, log.OpReload,
			log.FieldPolicy, next.Name,
			"fiscal_year", next.FiscalYear,
			"slabs", len(next.Slabs))
		if p.reloadHook != nil {
			p.reloadHook(next)
		}
	}
	return nil
}

// Status reports when the policy was last loaded and the last reload error.
func (p *Provider) Status() (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadedAt, p.lastErr
}
