// Package worker holds the handlers that react to broker messages.
package worker

import (
	"context"
	"fmt"

	"financecalc/internal/amqp"
	"financecalc/internal/finance"
	"financecalc/internal/log"
)

// PolicyReloader is the part of the policy provider the worker drives.
type PolicyReloader interface {
	Current() finance.TaxPolicy
	Reload(ctx context.Context) error
}

// ReloadWorker applies policy reload broadcasts to the local provider.
type ReloadWorker struct {
	policies PolicyReloader
	logger   *log.Logger
}

func NewReloadWorker(policies PolicyReloader, logger *log.Logger) *ReloadWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReloadWorker{
		policies: policies,
		logger:   logger.WithComponent(log.ComponentAMQP),
	}
}

// HandleReloadMessage reloads the policy unless the broadcast describes the
// policy already active here. Messages without a fingerprint always reload.
func (w *ReloadWorker) HandleReloadMessage(ctx context.Context, msg *amqp.PolicyReloadMessage) error {
	w.logger.InfoContext(ctx, "Processing policy reload message",
		log.FieldOperation, log.OpConsume,
		log.FieldPolicy, msg.Policy,
		"fiscal_year", msg.FiscalYear,
		"source", msg.Source)

	current := w.policies.Current()
	if msg.Fingerprint != "" && msg.Fingerprint == current.Fingerprint() {
		w.logger.DebugContext(ctx, "Policy already active, skipping reload",
			"fingerprint", msg.Fingerprint)
		return nil
	}

	if err := w.policies.Reload(ctx); err != nil {
		return fmt.Errorf("reload policy %s: %w", msg.Policy, err)
	}

	active := w.policies.Current()
	if msg.Fingerprint != "" && active.Fingerprint() != msg.Fingerprint {
		// the store did not yet hold the broadcast policy; the next
		// broadcast or scheduled refresh will catch up
		w.logger.WarnContext(ctx, "Reloaded policy differs from broadcast",
			"expected_fingerprint", msg.Fingerprint,
			"active_fingerprint", active.Fingerprint())
	}
	return nil
}
