// Package userstate owns the mutable, user-entered side of benefit
// tracking: enrollment flags, notes, stored transactions, and per-period
// usage. Stores are explicit objects passed to consumers by the composition
// root; there is no package-level singleton.
package userstate

import (
	"context"

	"perks/internal/core"
)

// StatePatch is a partial update to one benefit's user state. Nil fields
// are left untouched.
type StatePatch struct {
	Enrolled               *bool   `json:"enrolled,omitempty"`
	Ignored                *bool   `json:"ignored,omitempty"`
	Notes                  *string `json:"notes,omitempty"`
	ActivationAcknowledged *bool   `json:"activationAcknowledged,omitempty"`
}

// Store is the user-state persistence port. Benefit state is created lazily
// with defaults the first time a benefit is touched; reads of unknown
// benefits return the zero value, never an error. Writes persist the whole
// document atomically (last write wins).
type Store interface {
	// BenefitState returns the stored state for a benefit, or the
	// default zero state when none exists yet.
	BenefitState(ctx context.Context, benefitID string) (core.BenefitUserState, error)

	// BenefitStates returns every stored benefit state keyed by id.
	BenefitStates(ctx context.Context) (map[string]core.BenefitUserState, error)

	// MergeBenefitState applies a partial update, creating default state
	// first if needed.
	MergeBenefitState(ctx context.Context, benefitID string, patch StatePatch) error

	// ClearBenefitState removes a benefit's state entirely. Explicit user
	// action is the only path that deletes state.
	ClearBenefitState(ctx context.Context, benefitID string) error

	// MergeUsage folds aggregated usage into benefit state, appending to
	// period transaction lists and flat buckets.
	MergeUsage(ctx context.Context, usage map[string]core.BenefitUsage) error

	// CardTransactions returns the card-level transaction list.
	CardTransactions(ctx context.Context, cardID string) ([]core.StoredTransaction, error)

	// AppendCardTransactions appends to the card-level transaction list.
	AppendCardTransactions(ctx context.Context, cardID string, txs []core.StoredTransaction) error

	// Subscribe registers a listener called after every successful write.
	// The returned function unsubscribes it. No cross-process guarantees.
	Subscribe(listener func()) (unsubscribe func())

	// Reload re-reads persisted state, discarding anything cached in
	// memory. Invalidation is explicit, never implicit module state.
	Reload(ctx context.Context) error

	Close() error
}
