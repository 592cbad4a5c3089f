package userstate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"perks/internal/core"
)

// document is the persisted JSON shape: one blob holding every benefit's
// state and every card's transaction list.
type document struct {
	Benefits     map[string]core.BenefitUserState    `json:"benefits"`
	Transactions map[string][]core.StoredTransaction `json:"transactions"`
}

func newDocument() document {
	return document{
		Benefits:     make(map[string]core.BenefitUserState),
		Transactions: make(map[string][]core.StoredTransaction),
	}
}

// MemoryStore keeps user state in memory, optionally persisted to a single
// JSON file with atomic whole-document replacement. An empty path disables
// persistence (useful in tests).
type MemoryStore struct {
	mu        sync.RWMutex
	doc       document
	path      string
	listeners map[int]func()
	nextID    int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store backed by the given JSON file. A missing
// file starts empty; a present one is loaded immediately.
func NewMemoryStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{
		doc:       newDocument(),
		path:      path,
		listeners: make(map[int]func()),
	}
	if path != "" {
		if err := s.Reload(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MemoryStore) BenefitState(ctx context.Context, benefitID string) (core.BenefitUserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Benefits[benefitID], nil
}

func (s *MemoryStore) BenefitStates(ctx context.Context) (map[string]core.BenefitUserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]core.BenefitUserState, len(s.doc.Benefits))
	for id, st := range s.doc.Benefits {
		out[id] = st
	}
	return out, nil
}

func (s *MemoryStore) MergeBenefitState(ctx context.Context, benefitID string, patch StatePatch) error {
	s.mu.Lock()
	st := s.doc.Benefits[benefitID]
	if patch.Enrolled != nil {
		st.Enrolled = *patch.Enrolled
	}
	if patch.Ignored != nil {
		st.Ignored = *patch.Ignored
	}
	if patch.Notes != nil {
		st.Notes = *patch.Notes
	}
	if patch.ActivationAcknowledged != nil {
		st.ActivationAcknowledged = *patch.ActivationAcknowledged
	}
	s.doc.Benefits[benefitID] = st
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *MemoryStore) ClearBenefitState(ctx context.Context, benefitID string) error {
	s.mu.Lock()
	delete(s.doc.Benefits, benefitID)
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *MemoryStore) MergeUsage(ctx context.Context, usage map[string]core.BenefitUsage) error {
	s.mu.Lock()
	for benefitID, u := range usage {
		st := s.doc.Benefits[benefitID]
		for periodID, pu := range u.Periods {
			if st.PeriodTransactions == nil {
				st.PeriodTransactions = make(map[string][]core.StoredTransaction)
			}
			st.PeriodTransactions[periodID] = append(st.PeriodTransactions[periodID], pu.Transactions...)
		}
		st.Transactions = append(st.Transactions, u.Transactions...)
		s.doc.Benefits[benefitID] = st
	}
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *MemoryStore) CardTransactions(ctx context.Context, cardID string) ([]core.StoredTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txs := s.doc.Transactions[cardID]
	out := make([]core.StoredTransaction, len(txs))
	copy(out, txs)
	return out, nil
}

func (s *MemoryStore) AppendCardTransactions(ctx context.Context, cardID string, txs []core.StoredTransaction) error {
	s.mu.Lock()
	s.doc.Transactions[cardID] = append(s.doc.Transactions[cardID], txs...)
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *MemoryStore) Subscribe(listener func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *MemoryStore) Reload(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mu.Lock()
		s.doc = newDocument()
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse state file: %w", err)
	}
	if doc.Benefits == nil {
		doc.Benefits = make(map[string]core.BenefitUserState)
	}
	if doc.Transactions == nil {
		doc.Transactions = make(map[string][]core.StoredTransaction)
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	slog.DebugContext(ctx, "User state reloaded", "path", s.path, "benefits", len(doc.Benefits))
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// persistLocked writes the whole document via temp file + rename so readers
// never observe a partial write. Callers hold the write lock.
func (s *MemoryStore) persistLocked(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *MemoryStore) notify() {
	s.mu.RLock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()
	for _, l := range listeners {
		l()
	}
}
