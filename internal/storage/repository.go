// Package storage provides the SQLite-backed user-state store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"perks/internal/core"
	"perks/internal/userstate"
)

// SQLiteStore implements userstate.Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

var _ userstate.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:        db,
		listeners: make(map[int]func()),
	}, nil
}

func (s *SQLiteStore) BenefitState(ctx context.Context, benefitID string) (core.BenefitUserState, error) {
	var st core.BenefitUserState
	row := s.db.QueryRowContext(ctx,
		`SELECT enrolled, ignored, notes, activation_ack FROM benefit_state WHERE benefit_id = ?`, benefitID)
	err := row.Scan(&st.Enrolled, &st.Ignored, &st.Notes, &st.ActivationAcknowledged)
	if err != nil && err != sql.ErrNoRows {
		return core.BenefitUserState{}, fmt.Errorf("get benefit state: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT period_id, tx_id, tx_date, description, amount_cents, tx_type
		 FROM benefit_transactions WHERE benefit_id = ? ORDER BY id`, benefitID)
	if err != nil {
		return core.BenefitUserState{}, fmt.Errorf("get benefit transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var periodID string
		tx, err := scanTransaction(rows, &periodID)
		if err != nil {
			return core.BenefitUserState{}, err
		}
		if periodID == "" {
			st.Transactions = append(st.Transactions, tx)
			continue
		}
		if st.PeriodTransactions == nil {
			st.PeriodTransactions = make(map[string][]core.StoredTransaction)
		}
		st.PeriodTransactions[periodID] = append(st.PeriodTransactions[periodID], tx)
	}
	if err := rows.Err(); err != nil {
		return core.BenefitUserState{}, fmt.Errorf("iterate benefit transactions: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) BenefitStates(ctx context.Context) (map[string]core.BenefitUserState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT benefit_id FROM benefit_state
		UNION SELECT DISTINCT benefit_id FROM benefit_transactions`)
	if err != nil {
		return nil, fmt.Errorf("list benefit ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan benefit id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate benefit ids: %w", err)
	}

	out := make(map[string]core.BenefitUserState, len(ids))
	for _, id := range ids {
		st, err := s.BenefitState(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = st
	}
	return out, nil
}

func (s *SQLiteStore) MergeBenefitState(ctx context.Context, benefitID string, patch userstate.StatePatch) error {
	st, err := s.BenefitState(ctx, benefitID)
	if err != nil {
		return err
	}
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO benefit_state (benefit_id, enrolled, ignored, notes, activation_ack, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(benefit_id) DO UPDATE SET
		   enrolled = excluded.enrolled,
		   ignored = excluded.ignored,
		   notes = excluded.notes,
		   activation_ack = excluded.activation_ack,
		   updated_at = CURRENT_TIMESTAMP`,
		benefitID, st.Enrolled, st.Ignored, st.Notes, st.ActivationAcknowledged)
	if err != nil {
		return fmt.Errorf("merge benefit state: %w", err)
	}
	s.notify()
	return nil
}

func (s *SQLiteStore) ClearBenefitState(ctx context.Context, benefitID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM benefit_state WHERE benefit_id = ?`, benefitID); err != nil {
		return fmt.Errorf("clear benefit state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM benefit_transactions WHERE benefit_id = ?`, benefitID); err != nil {
		return fmt.Errorf("clear benefit transactions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	s.notify()
	return nil
}

func (s *SQLiteStore) MergeUsage(ctx context.Context, usage map[string]core.BenefitUsage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	for benefitID, u := range usage {
		for periodID, pu := range u.Periods {
			for _, t := range pu.Transactions {
				if err := insertBenefitTransaction(ctx, tx, benefitID, periodID, t); err != nil {
					return err
				}
			}
		}
		for _, t := range u.Transactions {
			if err := insertBenefitTransaction(ctx, tx, benefitID, "", t); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	s.notify()
	return nil
}

func (s *SQLiteStore) CardTransactions(ctx context.Context, cardID string) ([]core.StoredTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT '', tx_id, tx_date, description, amount_cents, tx_type
		 FROM card_transactions WHERE card_id = ? ORDER BY id`, cardID)
	if err != nil {
		return nil, fmt.Errorf("get card transactions: %w", err)
	}
	defer rows.Close()

	var out []core.StoredTransaction
	for rows.Next() {
		var discard string
		t, err := scanTransaction(rows, &discard)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card transactions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) AppendCardTransactions(ctx context.Context, cardID string, txs []core.StoredTransaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	for _, t := range txs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO card_transactions (card_id, tx_id, tx_date, description, amount_cents, tx_type)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			cardID, t.ID, t.Date.String(), t.Description, t.Amount.Cents, t.Type)
		if err != nil {
			return fmt.Errorf("insert card transaction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	s.notify()
	return nil
}

func (s *SQLiteStore) Subscribe(listener func()) func() {
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

// Reload is a no-op: every read already hits the database.
func (s *SQLiteStore) Reload(ctx context.Context) error { return nil }

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) notify() {
	s.mu.Lock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()
	for _, l := range listeners {
		l()
	}
}

func insertBenefitTransaction(ctx context.Context, tx *sql.Tx, benefitID, periodID string, t core.StoredTransaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO benefit_transactions (benefit_id, period_id, tx_id, tx_date, description, amount_cents, tx_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		benefitID, periodID, t.ID, t.Date.String(), t.Description, t.Amount.Cents, t.Type)
	if err != nil {
		return fmt.Errorf("insert benefit transaction: %w", err)
	}
	return nil
}

func scanTransaction(rows *sql.Rows, periodID *string) (core.StoredTransaction, error) {
	var (
		t       core.StoredTransaction
		rawDate string
		cents   int64
	)
	if err := rows.Scan(periodID, &t.ID, &rawDate, &t.Description, &cents, &t.Type); err != nil {
		return core.StoredTransaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.StoredTransaction{}, err
	}
	t.Date = date
	t.Amount = core.Money{Cents: cents}
	return t, nil
}
