package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perks/internal/core"
	"perks/internal/userstate"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "perks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func boolPtr(b bool) *bool { return &b }

func TestSQLiteStoreBenefitState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	st, err := store.BenefitState(ctx, "uber")
	require.NoError(t, err)
	assert.False(t, st.Enrolled, "unknown benefit must read as zero state")

	require.NoError(t, store.MergeBenefitState(ctx, "uber", userstate.StatePatch{Enrolled: boolPtr(true)}))
	notes := "activated"
	require.NoError(t, store.MergeBenefitState(ctx, "uber", userstate.StatePatch{Notes: &notes}))

	st, err = store.BenefitState(ctx, "uber")
	require.NoError(t, err)
	assert.True(t, st.Enrolled)
	assert.Equal(t, "activated", st.Notes)
}

func TestSQLiteStoreMergeUsage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	usage := map[string]core.BenefitUsage{
		"dining": {
			Periods: map[string]core.PeriodUsage{
				"dining-2025-p1": {
					Used: core.Money{Cents: 2500},
					Transactions: []core.StoredTransaction{
						{ID: "t1", Date: core.NewDate(2025, 1, 10), Description: "AMEX DINING CREDIT", Amount: core.Money{Cents: 2500}},
					},
				},
			},
			Transactions: []core.StoredTransaction{
				{ID: "t2", Date: core.NewDate(2025, 2, 1), Description: "FLAT CREDIT", Amount: core.Money{Cents: 1000}},
			},
		},
	}
	require.NoError(t, store.MergeUsage(ctx, usage))

	st, err := store.BenefitState(ctx, "dining")
	require.NoError(t, err)
	require.Len(t, st.PeriodTransactions["dining-2025-p1"], 1)
	assert.Equal(t, int64(2500), st.PeriodTransactions["dining-2025-p1"][0].Amount.Cents)
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, "FLAT CREDIT", st.Transactions[0].Description)

	states, err := store.BenefitStates(ctx)
	require.NoError(t, err)
	assert.Contains(t, states, "dining")
}

func TestSQLiteStoreClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.MergeBenefitState(ctx, "saks", userstate.StatePatch{Ignored: boolPtr(true)}))
	require.NoError(t, store.MergeUsage(ctx, map[string]core.BenefitUsage{
		"saks": {Transactions: []core.StoredTransaction{{ID: "t1", Date: core.NewDate(2025, 3, 1), Amount: core.Money{Cents: 5000}}}},
	}))

	require.NoError(t, store.ClearBenefitState(ctx, "saks"))

	st, err := store.BenefitState(ctx, "saks")
	require.NoError(t, err)
	assert.False(t, st.Ignored)
	assert.Empty(t, st.Transactions)
}

func TestSQLiteStoreCardTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txs := []core.StoredTransaction{
		{ID: "a", Date: core.NewDate(2025, 1, 1), Description: "one", Amount: core.Money{Cents: 100}, Type: "Adjustment"},
		{ID: "b", Date: core.NewDate(2025, 1, 2), Description: "two", Amount: core.Money{Cents: 200}},
	}
	require.NoError(t, store.AppendCardTransactions(ctx, "card", txs))

	got, err := store.CardTransactions(ctx, "card")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, core.NewDate(2025, 1, 1), got[0].Date)
	assert.Equal(t, "Adjustment", got[0].Type)
	assert.Equal(t, "b", got[1].ID)
}

func TestSQLiteStoreSubscribe(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var notified int
	unsubscribe := store.Subscribe(func() { notified++ })

	require.NoError(t, store.MergeBenefitState(ctx, "uber", userstate.StatePatch{Enrolled: boolPtr(true)}))
	assert.Equal(t, 1, notified)

	unsubscribe()
	require.NoError(t, store.ClearBenefitState(ctx, "uber"))
	assert.Equal(t, 1, notified)
}
