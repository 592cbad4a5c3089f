// Package worker runs the background usage-export loop: it listens for
// usage-change events over AMQP and additionally re-exports everything on a
// fixed interval so the spreadsheet converges even when events are lost.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"perks/internal/amqp"
	"perks/internal/catalog"
	"perks/internal/log"
	"perks/internal/services"
	"perks/internal/sheets"
	"perks/internal/userstate"
)

type SyncWorker struct {
	catalog  *catalog.Catalog
	store    userstate.Store
	exporter sheets.UsageExporter
	client   *amqp.Client
	clock    services.Clock
	interval time.Duration
	logger   *log.Logger
}

func NewSyncWorker(cat *catalog.Catalog, store userstate.Store, exporter sheets.UsageExporter, client *amqp.Client, interval time.Duration, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		catalog:  cat,
		store:    store,
		exporter: exporter,
		client:   client,
		clock:    services.SystemClock,
		interval: interval,
		logger:   logger.WithComponent("sync-worker"),
	}
}

// Run blocks until the context is cancelled, driving the AMQP consumer and
// the periodic full export concurrently.
func (w *SyncWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.client != nil {
		g.Go(func() error {
			err := w.client.ConsumeUsageSync(ctx, func(msg *amqp.UsageSyncMessage) error {
				return w.exportCard(ctx, msg.CardID, msg.Year)
			})
			if err != nil && ctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.exportAll(ctx); err != nil {
					w.logger.ErrorContext(ctx, "Periodic export failed", "error", err)
				}
			}
		}
	})

	w.logger.InfoContext(ctx, "Sync worker started", "interval", w.interval)
	return g.Wait()
}

// exportAll re-exports every card for the current viewing year.
func (w *SyncWorker) exportAll(ctx context.Context) error {
	year := services.ResolveViewingYear(0, w.clock)
	for _, card := range w.catalog.Cards() {
		if err := w.exportCard(ctx, card.ID, year); err != nil {
			return fmt.Errorf("export card %s: %w", card.ID, err)
		}
	}
	return nil
}

// exportCard rebuilds the card's benefit snapshots and appends one row per
// benefit to the export destination.
func (w *SyncWorker) exportCard(ctx context.Context, cardID string, year int) error {
	card, err := w.catalog.Card(cardID)
	if err != nil {
		return err
	}
	year = services.ResolveViewingYear(year, w.clock)

	states, err := w.store.BenefitStates(ctx)
	if err != nil {
		return fmt.Errorf("load benefit states: %w", err)
	}

	defs := w.catalog.CardBenefits(card.ID)
	rows := make([]sheets.UsageRow, 0, len(defs))
	for _, def := range defs {
		b := services.MergeBenefit(def, states[def.ID], year, w.clock)
		rows = append(rows, sheets.UsageRow{
			CardID:      card.ID,
			BenefitID:   def.ID,
			BenefitName: def.Name,
			Year:        year,
			UsedCents:   b.CurrentUsed.Cents,
			CreditCents: def.CreditCents,
			Status:      string(b.Snapshot.Status),
		})
	}
	if len(rows) == 0 {
		return nil
	}

	if err := w.exporter.ExportUsageRows(ctx, rows); err != nil {
		return fmt.Errorf("export usage rows: %w", err)
	}
	w.logger.InfoContext(ctx, "Exported card usage",
		log.FieldCardID, card.ID,
		log.FieldYear, year,
		"benefits", len(rows))
	return nil
}
