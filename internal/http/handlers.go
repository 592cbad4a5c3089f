package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"perks/internal/core"
	"perks/internal/log"
	"perks/internal/services"
	"perks/internal/statement"
	"perks/internal/userstate"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Cards())
}

// handleListBenefits returns merged benefit views for the viewing year,
// optionally filtered to one card.
func (s *Server) handleListBenefits(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	defs := s.catalog.Benefits()
	if cardID := r.URL.Query().Get("card"); cardID != "" {
		if _, err := s.catalog.Card(cardID); err != nil {
			writeError(w, err)
			return
		}
		defs = s.catalog.CardBenefits(cardID)
	}

	states, err := s.store.BenefitStates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	benefits := make([]core.Benefit, 0, len(defs))
	for _, def := range defs {
		benefits = append(benefits, services.MergeBenefit(def, states[def.ID], year, s.clock))
	}
	writeJSON(w, http.StatusOK, benefits)
}

func (s *Server) handleGetBenefit(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	def, err := s.catalog.Benefit(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	state, err := s.store.BenefitState(r.Context(), def.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services.MergeBenefit(def, state, year, s.clock))
}

func (s *Server) handleSetEnrolled(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enrolled bool `json:"enrolled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	s.patchState(w, r, userstate.StatePatch{Enrolled: &body.Enrolled})
}

func (s *Server) handleSetIgnored(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ignored bool `json:"ignored"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	s.patchState(w, r, userstate.StatePatch{Ignored: &body.Ignored})
}

func (s *Server) handlePatchState(w http.ResponseWriter, r *http.Request) {
	var patch userstate.StatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	s.patchState(w, r, patch)
}

// patchState applies a partial state update and returns the refreshed merged
// view for the current year.
func (s *Server) patchState(w http.ResponseWriter, r *http.Request, patch userstate.StatePatch) {
	def, err := s.catalog.Benefit(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.MergeBenefitState(r.Context(), def.ID, patch); err != nil {
		writeError(w, err)
		return
	}
	state, err := s.store.BenefitState(r.Context(), def.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services.MergeBenefit(def, state, 0, s.clock))
}

func (s *Server) handleClearState(w http.ResponseWriter, r *http.Request) {
	def, err := s.catalog.Benefit(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.ClearBenefitState(r.Context(), def.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type addTransactionRequest struct {
	Date        core.Date `json:"date"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	Type        string    `json:"type,omitempty"`
	PeriodID    string    `json:"periodId,omitempty"`
}

// handleAddTransaction records a manually-entered credit against a benefit.
// The period is resolved by date containment unless the caller names one
// explicitly; a named period must exist for the transaction's year.
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	def, err := s.catalog.Benefit(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var body addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if body.Date.IsZero() {
		badRequest(w, "date is required")
		return
	}
	if body.AmountCents <= 0 {
		writeError(w, core.ErrInvalidAmount)
		return
	}

	tx := core.StoredTransaction{
		ID:          uuid.New().String(),
		Date:        body.Date,
		Description: body.Description,
		Amount:      core.Money{Cents: body.AmountCents},
		Type:        body.Type,
	}

	periods := services.GeneratePeriods(def, body.Date.Year())
	periodID := body.PeriodID
	if periodID != "" {
		found := false
		for _, p := range periods {
			if p.ID == periodID {
				found = true
				break
			}
		}
		if !found {
			writeError(w, core.ErrPeriodNotFound)
			return
		}
	} else {
		for _, p := range periods {
			if body.Date.In(p.StartDate, p.EndDate) {
				periodID = p.ID
				break
			}
		}
	}

	usage := core.BenefitUsage{}
	if periodID != "" {
		usage.Periods = map[string]core.PeriodUsage{
			periodID: {Used: tx.Amount, Transactions: []core.StoredTransaction{tx}},
		}
	} else {
		usage.Transactions = []core.StoredTransaction{tx}
	}

	if err := s.store.MergeUsage(r.Context(), map[string]core.BenefitUsage{def.ID: usage}); err != nil {
		writeError(w, err)
		return
	}
	s.publishSync(r, def.CardID, body.Date.Year())

	state, err := s.store.BenefitState(r.Context(), def.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, services.MergeBenefit(def, state, body.Date.Year(), s.clock))
}

// handleImport parses a CSV statement from the request body, reconciles it
// against the card's benefits, and merges the result into the store.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	cardID := r.URL.Query().Get("card")
	if cardID == "" {
		badRequest(w, "card query parameter is required")
		return
	}
	card, err := s.catalog.Card(cardID)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := statement.Parse(r.Body)
	if err != nil {
		badRequest(w, "parse statement: "+err.Error())
		return
	}

	defs := s.catalog.CardBenefits(card.ID)
	report, usage := services.ReconcileStatement(records, card, defs)

	if err := s.store.MergeUsage(r.Context(), usage); err != nil {
		writeError(w, err)
		return
	}

	stored := make([]core.StoredTransaction, 0, len(report.Matched)+len(report.Unmatched))
	for _, m := range report.Matched {
		stored = append(stored, m.Transaction)
	}
	stored = append(stored, report.Unmatched...)
	if err := s.store.AppendCardTransactions(r.Context(), card.ID, stored); err != nil {
		writeError(w, err)
		return
	}
	s.publishSync(r, card.ID, 0)

	s.logger.InfoContext(r.Context(), "Imported statement",
		log.FieldCardID, card.ID,
		"records", len(records),
		"matched", report.TotalMatched,
		"unmatched", report.TotalUnmatched)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	states, err := s.store.BenefitStates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	defs := s.catalog.Benefits()
	benefits := make([]core.Benefit, 0, len(defs))
	for _, def := range defs {
		benefits = append(benefits, services.MergeBenefit(def, states[def.ID], year, s.clock))
	}
	writeJSON(w, http.StatusOK, services.CalculateStats(benefits, year, s.clock))
}

// publishSync emits a usage-change event; failures are logged, never
// surfaced, so local writes always win.
func (s *Server) publishSync(r *http.Request, cardID string, year int) {
	if s.publisher == nil {
		return
	}
	year = services.ResolveViewingYear(year, s.clock)
	if err := s.publisher.PublishUsageSync(r.Context(), cardID, year); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to publish usage sync",
			log.FieldCardID, cardID,
			log.FieldError, err)
	}
}

// yearParam reads the optional year query parameter. Zero means "current
// year", resolved downstream by the clock.
func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 0 {
		badRequest(w, "invalid year: "+raw)
		return 0, false
	}
	return year, true
}
