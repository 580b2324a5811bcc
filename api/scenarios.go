/*
scenarios.go - Demo seed loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the record store with
  realistic data for demos. Each scenario seeds inventory and then drives
  the REAL orchestrators (sell, payments), so the seeded state is exactly
  what the production flows produce.

AVAILABLE SCENARIOS:
  fresh-inventory:  Both projects seeded with Available lots only
  active-ledgers:   Sold lots with payment history in both projects
  near-completion:  A ledger one payment away from fully paid

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "active-ledgers"}

NOTE:
  Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: handler context and shared helpers
  - lifecycle, payment: the orchestrators the loaders drive
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Omniportal2025/omniportal-core/estate"
	"github.com/Omniportal2025/omniportal-core/record"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-inventory",
		Name:        "Fresh Inventory",
		Description: "Both projects seeded with Available lots, no sales yet",
	},
	{
		ID:          "active-ledgers",
		Name:        "Active Ledgers",
		Description: "Sold lots with running balances and payment history",
	},
	{
		ID:          "near-completion",
		Name:        "Near Completion",
		Description: "A balance one payment away from fully paid",
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario id.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// LoadScenario resets the store and loads the selected scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", req.ScenarioID), nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": req.ScenarioID, "status": "loaded"})
}

var errUnknownScenario = errors.New("unknown scenario")

// LoadScenarioByID resets the store and loads one scenario. Used by the
// HTTP handler above and by -seed at startup.
func (h *Handler) LoadScenarioByID(ctx context.Context, scenarioID string) error {
	if err := h.resetStore(ctx); err != nil {
		return err
	}

	var err error
	switch scenarioID {
	case "fresh-inventory":
		err = h.seedInventory(ctx)
	case "active-ledgers":
		err = h.seedActiveLedgers(ctx)
	case "near-completion":
		err = h.seedNearCompletion(ctx)
	default:
		return errUnknownScenario
	}
	if err != nil {
		return err
	}

	h.currentScenario = scenarioID
	return nil
}

// ResetDatabase wipes the store.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.resetStore(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) resetStore(ctx context.Context) error {
	resetter, ok := h.Store.(Resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	return resetter.Reset(ctx)
}

// =============================================================================
// SEED LOADERS
// =============================================================================

// seedInventory creates Available lots in both project collections.
func (h *Handler) seedInventory(ctx context.Context) error {
	livingWaterLots := []record.Row{
		{estate.FieldBlock: "1", estate.FieldLot: "1", estate.FieldLotArea: "120", estate.FieldPricePerSqm: "3750"},
		{estate.FieldBlock: "1", estate.FieldLot: "2", estate.FieldLotArea: "150", estate.FieldPricePerSqm: "3750"},
		{estate.FieldBlock: "2", estate.FieldLot: "5", estate.FieldLotArea: "100", estate.FieldPricePerSqm: "4200"},
	}
	for _, row := range livingWaterLots {
		row[estate.FieldStatus] = estate.StatusAvailable
		if _, err := h.Store.Insert(ctx, estate.ProjectLivingWater.Collection(), row); err != nil {
			return err
		}
	}

	havahillsLots := []record.Row{
		{estate.FieldBlock: "3", estate.FieldLot: "7"},
		{estate.FieldBlock: "3", estate.FieldLot: "8"},
		{estate.FieldBlock: "4", estate.FieldLot: "1"},
	}
	for _, row := range havahillsLots {
		row[estate.FieldStatus] = estate.StatusAvailable
		if _, err := h.Store.Insert(ctx, estate.ProjectHavahills.Collection(), row); err != nil {
			return err
		}
	}
	return nil
}

// seedActiveLedgers sells lots in both projects and applies a few payments.
func (h *Handler) seedActiveLedgers(ctx context.Context) error {
	if err := h.seedInventory(ctx); err != nil {
		return err
	}

	// Living Water: sell block 1 lot 1 and pay two months.
	lw := estate.UnitID{Project: estate.ProjectLivingWater, Block: "1", Lot: "1"}
	prop, err := h.seedProperty(ctx, lw)
	if err != nil {
		return err
	}
	if _, err := h.Coordinator.Sell(ctx, prop, estate.SaleDetails{
		estate.FieldBlock:            "1",
		estate.FieldLot:              "1",
		estate.FieldOwner:            "Maria Santos",
		estate.FieldNetContractPrice: "450000",
		estate.FieldFirstMA:          "12500",
		estate.FieldSellerName:       "J. Ocampo",
		estate.FieldReservation:      "5000",
	}); err != nil {
		return err
	}
	for _, month := range []string{"January", "February"} {
		if _, err := h.Payments.Apply(ctx, lw, estate.PaymentInput{
			Amount:      "12500",
			PaymentType: "Cash",
			MonthLabel:  month,
			DueDate:     estate.DueDate15th,
			Vat:         estate.VatNon,
		}); err != nil {
			return err
		}
	}

	// Havahills: sell block 3 lot 7 and pay one month.
	hh := estate.UnitID{Project: estate.ProjectHavahills, Block: "3", Lot: "7"}
	prop, err = h.seedProperty(ctx, hh)
	if err != nil {
		return err
	}
	if _, err := h.Coordinator.Sell(ctx, prop, estate.SaleDetails{
		estate.FieldBlock:        "3",
		estate.FieldLot:          "7",
		estate.FieldBuyersName:   "Ramon Dela Cruz",
		estate.FieldTCP:          "800000",
		estate.FieldMonthlyAmort: "16000",
		estate.FieldTerm:         "48",
		estate.FieldDue:          estate.DueDate30th,
		estate.FieldSellerName:   "A. Reyes",
	}); err != nil {
		return err
	}
	if _, err := h.Payments.Apply(ctx, hh, estate.PaymentInput{
		Amount:      "16000",
		PaymentType: "GCash",
		MonthLabel:  "January",
		DueDate:     estate.DueDate30th,
		Vat:         estate.VatVatable,
	}); err != nil {
		return err
	}

	return nil
}

// seedNearCompletion builds a ledger where one more exact payment completes
// it, for demoing the completion gate.
func (h *Handler) seedNearCompletion(ctx context.Context) error {
	if err := h.seedInventory(ctx); err != nil {
		return err
	}

	_, err := h.Store.Insert(ctx, record.CollectionBalance, record.Row{
		estate.FieldProject:         string(estate.ProjectHavahills),
		estate.FieldBlock:           "4",
		estate.FieldLot:             "1",
		estate.FieldName:            "Lucia Ferrer",
		estate.FieldTCP:             "600000",
		estate.FieldAmount:          "590000",
		estate.FieldRemaining:       "10000",
		estate.FieldMonthsPaidLabel: "November",
		estate.FieldMonthsPaidCount: "23",
		estate.FieldTerms:           "24",
		estate.FieldDueDate:         estate.DueDate15th,
	})
	return err
}

// seedProperty re-reads a seeded lot so the coordinator sees current state.
func (h *Handler) seedProperty(ctx context.Context, id estate.UnitID) (estate.Property, error) {
	row, err := h.Store.Get(ctx, id.Project.Collection(), id.PropertyKey())
	if err != nil {
		return estate.Property{}, err
	}
	return estate.PropertyFromRow(id.Project, row), nil
}
