/*
handlers.go - HTTP API handlers for the back-office core

PURPOSE:
  Exposes the lifecycle and payment orchestrators plus the tabular browse
  glue the back-office screens sit on. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Inventory:
    GET    /api/projects                                   Known projects
    GET    /api/projects/{project}/properties              List lots
    GET    /api/projects/{project}/properties/{block}/{lot} One lot
    PUT    /api/projects/{project}/properties/{block}/{lot} Edit lot fields

  Lifecycle:
    POST   /api/properties/sell     Available -> Sold
    POST   /api/properties/reopen   Sold -> Available

  Ledger:
    GET    /api/balances                                   List balances
    GET    /api/balances/{project}/{block}/{lot}           One balance
    GET    /api/balances/{project}/{block}/{lot}/complete  Completion gate
    POST   /api/balances/payments                          Apply a payment

  Audit / reference:
    GET    /api/payments    Payment records (filter by name/project/block/lot)
    GET    /api/clients     Client rows
    GET    /api/documents   Document rows

  Scenarios (dev/demo only):
    GET    /api/scenarios
    POST   /api/scenarios/load
    POST   /api/scenarios/reset

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: validation errors, invalid amounts, unknown projects
  - 404: missing property/balance rows
  - 409: payment attempted on a completed ledger
  - 500: record store failures

COMPLETION GATING:
  The payment handler consults ledger.IsComplete BEFORE invoking the
  payment service and answers 409 when the ledger is already fully paid.
  The service itself does not re-verify; the gate lives here by contract.

SECURITY NOTE:
  No authentication or authorization. Session handling is owned by the
  surrounding portal, outside this core.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo seed loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Omniportal2025/omniportal-core/estate"
	"github.com/Omniportal2025/omniportal-core/ledger"
	"github.com/Omniportal2025/omniportal-core/lifecycle"
	"github.com/Omniportal2025/omniportal-core/payment"
	"github.com/Omniportal2025/omniportal-core/record"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter is implemented by stores that can be wiped for demo seeding.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       record.Client
	Coordinator *lifecycle.Coordinator
	Payments    *payment.Service

	currentScenario string
}

// NewHandler creates a handler wired to the given record store.
func NewHandler(store record.Client) *Handler {
	return &Handler{
		Store:       store,
		Coordinator: lifecycle.New(store, nil),
		Payments:    payment.New(store, nil),
	}
}

// =============================================================================
// INVENTORY HANDLERS
// =============================================================================

// ListProjects returns the known project names.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(estate.Projects()))
	for _, p := range estate.Projects() {
		names = append(names, string(p))
	}
	writeJSON(w, http.StatusOK, names)
}

// ListProperties returns all lots of one project, optionally filtered by
// ?status=Available|Sold.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectParam(w, r)
	if !ok {
		return
	}

	filter := record.Filter{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter[estate.FieldStatus] = status
	}

	rows, err := h.Store.List(r.Context(), project.Collection(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list properties", err)
		return
	}

	dtos := make([]PropertyDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toPropertyDTO(estate.PropertyFromRow(project, row))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProperty returns a single lot.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	prop, ok := h.fetchProperty(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(prop))
}

// UpdateProperty patches a lot's fields (inventory edit screens). Lifecycle
// transitions do NOT go through here; status changes are rejected.
func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	prop, ok := h.fetchProperty(w, r)
	if !ok {
		return
	}

	var patch map[string]string
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if status, present := patch[estate.FieldStatus]; present && status != prop.Status {
		writeError(w, http.StatusBadRequest, "Status changes go through sell/reopen", nil)
		return
	}

	row, err := h.Store.Update(r.Context(), prop.ID.Project.Collection(), prop.ID.PropertyKey(), record.Row(patch))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update property", err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(estate.PropertyFromRow(prop.ID.Project, row)))
}

// =============================================================================
// LIFECYCLE HANDLERS
// =============================================================================

// SellProperty flips an Available lot to Sold.
func (h *Handler) SellProperty(w http.ResponseWriter, r *http.Request) {
	var req SellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	prop, ok := h.loadProperty(w, r, req.Project, req.Block, req.Lot)
	if !ok {
		return
	}

	id, err := h.Coordinator.Sell(r.Context(), prop, estate.SaleDetails(req.Details))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransitionDTO{
		Project: string(id.Project), Block: id.Block, Lot: id.Lot,
		Status: estate.StatusSold,
	})
}

// ReopenProperty unwinds a Sold lot back to Available.
func (h *Handler) ReopenProperty(w http.ResponseWriter, r *http.Request) {
	var req ReopenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	prop, ok := h.loadProperty(w, r, req.Project, req.Block, req.Lot)
	if !ok {
		return
	}

	id, err := h.Coordinator.Reopen(r.Context(), prop)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransitionDTO{
		Project: string(id.Project), Block: id.Block, Lot: id.Lot,
		Status: estate.StatusAvailable,
	})
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListBalances returns every balance row.
func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.List(r.Context(), record.CollectionBalance, record.Filter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list balances", err)
		return
	}

	dtos := make([]BalanceDTO, 0, len(rows))
	for _, row := range rows {
		b, err := estate.BalanceFromRow(row)
		if err != nil {
			continue // rows blanked by reopen may have lost their project label
		}
		dtos = append(dtos, toBalanceDTO(b, ledger.IsComplete(b)))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBalance returns one unit's balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	b, ok := h.fetchBalance(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b, ledger.IsComplete(b)))
}

// GetCompletion answers the completion gate for one unit.
func (h *Handler) GetCompletion(w http.ResponseWriter, r *http.Request) {
	b, ok := h.fetchBalance(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, CompletionDTO{Complete: ledger.IsComplete(b)})
}

// ApplyPayment applies one payment event to a unit's balance. The completion
// gate lives HERE: a fully paid ledger answers 409 and the service is never
// invoked.
func (h *Handler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	project, err := estate.ParseProject(req.Project)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	id := estate.UnitID{Project: project, Block: req.Block, Lot: req.Lot}

	row, err := h.Store.Get(r.Context(), record.CollectionBalance, id.BalanceKey())
	if record.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Balance not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load balance", err)
		return
	}
	current, err := estate.BalanceFromRow(row)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if ledger.IsComplete(current) {
		writeError(w, http.StatusConflict, "Balance is fully paid", nil)
		return
	}

	in := estate.PaymentInput{
		Amount:         req.Amount,
		Penalty:        req.Penalty,
		PaymentType:    req.PaymentType,
		MonthLabel:     req.MonthLabel,
		DueDate:        req.DueDate,
		Vat:            req.Vat,
		IdempotencyKey: req.IdempotencyKey,
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = uuid.NewString()
	}

	updated, err := h.Payments.Apply(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceDTO(updated, ledger.IsComplete(updated)))
}

// =============================================================================
// AUDIT / REFERENCE HANDLERS
// =============================================================================

// ListPayments returns payment records, optionally filtered by query params.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := record.Filter{}
	for param, field := range map[string]string{
		"name":    estate.FieldName,
		"project": estate.FieldProject,
		"block":   estate.FieldBlock,
		"lot":     estate.FieldLot,
	} {
		if v := r.URL.Query().Get(param); v != "" {
			filter[field] = v
		}
	}

	rows, err := h.Store.List(r.Context(), record.CollectionPayments, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentRecordDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toPaymentRecordDTO(row)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListClients returns all client rows.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.List(r.Context(), record.CollectionClients, record.Filter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(rows))
	for i, row := range rows {
		dtos[i] = ClientDTO{Name: row[estate.FieldName], Email: row[estate.FieldEmail]}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListDocuments returns all document rows.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.List(r.Context(), record.CollectionDocuments, record.Filter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	dtos := make([]DocumentDTO, len(rows))
	for i, row := range rows {
		dtos[i] = DocumentDTO{
			Name:  row[estate.FieldName],
			Label: row[estate.FieldLabel],
			Path:  row[estate.FieldPath],
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func (h *Handler) projectParam(w http.ResponseWriter, r *http.Request) (estate.Project, bool) {
	project, err := estate.ParseProject(chi.URLParam(r, "project"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown project", err)
		return "", false
	}
	return project, true
}

// fetchProperty loads the lot addressed by URL params.
func (h *Handler) fetchProperty(w http.ResponseWriter, r *http.Request) (estate.Property, bool) {
	project, ok := h.projectParam(w, r)
	if !ok {
		return estate.Property{}, false
	}
	return h.loadProperty(w, r, string(project), chi.URLParam(r, "block"), chi.URLParam(r, "lot"))
}

// loadProperty loads a lot by explicit identity.
func (h *Handler) loadProperty(w http.ResponseWriter, r *http.Request, projectName, block, lot string) (estate.Property, bool) {
	project, err := estate.ParseProject(projectName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown project", err)
		return estate.Property{}, false
	}

	key := record.Filter{estate.FieldBlock: block, estate.FieldLot: lot}
	row, err := h.Store.Get(r.Context(), project.Collection(), key)
	if record.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Property not found", nil)
		return estate.Property{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load property", err)
		return estate.Property{}, false
	}
	return estate.PropertyFromRow(project, row), true
}

// fetchBalance loads the balance addressed by URL params.
func (h *Handler) fetchBalance(w http.ResponseWriter, r *http.Request) (estate.Balance, bool) {
	project, ok := h.projectParam(w, r)
	if !ok {
		return estate.Balance{}, false
	}
	id := estate.UnitID{Project: project, Block: chi.URLParam(r, "block"), Lot: chi.URLParam(r, "lot")}

	row, err := h.Store.Get(r.Context(), record.CollectionBalance, id.BalanceKey())
	if record.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Balance not found", nil)
		return estate.Balance{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load balance", err)
		return estate.Balance{}, false
	}

	b, err := estate.BalanceFromRow(row)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Malformed balance row", err)
		return estate.Balance{}, false
	}
	return b, true
}

// writeDomainError maps domain error kinds to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case estate.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, estate.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "Record store failure", err)
	default:
		writeError(w, http.StatusInternalServerError, "Operation failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
