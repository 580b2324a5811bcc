/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the record-store row shapes from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and in the domain orchestrators, not in
  DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - estate: the domain types these project
*/
package api

import (
	"github.com/Omniportal2025/omniportal-core/estate"
	"github.com/Omniportal2025/omniportal-core/record"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// PropertyDTO represents a lot in API responses. Fields carries the
// project-specific schema as-is; the table screens render it directly.
type PropertyDTO struct {
	Project string            `json:"project"`
	Block   string            `json:"block"`
	Lot     string            `json:"lot"`
	Status  string            `json:"status"`
	Fields  map[string]string `json:"fields"`
}

// SellRequest asks the coordinator to flip a lot to Sold.
type SellRequest struct {
	Project string            `json:"project"`
	Block   string            `json:"block"`
	Lot     string            `json:"lot"`
	Details map[string]string `json:"details"`
}

// ReopenRequest asks the coordinator to unwind a sold lot.
type ReopenRequest struct {
	Project string `json:"project"`
	Block   string `json:"block"`
	Lot     string `json:"lot"`
}

// TransitionDTO is the result of a sell or reopen.
type TransitionDTO struct {
	Project string `json:"project"`
	Block   string `json:"block"`
	Lot     string `json:"lot"`
	Status  string `json:"status"`
}

// BalanceDTO represents one unit's ledger state.
type BalanceDTO struct {
	Project          string  `json:"project"`
	Block            string  `json:"block"`
	Lot              string  `json:"lot"`
	Name             string  `json:"name"`
	TCP              float64 `json:"tcp"`
	AmountPaid       float64 `json:"amount_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
	MonthsPaidLabel  string  `json:"months_paid_label"`
	MonthsPaidCount  int     `json:"months_paid_count"`
	Terms            int     `json:"terms"`
	DueDate          string  `json:"due_date,omitempty"`
	Complete         bool    `json:"complete"`
}

// PaymentRequest applies one payment to a unit's balance.
type PaymentRequest struct {
	Project        string `json:"project"`
	Block          string `json:"block"`
	Lot            string `json:"lot"`
	Amount         string `json:"amount"`
	Penalty        string `json:"penalty,omitempty"`
	PaymentType    string `json:"payment_type"`
	MonthLabel     string `json:"payment_for_month"`
	DueDate        string `json:"due_date"`
	Vat            string `json:"vat"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// PaymentRecordDTO represents one immutable audit row.
type PaymentRecordDTO struct {
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Project     string  `json:"project"`
	Block       string  `json:"block"`
	Lot         string  `json:"lot"`
	PaymentType string  `json:"payment_type"`
	Penalty     float64 `json:"penalty,omitempty"`
	MonthLabel  string  `json:"payment_for_month"`
	DueDate     string  `json:"due_date"`
	Vat         string  `json:"vat"`
	Reference   string  `json:"reference,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// ClientDTO represents a buyer row.
type ClientDTO struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// DocumentDTO represents a document row (managed elsewhere, listed here).
type DocumentDTO struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Path  string `json:"path,omitempty"`
}

// CompletionDTO answers the "is this ledger fully paid" gate.
type CompletionDTO struct {
	Complete bool `json:"complete"`
}

// ScenarioDTO represents a demo seed scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPropertyDTO(p estate.Property) PropertyDTO {
	return PropertyDTO{
		Project: string(p.ID.Project),
		Block:   p.ID.Block,
		Lot:     p.ID.Lot,
		Status:  p.Status,
		Fields:  p.Fields,
	}
}

func toBalanceDTO(b estate.Balance, complete bool) BalanceDTO {
	tcp, _ := b.TCP.Float64()
	paid, _ := b.AmountPaid.Float64()
	remaining, _ := b.Remaining.Float64()
	return BalanceDTO{
		Project:          string(b.ID.Project),
		Block:            b.ID.Block,
		Lot:              b.ID.Lot,
		Name:             b.Name,
		TCP:              tcp,
		AmountPaid:       paid,
		RemainingBalance: remaining,
		MonthsPaidLabel:  b.MonthsPaidLabel,
		MonthsPaidCount:  b.MonthsPaidCount,
		Terms:            b.Terms,
		DueDate:          b.DueDate,
		Complete:         complete,
	}
}

func toPaymentRecordDTO(row record.Row) PaymentRecordDTO {
	rec := estate.PaymentRecordFromRow(row)
	amount, _ := rec.Amount.Float64()
	penalty, _ := rec.Penalty.Float64()
	return PaymentRecordDTO{
		Name:        rec.Name,
		Amount:      amount,
		Project:     rec.Project,
		Block:       rec.Block,
		Lot:         rec.Lot,
		PaymentType: rec.PaymentType,
		Penalty:     penalty,
		MonthLabel:  rec.MonthLabel,
		DueDate:     rec.DueDate,
		Vat:         rec.Vat,
		Reference:   rec.Reference,
		CreatedAt:   rec.CreatedAt,
	}
}
