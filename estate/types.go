/*
Package estate holds the domain types of the property-sales back office.

PURPOSE:
  Defines the entities the lifecycle and payment orchestrators work with:
  projects and their property schema variants, balances, payments, and the
  identity types tying them together. Also owns the row codecs translating
  between domain types and the string-valued rows of the record store.

KEY CONCEPTS IN THIS FILE (types.go):
  - Project: a closed enum of the two known inventory projects. The property
    collection name IS the project name, and the two projects use disjoint
    field sets (different buyer field, different contract value field).
  - UnitID: (project, block, lot) — the identity of a property AND of its
    balance row while sold.
  - Balance: decoded ledger state of one sold unit.
  - PaymentInput: one payment event as submitted by the caller.

DESIGN PRINCIPLES:
  1. Precision: money is decimal.Decimal, never float.
  2. Raw rows at the edge: the record store speaks string fields; decoding
     happens here, once, and orchestrators work with typed values.
  3. The store's column labels are the hosted store's display labels,
     quirks included ("Months Paid" the text label vs "MONTHS PAID" the
     counter). The constants below are the single source for them.

SEE ALSO:
  - errors.go: error kinds for the orchestrators
  - ledger: pure calculator over Balance snapshots
  - lifecycle, payment: the orchestrators
*/
package estate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Omniportal2025/omniportal-core/record"
)

// =============================================================================
// FIELD LABELS - Column names as the hosted store spells them
// =============================================================================

const (
	FieldName            = "Name"
	FieldBlock           = "Block"
	FieldLot             = "Lot"
	FieldProject         = "Project"
	FieldStatus          = "Status"
	FieldTCP             = "TCP"
	FieldAmount          = "Amount"
	FieldRemaining       = "Remaining Balance"
	FieldMonthsPaidLabel = "Months Paid"  // free-text label of the latest paid period
	FieldMonthsPaidCount = "MONTHS PAID"  // numeric-as-string count of payment events
	FieldTerms           = "Terms"
	FieldDueDate         = "Due Date"
	FieldPenalty         = "Penalty"
	FieldPaymentType     = "Payment Type"
	FieldPaymentMonth    = "Payment for the Month of"
	FieldVat             = "Vat"
	FieldSqm             = "sqm"
	FieldPricePerSqm     = "pricepersqm"
	FieldMonthlyAmort    = "Monthly Amortization"
	FieldEmail           = "Email"
	FieldReference       = "Reference" // client-generated idempotency key on payment records
	FieldCreatedAt       = "Created At"

	// Living Water property schema
	FieldOwner            = "Owner"
	FieldNetContractPrice = "Net Contract Price"
	FieldFirstMA          = "First MA"
	FieldLotArea          = "Lot Area"

	// Havahills property schema
	FieldBuyersName    = "Buyers Name"
	FieldTerm          = "Term"
	FieldDue           = "Due"
	FieldSalesDirector = "Sales Director"

	// Shared sale metadata
	FieldReservation = "Reservation"
	FieldRealty      = "Realty"
	FieldSellerName  = "Seller Name"
	FieldBroker      = "Broker / Realty"

	// Documents collection
	FieldLabel = "Label"
	FieldPath  = "Path"
)

const (
	StatusAvailable = "Available"
	StatusSold      = "Sold"

	DueDate15th = "15th"
	DueDate30th = "30th"

	VatVatable = "Vatable"
	VatNon     = "Non Vat"
)

// =============================================================================
// PROJECT - Closed enum of inventory projects, one collection each
// =============================================================================

type Project string

const (
	ProjectLivingWater Project = "Living Water Subdivision"
	ProjectHavahills   Project = "Havahills Estate"
)

// Projects lists the known projects in display order.
func Projects() []Project {
	return []Project{ProjectLivingWater, ProjectHavahills}
}

// ParseProject resolves a project name, or ErrUnknownProject.
func ParseProject(name string) (Project, error) {
	for _, p := range Projects() {
		if string(p) == name {
			return p, nil
		}
	}
	return "", &ValidationError{Field: FieldProject, Reason: fmt.Sprintf("unknown project %q", name), Err: ErrUnknownProject}
}

// Collection returns the record-store collection holding this project's lots.
func (p Project) Collection() string { return string(p) }

// BuyerField returns the project-specific field carrying the buyer's name.
func (p Project) BuyerField() string {
	if p == ProjectHavahills {
		return FieldBuyersName
	}
	return FieldOwner
}

// ContractValueField returns the field seeding a new Balance's remaining
// balance: Net Contract Price for Living Water, TCP for Havahills.
func (p Project) ContractValueField() string {
	if p == ProjectHavahills {
		return FieldTCP
	}
	return FieldNetContractPrice
}

// FirstAmortizationField returns the field seeding a new Balance's first
// amount paid.
func (p Project) FirstAmortizationField() string {
	if p == ProjectHavahills {
		return FieldMonthlyAmort
	}
	return FieldFirstMA
}

// SaleFields returns every buyer/seller/reservation field this project's
// schema carries. Sell copies them onto the property row; Reopen blanks
// every one of them.
func (p Project) SaleFields() []string {
	if p == ProjectHavahills {
		return []string{
			FieldBuyersName, FieldTCP, FieldMonthlyAmort, FieldTerm, FieldDue,
			FieldRealty, FieldSellerName, FieldSalesDirector, FieldReservation,
		}
	}
	return []string{
		FieldOwner, FieldNetContractPrice, FieldFirstMA, FieldLotArea,
		FieldPricePerSqm, FieldRealty, FieldSellerName, FieldBroker, FieldReservation,
	}
}

// =============================================================================
// IDENTITY
// =============================================================================

// UnitID identifies one lot: the property row in its project collection and,
// while sold, the balance row keyed by the same triple.
type UnitID struct {
	Project Project
	Block   string
	Lot     string
}

func (id UnitID) String() string {
	return fmt.Sprintf("%s B%s L%s", id.Project, id.Block, id.Lot)
}

// PropertyKey filters the project collection for this lot.
func (id UnitID) PropertyKey() record.Filter {
	return record.Filter{FieldBlock: id.Block, FieldLot: id.Lot}
}

// BalanceKey filters the Balance collection for this lot.
func (id UnitID) BalanceKey() record.Filter {
	return record.Filter{
		FieldProject: string(id.Project),
		FieldBlock:   id.Block,
		FieldLot:     id.Lot,
	}
}

// =============================================================================
// PROPERTY
// =============================================================================

// Property is a lot row as read from a project collection. The schema varies
// per project, so the raw fields are retained next to the decoded identity.
type Property struct {
	ID     UnitID
	Status string
	Fields record.Row
}

// PropertyFromRow decodes a property row from the given project collection.
func PropertyFromRow(project Project, row record.Row) Property {
	return Property{
		ID:     UnitID{Project: project, Block: row[FieldBlock], Lot: row[FieldLot]},
		Status: row[FieldStatus],
		Fields: row.Clone(),
	}
}

// BuyerName returns the buyer's name under this project's schema, blank when
// the lot has none recorded.
func (p Property) BuyerName() string {
	return strings.TrimSpace(p.Fields[p.ID.Project.BuyerField()])
}

// SaleDetails carries the editable property fields submitted with a Sell.
// The field set depends on the project's schema variant; unknown fields are
// written through untouched (the inventory screens own the full schema).
type SaleDetails record.Row

// BuyerName returns the buyer name under the project's schema variant.
func (d SaleDetails) BuyerName(p Project) string {
	return strings.TrimSpace(record.Row(d)[p.BuyerField()])
}

// ContractValue returns the value seeding Remaining Balance on Sell.
func (d SaleDetails) ContractValue(p Project) decimal.Decimal {
	return parseDecimal(record.Row(d)[p.ContractValueField()])
}

// FirstAmortization returns the value seeding Amount on Sell.
func (d SaleDetails) FirstAmortization(p Project) decimal.Decimal {
	return parseDecimal(record.Row(d)[p.FirstAmortizationField()])
}

// =============================================================================
// BALANCE - Decoded ledger state of one sold unit
// =============================================================================

type Balance struct {
	ID              UnitID
	Name            string
	TCP             decimal.Decimal
	AmountPaid      decimal.Decimal
	Remaining       decimal.Decimal
	MonthsPaidLabel string
	MonthsPaidCount int
	Terms           int
	DueDate         string
	Fields          record.Row
}

// BalanceFromRow decodes a Balance collection row.
func BalanceFromRow(row record.Row) (Balance, error) {
	project, err := ParseProject(row[FieldProject])
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		ID:              UnitID{Project: project, Block: row[FieldBlock], Lot: row[FieldLot]},
		Name:            row[FieldName],
		TCP:             parseDecimal(row[FieldTCP]),
		AmountPaid:      parseDecimal(row[FieldAmount]),
		Remaining:       parseDecimal(row[FieldRemaining]),
		MonthsPaidLabel: row[FieldMonthsPaidLabel],
		MonthsPaidCount: parseCount(row[FieldMonthsPaidCount]),
		Terms:           parseCount(row[FieldTerms]),
		DueDate:         row[FieldDueDate],
		Fields:          row.Clone(),
	}, nil
}

// =============================================================================
// PAYMENT
// =============================================================================

// PaymentInput is one payment event as submitted by the caller. Amount and
// Penalty arrive as strings: the hosted store's forms submit text, and the
// calculator is where "non-numeric" must be caught.
type PaymentInput struct {
	Amount         string
	Penalty        string
	PaymentType    string
	MonthLabel     string // written to "Payment for the Month of" and "Months Paid"
	DueDate        string // 15th or 30th
	Vat            string // Vatable or Non Vat
	IdempotencyKey string // client-generated; de-dupes the audit row on retry
}

// PaymentRecord is one immutable audit row, decoded for API responses.
type PaymentRecord struct {
	Name        string
	Amount      decimal.Decimal
	Project     string
	Block       string
	Lot         string
	PaymentType string
	Penalty     decimal.Decimal
	MonthLabel  string
	DueDate     string
	Vat         string
	Reference   string
	CreatedAt   string
}

// PaymentRecordFromRow decodes a Payment Record row.
func PaymentRecordFromRow(row record.Row) PaymentRecord {
	return PaymentRecord{
		Name:        row[FieldName],
		Amount:      parseDecimal(row[FieldAmount]),
		Project:     row[FieldProject],
		Block:       row[FieldBlock],
		Lot:         row[FieldLot],
		PaymentType: row[FieldPaymentType],
		Penalty:     parseDecimal(row[FieldPenalty]),
		MonthLabel:  row[FieldPaymentMonth],
		DueDate:     row[FieldDueDate],
		Vat:         row[FieldVat],
		Reference:   row[FieldReference],
		CreatedAt:   row[FieldCreatedAt],
	}
}

// =============================================================================
// PARSING HELPERS - Tolerant reads of the store's string fields
// =============================================================================

// parseDecimal reads a stored numeric field. Blank or malformed reads as
// zero: balances seeded before this core existed hold blanks where nulls
// belong, and a read must not fail on them.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseCount normalizes a numeric-as-string counter ("3", " 3 ", "") to int.
func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// FormatDecimal renders a decimal for storage.
func FormatDecimal(d decimal.Decimal) string { return d.String() }

// FormatCount renders a counter for storage.
func FormatCount(n int) string { return strconv.Itoa(n) }
