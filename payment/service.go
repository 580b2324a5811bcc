/*
Package payment applies one client payment to a balance ledger.

PURPOSE:
  The Service orchestrates a single payment event over the record store:

    1. validate the amount          fail-fast, nothing written
    2. fetch the balance snapshot
    3. run the ledger calculator
    4. write the balance row        CRITICAL - abort, no audit row written
    5. insert the payment record    reported on failure, balance NOT rolled back

  Ledger first, audit second: a crash between 4 and 5 under-records history
  while the ledger has already advanced. Accepted - the reverse order would
  fabricate history for money the ledger never saw, which is worse.

IDEMPOTENCY:
  Step 5 alone is not idempotent: a retry after an ambiguous failure could
  append the audit row twice. Every payment therefore carries a
  client-generated idempotency key, stored in the record's Reference field;
  the insert is skipped when a record with that key already exists.

COMPLETION GATING:
  The Service does NOT check ledger.IsComplete. That gate belongs to the
  caller, before a payment action is offered at all; invoking Apply on a
  completed ledger will still advance it.

SEE ALSO:
  - ledger: the pure calculator and completion policy
  - lifecycle: the sibling orchestrator seeding balance rows
*/
package payment

import (
	"context"
	"log"
	"time"

	"github.com/Omniportal2025/omniportal-core/estate"
	"github.com/Omniportal2025/omniportal-core/ledger"
	"github.com/Omniportal2025/omniportal-core/record"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service applies payment events to balance rows.
type Service struct {
	store record.Client
	log   *log.Logger
	now   func() time.Time
}

// New creates a Service. A nil logger falls back to the default logger.
func New(store record.Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, log: logger, now: time.Now}
}

// Apply runs one payment event against the unit's balance. On success the
// returned Balance reflects the new cumulative totals and exactly one new
// payment record exists. When the audit insert fails the balance mutation
// stands: the updated Balance is returned TOGETHER with the error.
func (s *Service) Apply(ctx context.Context, id estate.UnitID, in estate.PaymentInput) (estate.Balance, error) {
	// Step 1: validate the amount before touching the store.
	amount, err := ledger.ParseAmount(in.Amount)
	if err != nil {
		return estate.Balance{}, err
	}

	// Step 2: fetch the current snapshot.
	row, err := s.store.Get(ctx, record.CollectionBalance, id.BalanceKey())
	if err != nil {
		return estate.Balance{}, &estate.PersistenceError{Op: "get", Collection: record.CollectionBalance, Err: err}
	}
	prior, err := estate.BalanceFromRow(row)
	if err != nil {
		return estate.Balance{}, err
	}

	// Step 3: calculator. Pure; nothing written yet.
	next, err := ledger.Apply(ledger.SnapshotOf(prior), amount)
	if err != nil {
		return estate.Balance{}, err
	}

	// Step 4: write the ledger. CRITICAL - abort on failure, the audit row
	// is only ever written after the ledger landed.
	patch := record.Row{
		estate.FieldAmount:          estate.FormatDecimal(next.AmountPaid),
		estate.FieldRemaining:       estate.FormatDecimal(next.Remaining),
		estate.FieldMonthsPaidCount: estate.FormatCount(next.MonthsPaidCount),
		estate.FieldMonthsPaidLabel: in.MonthLabel,
		estate.FieldDueDate:         in.DueDate,
		estate.FieldVat:             in.Vat,
	}
	updatedRow, err := s.store.Update(ctx, record.CollectionBalance, id.BalanceKey(), patch)
	if err != nil {
		return estate.Balance{}, &estate.PersistenceError{Op: "update", Collection: record.CollectionBalance, Err: err}
	}
	updated, err := estate.BalanceFromRow(updatedRow)
	if err != nil {
		return estate.Balance{}, err
	}

	// Step 5: append the audit row with the DELTA amount. Reported on
	// failure, never rolled back.
	if err := s.appendRecord(ctx, id, prior.Name, in); err != nil {
		s.log.Printf("payment %s: audit insert failed, ledger already advanced: %v", id, err)
		return updated, &estate.PersistenceError{Op: "insert", Collection: record.CollectionPayments, Err: err}
	}

	return updated, nil
}

// appendRecord inserts the immutable payment record, de-duplicating on the
// idempotency key when one is present.
func (s *Service) appendRecord(ctx context.Context, id estate.UnitID, name string, in estate.PaymentInput) error {
	if in.IdempotencyKey != "" {
		existing, err := s.store.List(ctx, record.CollectionPayments, record.Filter{estate.FieldReference: in.IdempotencyKey})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			// Already recorded by an earlier attempt of this same event.
			return nil
		}
	}

	row := record.Row{
		estate.FieldName:         name,
		estate.FieldAmount:       in.Amount,
		estate.FieldProject:      string(id.Project),
		estate.FieldBlock:        id.Block,
		estate.FieldLot:          id.Lot,
		estate.FieldPaymentType:  in.PaymentType,
		estate.FieldPaymentMonth: in.MonthLabel,
		estate.FieldDueDate:      in.DueDate,
		estate.FieldVat:          in.Vat,
		estate.FieldReference:    in.IdempotencyKey,
		estate.FieldCreatedAt:    s.now().UTC().Format(time.RFC3339),
	}
	// Penalty is recorded only when actually charged.
	if p, err := ledger.ParseAmount(in.Penalty); err == nil && p.IsPositive() {
		row[estate.FieldPenalty] = estate.FormatDecimal(p)
	}

	_, err := s.store.Insert(ctx, record.CollectionPayments, row)
	return err
}
