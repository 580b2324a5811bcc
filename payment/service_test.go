package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Omniportal2025/omniportal-core/estate"
	"github.com/Omniportal2025/omniportal-core/ledger"
	"github.com/Omniportal2025/omniportal-core/payment"
	"github.com/Omniportal2025/omniportal-core/record"
	"github.com/Omniportal2025/omniportal-core/record/memstore"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var errStoreDown = errors.New("store unavailable")

// faultStore fails selected operations per collection, delegating the rest.
type faultStore struct {
	record.Client
	failUpdate map[string]error
	failInsert map[string]error
}

func newFaultStore(inner record.Client) *faultStore {
	return &faultStore{
		Client:     inner,
		failUpdate: map[string]error{},
		failInsert: map[string]error{},
	}
}

func (f *faultStore) Update(ctx context.Context, collection string, key record.Filter, patch record.Row) (record.Row, error) {
	if err := f.failUpdate[collection]; err != nil {
		return nil, err
	}
	return f.Client.Update(ctx, collection, key, patch)
}

func (f *faultStore) Insert(ctx context.Context, collection string, row record.Row) (record.Row, error) {
	if err := f.failInsert[collection]; err != nil {
		return nil, err
	}
	return f.Client.Insert(ctx, collection, row)
}

// seedBalance inserts a mid-term Living Water ledger and returns its unit id:
// TCP 500000, 100000 paid, 400000 remaining, 2 of 36 months recorded.
func seedBalance(t *testing.T, store record.Client) estate.UnitID {
	t.Helper()
	id := estate.UnitID{Project: estate.ProjectLivingWater, Block: "5", Lot: "12"}
	_, err := store.Insert(context.Background(), record.CollectionBalance, record.Row{
		estate.FieldProject:         string(id.Project),
		estate.FieldBlock:           id.Block,
		estate.FieldLot:             id.Lot,
		estate.FieldName:            "Maria Santos",
		estate.FieldTCP:             "500000",
		estate.FieldAmount:          "100000",
		estate.FieldRemaining:       "400000",
		estate.FieldMonthsPaidLabel: "February 2026",
		estate.FieldMonthsPaidCount: "2",
		estate.FieldTerms:           "36",
	})
	require.NoError(t, err)
	return id
}

func marchPayment() estate.PaymentInput {
	return estate.PaymentInput{
		Amount:         "15000",
		PaymentType:    "GCASH",
		MonthLabel:     "March 2026",
		DueDate:        estate.DueDate15th,
		Vat:            estate.VatNon,
		IdempotencyKey: "evt-2026-03-001",
	}
}

// =============================================================================
// APPLY TESTS
// =============================================================================

func TestApply_AdvancesLedgerAndAppendsRecord(t *testing.T) {
	// GIVEN: 100000 paid of 500000, 2 months recorded
	// WHEN: a 15000 payment for March is applied
	// THEN: 115000 paid, 385000 remaining, 3 months, one audit row of 15000

	ctx := context.Background()
	store := memstore.New()
	id := seedBalance(t, store)

	updated, err := payment.New(store, nil).Apply(ctx, id, marchPayment())
	require.NoError(t, err)

	assert.Equal(t, "115000", estate.FormatDecimal(updated.AmountPaid))
	assert.Equal(t, "385000", estate.FormatDecimal(updated.Remaining))
	assert.Equal(t, 3, updated.MonthsPaidCount)
	assert.Equal(t, "March 2026", updated.MonthsPaidLabel)

	row, err := store.Get(ctx, record.CollectionBalance, id.BalanceKey())
	require.NoError(t, err)
	assert.Equal(t, "115000", row[estate.FieldAmount])
	assert.Equal(t, "385000", row[estate.FieldRemaining])
	assert.Equal(t, "3", row[estate.FieldMonthsPaidCount])
	assert.Equal(t, "March 2026", row[estate.FieldMonthsPaidLabel])

	records, err := store.List(ctx, record.CollectionPayments, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := estate.PaymentRecordFromRow(records[0])
	assert.Equal(t, "Maria Santos", rec.Name)
	assert.Equal(t, "15000", estate.FormatDecimal(rec.Amount))
	assert.Equal(t, "March 2026", rec.MonthLabel)
	assert.Equal(t, "evt-2026-03-001", rec.Reference)
	assert.NotEmpty(t, rec.CreatedAt)
}

func TestApply_InvalidAmountWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	id := seedBalance(t, store)
	svc := payment.New(store, nil)

	for _, amount := range []string{"-50", "abc", ""} {
		in := marchPayment()
		in.Amount = amount
		_, err := svc.Apply(ctx, id, in)
		assert.ErrorIs(t, err, estate.ErrInvalidAmount, "amount %q", amount)
	}

	row, err := store.Get(ctx, record.CollectionBalance, id.BalanceKey())
	require.NoError(t, err)
	assert.Equal(t, "100000", row[estate.FieldAmount])
	assert.Equal(t, "2", row[estate.FieldMonthsPaidCount])

	records, err := store.List(ctx, record.CollectionPayments, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestApply_MissingBalance(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	id := estate.UnitID{Project: estate.ProjectHavahills, Block: "9", Lot: "9"}

	_, err := payment.New(store, nil).Apply(ctx, id, marchPayment())
	assert.ErrorIs(t, err, estate.ErrPersistence)
}

func TestApply_BalanceWriteFailureAborts(t *testing.T) {
	// GIVEN: the Balance collection rejects updates
	// WHEN: a payment is applied
	// THEN: it fails and no audit row is written

	ctx := context.Background()
	inner := memstore.New()
	id := seedBalance(t, inner)
	store := newFaultStore(inner)
	store.failUpdate[record.CollectionBalance] = errStoreDown

	_, err := payment.New(store, nil).Apply(ctx, id, marchPayment())
	assert.ErrorIs(t, err, estate.ErrPersistence)

	records, err := inner.List(ctx, record.CollectionPayments, nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	row, err := inner.Get(ctx, record.CollectionBalance, id.BalanceKey())
	require.NoError(t, err)
	assert.Equal(t, "100000", row[estate.FieldAmount])
}

func TestApply_AuditFailureKeepsLedgerAndReportsError(t *testing.T) {
	// GIVEN: the Payment Record collection rejects inserts
	// WHEN: a payment is applied
	// THEN: the error surfaces with the already-advanced balance alongside it

	ctx := context.Background()
	inner := memstore.New()
	id := seedBalance(t, inner)
	store := newFaultStore(inner)
	store.failInsert[record.CollectionPayments] = errStoreDown

	updated, err := payment.New(store, nil).Apply(ctx, id, marchPayment())
	assert.ErrorIs(t, err, estate.ErrPersistence)
	assert.Equal(t, "115000", estate.FormatDecimal(updated.AmountPaid))

	row, err := inner.Get(ctx, record.CollectionBalance, id.BalanceKey())
	require.NoError(t, err)
	assert.Equal(t, "115000", row[estate.FieldAmount])
	assert.Equal(t, "3", row[estate.FieldMonthsPaidCount])
}

func TestApply_IdempotencyKeySkipsDuplicateRecord(t *testing.T) {
	// GIVEN: an audit row already stored under this event's idempotency key
	// WHEN: the same event is applied again
	// THEN: no second audit row appears

	ctx := context.Background()
	store := memstore.New()
	id := seedBalance(t, store)
	svc := payment.New(store, nil)

	_, err := svc.Apply(ctx, id, marchPayment())
	require.NoError(t, err)
	_, err = svc.Apply(ctx, id, marchPayment())
	require.NoError(t, err)

	records, err := store.List(ctx, record.CollectionPayments, record.Filter{estate.FieldReference: "evt-2026-03-001"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestApply_PenaltyRecordedOnlyWhenCharged(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	id := seedBalance(t, store)
	svc := payment.New(store, nil)

	in := marchPayment()
	in.Penalty = "0"
	_, err := svc.Apply(ctx, id, in)
	require.NoError(t, err)

	in = marchPayment()
	in.IdempotencyKey = "evt-2026-04-001"
	in.MonthLabel = "April 2026"
	in.Penalty = "500"
	_, err = svc.Apply(ctx, id, in)
	require.NoError(t, err)

	records, err := store.List(ctx, record.CollectionPayments, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, records[0][estate.FieldPenalty])
	assert.Equal(t, "500", records[1][estate.FieldPenalty])
}

func TestApply_OverpaymentPassesThrough(t *testing.T) {
	// GIVEN: 400000 remaining
	// WHEN: 410000 is paid
	// THEN: remaining goes to -10000 and the ledger is still not complete

	ctx := context.Background()
	store := memstore.New()
	id := seedBalance(t, store)

	in := marchPayment()
	in.Amount = "410000"
	updated, err := payment.New(store, nil).Apply(ctx, id, in)
	require.NoError(t, err)

	assert.Equal(t, "-10000", estate.FormatDecimal(updated.Remaining))
	assert.False(t, ledger.IsComplete(updated))
}

func TestApply_DoesNotGateOnCompletion(t *testing.T) {
	// GIVEN: a fully paid ledger
	// WHEN: another payment is applied directly through the service
	// THEN: it goes through; the gate belongs to the caller

	ctx := context.Background()
	store := memstore.New()
	id := estate.UnitID{Project: estate.ProjectLivingWater, Block: "1", Lot: "1"}
	_, err := store.Insert(ctx, record.CollectionBalance, record.Row{
		estate.FieldProject:         string(id.Project),
		estate.FieldBlock:           id.Block,
		estate.FieldLot:             id.Lot,
		estate.FieldName:            "Lucia Ferrer",
		estate.FieldTCP:             "600000",
		estate.FieldAmount:          "600000",
		estate.FieldRemaining:       "0",
		estate.FieldMonthsPaidCount: "24",
		estate.FieldTerms:           "24",
	})
	require.NoError(t, err)

	updated, err := payment.New(store, nil).Apply(ctx, id, marchPayment())
	require.NoError(t, err)
	assert.Equal(t, 25, updated.MonthsPaidCount)
	assert.Equal(t, "-15000", estate.FormatDecimal(updated.Remaining))
}
