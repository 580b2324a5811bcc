/*
Package ledger computes balance arithmetic for the payment ledger.

PURPOSE:
  Pure, side-effect-free functions over decimal snapshots. Orchestrators
  fetch a Balance, run the calculator, and write the result back; nothing
  here touches the record store.

INVARIANTS:
  - Conservation: Apply only moves value between amount-paid and remaining;
    their sum never changes.
  - The months counter counts payment EVENTS, not a derived ratio: every
    applied payment advances it by exactly one, regardless of amount.
  - Overpayment passes through: remaining balance goes negative rather than
    flooring at zero. Completion stays exact-equality, so an overpaid
    ledger never reads as complete.

SEE ALSO:
  - payment: the service driving this calculator
  - estate: Balance decoding and the InvalidAmountError kind
*/
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Omniportal2025/omniportal-core/estate"
)

// =============================================================================
// SNAPSHOT - The three ledger counters of one Balance row
// =============================================================================

type Snapshot struct {
	AmountPaid      decimal.Decimal
	Remaining       decimal.Decimal
	MonthsPaidCount int
}

// SnapshotOf extracts the ledger counters from a decoded Balance.
func SnapshotOf(b estate.Balance) Snapshot {
	return Snapshot{
		AmountPaid:      b.AmountPaid,
		Remaining:       b.Remaining,
		MonthsPaidCount: b.MonthsPaidCount,
	}
}

// =============================================================================
// CALCULATOR
// =============================================================================

// ParseAmount validates a raw payment amount. Blank, non-numeric and
// negative amounts are rejected with InvalidAmountError; no computation
// happens on a rejected amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &estate.InvalidAmountError{Value: raw}
	}
	if d.IsNegative() {
		return decimal.Zero, &estate.InvalidAmountError{Value: raw}
	}
	return d, nil
}

// Apply advances the ledger by one payment event:
//
//	amount paid   += payment
//	remaining     -= payment   (not floored; overpayment goes negative)
//	months paid   += 1         (per event, regardless of payment size)
func Apply(prior Snapshot, payment decimal.Decimal) (Snapshot, error) {
	if payment.IsNegative() {
		return Snapshot{}, &estate.InvalidAmountError{Value: payment.String()}
	}
	return Snapshot{
		AmountPaid:      prior.AmountPaid.Add(payment),
		Remaining:       prior.Remaining.Sub(payment),
		MonthsPaidCount: prior.MonthsPaidCount + 1,
	}, nil
}

// =============================================================================
// COMPLETION POLICY
// =============================================================================

// IsComplete reports whether the ledger is fully paid: amount paid equals
// TCP exactly AND the months counter equals the term total exactly. Both
// comparisons are exact; an overpaid or over-counted ledger is NOT complete.
// Callers consult this before offering a payment action; the payment
// service itself does not re-verify it.
func IsComplete(b estate.Balance) bool {
	return b.AmountPaid.Equal(b.TCP) && b.MonthsPaidCount == b.Terms
}
