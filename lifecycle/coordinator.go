/*
Package lifecycle drives a property between Available and Sold.

PURPOSE:
  The Coordinator is the state machine for the two lifecycle transitions.
  Each transition is a saga: an ordered list of record-store calls with no
  shared transaction. Every call independently succeeds or fails; there is
  no rollback. Steps are classified critical or best-effort:

  Sell:
    1. validate sale details            fail-fast, nothing written
    2. write property row (Sold)        CRITICAL - abort, property stays Available
    3. derive buyer name                absent: log and stop here, sale succeeded
    4. upsert client row                best-effort, warning on failure
    5. upsert balance row               best-effort, warning on failure

  Reopen:
    1. derive buyer name                absent: MissingIdentityError, nothing written
    2. delete client rows by name       best-effort, warning on failure
    3. delete document rows by name     best-effort, warning on failure
    4. blank balance row                CRITICAL - abort before the property write
    5. write property row (Available)   CRITICAL

RETRY CONTRACT:
  A failed transition may be retried with the same input. Every step is
  individually idempotent: re-updating a property row, re-deleting an
  already-absent client and re-upserting a balance row all converge to the
  same end state. The status precondition is checked against the property
  the CALLER passes, not a re-read, so a retry after an ambiguous network
  failure (store already Sold, caller never saw the ack) goes through.

KNOWN TRADE-OFFS:
  - A failure after step 2 of Sell leaves a Sold property without a balance
    row until the caller retries. Accepted: there is no transaction manager
    to do better, and the retry converges.
  - Reopen deletes client and document rows by NAME, system-wide. Homonyms
    are collateral. The name is the only link the store schema has.

SEE ALSO:
  - record: the store contract and its semantics
  - payment: the other orchestrator sharing this store
*/
package lifecycle

import (
	"context"
	"log"

	"github.com/Omniportal2025/omniportal-core/estate"
	"github.com/Omniportal2025/omniportal-core/record"
)

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator orchestrates Sell and Reopen over the record store.
type Coordinator struct {
	store record.Client
	log   *log.Logger
}

// New creates a Coordinator. A nil logger falls back to the default logger.
func New(store record.Client, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{store: store, log: logger}
}

// =============================================================================
// SELL - Available -> Sold
// =============================================================================

// Sell flips an Available property to Sold and links the buyer: the property
// row is rewritten with the sale details, a client row is ensured, and a
// balance row is seeded with the contract value and first amortization.
// Only the property write is critical; client and balance failures are
// logged and the sale still reports success.
func (c *Coordinator) Sell(ctx context.Context, prop estate.Property, details estate.SaleDetails) (estate.UnitID, error) {
	if prop.Status != estate.StatusAvailable {
		return estate.UnitID{}, &estate.ValidationError{
			Field:  estate.FieldStatus,
			Reason: "property is not Available",
		}
	}

	// Step 1: validate. Identity fields are required before any write.
	fields := record.Row(details)
	for _, f := range []string{estate.FieldBlock, estate.FieldLot} {
		if fields[f] == "" {
			return estate.UnitID{}, &estate.ValidationError{Field: f, Reason: "required"}
		}
	}

	// Step 2: write the full property row. CRITICAL - on failure the
	// property is left Available and nothing else has run.
	project := prop.ID.Project
	patch := record.Row{
		estate.FieldStatus: estate.StatusSold,
		estate.FieldBlock:  fields[estate.FieldBlock],
		estate.FieldLot:    fields[estate.FieldLot],
	}
	for _, f := range project.SaleFields() {
		patch[f] = fields[f]
	}
	if _, err := c.store.Update(ctx, project.Collection(), prop.ID.PropertyKey(), patch); err != nil {
		return estate.UnitID{}, &estate.PersistenceError{Op: "update", Collection: project.Collection(), Err: err}
	}

	// Step 3: derive the buyer name. Without one there is nothing to link;
	// the sale itself has already committed, so stop here.
	name := details.BuyerName(project)
	if name == "" {
		c.log.Printf("sell %s: no buyer name in %s, skipping client and balance linkage", prop.ID, project.BuyerField())
		return prop.ID, nil
	}

	// Step 4: ensure a client row exists. Best-effort.
	c.ensureClient(ctx, prop.ID, name)

	// Step 5: upsert the balance row with a zeroed payment history.
	// Best-effort: a failure here is an accepted inconsistency, repaired
	// by retrying the sale.
	c.seedBalance(ctx, prop.ID, name, details)

	return prop.ID, nil
}

// ensureClient inserts a client row unless one with the exact name exists.
func (c *Coordinator) ensureClient(ctx context.Context, id estate.UnitID, name string) {
	_, err := c.store.Get(ctx, record.CollectionClients, record.Filter{estate.FieldName: name})
	if err == nil {
		return
	}
	if !record.IsNotFound(err) {
		c.log.Printf("sell %s: client lookup failed: %v", id, err)
		return
	}
	if _, err := c.store.Insert(ctx, record.CollectionClients, record.Row{estate.FieldName: name}); err != nil {
		c.log.Printf("sell %s: client insert failed: %v", id, err)
	}
}

// seedBalance writes the unit's balance row: remaining balance from the
// project's contract value field, amount from the first amortization, and
// both months counters at zero.
func (c *Coordinator) seedBalance(ctx context.Context, id estate.UnitID, name string, details estate.SaleDetails) {
	contract := details.ContractValue(id.Project)
	firstMA := details.FirstAmortization(id.Project)

	ledgerFields := record.Row{
		estate.FieldName:            name,
		estate.FieldRemaining:       estate.FormatDecimal(contract),
		estate.FieldAmount:          estate.FormatDecimal(firstMA),
		estate.FieldMonthsPaidLabel: "0",
		estate.FieldMonthsPaidCount: "0",
	}

	_, err := c.store.Update(ctx, record.CollectionBalance, id.BalanceKey(), ledgerFields)
	if err == nil {
		return
	}
	if !record.IsNotFound(err) {
		c.log.Printf("sell %s: balance update failed: %v", id, err)
		return
	}

	// No balance row yet: insert one with the identity triple and the
	// contract metadata the ledger needs.
	row := ledgerFields.Clone()
	row[estate.FieldProject] = string(id.Project)
	row[estate.FieldBlock] = id.Block
	row[estate.FieldLot] = id.Lot
	row[estate.FieldTCP] = estate.FormatDecimal(contract)
	if terms := record.Row(details)[estate.FieldTerm]; terms != "" {
		row[estate.FieldTerms] = terms
	}
	if due := record.Row(details)[estate.FieldDue]; due != "" {
		row[estate.FieldDueDate] = due
	}
	if _, err := c.store.Insert(ctx, record.CollectionBalance, row); err != nil {
		c.log.Printf("sell %s: balance insert failed: %v", id, err)
	}
}

// =============================================================================
// REOPEN - Sold -> Available
// =============================================================================

// Reopen unwinds a sold property: client and document rows for the buyer are
// deleted system-wide (best-effort), the balance row is blanked but kept,
// and the property row is anonymized back to Available.
func (c *Coordinator) Reopen(ctx context.Context, prop estate.Property) (estate.UnitID, error) {
	if prop.Status != estate.StatusSold {
		return estate.UnitID{}, &estate.ValidationError{
			Field:  estate.FieldStatus,
			Reason: "property is not Sold",
		}
	}

	// Step 1: the buyer name is the only key linking the client and
	// document rows. Without it the unwind cannot run at all.
	name := prop.BuyerName()
	if name == "" {
		return estate.UnitID{}, &estate.MissingIdentityError{Unit: prop.ID}
	}

	// Steps 2-3: best-effort deletes by name. Homonymous buyers lose their
	// rows too; the store has no stronger key to scope these.
	if _, err := c.store.Delete(ctx, record.CollectionClients, record.Filter{estate.FieldName: name}); err != nil {
		c.log.Printf("reopen %s: client delete failed: %v", prop.ID, err)
	}
	if _, err := c.store.Delete(ctx, record.CollectionDocuments, record.Filter{estate.FieldName: name}); err != nil {
		c.log.Printf("reopen %s: document delete failed: %v", prop.ID, err)
	}

	// Step 4: blank the balance ledger but keep the row - the identity
	// triple stays for history. CRITICAL apart from the row being absent
	// already (a retry after a partial earlier run).
	blank := record.Row{
		estate.FieldName:            "",
		estate.FieldRemaining:       "",
		estate.FieldAmount:          "",
		estate.FieldMonthsPaidLabel: "",
		estate.FieldMonthsPaidCount: "",
	}
	if _, err := c.store.Update(ctx, record.CollectionBalance, prop.ID.BalanceKey(), blank); err != nil {
		if !record.IsNotFound(err) {
			return estate.UnitID{}, &estate.PersistenceError{Op: "update", Collection: record.CollectionBalance, Err: err}
		}
		c.log.Printf("reopen %s: no balance row to blank", prop.ID)
	}

	// Step 5: anonymize the property row and flip it back to Available.
	// CRITICAL - until this lands the unit still reads as Sold.
	patch := record.Row{estate.FieldStatus: estate.StatusAvailable}
	for _, f := range prop.ID.Project.SaleFields() {
		patch[f] = ""
	}
	if _, err := c.store.Update(ctx, prop.ID.Project.Collection(), prop.ID.PropertyKey(), patch); err != nil {
		return estate.UnitID{}, &estate.PersistenceError{Op: "update", Collection: prop.ID.Project.Collection(), Err: err}
	}

	return prop.ID, nil
}
