/*
Package record defines the client contract for the hosted record store.

PURPOSE:
  The back office keeps all of its state in a hosted relational store that
  exposes simple keyed CRUD over named collections. This package defines the
  Go contract for that store. Orchestrators depend on this interface only;
  implementations can talk to the hosted service, SQLite, or memory.

STORE SEMANTICS:
  - Each call independently succeeds or fails. There are NO cross-collection
    transactions and NO multi-statement atomicity.
  - Writes are last-write-wins. No optimistic concurrency check exists.
  - Rows are flat string-valued field maps. Numeric fields travel as their
    string representation and are parsed with decimal at the domain boundary.
  - Setting a field to "" in an Update patch clears it (the hosted store
    does not distinguish blank from null in any way this core relies on).

COLLECTIONS:
  Clients, Balance, Payment Record, Documents, plus one property collection
  per project (the collection name IS the project name, and the property
  schema varies per project).

IMPLEMENTATIONS:
  - record/memstore: in-memory, for tests and dev mode
  - store/sqlite:    SQLite-backed, for real deployments

SEE ALSO:
  - estate: domain types and row codecs layered on top of this contract
  - lifecycle, payment: the orchestrators driving this client
*/
package record

import (
	"context"
	"errors"
)

// =============================================================================
// COLLECTIONS
// =============================================================================

const (
	CollectionClients   = "Clients"
	CollectionBalance   = "Balance"
	CollectionPayments  = "Payment Record"
	CollectionDocuments = "Documents"
)

// FieldID is the reserved row identifier field. Implementations assign it on
// Insert when the caller did not.
const FieldID = "id"

// =============================================================================
// ROWS AND FILTERS
// =============================================================================

// Row is a flat record in a collection. All values are strings; numeric
// fields carry their decimal string representation, blank means null.
type Row map[string]string

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Filter is an equality match over row fields. An empty filter matches
// every row in the collection.
type Filter map[string]string

// Matches reports whether every filter field equals the row's value.
func (f Filter) Matches(r Row) bool {
	for k, v := range f {
		if r[k] != v {
			return false
		}
	}
	return true
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned by Get and Update when no row matches the key.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownCollection is returned when the collection does not exist.
	ErrUnknownCollection = errors.New("unknown collection")
)

// IsNotFound reports whether err indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// =============================================================================
// CLIENT - The store contract consumed by the orchestrators
// =============================================================================

// Client is the keyed CRUD contract of the hosted record store.
// Every call is independently fallible; there is no transaction spanning
// two calls. Callers sequence their writes and decide what counts as
// success (see lifecycle and payment).
type Client interface {
	// Get returns the first row matching key, or ErrNotFound.
	Get(ctx context.Context, collection string, key Filter) (Row, error)

	// List returns all rows matching filter, in stored order.
	List(ctx context.Context, collection string, filter Filter) ([]Row, error)

	// Insert stores a new row and returns it with FieldID assigned.
	Insert(ctx context.Context, collection string, row Row) (Row, error)

	// Update applies patch to every row matching key and returns the first
	// updated row, or ErrNotFound when nothing matched. A "" patch value
	// clears the field.
	Update(ctx context.Context, collection string, key Filter, patch Row) (Row, error)

	// Delete removes all rows matching filter and returns how many.
	// Deleting nothing is not an error.
	Delete(ctx context.Context, collection string, filter Filter) (int, error)
}
