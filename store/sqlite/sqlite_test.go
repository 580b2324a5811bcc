package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Omniportal2025/omniportal-core/record"
	"github.com/Omniportal2025/omniportal-core/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	inserted, err := s.Insert(ctx, record.CollectionBalance, record.Row{
		"Project":           "Living Water Subdivision",
		"Block":             "5",
		"Lot":               "12",
		"Name":              "Maria Santos",
		"Remaining Balance": "450000",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inserted[record.FieldID])

	got, err := s.Get(ctx, record.CollectionBalance, record.Filter{"Block": "5", "Lot": "12"})
	require.NoError(t, err)
	assert.Equal(t, "Maria Santos", got["Name"])
	assert.Equal(t, "450000", got["Remaining Balance"])
	assert.Equal(t, inserted[record.FieldID], got[record.FieldID])
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Get(ctx, record.CollectionClients, record.Filter{"Name": "Nobody"})
	assert.True(t, record.IsNotFound(err))
}

func TestList_CollectionsAreIsolated(t *testing.T) {
	// GIVEN: rows with the same name in two collections
	// WHEN: one collection is listed
	// THEN: the other collection's rows stay out

	ctx := context.Background()
	s := newStore(t)
	_, err := s.Insert(ctx, record.CollectionClients, record.Row{"Name": "Maria Santos"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, record.CollectionDocuments, record.Row{"Name": "Maria Santos", "Label": "deed"})
	require.NoError(t, err)

	clients, err := s.List(ctx, record.CollectionClients, record.Filter{"Name": "Maria Santos"})
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Empty(t, clients[0]["Label"])
}

func TestList_NonIndexedFilterMatchesInGo(t *testing.T) {
	// GIVEN: balance rows for two projects sharing a block/lot pair
	// WHEN: filtered by Project, a field with no extracted column
	// THEN: only that project's row comes back

	ctx := context.Background()
	s := newStore(t)
	for _, project := range []string{"Living Water Subdivision", "Havahills Estate"} {
		_, err := s.Insert(ctx, record.CollectionBalance, record.Row{
			"Project": project, "Block": "1", "Lot": "1",
		})
		require.NoError(t, err)
	}

	rows, err := s.List(ctx, record.CollectionBalance, record.Filter{
		"Project": "Havahills Estate", "Block": "1", "Lot": "1",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Havahills Estate", rows[0]["Project"])
}

func TestList_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Insert(ctx, record.CollectionPayments, record.Row{"Name": name})
		require.NoError(t, err)
	}

	rows, err := s.List(ctx, record.CollectionPayments, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0]["Name"])
	assert.Equal(t, "c", rows[2]["Name"])
}

func TestUpdate_PatchAndBlankClear(t *testing.T) {
	// GIVEN: a stored balance row
	// WHEN: one field is overwritten and another blanked
	// THEN: a re-read shows the new value and no trace of the cleared field

	ctx := context.Background()
	s := newStore(t)
	_, err := s.Insert(ctx, record.CollectionBalance, record.Row{
		"Block": "5", "Lot": "12", "Name": "Maria Santos", "Amount": "100000",
	})
	require.NoError(t, err)

	updated, err := s.Update(ctx, record.CollectionBalance,
		record.Filter{"Block": "5", "Lot": "12"},
		record.Row{"Amount": "115000", "Name": ""})
	require.NoError(t, err)
	assert.Equal(t, "115000", updated["Amount"])
	assert.Empty(t, updated["Name"])

	got, err := s.Get(ctx, record.CollectionBalance, record.Filter{"Block": "5", "Lot": "12"})
	require.NoError(t, err)
	assert.Equal(t, "115000", got["Amount"])
	_, present := got["Name"]
	assert.False(t, present)
}

func TestUpdate_ReindexesExtractedColumns(t *testing.T) {
	// GIVEN: a row found via the indexed name column
	// WHEN: its Name is patched
	// THEN: lookups by the new name hit and the old name misses

	ctx := context.Background()
	s := newStore(t)
	_, err := s.Insert(ctx, record.CollectionClients, record.Row{"Name": "Maria Santos"})
	require.NoError(t, err)

	_, err = s.Update(ctx, record.CollectionClients,
		record.Filter{"Name": "Maria Santos"},
		record.Row{"Name": "Maria Santos-Reyes"})
	require.NoError(t, err)

	_, err = s.Get(ctx, record.CollectionClients, record.Filter{"Name": "Maria Santos"})
	assert.True(t, record.IsNotFound(err))
	_, err = s.Get(ctx, record.CollectionClients, record.Filter{"Name": "Maria Santos-Reyes"})
	assert.NoError(t, err)
}

func TestUpdate_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Update(ctx, record.CollectionBalance,
		record.Filter{"Block": "9", "Lot": "9"}, record.Row{"Amount": "1"})
	assert.True(t, record.IsNotFound(err))
}

func TestDelete_ByNameAcrossRows(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, name := range []string{"Maria Santos", "Maria Santos", "Ana Reyes"} {
		_, err := s.Insert(ctx, record.CollectionClients, record.Row{"Name": name})
		require.NoError(t, err)
	}

	n, err := s.Delete(ctx, record.CollectionClients, record.Filter{"Name": "Maria Santos"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Delete(ctx, record.CollectionClients, record.Filter{"Name": "Maria Santos"})
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err := s.List(ctx, record.CollectionClients, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReset_ClearsAllCollections(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Insert(ctx, record.CollectionClients, record.Row{"Name": "Maria Santos"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, record.CollectionBalance, record.Row{"Block": "1", "Lot": "1"})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	clients, err := s.List(ctx, record.CollectionClients, nil)
	require.NoError(t, err)
	assert.Empty(t, clients)
	balances, err := s.List(ctx, record.CollectionBalance, nil)
	require.NoError(t, err)
	assert.Empty(t, balances)
}
