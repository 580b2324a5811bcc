package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Omniportal2025/omniportal-core/record"
	"github.com/Omniportal2025/omniportal-core/record/memstore"
)

func TestInsert_AssignsID(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	row, err := s.Insert(ctx, record.CollectionClients, record.Row{"Name": "Maria Santos"})
	require.NoError(t, err)
	assert.NotEmpty(t, row[record.FieldID])
	assert.Equal(t, "Maria Santos", row["Name"])
}

func TestGet_FirstMatchOrNotFound(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	_, err := s.Insert(ctx, record.CollectionClients, record.Row{"Name": "Maria Santos", "Email": "first"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, record.CollectionClients, record.Row{"Name": "Maria Santos", "Email": "second"})
	require.NoError(t, err)

	row, err := s.Get(ctx, record.CollectionClients, record.Filter{"Name": "Maria Santos"})
	require.NoError(t, err)
	assert.Equal(t, "first", row["Email"])

	_, err = s.Get(ctx, record.CollectionClients, record.Filter{"Name": "Nobody"})
	assert.True(t, record.IsNotFound(err))
}

func TestList_InsertionOrderAndFiltering(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Insert(ctx, record.CollectionDocuments, record.Row{"Name": name, "Label": "deed"})
		require.NoError(t, err)
	}
	_, err := s.Insert(ctx, record.CollectionDocuments, record.Row{"Name": "d", "Label": "receipt"})
	require.NoError(t, err)

	all, err := s.List(ctx, record.CollectionDocuments, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0]["Name"])
	assert.Equal(t, "d", all[3]["Name"])

	deeds, err := s.List(ctx, record.CollectionDocuments, record.Filter{"Label": "deed"})
	require.NoError(t, err)
	assert.Len(t, deeds, 3)
}

func TestUpdate_PatchesAllMatchesAndClearsBlanks(t *testing.T) {
	// GIVEN: two rows sharing a name
	// WHEN: both are patched, one field set and one blanked
	// THEN: the patch lands on both and "" clears the field

	ctx := context.Background()
	s := memstore.New()
	for _, block := range []string{"1", "2"} {
		_, err := s.Insert(ctx, record.CollectionBalance, record.Row{"Name": "Maria Santos", "Block": block, "Amount": "100"})
		require.NoError(t, err)
	}

	first, err := s.Update(ctx, record.CollectionBalance, record.Filter{"Name": "Maria Santos"}, record.Row{"Amount": "", "Status": "flagged"})
	require.NoError(t, err)
	assert.Empty(t, first["Amount"])

	rows, err := s.List(ctx, record.CollectionBalance, nil)
	require.NoError(t, err)
	for _, row := range rows {
		assert.Empty(t, row["Amount"])
		assert.Equal(t, "flagged", row["Status"])
	}

	_, err = s.Update(ctx, record.CollectionBalance, record.Filter{"Name": "Nobody"}, record.Row{"Status": "x"})
	assert.True(t, record.IsNotFound(err))
}

func TestUpdate_ReturnedRowIsDetached(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	_, err := s.Insert(ctx, record.CollectionClients, record.Row{"Name": "Maria Santos"})
	require.NoError(t, err)

	row, err := s.Get(ctx, record.CollectionClients, record.Filter{"Name": "Maria Santos"})
	require.NoError(t, err)
	row["Name"] = "mutated"

	stored, err := s.Get(ctx, record.CollectionClients, record.Filter{"Name": "Maria Santos"})
	require.NoError(t, err)
	assert.Equal(t, "Maria Santos", stored["Name"])
}

func TestDelete_CountsMatches(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
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

	remaining, err := s.List(ctx, record.CollectionClients, nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestReset_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	_, err := s.Insert(ctx, record.CollectionClients, record.Row{"Name": "Maria Santos"})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	rows, err := s.List(ctx, record.CollectionClients, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
