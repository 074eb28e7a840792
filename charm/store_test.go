// ABOUTME: Tests for the Charm KV record store
// ABOUTME: Uses the badger-backed test client, no charm server required

package charm

import (
	"context"
	"testing"

	"github.com/harperreed/dealboard/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var contactTable = records.NewRegistry(records.Schema{
	Table: "contact_c",
	Fields: []records.Field{
		{Name: "first_name_c", Label: "First Name", Kind: records.KindText, Required: true},
		{Name: "email_c", Label: "Email", Kind: records.KindText},
		{Name: "company_id_c", Label: "Company", Kind: records.KindRef},
	},
})

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(NewTestClient(t), contactTable, zaptest.NewLogger(t))
}

func TestStoreAssignsSequentialIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	resp, err := s.Create(ctx, "contact_c", records.WriteRequest{Records: []records.Record{
		{"first_name_c": "Ada"},
		{"first_name_c": "Grace", "company_id_c": "3"},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[0].Data["Id"])
	assert.Equal(t, 2, resp.Results[1].Data["Id"])
	assert.Equal(t, 3, resp.Results[1].Data["company_id_c"])
}

func TestStoreFetchSorted(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "contact_c", records.WriteRequest{Records: []records.Record{
		{"first_name_c": "Zed"},
		{"first_name_c": "amy"},
		{"first_name_c": "Bob"},
	}})
	require.NoError(t, err)

	resp, err := s.Fetch(ctx, "contact_c", records.Query{
		OrderBy: []records.OrderBy{{FieldName: "first_name_c", SortType: records.SortAsc}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "amy", resp.Data[0]["first_name_c"])
	assert.Equal(t, "Bob", resp.Data[1]["first_name_c"])
	assert.Equal(t, "Zed", resp.Data[2]["first_name_c"])
}

func TestStoreUpdateAndDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "contact_c", records.WriteRequest{Records: []records.Record{{"first_name_c": "Ada"}}})
	require.NoError(t, err)
	id := created.Results[0].Data["Id"].(int)

	updated, err := s.Update(ctx, "contact_c", records.WriteRequest{Records: []records.Record{
		{"Id": id, "email_c": "ada@example.com"},
	}})
	require.NoError(t, err)
	require.True(t, updated.Results[0].Success)
	assert.Equal(t, "Ada", updated.Results[0].Data["first_name_c"])
	assert.Equal(t, "ada@example.com", updated.Results[0].Data["email_c"])

	deleted, err := s.Delete(ctx, "contact_c", records.DeleteRequest{RecordIDs: []int{id}})
	require.NoError(t, err)
	assert.True(t, deleted.Results[0].Success)

	again, err := s.Delete(ctx, "contact_c", records.DeleteRequest{RecordIDs: []int{id}})
	require.NoError(t, err)
	assert.False(t, again.Results[0].Success)

	got, err := s.GetByID(ctx, "contact_c", id, records.Query{})
	require.NoError(t, err)
	assert.False(t, got.Success)
}

func TestStoreRejectsMissingRequiredField(t *testing.T) {
	s := setupTestStore(t)

	resp, err := s.Create(context.Background(), "contact_c", records.WriteRequest{Records: []records.Record{{"email_c": "x@y.z"}}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)
	require.Len(t, resp.Results[0].Errors, 1)
	assert.Equal(t, "First Name", resp.Results[0].Errors[0].FieldLabel)
}

func TestClientKeysWithPrefix(t *testing.T) {
	c := NewTestClient(t)
	require.NoError(t, c.Set([]byte("records/a/1"), []byte("{}")))
	require.NoError(t, c.Set([]byte("records/b/1"), []byte("{}")))

	keys, err := c.KeysWithPrefix([]byte("records/a/"))
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	assert.True(t, c.IsConnected())
}
