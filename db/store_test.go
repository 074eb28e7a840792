// ABOUTME: Tests for the SQL record store
// ABOUTME: Runs the table protocol against an in-memory SQLite database
package db

import (
	"context"
	"testing"

	"github.com/harperreed/dealboard/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testRegistry = records.NewRegistry(records.Schema{
	Table: "deal_c",
	Fields: []records.Field{
		{Name: "title_c", Label: "Title", Kind: records.KindText, Required: true},
		{Name: "value_c", Label: "Value", Kind: records.KindFloat, NonNegative: true},
		{Name: "stage_c", Label: "Stage", Kind: records.KindText},
		{Name: "created_at_c", Label: "Created At", Kind: records.KindTime},
	},
})

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewStore(database, testRegistry, zaptest.NewLogger(t))
}

func createDeal(t *testing.T, s *Store, rec records.Record) int {
	t.Helper()
	resp, err := s.Create(context.Background(), "deal_c", records.WriteRequest{Records: []records.Record{rec}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.True(t, resp.Results[0].Success, "create failed: %+v", resp.Results[0])
	id, ok := resp.Results[0].Data.ID()
	require.True(t, ok)
	return id
}

func TestStoreCreateAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id := createDeal(t, s, records.Record{"title_c": "Renewal", "value_c": "1500", "stage_c": "lead"})

	got, err := s.GetByID(ctx, "deal_c", id, records.Query{})
	require.NoError(t, err)
	require.True(t, got.Success)
	assert.Equal(t, "Renewal", got.Data["title_c"])
	assert.Equal(t, 1500.0, got.Data["value_c"])
	assert.Equal(t, id, got.Data["Id"])
}

func TestStoreCreateReportsFieldErrors(t *testing.T) {
	s := setupTestStore(t)

	resp, err := s.Create(context.Background(), "deal_c", records.WriteRequest{Records: []records.Record{
		{"value_c": -5},
		{"title_c": "ok"},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	assert.False(t, resp.Results[0].Success)
	labels := []string{}
	for _, e := range resp.Results[0].Errors {
		labels = append(labels, e.FieldLabel)
	}
	assert.ElementsMatch(t, []string{"Value", "Title"}, labels)
	assert.True(t, resp.Results[1].Success)
}

func TestStoreUnknownTable(t *testing.T) {
	s := setupTestStore(t)

	resp, err := s.Fetch(context.Background(), "nope_c", records.Query{})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestStoreFetchOrderingAndPaging(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	createDeal(t, s, records.Record{"title_c": "beta", "value_c": 30})
	createDeal(t, s, records.Record{"title_c": "Alpha", "value_c": 5})
	createDeal(t, s, records.Record{"title_c": "gamma", "value_c": 200})

	resp, err := s.Fetch(ctx, "deal_c", records.Query{
		OrderBy: []records.OrderBy{{FieldName: "title_c", SortType: records.SortAsc}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "Alpha", resp.Data[0]["title_c"])
	assert.Equal(t, "gamma", resp.Data[2]["title_c"])

	resp, err = s.Fetch(ctx, "deal_c", records.Query{
		Fields:     []string{"title_c"},
		OrderBy:    []records.OrderBy{{FieldName: "value_c", SortType: records.SortDesc}},
		PagingInfo: &records.PagingInfo{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "gamma", resp.Data[0]["title_c"])
	assert.Equal(t, "beta", resp.Data[1]["title_c"])
	assert.NotContains(t, resp.Data[0], "value_c")
}

func TestStoreFetchIgnoresInjectedOrderField(t *testing.T) {
	s := setupTestStore(t)
	createDeal(t, s, records.Record{"title_c": "only"})

	resp, err := s.Fetch(context.Background(), "deal_c", records.Query{
		OrderBy: []records.OrderBy{{FieldName: "title_c'); DROP TABLE records; --", SortType: records.SortAsc}},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 1)
}

func TestStoreUpdateMergesPartial(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id := createDeal(t, s, records.Record{"title_c": "Renewal", "value_c": 100, "stage_c": "lead"})

	resp, err := s.Update(ctx, "deal_c", records.WriteRequest{Records: []records.Record{
		{"Id": id, "stage_c": "proposal"},
	}})
	require.NoError(t, err)
	require.True(t, resp.Results[0].Success)
	assert.Equal(t, "proposal", resp.Results[0].Data["stage_c"])
	assert.Equal(t, "Renewal", resp.Results[0].Data["title_c"])

	got, err := s.GetByID(ctx, "deal_c", id, records.Query{})
	require.NoError(t, err)
	assert.Equal(t, "proposal", got.Data["stage_c"])
	assert.Equal(t, 100.0, got.Data["value_c"])
}

func TestStoreUpdateMissingRecord(t *testing.T) {
	s := setupTestStore(t)

	resp, err := s.Update(context.Background(), "deal_c", records.WriteRequest{Records: []records.Record{
		{"Id": 999, "stage_c": "closed"},
		{"stage_c": "closed"},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.False(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)
}

func TestStoreDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id := createDeal(t, s, records.Record{"title_c": "Gone"})

	resp, err := s.Delete(ctx, "deal_c", records.DeleteRequest{RecordIDs: []int{id, 12345}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)

	got, err := s.GetByID(ctx, "deal_c", id, records.Query{})
	require.NoError(t, err)
	assert.False(t, got.Success)
}
