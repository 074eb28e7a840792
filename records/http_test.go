// ABOUTME: Round-trip tests for the HTTP record client against the echo server
// ABOUTME: Uses httptest with an in-memory backend and goleak to catch stray goroutines
package records_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harperreed/dealboard/records"
	"github.com/harperreed/dealboard/records/recordstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func setupRoundTrip(t *testing.T, apiKey string) (*records.HTTPClient, *recordstest.Fake) {
	t.Helper()
	backend := recordstest.New()
	srv := httptest.NewServer(records.NewServer(backend, apiKey, zaptest.NewLogger(t)))
	t.Cleanup(func() {
		srv.Close()
		http.DefaultTransport.(*http.Transport).CloseIdleConnections()
	})

	cfg := records.DefaultHTTPConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = apiKey
	return records.NewHTTPClient(cfg, zaptest.NewLogger(t)), backend
}

func TestHTTPClientCreateFetchUpdateDelete(t *testing.T) {
	client, backend := setupRoundTrip(t, "")
	ctx := context.Background()

	created, err := client.Create(ctx, "deal_c", records.WriteRequest{Records: []records.Record{
		{"title_c": "First", "value_c": 100},
		{"title_c": "Second", "value_c": 200},
	}})
	require.NoError(t, err)
	require.True(t, created.Success)
	require.Len(t, created.Results, 2)
	id, ok := created.Results[0].Data.ID()
	require.True(t, ok)

	fetched, err := client.Fetch(ctx, "deal_c", records.Query{
		Fields:  []string{"title_c"},
		OrderBy: []records.OrderBy{{FieldName: "title_c", SortType: records.SortDesc}},
	})
	require.NoError(t, err)
	require.Len(t, fetched.Data, 2)
	assert.Equal(t, "Second", fetched.Data[0]["title_c"])
	assert.NotContains(t, fetched.Data[0], "value_c")

	updated, err := client.Update(ctx, "deal_c", records.WriteRequest{Records: []records.Record{
		{"Id": id, "title_c": "Renamed"},
	}})
	require.NoError(t, err)
	require.True(t, updated.Results[0].Success)
	assert.Equal(t, "Renamed", updated.Results[0].Data["title_c"])

	got, err := client.GetByID(ctx, "deal_c", id, records.Query{})
	require.NoError(t, err)
	require.True(t, got.Success)
	assert.Equal(t, "Renamed", got.Data["title_c"])

	deleted, err := client.Delete(ctx, "deal_c", records.DeleteRequest{RecordIDs: []int{id}})
	require.NoError(t, err)
	require.Len(t, deleted.Results, 1)
	assert.True(t, deleted.Results[0].Success)

	assert.Len(t, backend.CallsFor("delete"), 1)
	assert.Equal(t, []int{id}, backend.CallsFor("delete")[0].Delete.RecordIDs)
}

func TestHTTPClientGetMissingRecord(t *testing.T) {
	client, _ := setupRoundTrip(t, "")

	got, err := client.GetByID(context.Background(), "contact_c", 42, records.Query{})
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Nil(t, got.Data)
}

func TestHTTPClientRejectsBadAPIKey(t *testing.T) {
	client, _ := setupRoundTrip(t, "secret")

	cfgClient := records.NewHTTPClient(records.HTTPConfig{BaseURL: client.BaseURL()}, nil)
	_, err := cfgClient.Fetch(context.Background(), "contact_c", records.Query{})
	require.Error(t, err)

	var statusErr *records.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.ErrorIs(t, err, records.ErrTransport)

	_, err = client.Fetch(context.Background(), "contact_c", records.Query{})
	assert.NoError(t, err)
}

func TestHTTPClientUnreachableStore(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := records.NewHTTPClient(records.HTTPConfig{BaseURL: url}, nil)
	_, err := client.Fetch(context.Background(), "deal_c", records.Query{})
	assert.ErrorIs(t, err, records.ErrTransport)
}

func TestHTTPClientSendsHeaders(t *testing.T) {
	var seen http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()

	client := records.NewHTTPClient(records.HTTPConfig{
		BaseURL:   srv.URL,
		APIKey:    "k",
		ProjectID: "proj",
		DeviceID:  "dev",
	}, nil)
	resp, err := client.Fetch(context.Background(), "deal_c", records.Query{})
	require.NoError(t, err)
	assert.NotNil(t, resp.Data)

	assert.Equal(t, "Bearer k", seen.Get("Authorization"))
	assert.Equal(t, "proj", seen.Get(records.HeaderProjectID))
	assert.Equal(t, "dev", seen.Get(records.HeaderDeviceID))
	assert.NotEmpty(t, seen.Get("X-Request-ID"))
}
