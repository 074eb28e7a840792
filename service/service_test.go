// ABOUTME: Tests for entity services against the recording fake store
// ABOUTME: Payload shaping, defaults, result taxonomy and failure reporting
package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/records"
	"github.com/harperreed/dealboard/records/recordstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupServices(t *testing.T) (*Services, *recordstest.Fake) {
	t.Helper()
	fake := recordstest.New()
	fake.Registry = models.Registry()
	return NewServices(fake, zaptest.NewLogger(t), WithClock(func() time.Time { return fixedNow })), fake
}

func TestCreateContactOmitsEmptyEmail(t *testing.T) {
	svc, fake := setupServices(t)

	res := svc.Contacts.Create(context.Background(), Fields{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "",
		"phone":     nil,
	})
	require.NoError(t, res.Err)
	require.NotNil(t, res.Value)

	calls := fake.CallsFor("create")
	require.Len(t, calls, 1)
	payload := calls[0].Write.Records[0]
	assert.NotContains(t, payload, models.FieldEmail)
	assert.NotContains(t, payload, models.FieldPhone)
	assert.NotContains(t, payload, records.IDField)
	assert.Equal(t, "Ada", payload[models.FieldFirstName])
}

func TestCreateContactDefaultsAndTimestamps(t *testing.T) {
	svc, _ := setupServices(t)

	res := svc.Contacts.Create(context.Background(), Fields{"firstName": "Ada", "lastName": "Lovelace", "companyId": "2"})
	require.NoError(t, res.Err)

	c := res.Value
	assert.Equal(t, models.StatusProspect, c.Status)
	assert.Equal(t, 2, c.CompanyID)
	assert.True(t, c.CreatedAt.Equal(fixedNow))
	assert.True(t, c.UpdatedAt.Equal(fixedNow))
	assert.NotZero(t, c.ID)
}

func TestCreateDealDerivesProbabilityFromStage(t *testing.T) {
	svc, fake := setupServices(t)
	ctx := context.Background()

	lead := svc.Deals.Create(ctx, Fields{"title": "Pilot", "value": "5000"})
	require.NoError(t, lead.Err)
	assert.Equal(t, models.StageLead, lead.Value.Stage)
	assert.Equal(t, 25, lead.Value.Probability)
	assert.Equal(t, 5000.0, lead.Value.Value)

	proposal := svc.Deals.Create(ctx, Fields{"title": "Expansion", "value": 100, "stage": models.StageProposal})
	require.NoError(t, proposal.Err)
	assert.Equal(t, 75, proposal.Value.Probability)

	explicit := svc.Deals.Create(ctx, Fields{"title": "Custom", "stage": models.StageProposal, "probability": 60})
	require.NoError(t, explicit.Err)
	assert.Equal(t, 60, explicit.Value.Probability)

	payload := fake.CallsFor("create")[0].Write.Records[0]
	assert.Equal(t, 5000.0, payload[models.FieldValue])
}

func TestCreateRejectsUncoercibleFieldsLocally(t *testing.T) {
	svc, fake := setupServices(t)

	res := svc.Deals.Create(context.Background(), Fields{"title": "Bad", "value": "a lot"})
	assert.ErrorIs(t, res.Err, ErrInvalid)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "Value", res.Failures[0].Field)
	assert.Empty(t, fake.CallsFor("create"))
}

func TestCreateReportsStoreFieldErrors(t *testing.T) {
	svc, _ := setupServices(t)

	res := svc.Companies.Create(context.Background(), Fields{"industry": "Retail"})
	assert.ErrorIs(t, res.Err, ErrRejected)
	assert.Nil(t, res.Value)
	require.NotEmpty(t, res.Failures)
	assert.Equal(t, "Name", res.Failures[0].Field)
}

func TestWriteRejectedByStore(t *testing.T) {
	svc, fake := setupServices(t)
	fake.RejectMessage = "quota exceeded"

	res := svc.Activities.Create(context.Background(), Fields{"type": "call", "description": "hi"})
	assert.ErrorIs(t, res.Err, ErrRejected)
	assert.Contains(t, res.Err.Error(), "quota exceeded")
}

func TestGetAllRequestsStableOrder(t *testing.T) {
	svc, fake := setupServices(t)
	fake.Seed(models.TableContacts,
		records.Record{models.FieldFirstName: "Zoe", models.FieldLastName: "A"},
		records.Record{models.FieldFirstName: "adam", models.FieldLastName: "B"},
	)

	res := svc.Contacts.GetAll(context.Background())
	require.NoError(t, res.Err)
	require.Len(t, res.Value, 2)
	assert.Equal(t, "adam", res.Value[0].FirstName)

	q := fake.CallsFor("fetch")[0].Query
	require.Len(t, q.OrderBy, 1)
	assert.Equal(t, records.OrderBy{FieldName: models.FieldFirstName, SortType: records.SortAsc}, q.OrderBy[0])
	require.NotNil(t, q.PagingInfo)
	assert.Equal(t, PageSize, q.PagingInfo.Limit)
}

func TestGetAllNewestDealsFirst(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	for i, title := range []string{"old", "new"} {
		at := fixedNow.Add(time.Duration(i) * time.Hour)
		s := New[models.Deal](svc.Deals.client, DealEntity, nil, WithClock(func() time.Time { return at }))
		require.NoError(t, s.Create(ctx, Fields{"title": title}).Err)
	}

	res := svc.Deals.GetAll(ctx)
	require.NoError(t, res.Err)
	require.Len(t, res.Value, 2)
	assert.Equal(t, "new", res.Value[0].Title)
}

func TestGetAllOnTransportFailure(t *testing.T) {
	svc, fake := setupServices(t)
	fake.Err = errors.New("connection refused")

	res := svc.Deals.GetAll(context.Background())
	assert.ErrorIs(t, res.Err, ErrUnavailable)
	require.NotNil(t, res.Value)
	assert.Empty(t, res.Value)
}

func TestGetAllToleratesLooseStoreValues(t *testing.T) {
	svc, fake := setupServices(t)
	fake.Seed(models.TableDeals, records.Record{
		models.FieldTitle:     "Loose",
		models.FieldValue:     "1200.5",
		models.FieldContactID: map[string]any{"Id": 4.0, "Name": "Ada"},
		models.FieldCloseDate: "2024-04-01",
		models.FieldStage:     "negotiation",
	})

	res := svc.Deals.GetAll(context.Background())
	require.NoError(t, res.Err)
	require.Len(t, res.Value, 1)
	d := res.Value[0]
	assert.Equal(t, 1200.5, d.Value)
	assert.Equal(t, 4, d.ContactID)
	assert.Equal(t, "negotiation", d.Stage)
	assert.Equal(t, time.April, d.CloseDate.Month())
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _ := setupServices(t)

	res := svc.Companies.GetByID(context.Background(), 404)
	assert.ErrorIs(t, res.Err, ErrNotFound)
	assert.Nil(t, res.Value)
}

func TestUpdateSendsOnlyPartialWithID(t *testing.T) {
	svc, fake := setupServices(t)
	seeded := fake.Seed(models.TableDeals, records.Record{
		models.FieldTitle: "Renewal", models.FieldValue: 900.0, models.FieldStage: models.StageLead,
	})
	id, _ := seeded[0].ID()

	res := svc.Deals.Update(context.Background(), id, Fields{"stage": models.StageQualified, "title": ""})
	require.NoError(t, res.Err)
	assert.Equal(t, models.StageQualified, res.Value.Stage)
	assert.Equal(t, "Renewal", res.Value.Title)

	payload := fake.CallsFor("update")[0].Write.Records[0]
	assert.Equal(t, records.Record{records.IDField: id, models.FieldStage: models.StageQualified}, payload)
}

func TestUpdateContactRefreshesUpdatedAt(t *testing.T) {
	svc, fake := setupServices(t)
	seeded := fake.Seed(models.TableContacts, records.Record{models.FieldFirstName: "A", models.FieldLastName: "B"})
	id, _ := seeded[0].ID()

	res := svc.Contacts.Update(context.Background(), id, Fields{"title": "CTO"})
	require.NoError(t, res.Err)
	assert.True(t, res.Value.UpdatedAt.Equal(fixedNow))
	assert.NotContains(t, fake.CallsFor("update")[0].Write.Records[0], models.FieldCreatedAt)
}

func TestDeleteMissingRecordReturnsFalse(t *testing.T) {
	svc, _ := setupServices(t)

	res := svc.Contacts.Delete(context.Background(), 999)
	assert.False(t, res.Value)
	assert.ErrorIs(t, res.Err, ErrNotFound)
}

func TestDeleteExistingRecord(t *testing.T) {
	svc, fake := setupServices(t)
	seeded := fake.Seed(models.TableActivities, records.Record{models.FieldType: "call", models.FieldDescription: "x"})
	id, _ := seeded[0].ID()

	res := svc.Activities.Delete(context.Background(), id)
	require.NoError(t, res.Err)
	assert.True(t, res.Value)
	assert.Equal(t, []int{id}, fake.CallsFor("delete")[0].Delete.RecordIDs)
}

func TestDeleteTransportFailure(t *testing.T) {
	svc, fake := setupServices(t)
	fake.Err = errors.New("timeout")

	res := svc.Deals.Delete(context.Background(), 1)
	assert.False(t, res.Value)
	assert.ErrorIs(t, res.Err, ErrUnavailable)
}
