package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/records"
	"github.com/harperreed/dealboard/records/recordstest"
	"github.com/harperreed/dealboard/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupCLI(t *testing.T) (*service.Services, *recordstest.Fake) {
	t.Helper()
	fake := recordstest.New()
	fake.Registry = models.Registry()
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return service.NewServices(fake, zaptest.NewLogger(t), service.WithClock(func() time.Time { return fixed })), fake
}

func withTerminal(t *testing.T, tty bool, input string) {
	t.Helper()
	oldIn, oldTTY := stdin, isTerminal
	stdin = strings.NewReader(input)
	isTerminal = func() bool { return tty }
	t.Cleanup(func() { stdin, isTerminal = oldIn, oldTTY })
}

func TestAddAndListContacts(t *testing.T) {
	svc, _ := setupCLI(t)
	var out bytes.Buffer

	err := AddContactCommand(svc, &out, []string{"--first", "Ada", "--last", "Lovelace", "--email", "ada@example.com"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Contact created: Ada Lovelace (ID: 1)")

	out.Reset()
	require.NoError(t, ListContactsCommand(svc, &out, nil))
	assert.Contains(t, out.String(), "ada@example.com")
	assert.Contains(t, out.String(), "Total: 1 contact(s)")
}

func TestAddContactInvalidFormSendsNothing(t *testing.T) {
	svc, fake := setupCLI(t)
	var out bytes.Buffer

	err := AddContactCommand(svc, &out, []string{"--first", "Ada"})
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, out.String(), "Last Name")
	assert.Empty(t, fake.CallsFor("create"))
}

func TestListContactsUnavailable(t *testing.T) {
	svc, fake := setupCLI(t)
	fake.Err = errors.New("connection refused")
	var out bytes.Buffer

	err := ListContactsCommand(svc, &out, nil)
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, out.String(), "✗")
}

func TestUpdateContactRequiresFlags(t *testing.T) {
	svc, fake := setupCLI(t)
	fake.Seed(models.TableContacts, records.Record{"first_name_c": "Ada", "last_name_c": "Lovelace", "email_c": "ada@example.com"})
	var out bytes.Buffer

	err := UpdateContactCommand(svc, &out, []string{"1"})
	assert.ErrorContains(t, err, "nothing to update")

	require.NoError(t, UpdateContactCommand(svc, &out, []string{"--phone", "555-0100", "1"}))
	row, _ := fake.Row(models.TableContacts, 1)
	assert.Equal(t, "555-0100", row["phone_c"])
}

func TestUpdateDealChecksOnlyGivenFlags(t *testing.T) {
	svc, fake := setupCLI(t)
	fake.Seed(models.TableDeals, records.Record{"title_c": "Legacy", "value_c": 100.0, "stage_c": "negotiation"})
	var out bytes.Buffer

	require.NoError(t, UpdateDealCommand(svc, &out, []string{"--probability", "60", "1"}))
	updates := fake.CallsFor("update")
	require.Len(t, updates, 1)
	sent := updates[0].Write.Records[0]
	assert.EqualValues(t, 60, sent["probability_c"])
	assert.NotContains(t, sent, "stage_c")

	row, _ := fake.Row(models.TableDeals, 1)
	assert.Equal(t, "negotiation", row["stage_c"])

	// A bad value for a given flag is still refused.
	fake.ResetCalls()
	out.Reset()
	err := UpdateDealCommand(svc, &out, []string{"--probability", "140", "1"})
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, out.String(), "Probability")
	assert.Empty(t, fake.CallsFor("update"))
}

func TestAddDealDefaultsFromStage(t *testing.T) {
	svc, fake := setupCLI(t)
	now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })
	var out bytes.Buffer

	err := AddDealCommand(svc, &out, []string{"--title", "Website", "--value", "12500", "--stage", "proposal", "--contact-id", "3"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Value: $12,500")
	assert.Contains(t, out.String(), "Stage: proposal (75%)")

	row, ok := fake.Row(models.TableDeals, 1)
	require.True(t, ok)
	assert.Equal(t, "2026-03-31T00:00:00Z", row["close_date_c"])
}

func TestListDealsBoardNotesUnknownStage(t *testing.T) {
	svc, fake := setupCLI(t)
	fake.Seed(models.TableDeals,
		records.Record{"title_c": "A", "value_c": 1000.0, "stage_c": "lead", "contact_id_c": 1},
		records.Record{"title_c": "B", "value_c": 3000.0, "stage_c": "closed", "contact_id_c": 1},
		records.Record{"title_c": "C", "value_c": 500.0, "stage_c": "negotiation", "contact_id_c": 1},
	)
	var out bytes.Buffer

	require.NoError(t, ListDealsCommand(svc, &out, []string{"--board"}))
	s := out.String()
	assert.Contains(t, s, "LEAD (1) $1,000")
	assert.Contains(t, s, "CLOSED (1) $3,000")
	assert.Contains(t, s, "! 1 deals with unknown stage")
}

func TestMoveDeal(t *testing.T) {
	svc, fake := setupCLI(t)
	fake.Seed(models.TableDeals, records.Record{"title_c": "Website", "value_c": 1000.0, "stage_c": "lead", "probability_c": 25, "contact_id_c": 1})

	var out bytes.Buffer
	require.NoError(t, MoveDealCommand(svc, &out, []string{"1", "qualified"}))
	assert.Contains(t, out.String(), "✓ Moved Website: lead → qualified")

	row, _ := fake.Row(models.TableDeals, 1)
	assert.Equal(t, "qualified", row["stage_c"])

	fake.ResetCalls()
	out.Reset()
	require.NoError(t, MoveDealCommand(svc, &out, []string{"1", "qualified"}))
	assert.Contains(t, out.String(), "already in qualified")
	assert.Empty(t, fake.CallsFor("update"))
}

func TestMoveDealRequiresStage(t *testing.T) {
	svc, _ := setupCLI(t)
	var out bytes.Buffer
	assert.ErrorContains(t, MoveDealCommand(svc, &out, []string{"1"}), "target stage is required")
}

func TestDeleteContactWithoutTerminalRefuses(t *testing.T) {
	svc, fake := setupCLI(t)
	fake.Seed(models.TableContacts, records.Record{"first_name_c": "Ada", "last_name_c": "Lovelace"})
	withTerminal(t, false, "")
	var out bytes.Buffer

	err := DeleteContactCommand(svc, &out, []string{"1"})
	assert.ErrorContains(t, err, "--yes")
	assert.Empty(t, fake.CallsFor("delete"))
}

func TestDeleteContactConfirmed(t *testing.T) {
	svc, fake := setupCLI(t)
	fake.Seed(models.TableContacts, records.Record{"first_name_c": "Ada", "last_name_c": "Lovelace"})
	withTerminal(t, true, "y\n")
	var out bytes.Buffer

	require.NoError(t, DeleteContactCommand(svc, &out, []string{"1"}))
	assert.Contains(t, out.String(), "✓ Deleted (delete contact 1)")
	_, ok := fake.Row(models.TableContacts, 1)
	assert.False(t, ok)
}

func TestDeleteDeclined(t *testing.T) {
	svc, fake := setupCLI(t)
	fake.Seed(models.TableDeals, records.Record{"title_c": "Website", "stage_c": "lead"})
	withTerminal(t, true, "n\n")
	var out bytes.Buffer

	require.NoError(t, DeleteDealCommand(svc, &out, []string{"1"}))
	assert.Contains(t, out.String(), "Cancelled")
	assert.Empty(t, fake.CallsFor("delete"))
}

func TestDeleteMissingRecordReportsNotFound(t *testing.T) {
	svc, _ := setupCLI(t)
	var out bytes.Buffer

	err := DeleteCompanyCommand(svc, &out, []string{"--yes", "42"})
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, out.String(), "✗")
}

func TestLogActivityAndList(t *testing.T) {
	svc, _ := setupCLI(t)
	var out bytes.Buffer

	require.NoError(t, LogActivityCommand(svc, &out, []string{"--type", "meeting", "--description", "Kickoff", "--contact-id", "1"}))
	assert.Contains(t, out.String(), "✓ Activity logged: meeting")

	out.Reset()
	require.NoError(t, ListActivitiesCommand(svc, &out, []string{"--contact-id", "1"}))
	assert.Contains(t, out.String(), "Kickoff")
}

func TestParseID(t *testing.T) {
	_, err := parseID(nil, "deal")
	assert.ErrorContains(t, err, "deal ID is required")

	_, err = parseID([]string{"abc"}, "deal")
	assert.ErrorContains(t, err, "invalid deal ID")

	id, err := parseID([]string{"7"}, "deal")
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}
