package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/records"
	"github.com/harperreed/dealboard/records/recordstest"
	"github.com/harperreed/dealboard/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupBoard(t *testing.T) (*Board, *recordstest.Fake) {
	t.Helper()
	fake := recordstest.New()
	fake.Registry = models.Registry()
	fake.Seed(models.TableDeals,
		records.Record{models.FieldTitle: "Pilot", models.FieldValue: 5000.0, models.FieldStage: models.StageLead, models.FieldProbability: 25},
		records.Record{models.FieldTitle: "Renewal", models.FieldValue: 1200.0, models.FieldStage: models.StageProposal, models.FieldProbability: 75},
	)

	deals := service.NewDealService(fake, zaptest.NewLogger(t))
	loaded := deals.GetAll(context.Background())
	require.NoError(t, loaded.Err)
	require.Len(t, loaded.Value, 2)

	fake.ResetCalls()
	return NewBoard(deals, loaded.Value, zaptest.NewLogger(t)), fake
}

func dealByTitle(t *testing.T, b *Board, title string) models.Deal {
	t.Helper()
	for _, d := range b.Deals() {
		if d.Title == title {
			return d
		}
	}
	t.Fatalf("deal %q not on board", title)
	return models.Deal{}
}

func TestDragStateMachine(t *testing.T) {
	b, _ := setupBoard(t)
	pilot := dealByTitle(t, b, "Pilot")

	assert.Equal(t, Idle, b.Drag().Phase)
	assert.False(t, b.Pick(999))

	require.True(t, b.Pick(pilot.ID))
	assert.Equal(t, DragState{Phase: Dragging, DealID: pilot.ID}, b.Drag())
	assert.False(t, b.Pick(pilot.ID), "already dragging")

	b.Hover(models.StageQualified)
	assert.Equal(t, DragState{Phase: Hovering, DealID: pilot.ID, Target: models.StageQualified}, b.Drag())

	b.Hover("")
	assert.Equal(t, Dragging, b.Drag().Phase)

	b.Cancel()
	assert.Equal(t, DragState{}, b.Drag())

	b.Hover(models.StageClosed)
	assert.Equal(t, Idle, b.Drag().Phase, "hover without a drag does nothing")
}

func TestReleaseWaitsForOutcome(t *testing.T) {
	b, _ := setupBoard(t)
	pilot := dealByTitle(t, b, "Pilot")
	renewal := dealByTitle(t, b, "Renewal")

	_, ok := b.Release(models.StageClosed)
	assert.False(t, ok, "nothing to release")

	require.True(t, b.Pick(pilot.ID))
	b.Hover(models.StageQualified)
	deal, ok := b.Release(models.StageQualified)
	require.True(t, ok)
	assert.Equal(t, pilot.ID, deal.ID)
	assert.Equal(t, DragState{Phase: Dropping, DealID: pilot.ID, Target: models.StageQualified}, b.Drag())

	assert.False(t, b.Pick(renewal.ID), "no pick while a drop is pending")
	b.Hover(models.StageClosed)
	b.Cancel()
	assert.Equal(t, Dropping, b.Drag().Phase, "hover and cancel leave a pending drop alone")

	// an outcome for another deal does not end this drop
	b.Apply(MoveResult{DealID: renewal.ID, To: models.StageClosed, Err: service.ErrUnavailable})
	assert.Equal(t, Dropping, b.Drag().Phase)

	b.Apply(MoveResult{DealID: pilot.ID, From: models.StageLead, To: models.StageQualified, Err: service.ErrUnavailable})
	assert.Equal(t, Idle, b.Drag().Phase)
	assert.Equal(t, models.StageLead, dealByTitle(t, b, "Pilot").Stage)
}

func TestLateMoveDoesNotRestoreRemovedDeal(t *testing.T) {
	b := NewBoard(nil, []models.Deal{
		{ID: 1, Title: "Pilot", Stage: models.StageLead},
		{ID: 2, Title: "Renewal", Stage: models.StageProposal},
	}, zaptest.NewLogger(t))

	require.True(t, b.Pick(1))
	_, ok := b.Release(models.StageQualified)
	require.True(t, ok)
	b.Remove(1)

	b.Apply(MoveResult{From: models.StageLead, To: models.StageQualified, Deal: &models.Deal{ID: 1, Title: "Pilot", Stage: models.StageQualified}})

	_, ok = b.Deal(1)
	assert.False(t, ok)
	assert.Len(t, b.Deals(), 1)
	assert.Equal(t, Idle, b.Drag().Phase)
}

func TestDropSendsOnlyStage(t *testing.T) {
	b, fake := setupBoard(t)
	pilot := dealByTitle(t, b, "Pilot")
	before := b.Deals()

	require.True(t, b.Pick(pilot.ID))
	b.Hover(models.StageQualified)
	res := b.Drop(context.Background(), models.StageQualified)

	require.NoError(t, res.Err)
	assert.False(t, res.Noop)
	assert.Equal(t, models.StageLead, res.From)
	assert.Equal(t, Idle, b.Drag().Phase)

	calls := fake.CallsFor("update")
	require.Len(t, calls, 1)
	want := records.Record{records.IDField: pilot.ID, models.FieldStage: models.StageQualified}
	if diff := cmp.Diff(want, calls[0].Write.Records[0]); diff != "" {
		t.Errorf("update payload mismatch (-want +got):\n%s", diff)
	}

	moved := dealByTitle(t, b, "Pilot")
	assert.Equal(t, models.StageQualified, moved.Stage)
	assert.Equal(t, 25, moved.Probability, "probability is not re-derived on move")

	// the previous slice was not mutated
	assert.Equal(t, models.StageLead, before[indexOf(before, pilot.ID)].Stage)
	assert.Equal(t, indexOf(before, pilot.ID), indexOf(b.Deals(), pilot.ID))
}

func indexOf(deals []models.Deal, id int) int {
	for i, d := range deals {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func TestDropOnSameStageIsNoop(t *testing.T) {
	b, fake := setupBoard(t)
	renewal := dealByTitle(t, b, "Renewal")

	require.True(t, b.Pick(renewal.ID))
	res := b.Drop(context.Background(), models.StageProposal)

	assert.NoError(t, res.Err)
	assert.True(t, res.Noop)
	assert.Empty(t, fake.CallsFor("update"))
}

func TestDropFailureLeavesBoardUnchanged(t *testing.T) {
	b, fake := setupBoard(t)
	pilot := dealByTitle(t, b, "Pilot")
	before := append([]models.Deal(nil), b.Deals()...)
	fake.Err = errors.New("connection reset")

	require.True(t, b.Pick(pilot.ID))
	res := b.Drop(context.Background(), models.StageClosed)

	assert.ErrorIs(t, res.Err, service.ErrUnavailable)
	assert.Equal(t, Idle, b.Drag().Phase)
	if diff := cmp.Diff(before, b.Deals()); diff != "" {
		t.Errorf("board changed after failed move (-want +got):\n%s", diff)
	}
}

func TestDropRejectedByStore(t *testing.T) {
	b, fake := setupBoard(t)
	pilot := dealByTitle(t, b, "Pilot")
	fake.RejectMessage = "locked"

	b.Pick(pilot.ID)
	res := b.Drop(context.Background(), models.StageClosed)
	assert.ErrorIs(t, res.Err, service.ErrRejected)
	assert.Equal(t, models.StageLead, dealByTitle(t, b, "Pilot").Stage)
}

func TestDropWithoutDrag(t *testing.T) {
	b, fake := setupBoard(t)
	res := b.Drop(context.Background(), models.StageClosed)
	assert.ErrorIs(t, res.Err, ErrNotDragging)
	assert.Empty(t, fake.Calls)
}

func TestMoveDealUnknownStage(t *testing.T) {
	b, fake := setupBoard(t)
	pilot := dealByTitle(t, b, "Pilot")

	res := MoveDeal(context.Background(), nil, pilot, "won")
	assert.ErrorIs(t, res.Err, ErrUnknownStage)
	assert.Empty(t, fake.Calls)
}

func TestReplaceAndRemove(t *testing.T) {
	b, _ := setupBoard(t)
	pilot := dealByTitle(t, b, "Pilot")

	pilot.Title = "Pilot v2"
	b.Replace(pilot)
	assert.Equal(t, "Pilot v2", dealByTitle(t, b, "Pilot v2").Title)
	assert.Len(t, b.Deals(), 2)

	assert.False(t, b.Replace(models.Deal{ID: 77, Title: "New", Stage: models.StageLead}))
	assert.Len(t, b.Deals(), 2, "replace never inserts")

	b.Add(models.Deal{ID: 77, Title: "New", Stage: models.StageLead})
	assert.Equal(t, 77, b.Deals()[0].ID)
	b.Add(models.Deal{ID: 77, Title: "New v2", Stage: models.StageLead})
	assert.Len(t, b.Deals(), 3)
	assert.Equal(t, "New v2", b.Deals()[0].Title)

	b.Pick(77)
	b.Remove(77)
	assert.Len(t, b.Deals(), 2)
	assert.Equal(t, Idle, b.Drag().Phase)
}

func TestSetDealsDropsStaleDrag(t *testing.T) {
	b, _ := setupBoard(t)
	pilot := dealByTitle(t, b, "Pilot")
	b.Pick(pilot.ID)

	b.SetDeals(nil)
	assert.Equal(t, Idle, b.Drag().Phase)
	assert.Len(t, b.Columns(), 4)
}
