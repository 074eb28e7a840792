package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/harperreed/dealboard/models"
	"github.com/stretchr/testify/assert"
)

func sampleDeals() []models.Deal {
	return []models.Deal{
		{ID: 1, Title: "A", Value: 1000, Stage: models.StageLead},
		{ID: 2, Title: "B", Value: 3000, Stage: models.StageClosed},
		{ID: 3, Title: "C", Value: 500, Stage: models.StageLead},
		{ID: 4, Title: "D", Value: 2500, Stage: "negotiation"},
		{ID: 5, Title: "E", Value: 0, Stage: models.StageProposal},
	}
}

func TestGroupByStage(t *testing.T) {
	deals := sampleDeals()
	g := GroupByStage(deals)

	assert.Len(t, g.Buckets, 4)
	for i, b := range g.Buckets {
		assert.Equal(t, Stages[i], b.Stage)
	}

	want := []models.Deal{deals[0], deals[2]}
	if diff := cmp.Diff(want, g.Deals(models.StageLead)); diff != "" {
		t.Errorf("lead bucket mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, g.Deals(models.StageQualified))
	assert.NotNil(t, g.Deals(models.StageQualified))
	assert.Nil(t, g.Deals("negotiation"))

	assert.Equal(t, len(deals)-len(g.Unstaged), g.Staged())
	assert.Equal(t, 4, g.Unstaged[0].ID)

	// buckets are copies
	g.Buckets[0].Deals[0].Title = "changed"
	assert.Equal(t, "A", deals[0].Title)
}

func TestAggregateStageValue(t *testing.T) {
	assert.Equal(t, 0.0, AggregateStageValue(nil))
	assert.Equal(t, 7000.0, AggregateStageValue(sampleDeals()))
}

func TestSummarize(t *testing.T) {
	cols := Summarize(sampleDeals())

	want := []struct {
		stage string
		count int
		value float64
		share float64
	}{
		{models.StageLead, 2, 1500, 21.4},
		{models.StageQualified, 0, 0, 0},
		{models.StageProposal, 1, 0, 0},
		{models.StageClosed, 1, 3000, 42.9},
	}
	for i, w := range want {
		assert.Equal(t, w.stage, cols[i].Stage)
		assert.Equal(t, w.count, cols[i].Count, w.stage)
		assert.Equal(t, w.value, cols[i].Value, w.stage)
		assert.InDelta(t, w.share, cols[i].Share, 0.001, w.stage)
	}
	assert.Equal(t, "Qualified", cols[1].Label)

	for _, c := range Summarize(nil) {
		assert.Zero(t, c.Share)
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := map[float64]string{
		0:        "$0",
		12500:    "$12,500",
		999.6:    "$1,000",
		100:      "$100",
		1234567:  "$1,234,567",
		-45000.2: "-$45,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCurrency(in), in)
	}
}
