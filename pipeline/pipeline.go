// ABOUTME: Deal pipeline grouping and per-stage summaries
// ABOUTME: Pure functions over loaded deals shared by the board, dashboard and graph
package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/harperreed/dealboard/models"
)

// Stages is the fixed, ordered pipeline.
var Stages = models.Stages

// Bucket holds the deals in one stage.
type Bucket struct {
	Stage string
	Deals []models.Deal
}

// Grouping partitions deals by stage in pipeline order. Deals whose stage is
// not part of the pipeline end up in Unstaged and are not shown in any column.
type Grouping struct {
	Buckets  []Bucket
	Unstaged []models.Deal
}

// Deals returns the bucket for stage, or nil for an unknown stage.
func (g Grouping) Deals(stage string) []models.Deal {
	for _, b := range g.Buckets {
		if b.Stage == stage {
			return b.Deals
		}
	}
	return nil
}

// Staged counts the deals placed in a column.
func (g Grouping) Staged() int {
	n := 0
	for _, b := range g.Buckets {
		n += len(b.Deals)
	}
	return n
}

// GroupByStage copies deals into one bucket per stage, keeping input order
// within each bucket.
func GroupByStage(deals []models.Deal) Grouping {
	g := Grouping{Buckets: make([]Bucket, len(Stages))}
	index := make(map[string]int, len(Stages))
	for i, s := range Stages {
		g.Buckets[i] = Bucket{Stage: s, Deals: []models.Deal{}}
		index[s] = i
	}
	for _, d := range deals {
		i, ok := index[d.Stage]
		if !ok {
			g.Unstaged = append(g.Unstaged, d)
			continue
		}
		g.Buckets[i].Deals = append(g.Buckets[i].Deals, d)
	}
	return g
}

// AggregateStageValue sums deal values. An empty slice yields 0.
func AggregateStageValue(deals []models.Deal) float64 {
	total := 0.0
	for _, d := range deals {
		total += d.Value
	}
	return total
}

// Column is the summary shown above a board column or dashboard row.
type Column struct {
	Stage string
	Label string
	Count int
	Value float64
	// Share is the stage's percentage of total pipeline value, one decimal.
	Share float64
	Deals []models.Deal
}

// Summarize builds one column per stage.
func Summarize(deals []models.Deal) []Column {
	g := GroupByStage(deals)
	total := AggregateStageValue(deals)

	cols := make([]Column, 0, len(g.Buckets))
	for _, b := range g.Buckets {
		value := AggregateStageValue(b.Deals)
		cols = append(cols, Column{
			Stage: b.Stage,
			Label: models.StageLabel(b.Stage),
			Count: len(b.Deals),
			Value: value,
			Share: share(value, total),
			Deals: b.Deals,
		})
	}
	return cols
}

func share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(part/total*1000) / 10
}

// FormatCurrency renders whole US dollars with thousands separators: $12,500.
func FormatCurrency(v float64) string {
	neg := v < 0
	digits := strconv.FormatInt(int64(math.Round(math.Abs(v))), 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
