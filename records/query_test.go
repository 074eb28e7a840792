// ABOUTME: Tests for in-memory query evaluation
// ABOUTME: Ordering, paging, projection and merge behavior
package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Record {
	return []Record{
		{"Id": 1, "name_c": "beta", "value_c": 30.0},
		{"Id": 2, "name_c": "Alpha", "value_c": 10.0},
		{"Id": 3, "name_c": "gamma", "value_c": 20.0},
		{"Id": 4, "name_c": "alpha", "value_c": 20.0},
	}
}

func ids(rows []Record) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		id, _ := r.ID()
		out = append(out, id)
	}
	return out
}

func TestApplySortsTextCaseInsensitively(t *testing.T) {
	got := Apply(sampleRows(), Query{OrderBy: []OrderBy{{FieldName: "name_c", SortType: SortAsc}}})
	assert.Equal(t, []int{2, 4, 1, 3}, ids(got))
}

func TestApplySortsNumbersDescendingWithIdTieBreak(t *testing.T) {
	got := Apply(sampleRows(), Query{OrderBy: []OrderBy{{FieldName: "value_c", SortType: SortDesc}}})
	assert.Equal(t, []int{1, 3, 4, 2}, ids(got))
}

func TestApplyPaging(t *testing.T) {
	q := Query{PagingInfo: &PagingInfo{Limit: 2, Offset: 1}}
	assert.Equal(t, []int{2, 3}, ids(Apply(sampleRows(), q)))

	q.PagingInfo.Offset = 10
	got := Apply(sampleRows(), q)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	rows := sampleRows()
	_ = Apply(rows, Query{OrderBy: []OrderBy{{FieldName: "name_c", SortType: SortAsc}}, Fields: []string{"name_c"}})
	assert.Equal(t, sampleRows(), rows)
}

func TestProjectKeepsId(t *testing.T) {
	got := Project(Record{"Id": 9, "name_c": "x", "value_c": 1.0}, []string{"name_c"})
	assert.Equal(t, Record{"Id": 9, "name_c": "x"}, got)
}

func TestMergeNeverOverwritesId(t *testing.T) {
	got := Merge(Record{"Id": 1, "stage_c": "lead", "title_c": "t"}, Record{"Id": 99, "stage_c": "closed"})
	assert.Equal(t, Record{"Id": 1, "stage_c": "closed", "title_c": "t"}, got)
}
