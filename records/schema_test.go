// ABOUTME: Tests for schema coercion and write validation
// ABOUTME: Covers empty-field stripping, numeric coercion and picklists
package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	Table: "deal_c",
	Fields: []Field{
		{Name: "title_c", Label: "Title", Kind: KindText, Required: true},
		{Name: "value_c", Label: "Value", Kind: KindFloat, NonNegative: true},
		{Name: "stage_c", Label: "Stage", Kind: KindPicklist, Options: []string{"lead", "closed"}},
		{Name: "contact_id_c", Label: "Contact", Kind: KindRef},
		{Name: "close_date_c", Label: "Close Date", Kind: KindTime},
	},
}

func TestCoerceDropsEmptyAndUnknownFields(t *testing.T) {
	out, errs := testSchema.Coerce(Record{
		"title_c":      "Big deal",
		"value_c":      "",
		"stage_c":      nil,
		"contact_id_c": "  ",
		"bogus":        "x",
	})

	assert.Empty(t, errs)
	assert.Equal(t, Record{"title_c": "Big deal"}, out)
}

func TestCoerceConvertsNumbers(t *testing.T) {
	out, errs := testSchema.Coerce(Record{
		"Id":           "7",
		"value_c":      "12500.50",
		"contact_id_c": float64(3),
		"close_date_c": "2024-03-15",
	})

	require.Empty(t, errs)
	assert.Equal(t, 7, out["Id"])
	assert.Equal(t, 12500.50, out["value_c"])
	assert.Equal(t, 3, out["contact_id_c"])
	assert.Equal(t, "2024-03-15T00:00:00Z", out["close_date_c"])
}

func TestCoerceLookupObjectReference(t *testing.T) {
	out, errs := testSchema.Coerce(Record{
		"contact_id_c": map[string]any{"Id": float64(9), "Name": "Ada"},
	})

	require.Empty(t, errs)
	assert.Equal(t, 9, out["contact_id_c"])
}

func TestCoerceReportsBadValues(t *testing.T) {
	out, errs := testSchema.Coerce(Record{
		"value_c":      "lots",
		"contact_id_c": "abc",
		"stage_c":      "won",
	})

	assert.Len(t, errs, 3)
	assert.Empty(t, out)
}

func TestValidateRequiredOnlyOnCreate(t *testing.T) {
	errs := testSchema.Validate(Record{"value_c": 10.0}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, "Title", errs[0].FieldLabel)

	assert.Empty(t, testSchema.Validate(Record{"value_c": 10.0}, false))
}

func TestValidateNegativeValue(t *testing.T) {
	errs := testSchema.Validate(Record{"title_c": "x", "value_c": -1.0}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, "Value", errs[0].FieldLabel)
	assert.Contains(t, errs[0].Error(), "negative")
}

func TestAsInt(t *testing.T) {
	cases := []struct {
		in   any
		want int
		ok   bool
	}{
		{1, 1, true},
		{float64(4), 4, true},
		{float64(4.5), 0, false},
		{"12", 12, true},
		{"x", 0, false},
		{nil, 0, false},
		{map[string]any{"Id": 5}, 5, true},
	}
	for _, tc := range cases {
		got, ok := AsInt(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)
	}
}
