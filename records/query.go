// ABOUTME: In-memory evaluation of record queries for key-value backends
// ABOUTME: Sorting, paging, field projection and partial-update merging
package records

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// DefaultLimit applies when a query has no paging info.
const DefaultLimit = 100

// Apply sorts, pages and projects rows according to q. rows is not modified.
func Apply(rows []Record, q Query) []Record {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		for _, o := range q.OrderBy {
			c := compareValues(a[o.FieldName], b[o.FieldName])
			if strings.EqualFold(o.SortType, SortDesc) {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		ai, _ := a.ID()
		bi, _ := b.ID()
		return cmp.Compare(ai, bi)
	})

	limit, offset := DefaultLimit, 0
	if q.PagingInfo != nil {
		if q.PagingInfo.Limit > 0 {
			limit = q.PagingInfo.Limit
		}
		if q.PagingInfo.Offset > 0 {
			offset = q.PagingInfo.Offset
		}
	}
	if offset >= len(sorted) {
		return []Record{}
	}
	end := min(offset+limit, len(sorted))

	page := make([]Record, 0, end-offset)
	for _, r := range sorted[offset:end] {
		page = append(page, Project(r, q.Fields))
	}
	return page
}

// Project keeps only the named fields plus Id. An empty list keeps everything.
func Project(r Record, fields []string) Record {
	if len(fields) == 0 {
		return r.Clone()
	}
	out := make(Record, len(fields)+1)
	if id, ok := r[IDField]; ok {
		out[IDField] = id
	}
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Merge overlays partial onto existing. Id is never overwritten.
func Merge(existing, partial Record) Record {
	out := existing.Clone()
	for k, v := range partial {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}

// compareValues orders nil first, then numbers, then case-insensitive text.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	af, aNum := AsFloat(a)
	bf, bNum := AsFloat(b)
	_, aStr := a.(string)
	_, bStr := b.(string)
	if aNum && bNum && !aStr && !bStr {
		return cmp.Compare(af, bf)
	}
	as, bs := toText(a), toText(b)
	if c := cmp.Compare(strings.ToLower(as), strings.ToLower(bs)); c != 0 {
		return c
	}
	return cmp.Compare(as, bs)
}

func toText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := AsFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
