// ABOUTME: Wire types and client interface for the table-based record store
// ABOUTME: Fetch, get-by-id, create, update and delete records by table name
package records

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// Record is one flat row as it travels over the wire.
type Record map[string]any

// IDField is the store-assigned identifier present on every persisted record.
const IDField = "Id"

// Sort directions accepted in OrderBy.SortType.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// OrderBy sorts a fetch by one field.
type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"`
}

// PagingInfo bounds a fetch.
type PagingInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Query selects fields, ordering and paging for a fetch or get-by-id.
type Query struct {
	Fields     []string    `json:"fields,omitempty"`
	OrderBy    []OrderBy   `json:"orderBy,omitempty"`
	PagingInfo *PagingInfo `json:"pagingInfo,omitempty"`
}

// FetchResponse answers a fetch.
type FetchResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    []Record `json:"data"`
}

// RecordResponse answers a get-by-id.
type RecordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    Record `json:"data,omitempty"`
}

// WriteRequest carries a batch of records to create or update.
type WriteRequest struct {
	Records []Record `json:"records"`
}

// FieldError is a per-field rejection inside a write result.
type FieldError struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.FieldLabel, e.Message)
}

// WriteResult is the outcome for one record of a batch.
type WriteResult struct {
	Success bool         `json:"success"`
	Data    Record       `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Message string       `json:"message,omitempty"`
}

// WriteResponse answers a create or update batch.
type WriteResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Results []WriteResult `json:"results"`
}

// DeleteRequest names the records to delete.
type DeleteRequest struct {
	RecordIDs []int `json:"RecordIds"`
}

// DeleteResponse answers a delete batch.
type DeleteResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Results []WriteResult `json:"results"`
}

// Client is the record store protocol. Implementations report logical failures
// through Success=false and reserve the error return for transport failures.
type Client interface {
	Fetch(ctx context.Context, table string, q Query) (*FetchResponse, error)
	GetByID(ctx context.Context, table string, id int, q Query) (*RecordResponse, error)
	Create(ctx context.Context, table string, req WriteRequest) (*WriteResponse, error)
	Update(ctx context.Context, table string, req WriteRequest) (*WriteResponse, error)
	Delete(ctx context.Context, table string, req DeleteRequest) (*DeleteResponse, error)
}

// ID extracts the record identifier, accepting any numeric representation.
func (r Record) ID() (int, bool) {
	return AsInt(r[IDField])
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AsInt converts JSON-ish numeric values to int.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case float32:
		return AsInt(float64(n))
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	case map[string]any:
		// lookup fields come back as {Id, Name}
		return AsInt(n[IDField])
	case Record:
		return AsInt(n[IDField])
	}
	return 0, false
}

// AsFloat converts JSON-ish numeric values to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return AsFloat(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return AsFloat(f)
	}
	return 0, false
}
