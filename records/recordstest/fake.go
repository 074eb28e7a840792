// ABOUTME: In-memory record Client for tests that records every call
// ABOUTME: Supports seeding, schema validation and injected transport failures
package recordstest

import (
	"context"
	"sync"

	"github.com/harperreed/dealboard/records"
)

// Call is one recorded invocation.
type Call struct {
	Op     string
	Table  string
	ID     int
	Query  records.Query
	Write  records.WriteRequest
	Delete records.DeleteRequest
}

// Fake is a records.Client backed by maps.
type Fake struct {
	mu     sync.Mutex
	tables map[string]map[int]records.Record
	nextID map[string]int

	// Registry, when set, validates writes like a real store would.
	Registry records.Registry
	// Err is returned from every call while set.
	Err error
	// RejectMessage makes every write answer success=false with this message.
	RejectMessage string

	Calls []Call
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		tables: make(map[string]map[int]records.Record),
		nextID: make(map[string]int),
	}
}

// Seed stores rows directly, assigning Ids to rows without one. It returns the stored rows.
func (f *Fake) Seed(table string, rows ...records.Record) []records.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		r = r.Clone()
		id, ok := r.ID()
		if !ok {
			id = f.allocate(table)
			r[records.IDField] = id
		} else if id >= f.nextID[table] {
			f.nextID[table] = id
		}
		f.table(table)[id] = r
		out = append(out, r.Clone())
	}
	return out
}

// Row returns a stored row by id.
func (f *Fake) Row(table string, id int) (records.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.tables[table][id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// CallsFor filters recorded calls by operation name.
func (f *Fake) CallsFor(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

func (f *Fake) table(name string) map[int]records.Record {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[int]records.Record)
		f.tables[name] = t
	}
	return t
}

func (f *Fake) allocate(table string) int {
	f.nextID[table]++
	return f.nextID[table]
}

func (f *Fake) Fetch(_ context.Context, table string, q records.Query) (*records.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Op: "fetch", Table: table, Query: q})
	if f.Err != nil {
		return nil, f.Err
	}
	rows := make([]records.Record, 0, len(f.tables[table]))
	for _, r := range f.tables[table] {
		rows = append(rows, r)
	}
	return &records.FetchResponse{Success: true, Data: records.Apply(rows, q)}, nil
}

func (f *Fake) GetByID(_ context.Context, table string, id int, q records.Query) (*records.RecordResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Op: "get", Table: table, ID: id, Query: q})
	if f.Err != nil {
		return nil, f.Err
	}
	r, ok := f.tables[table][id]
	if !ok {
		return &records.RecordResponse{Success: false, Message: "Record does not exist"}, nil
	}
	return &records.RecordResponse{Success: true, Data: records.Project(r, q.Fields)}, nil
}

func (f *Fake) Create(_ context.Context, table string, req records.WriteRequest) (*records.WriteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Op: "create", Table: table, Write: req})
	if f.Err != nil {
		return nil, f.Err
	}
	if f.RejectMessage != "" {
		return &records.WriteResponse{Success: false, Message: f.RejectMessage}, nil
	}
	resp := &records.WriteResponse{Success: true}
	for _, in := range req.Records {
		if errs := f.validate(table, in, true); len(errs) > 0 {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Errors: errs})
			continue
		}
		r := in.Clone()
		id := f.allocate(table)
		r[records.IDField] = id
		f.table(table)[id] = r
		resp.Results = append(resp.Results, records.WriteResult{Success: true, Data: r.Clone()})
	}
	return resp, nil
}

func (f *Fake) Update(_ context.Context, table string, req records.WriteRequest) (*records.WriteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Op: "update", Table: table, Write: req})
	if f.Err != nil {
		return nil, f.Err
	}
	if f.RejectMessage != "" {
		return &records.WriteResponse{Success: false, Message: f.RejectMessage}, nil
	}
	resp := &records.WriteResponse{Success: true}
	for _, in := range req.Records {
		id, ok := in.ID()
		existing, found := f.tables[table][id]
		if !ok || !found {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Message: "Record does not exist"})
			continue
		}
		if errs := f.validate(table, in, false); len(errs) > 0 {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Errors: errs})
			continue
		}
		merged := records.Merge(existing, in)
		f.table(table)[id] = merged
		resp.Results = append(resp.Results, records.WriteResult{Success: true, Data: merged.Clone()})
	}
	return resp, nil
}

func (f *Fake) Delete(_ context.Context, table string, req records.DeleteRequest) (*records.DeleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Op: "delete", Table: table, Delete: req})
	if f.Err != nil {
		return nil, f.Err
	}
	resp := &records.DeleteResponse{Success: true}
	for _, id := range req.RecordIDs {
		if _, ok := f.tables[table][id]; !ok {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Message: "Record does not exist"})
			continue
		}
		delete(f.tables[table], id)
		resp.Results = append(resp.Results, records.WriteResult{Success: true})
	}
	return resp, nil
}

func (f *Fake) validate(table string, r records.Record, creating bool) []records.FieldError {
	if f.Registry == nil {
		return nil
	}
	schema, ok := f.Registry.Lookup(table)
	if !ok {
		return []records.FieldError{{FieldLabel: "table", Message: "unknown table " + table}}
	}
	return schema.Validate(r, creating)
}
