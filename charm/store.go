// ABOUTME: Record store backed by Charm KV, synced across devices
// ABOUTME: Records live under records/<table>/<id> with a per-table id sequence

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/dealboard/records"
	"go.uber.org/zap"
)

// KV is the key-value surface the store needs. *Client satisfies it.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	KeysWithPrefix(prefix []byte) ([][]byte, error)
}

// Store implements records.Client on top of a KV.
type Store struct {
	kv       KV
	registry records.Registry
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewStore builds a store over kv for the given tables.
func NewStore(kv KV, registry records.Registry, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, registry: registry, logger: logger}
}

func recordPrefix(table string) []byte {
	return []byte("records/" + table + "/")
}

func recordKey(table string, id int) []byte {
	return []byte(fmt.Sprintf("records/%s/%010d", table, id))
}

func sequenceKey(table string) []byte {
	return []byte("seq/" + table)
}

func (s *Store) get(table string, id int) (records.Record, error) {
	data, err := s.kv.Get(recordKey(table, id))
	if err != nil {
		return nil, err
	}
	rec := records.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s/%d: %w", table, id, err)
	}
	rec[records.IDField] = id
	return rec, nil
}

func (s *Store) put(table string, id int, rec records.Record) error {
	stored := rec.Clone()
	delete(stored, records.IDField)
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return s.kv.Set(recordKey(table, id), data)
}

func (s *Store) nextID(table string) (int, error) {
	current := 0
	data, err := s.kv.Get(sequenceKey(table))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, fmt.Errorf("failed to read sequence: %w", err)
	default:
		if current, err = strconv.Atoi(string(data)); err != nil {
			return 0, fmt.Errorf("corrupt sequence for %s: %w", table, err)
		}
	}
	next := current + 1
	if err := s.kv.Set(sequenceKey(table), []byte(strconv.Itoa(next))); err != nil {
		return 0, fmt.Errorf("failed to advance sequence: %w", err)
	}
	return next, nil
}

func (s *Store) Fetch(_ context.Context, table string, q records.Query) (*records.FetchResponse, error) {
	if _, ok := s.registry.Lookup(table); !ok {
		return &records.FetchResponse{Success: false, Message: "unknown table " + table, Data: []records.Record{}}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.KeysWithPrefix(recordPrefix(table))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	rows := make([]records.Record, 0, len(keys))
	prefixLen := len(recordPrefix(table))
	for _, k := range keys {
		id, err := strconv.Atoi(string(k[prefixLen:]))
		if err != nil {
			s.logger.Warn("skipping malformed record key", zap.ByteString("key", k))
			continue
		}
		rec, err := s.get(table, id)
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}

	return &records.FetchResponse{Success: true, Data: records.Apply(rows, q)}, nil
}

func (s *Store) GetByID(_ context.Context, table string, id int, q records.Query) (*records.RecordResponse, error) {
	if _, ok := s.registry.Lookup(table); !ok {
		return &records.RecordResponse{Success: false, Message: "unknown table " + table}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.get(table, id)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &records.RecordResponse{Success: false, Message: "Record does not exist"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &records.RecordResponse{Success: true, Data: records.Project(rec, q.Fields)}, nil
}

func (s *Store) Create(_ context.Context, table string, req records.WriteRequest) (*records.WriteResponse, error) {
	schema, ok := s.registry.Lookup(table)
	if !ok {
		return &records.WriteResponse{Success: false, Message: "unknown table " + table}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &records.WriteResponse{Success: true, Results: make([]records.WriteResult, 0, len(req.Records))}
	for _, in := range req.Records {
		rec, errs := schema.Coerce(in)
		delete(rec, records.IDField)
		errs = append(errs, schema.Validate(rec, true)...)
		if len(errs) > 0 {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Errors: errs})
			continue
		}

		id, err := s.nextID(table)
		if err != nil {
			return nil, err
		}
		if err := s.put(table, id, rec); err != nil {
			return nil, fmt.Errorf("failed to store record: %w", err)
		}
		rec[records.IDField] = id
		resp.Results = append(resp.Results, records.WriteResult{Success: true, Data: rec})
	}
	return resp, nil
}

func (s *Store) Update(_ context.Context, table string, req records.WriteRequest) (*records.WriteResponse, error) {
	schema, ok := s.registry.Lookup(table)
	if !ok {
		return &records.WriteResponse{Success: false, Message: "unknown table " + table}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &records.WriteResponse{Success: true, Results: make([]records.WriteResult, 0, len(req.Records))}
	for _, in := range req.Records {
		id, ok := in.ID()
		if !ok {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Message: "Id is required"})
			continue
		}

		existing, err := s.get(table, id)
		if errors.Is(err, badger.ErrKeyNotFound) {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Message: "Record does not exist"})
			continue
		}
		if err != nil {
			return nil, err
		}

		partial, errs := schema.Coerce(in)
		errs = append(errs, schema.Validate(partial, false)...)
		if len(errs) > 0 {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Errors: errs})
			continue
		}

		merged := records.Merge(existing, partial)
		if err := s.put(table, id, merged); err != nil {
			return nil, fmt.Errorf("failed to store record: %w", err)
		}
		resp.Results = append(resp.Results, records.WriteResult{Success: true, Data: merged})
	}
	return resp, nil
}

func (s *Store) Delete(_ context.Context, table string, req records.DeleteRequest) (*records.DeleteResponse, error) {
	if _, ok := s.registry.Lookup(table); !ok {
		return &records.DeleteResponse{Success: false, Message: "unknown table " + table}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &records.DeleteResponse{Success: true, Results: make([]records.WriteResult, 0, len(req.RecordIDs))}
	for _, id := range req.RecordIDs {
		if _, err := s.kv.Get(recordKey(table, id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				resp.Results = append(resp.Results, records.WriteResult{Success: false, Message: "Record does not exist"})
				continue
			}
			return nil, fmt.Errorf("failed to load record: %w", err)
		}
		if err := s.kv.Delete(recordKey(table, id)); err != nil {
			return nil, fmt.Errorf("failed to delete record: %w", err)
		}
		resp.Results = append(resp.Results, records.WriteResult{Success: true})
	}
	return resp, nil
}
