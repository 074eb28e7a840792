// ABOUTME: Generic entity service over the record store protocol
// ABOUTME: Shapes payloads, applies defaults and returns explicit results instead of raising
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/dealboard/records"
	"go.uber.org/zap"
)

// PageSize is how many records GetAll requests.
const PageSize = 100

var (
	// ErrUnavailable wraps transport failures talking to the record store.
	ErrUnavailable = errors.New("record store unavailable")
	// ErrNotFound means the record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrRejected means the store refused the request or every record in it.
	ErrRejected = errors.New("request rejected")
	// ErrInvalid means the fields could not be turned into a payload.
	ErrInvalid = errors.New("invalid fields")
)

// Failure is a per-field or per-record rejection.
type Failure struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (f Failure) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// Result carries a value together with what went wrong getting it.
type Result[T any] struct {
	Value    T
	Err      error
	Failures []Failure
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Fields is a partial record keyed by UI field name (firstName, companyId, ...).
// Store field names are accepted too.
type Fields map[string]any

// Entity describes how one record table maps to a model.
type Entity struct {
	Name   string
	Schema records.Schema
	// Fields maps UI names to store field names.
	Fields map[string]string
	Sort   records.OrderBy
	// Stamp adds timestamps and defaults before a write.
	Stamp func(rec records.Record, creating bool, now time.Time)
}

// Option configures a Service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Service performs CRUD for one entity.
type Service[T any] struct {
	client records.Client
	entity Entity
	logger *zap.Logger
	now    func() time.Time
}

// New builds a service. A nil logger disables logging.
func New[T any](client records.Client, entity Entity, logger *zap.Logger, opts ...Option) *Service[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service[T]{
		client: client,
		entity: entity,
		logger: logger.With(zap.String("entity", entity.Name)),
		now:    o.now,
	}
}

// Entity returns the entity description.
func (s *Service[T]) Entity() Entity { return s.entity }

func (s *Service[T]) table() string { return s.entity.Schema.Table }

// GetAll fetches up to PageSize records in the entity's stable order.
// The value is never nil.
func (s *Service[T]) GetAll(ctx context.Context) Result[[]T] {
	resp, err := s.client.Fetch(ctx, s.table(), records.Query{
		Fields:     s.entity.Schema.FieldNames(),
		OrderBy:    []records.OrderBy{s.entity.Sort},
		PagingInfo: &records.PagingInfo{Limit: PageSize, Offset: 0},
	})
	if err != nil {
		s.logger.Error("failed to fetch records", zap.Error(err))
		return Result[[]T]{Value: []T{}, Err: unavailable(err)}
	}
	if !resp.Success {
		s.logger.Error("fetch rejected", zap.String("message", resp.Message))
		return Result[[]T]{Value: []T{}, Err: rejected(resp.Message)}
	}

	out := make([]T, 0, len(resp.Data))
	for _, rec := range resp.Data {
		v, err := s.decode(rec)
		if err != nil {
			s.logger.Warn("skipping undecodable record", zap.Any("id", rec[records.IDField]), zap.Error(err))
			continue
		}
		out = append(out, *v)
	}
	return Result[[]T]{Value: out}
}

// GetByID fetches one record.
func (s *Service[T]) GetByID(ctx context.Context, id int) Result[*T] {
	resp, err := s.client.GetByID(ctx, s.table(), id, records.Query{Fields: s.entity.Schema.FieldNames()})
	if err != nil {
		s.logger.Error("failed to get record", zap.Int("id", id), zap.Error(err))
		return Result[*T]{Err: unavailable(err)}
	}
	if !resp.Success || resp.Data == nil {
		return Result[*T]{Err: fmt.Errorf("%w: %s %d", ErrNotFound, s.entity.Name, id)}
	}
	v, err := s.decode(resp.Data)
	if err != nil {
		return Result[*T]{Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	return Result[*T]{Value: v}
}

// Create submits a one-record batch and returns the stored record.
func (s *Service[T]) Create(ctx context.Context, fields Fields) Result[*T] {
	rec, failures := s.clean(fields)
	if len(failures) > 0 {
		return Result[*T]{Err: ErrInvalid, Failures: failures}
	}
	delete(rec, records.IDField)
	if s.entity.Stamp != nil {
		s.entity.Stamp(rec, true, s.now().UTC())
	}

	resp, err := s.client.Create(ctx, s.table(), records.WriteRequest{Records: []records.Record{rec}})
	return s.written("create", resp, err)
}

// Update sends only the given fields plus Id.
func (s *Service[T]) Update(ctx context.Context, id int, fields Fields) Result[*T] {
	rec, failures := s.clean(fields)
	if len(failures) > 0 {
		return Result[*T]{Err: ErrInvalid, Failures: failures}
	}
	rec[records.IDField] = id
	if s.entity.Stamp != nil {
		s.entity.Stamp(rec, false, s.now().UTC())
	}

	resp, err := s.client.Update(ctx, s.table(), records.WriteRequest{Records: []records.Record{rec}})
	return s.written("update", resp, err)
}

// Delete removes one record. The value is true when the store deleted it.
func (s *Service[T]) Delete(ctx context.Context, id int) Result[bool] {
	resp, err := s.client.Delete(ctx, s.table(), records.DeleteRequest{RecordIDs: []int{id}})
	if err != nil {
		s.logger.Error("failed to delete record", zap.Int("id", id), zap.Error(err))
		return Result[bool]{Err: unavailable(err)}
	}
	if !resp.Success {
		return Result[bool]{Err: rejected(resp.Message)}
	}

	var failures []Failure
	deleted := false
	for _, r := range resp.Results {
		if r.Success {
			deleted = true
			continue
		}
		failures = append(failures, resultFailures(r)...)
	}
	if !deleted {
		s.logger.Warn("delete had no effect", zap.Int("id", id), zap.Any("failures", failures))
		return Result[bool]{Err: fmt.Errorf("%w: %s %d", ErrNotFound, s.entity.Name, id), Failures: failures}
	}
	return Result[bool]{Value: true, Failures: failures}
}

// clean maps UI names to store names, drops empty values and coerces types.
func (s *Service[T]) clean(fields Fields) (records.Record, []Failure) {
	raw := make(records.Record, len(fields))
	for k, v := range fields {
		name := k
		if mapped, ok := s.entity.Fields[k]; ok {
			name = mapped
		}
		raw[name] = v
	}

	rec, errs := s.entity.Schema.Coerce(raw)
	if len(errs) == 0 {
		return rec, nil
	}
	failures := make([]Failure, 0, len(errs))
	for _, e := range errs {
		failures = append(failures, Failure{Field: e.FieldLabel, Message: e.Message})
	}
	return rec, failures
}

func (s *Service[T]) decode(rec records.Record) (*T, error) {
	clean, errs := s.entity.Schema.Coerce(rec)
	for _, e := range errs {
		s.logger.Debug("dropping malformed field", zap.String("field", e.FieldLabel), zap.String("reason", e.Message))
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Service[T]) written(op string, resp *records.WriteResponse, err error) Result[*T] {
	if err != nil {
		s.logger.Error("write failed", zap.String("operation", op), zap.Error(err))
		return Result[*T]{Err: unavailable(err)}
	}
	if !resp.Success {
		s.logger.Error("write rejected", zap.String("operation", op), zap.String("message", resp.Message))
		return Result[*T]{Err: rejected(resp.Message)}
	}

	var (
		first    *T
		failures []Failure
	)
	for _, r := range resp.Results {
		if !r.Success {
			failures = append(failures, resultFailures(r)...)
			continue
		}
		if first != nil {
			continue
		}
		v, err := s.decode(r.Data)
		if err != nil {
			failures = append(failures, Failure{Message: err.Error()})
			continue
		}
		first = v
	}

	for _, f := range failures {
		s.logger.Warn("record rejected", zap.String("operation", op), zap.String("field", f.Field), zap.String("message", f.Message))
	}
	if first == nil {
		return Result[*T]{Err: rejected(firstMessage(failures)), Failures: failures}
	}
	return Result[*T]{Value: first, Failures: failures}
}

func resultFailures(r records.WriteResult) []Failure {
	var out []Failure
	for _, fe := range r.Errors {
		out = append(out, Failure{Field: fe.FieldLabel, Message: fe.Message})
	}
	if r.Message != "" {
		out = append(out, Failure{Message: r.Message})
	}
	if len(out) == 0 {
		out = append(out, Failure{Message: "record was not saved"})
	}
	return out
}

func firstMessage(failures []Failure) string {
	if len(failures) == 0 {
		return ""
	}
	return failures[0].String()
}

func unavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func rejected(msg string) error {
	if msg == "" {
		return ErrRejected
	}
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}
