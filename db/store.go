// ABOUTME: SQL-backed implementation of the record store protocol
// ABOUTME: Stores each record as JSON, validates writes against table schemas
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/harperreed/dealboard/records"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const recordsTable = "records"

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Store serves records out of a SQL database.
type Store struct {
	db       *sqlx.DB
	flavor   sqlbuilder.Flavor
	registry records.Registry
	logger   *zap.Logger
}

type recordRow struct {
	ID   int64  `db:"id"`
	Data string `db:"data"`
}

// NewStore wraps an open database. The registry decides which tables exist.
func NewStore(db *sqlx.DB, registry records.Registry, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	flavor := sqlbuilder.SQLite
	if db.DriverName() == DriverPostgres {
		flavor = sqlbuilder.PostgreSQL
	}
	return &Store{db: db, flavor: flavor, registry: registry, logger: logger}
}

// orderExpr turns a field into a sortable SQL expression, or "" when the
// field is not part of the table.
func (s *Store) orderExpr(schema records.Schema, field string) string {
	if !fieldNamePattern.MatchString(field) {
		return ""
	}
	if field == records.IDField {
		return "id"
	}
	f, ok := schema.Field(field)
	if !ok {
		return ""
	}

	numeric := f.Kind == records.KindInt || f.Kind == records.KindFloat || f.Kind == records.KindRef
	if s.flavor == sqlbuilder.PostgreSQL {
		switch {
		case numeric:
			return fmt.Sprintf("(data->>'%s')::numeric", field)
		case f.Kind == records.KindText || f.Kind == records.KindPicklist:
			return fmt.Sprintf("LOWER(data->>'%s')", field)
		default:
			return fmt.Sprintf("data->>'%s'", field)
		}
	}

	expr := fmt.Sprintf("json_extract(data, '$.%s')", field)
	if !numeric && (f.Kind == records.KindText || f.Kind == records.KindPicklist) {
		return "LOWER(" + expr + ")"
	}
	return expr
}

func decodeRow(row recordRow) (records.Record, error) {
	rec := records.Record{}
	if err := json.Unmarshal([]byte(row.Data), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %d: %w", row.ID, err)
	}
	rec[records.IDField] = int(row.ID)
	return rec, nil
}

func (s *Store) Fetch(ctx context.Context, table string, q records.Query) (*records.FetchResponse, error) {
	schema, ok := s.registry.Lookup(table)
	if !ok {
		return &records.FetchResponse{Success: false, Message: "unknown table " + table, Data: []records.Record{}}, nil
	}

	sb := s.flavor.NewSelectBuilder()
	sb.Select("id", "data")
	sb.From(recordsTable)
	sb.Where(sb.Equal("table_name", table))

	var order []string
	for _, o := range q.OrderBy {
		expr := s.orderExpr(schema, o.FieldName)
		if expr == "" {
			continue
		}
		dir := "ASC"
		if strings.EqualFold(o.SortType, records.SortDesc) {
			dir = "DESC"
		}
		order = append(order, expr+" "+dir)
	}
	order = append(order, "id ASC")
	sb.OrderBy(order...)

	limit, offset := records.DefaultLimit, 0
	if q.PagingInfo != nil {
		if q.PagingInfo.Limit > 0 {
			limit = q.PagingInfo.Limit
		}
		offset = max(q.PagingInfo.Offset, 0)
	}
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		s.logger.Error("failed to fetch records", zap.String("table", table), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	data := make([]records.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		data = append(data, records.Project(rec, q.Fields))
	}
	return &records.FetchResponse{Success: true, Data: data}, nil
}

func (s *Store) GetByID(ctx context.Context, table string, id int, q records.Query) (*records.RecordResponse, error) {
	if _, ok := s.registry.Lookup(table); !ok {
		return &records.RecordResponse{Success: false, Message: "unknown table " + table}, nil
	}

	row, err := s.load(ctx, s.db, table, id)
	if errors.Is(err, sql.ErrNoRows) {
		return &records.RecordResponse{Success: false, Message: "Record does not exist"}, nil
	}
	if err != nil {
		return nil, err
	}

	rec, err := decodeRow(*row)
	if err != nil {
		return nil, err
	}
	return &records.RecordResponse{Success: true, Data: records.Project(rec, q.Fields)}, nil
}

func (s *Store) load(ctx context.Context, q sqlx.QueryerContext, table string, id int) (*recordRow, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("id", "data")
	sb.From(recordsTable)
	sb.Where(sb.Equal("table_name", table), sb.Equal("id", id))

	query, args := sb.Build()
	var row recordRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return &row, nil
}

func (s *Store) Create(ctx context.Context, table string, req records.WriteRequest) (*records.WriteResponse, error) {
	schema, ok := s.registry.Lookup(table)
	if !ok {
		return &records.WriteResponse{Success: false, Message: "unknown table " + table}, nil
	}

	resp := &records.WriteResponse{Success: true, Results: make([]records.WriteResult, 0, len(req.Records))}
	for _, in := range req.Records {
		rec, errs := schema.Coerce(in)
		delete(rec, records.IDField)
		errs = append(errs, schema.Validate(rec, true)...)
		if len(errs) > 0 {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Errors: errs})
			continue
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record: %w", err)
		}

		now := time.Now().UTC()
		ib := s.flavor.NewInsertBuilder()
		ib.InsertInto(recordsTable)
		ib.Cols("table_name", "data", "created_at", "updated_at")
		ib.Values(table, string(data), now, now)
		query, args := ib.Build()

		var id int64
		if err := s.db.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			s.logger.Error("failed to insert record", zap.String("table", table), zap.Error(err))
			return nil, fmt.Errorf("failed to insert record: %w", err)
		}

		rec[records.IDField] = int(id)
		resp.Results = append(resp.Results, records.WriteResult{Success: true, Data: rec})
	}
	return resp, nil
}

func (s *Store) Update(ctx context.Context, table string, req records.WriteRequest) (*records.WriteResponse, error) {
	schema, ok := s.registry.Lookup(table)
	if !ok {
		return &records.WriteResponse{Success: false, Message: "unknown table " + table}, nil
	}

	resp := &records.WriteResponse{Success: true, Results: make([]records.WriteResult, 0, len(req.Records))}
	for _, in := range req.Records {
		id, ok := in.ID()
		if !ok {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Message: "Id is required"})
			continue
		}

		partial, errs := schema.Coerce(in)
		errs = append(errs, schema.Validate(partial, false)...)
		if len(errs) > 0 {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Errors: errs})
			continue
		}

		result, err := s.updateOne(ctx, table, id, partial)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, result)
	}
	return resp, nil
}

func (s *Store) updateOne(ctx context.Context, table string, id int, partial records.Record) (records.WriteResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return records.WriteResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row, err := s.load(ctx, tx, table, id)
	if errors.Is(err, sql.ErrNoRows) {
		return records.WriteResult{Success: false, Message: "Record does not exist"}, nil
	}
	if err != nil {
		return records.WriteResult{}, err
	}

	existing, err := decodeRow(*row)
	if err != nil {
		return records.WriteResult{}, err
	}
	merged := records.Merge(existing, partial)

	stored := merged.Clone()
	delete(stored, records.IDField)
	data, err := json.Marshal(stored)
	if err != nil {
		return records.WriteResult{}, fmt.Errorf("failed to encode record: %w", err)
	}

	ub := s.flavor.NewUpdateBuilder()
	ub.Update(recordsTable)
	ub.Set(ub.Assign("data", string(data)), ub.Assign("updated_at", time.Now().UTC()))
	ub.Where(ub.Equal("table_name", table), ub.Equal("id", id))
	query, args := ub.Build()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error("failed to update record", zap.String("table", table), zap.Int("id", id), zap.Error(err))
		return records.WriteResult{}, fmt.Errorf("failed to update record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return records.WriteResult{}, fmt.Errorf("failed to commit update: %w", err)
	}
	return records.WriteResult{Success: true, Data: merged}, nil
}

func (s *Store) Delete(ctx context.Context, table string, req records.DeleteRequest) (*records.DeleteResponse, error) {
	if _, ok := s.registry.Lookup(table); !ok {
		return &records.DeleteResponse{Success: false, Message: "unknown table " + table}, nil
	}

	resp := &records.DeleteResponse{Success: true, Results: make([]records.WriteResult, 0, len(req.RecordIDs))}
	for _, id := range req.RecordIDs {
		del := s.flavor.NewDeleteBuilder()
		del.DeleteFrom(recordsTable)
		del.Where(del.Equal("table_name", table), del.Equal("id", id))
		query, args := del.Build()

		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			s.logger.Error("failed to delete record", zap.String("table", table), zap.Int("id", id), zap.Error(err))
			return nil, fmt.Errorf("failed to delete record: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check deleted rows: %w", err)
		}
		if n == 0 {
			resp.Results = append(resp.Results, records.WriteResult{Success: false, Message: "Record does not exist"})
			continue
		}
		resp.Results = append(resp.Results, records.WriteResult{Success: true})
	}
	return resp, nil
}
