// ABOUTME: Client decorator recording Prometheus metrics for every call
// ABOUTME: Labels each request with table, operation and outcome
package records

import (
	"context"
	"time"

	"github.com/harperreed/dealboard/metrics"
)

// Instrumented wraps a Client with request metrics.
type Instrumented struct {
	next Client
}

// NewInstrumented decorates next.
func NewInstrumented(next Client) *Instrumented {
	return &Instrumented{next: next}
}

func observe(table, op string, start time.Time, success bool, err error) {
	metrics.RecordRequestDuration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case !success:
		outcome = metrics.OutcomeRejected
	}
	metrics.RecordRequestsTotal.WithLabelValues(table, op, outcome).Inc()
}

func (i *Instrumented) Fetch(ctx context.Context, table string, q Query) (*FetchResponse, error) {
	start := time.Now()
	resp, err := i.next.Fetch(ctx, table, q)
	observe(table, "fetch", start, resp != nil && resp.Success, err)
	return resp, err
}

func (i *Instrumented) GetByID(ctx context.Context, table string, id int, q Query) (*RecordResponse, error) {
	start := time.Now()
	resp, err := i.next.GetByID(ctx, table, id, q)
	observe(table, "get", start, resp != nil && resp.Success, err)
	return resp, err
}

func (i *Instrumented) Create(ctx context.Context, table string, req WriteRequest) (*WriteResponse, error) {
	start := time.Now()
	resp, err := i.next.Create(ctx, table, req)
	observe(table, "create", start, resp != nil && resp.Success, err)
	return resp, err
}

func (i *Instrumented) Update(ctx context.Context, table string, req WriteRequest) (*WriteResponse, error) {
	start := time.Now()
	resp, err := i.next.Update(ctx, table, req)
	observe(table, "update", start, resp != nil && resp.Success, err)
	return resp, err
}

func (i *Instrumented) Delete(ctx context.Context, table string, req DeleteRequest) (*DeleteResponse, error) {
	start := time.Now()
	resp, err := i.next.Delete(ctx, table, req)
	observe(table, "delete", start, resp != nil && resp.Success, err)
	return resp, err
}
