// ABOUTME: Kanban board state with a device-independent drag state machine
// ABOUTME: Stage moves issue one update and replace the deal only after the store confirms
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/dealboard/metrics"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/service"
	"go.uber.org/zap"
)

// ErrUnknownStage is returned when a deal is dropped on a stage outside the pipeline.
var ErrUnknownStage = errors.New("unknown stage")

// ErrNotDragging is returned by Drop when no deal has been picked up.
var ErrNotDragging = errors.New("no deal is being dragged")

// DealUpdater is the slice of the deal service the board needs.
type DealUpdater interface {
	Update(ctx context.Context, id int, fields service.Fields) service.Result[*models.Deal]
}

// Phase is where the drag state machine is.
type Phase int

const (
	Idle Phase = iota
	Dragging
	// Hovering is a drag over a column.
	Hovering
	// Dropping is a released drag whose update has not come back yet.
	Dropping
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case Hovering:
		return "hovering"
	case Dropping:
		return "dropping"
	default:
		return "idle"
	}
}

// DragState is the current drag. DealID is set in every phase but Idle. Target
// is the column under the deal while Hovering and the drop column while Dropping.
type DragState struct {
	Phase  Phase
	DealID int
	Target string
}

// MoveResult describes what a stage move did.
type MoveResult struct {
	DealID int
	From   string
	To     string
	// Deal is the record the store returned, or the unchanged deal for a no-op.
	Deal *models.Deal
	// Noop is true when the deal was already in the target stage.
	Noop     bool
	Err      error
	Failures []service.Failure
}

// OK reports whether the move succeeded or was a no-op.
func (r MoveResult) OK() bool { return r.Err == nil }

func (r MoveResult) id() int {
	if r.Deal != nil {
		return r.Deal.ID
	}
	return r.DealID
}

// MoveDeal moves one deal to target. Dropping a deal on its own stage makes no
// remote call. Otherwise exactly one update carrying only the new stage is
// sent. Probability is left as it is.
func MoveDeal(ctx context.Context, updater DealUpdater, deal models.Deal, target string) MoveResult {
	res := MoveResult{DealID: deal.ID, From: deal.Stage, To: target}

	if !models.IsValidStage(target) {
		res.Err = fmt.Errorf("%w: %q", ErrUnknownStage, target)
		metrics.DealMovesTotal.WithLabelValues("unknown", metrics.OutcomeRejected).Inc()
		return res
	}
	if deal.Stage == target {
		res.Noop = true
		res.Deal = &deal
		metrics.DealMovesTotal.WithLabelValues(target, metrics.OutcomeNoop).Inc()
		return res
	}

	updated := updater.Update(ctx, deal.ID, service.Fields{"stage": target})
	res.Failures = updated.Failures
	if updated.Err != nil {
		res.Err = updated.Err
		outcome := metrics.OutcomeError
		if errors.Is(updated.Err, service.ErrRejected) || errors.Is(updated.Err, service.ErrNotFound) {
			outcome = metrics.OutcomeRejected
		}
		metrics.DealMovesTotal.WithLabelValues(target, outcome).Inc()
		return res
	}
	res.Deal = updated.Value
	metrics.DealMovesTotal.WithLabelValues(target, metrics.OutcomeSuccess).Inc()
	return res
}

// Board is the pipeline board: a list of deals plus the drag in progress.
// It is not safe for concurrent use; the UI loop owns it.
type Board struct {
	updater DealUpdater
	logger  *zap.Logger
	deals   []models.Deal
	drag    DragState
}

// NewBoard copies deals into a new board.
func NewBoard(updater DealUpdater, deals []models.Deal, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Board{updater: updater, logger: logger}
	b.SetDeals(deals)
	return b
}

// SetDeals replaces the board contents, for example after a reload.
func (b *Board) SetDeals(deals []models.Deal) {
	b.deals = append([]models.Deal(nil), deals...)
	if b.drag.Phase != Idle && b.index(b.drag.DealID) < 0 {
		b.drag = DragState{}
	}
}

// Deals returns the current list. Callers must not modify it.
func (b *Board) Deals() []models.Deal { return b.deals }

// Grouping groups the current deals by stage.
func (b *Board) Grouping() Grouping { return GroupByStage(b.deals) }

// Columns summarizes the current deals per stage.
func (b *Board) Columns() []Column { return Summarize(b.deals) }

// Drag returns the drag state.
func (b *Board) Drag() DragState { return b.drag }

// Deal looks a deal up by id.
func (b *Board) Deal(id int) (models.Deal, bool) {
	i := b.index(id)
	if i < 0 {
		return models.Deal{}, false
	}
	return b.deals[i], true
}

func (b *Board) index(id int) int {
	for i, d := range b.deals {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Pick starts dragging a deal. It only works from Idle and for a deal on the
// board, so nothing can be picked up while a drop is pending.
func (b *Board) Pick(dealID int) bool {
	if b.drag.Phase != Idle || b.index(dealID) < 0 {
		return false
	}
	b.drag = DragState{Phase: Dragging, DealID: dealID}
	return true
}

// Hover marks the column under the dragged deal. An empty stage means the
// deal left every column.
func (b *Board) Hover(stage string) {
	if b.drag.Phase != Dragging && b.drag.Phase != Hovering {
		return
	}
	if stage == "" {
		b.drag = DragState{Phase: Dragging, DealID: b.drag.DealID}
		return
	}
	b.drag = DragState{Phase: Hovering, DealID: b.drag.DealID, Target: stage}
}

// Cancel abandons a drag that has not been released.
func (b *Board) Cancel() {
	if b.drag.Phase == Dropping {
		return
	}
	b.drag = DragState{}
}

// Release lets go of the dragged deal over target and returns the deal to
// move. The board stays Dropping until Apply sees the outcome.
func (b *Board) Release(target string) (models.Deal, bool) {
	if b.drag.Phase != Dragging && b.drag.Phase != Hovering {
		return models.Deal{}, false
	}
	deal, ok := b.Deal(b.drag.DealID)
	if !ok {
		b.drag = DragState{}
		return models.Deal{}, false
	}
	b.drag = DragState{Phase: Dropping, DealID: deal.ID, Target: target}
	return deal, true
}

// Drop releases the dragged deal on target and applies the outcome.
func (b *Board) Drop(ctx context.Context, target string) MoveResult {
	deal, ok := b.Release(target)
	if !ok {
		return MoveResult{To: target, Err: ErrNotDragging}
	}
	res := MoveDeal(ctx, b.updater, deal, target)
	b.Apply(res)
	return res
}

// Apply folds a finished move into the board and ends the pending drop for
// that deal. Failed moves and no-ops leave the deals untouched. A result for
// a deal that has left the board is dropped so a late reply cannot bring a
// deleted deal back.
func (b *Board) Apply(res MoveResult) {
	id := res.id()
	if b.drag.Phase == Dropping && b.drag.DealID == id {
		b.drag = DragState{}
	}
	if res.Err != nil {
		b.logger.Warn("deal move failed",
			zap.Int("deal_id", id), zap.String("from", res.From), zap.String("to", res.To), zap.Error(res.Err))
		return
	}
	if res.Noop || res.Deal == nil {
		return
	}
	if !b.Replace(*res.Deal) {
		b.logger.Info("ignoring move for deal no longer on the board", zap.Int("deal_id", id))
		return
	}
	b.logger.Info("deal moved",
		zap.Int("deal_id", id), zap.String("from", res.From), zap.String("to", res.To))
}

// Replace swaps in a saved deal at its index in a fresh copy of the list. It
// reports false, changing nothing, when the deal is not on the board.
func (b *Board) Replace(deal models.Deal) bool {
	i := b.index(deal.ID)
	if i < 0 {
		return false
	}
	next := append([]models.Deal(nil), b.deals...)
	next[i] = deal
	b.deals = next
	return true
}

// Add puts a newly created deal at the front of the board, or replaces it if
// a reload already brought it in.
func (b *Board) Add(deal models.Deal) {
	if b.Replace(deal) {
		return
	}
	next := make([]models.Deal, 0, len(b.deals)+1)
	next = append(next, deal)
	b.deals = append(next, b.deals...)
}

// Remove drops a deal from the board.
func (b *Board) Remove(id int) {
	i := b.index(id)
	if i < 0 {
		return
	}
	next := make([]models.Deal, 0, len(b.deals)-1)
	next = append(next, b.deals[:i]...)
	b.deals = append(next, b.deals[i+1:]...)
	if b.drag.DealID == id {
		b.drag = DragState{}
	}
}
