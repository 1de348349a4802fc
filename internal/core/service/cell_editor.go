package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coderz/catalog-client/internal/api/metrics"
	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/core/ports"
)

// CellEditor applies optimistic single-field edits: the cell shows the typed
// value immediately, then the full record is fetched, merged and written
// back. Any failure restores the previous value.
type CellEditor struct {
	records ports.RecordReader
	msg     *Messages
	logger  zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewCellEditor(records ports.RecordReader, msg *Messages, logger zerolog.Logger) *CellEditor {
	if msg == nil {
		msg = NewMessages("")
	}
	return &CellEditor{
		records:  records,
		msg:      msg,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// Blur commits input to cell. Pressing Enter is the same call. The returned
// error is non-nil when the edit was rejected or rolled back.
func (e *CellEditor) Blur(ctx context.Context, cell *domain.Cell, input string) (domain.EditOutcome, error) {
	if !e.claim(cell.Key()) {
		return domain.EditOutcome{State: cell.State, Value: cell.Value, Message: e.msg.get(msgEditBusy)}, domain.ErrEditInFlight
	}
	defer e.release(cell.Key())

	if cell.State == domain.CellReconciling {
		return domain.EditOutcome{State: cell.State, Value: cell.Value, Message: e.msg.get(msgEditBusy)}, domain.ErrEditInFlight
	}
	if cell.State == domain.CellCommitted || cell.State == domain.CellRolledBack {
		_ = cell.Transition(domain.CellIdle)
	}

	candidate := strings.TrimSpace(input)
	if candidate == cell.Value {
		metrics.CellEditsTotal.WithLabelValues(cell.Field, "unchanged").Inc()
		return domain.EditOutcome{State: cell.State, Value: cell.Value, Message: e.msg.get(msgEditUnchanged)}, nil
	}

	if err := cell.Transition(domain.CellDirty); err != nil {
		return domain.EditOutcome{State: cell.State, Value: cell.Value}, err
	}

	value, err := domain.ParseValue(cell.Field, candidate)
	if err != nil {
		_ = cell.Transition(domain.CellRolledBack)
		metrics.CellEditsTotal.WithLabelValues(cell.Field, "invalid").Inc()
		return domain.EditOutcome{State: cell.State, Value: cell.Value, Message: e.msg.get(msgEditInvalid, cell.Field)}, err
	}

	edit := domain.PendingEdit{
		RecordID:       cell.RecordID,
		Field:          cell.Field,
		PreviousValue:  cell.Value,
		CandidateValue: value,
	}
	_ = cell.Transition(domain.CellReconciling)

	record, err := e.reconcile(ctx, edit)
	if err != nil {
		cell.Value = edit.PreviousValue
		_ = cell.Transition(domain.CellRolledBack)
		metrics.CellEditsTotal.WithLabelValues(cell.Field, "rolled_back").Inc()
		e.logger.Warn().Err(err).
			Int("record_id", edit.RecordID).
			Str("field", edit.Field).
			Msg("cell edit rolled back")
		return domain.EditOutcome{State: cell.State, Value: cell.Value, Message: e.msg.get(msgEditRolledBack)}, err
	}

	cell.Value = domain.FormatValue(cell.Field, value)
	_ = cell.Transition(domain.CellCommitted)
	metrics.CellEditsTotal.WithLabelValues(cell.Field, "committed").Inc()
	return domain.EditOutcome{State: cell.State, Value: cell.Value, Message: e.msg.get(msgEditCommitted), Record: record}, nil
}

// reconcile fetches the current record, merges the edited field and writes
// the whole record back. The fetch is never served from a cache.
func (e *CellEditor) reconcile(ctx context.Context, edit domain.PendingEdit) (*domain.Product, error) {
	current := e.records.Get(ctx, edit.RecordID)
	if !current.Success || current.Data == nil {
		return nil, fmt.Errorf("fetch record %d: %w", edit.RecordID, resultError(current.Error))
	}

	merged := current.Data.Clone()
	if err := domain.ApplyValue(&merged, edit.Field, edit.CandidateValue); err != nil {
		return nil, err
	}

	written := e.records.Update(ctx, edit.RecordID, merged)
	if !written.Success {
		return nil, fmt.Errorf("write record %d: %w", edit.RecordID, resultError(written.Error))
	}
	if written.Data != nil {
		return written.Data, nil
	}
	return &merged, nil
}

func (e *CellEditor) claim(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[key]; busy {
		return false
	}
	e.inFlight[key] = struct{}{}
	return true
}

func (e *CellEditor) release(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, key)
}

func resultError(detail string) error {
	if detail == "" {
		detail = "unknown error"
	}
	return errors.New(detail)
}
