package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellState represents the lifecycle state of one editable table cell.
type CellState string

const (
	CellIdle        CellState = "idle"
	CellDirty       CellState = "dirty"
	CellReconciling CellState = "reconciling"
	CellCommitted   CellState = "committed"
	CellRolledBack  CellState = "rolled_back"
)

// cellTransitions defines the allowed cell state machine transitions.
// Committed and RolledBack settle back to Idle before the next edit.
var cellTransitions = map[CellState][]CellState{
	CellIdle:        {CellDirty},
	CellDirty:       {CellReconciling, CellRolledBack},
	CellReconciling: {CellCommitted, CellRolledBack},
	CellCommitted:   {CellIdle},
	CellRolledBack:  {CellIdle},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s CellState) CanTransitionTo(next CellState) bool {
	for _, allowed := range cellTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FieldKind selects how user text is coerced for a field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindFloat
	KindInt
)

// Editable product fields.
const (
	FieldName     = "name"
	FieldPrice    = "price"
	FieldQuantity = "quantity"
)

var fieldKinds = map[string]FieldKind{
	FieldName:     KindString,
	FieldPrice:    KindFloat,
	FieldQuantity: KindInt,
}

// KindOf returns the kind of an editable field.
func KindOf(field string) (FieldKind, bool) {
	k, ok := fieldKinds[field]
	return k, ok
}

// Cell is one editable field of one record as shown to the user.
type Cell struct {
	RecordID int
	Field    string
	// Value is the last committed display value.
	Value string
	State CellState
}

// NewCell builds an idle cell showing the normalized form of value.
func NewCell(recordID int, field string, value any) *Cell {
	return &Cell{RecordID: recordID, Field: field, Value: FormatValue(field, value), State: CellIdle}
}

// Key identifies the cell across edits.
func (c *Cell) Key() string {
	return fmt.Sprintf("%d:%s", c.RecordID, c.Field)
}

// Transition moves the cell to next or reports an invalid transition.
func (c *Cell) Transition(next CellState) error {
	if !c.State.CanTransitionTo(next) {
		return fmt.Errorf("cell %s: invalid transition from %s to %s", c.Key(), c.State, next)
	}
	c.State = next
	return nil
}

// PendingEdit is the ephemeral record of one edit interaction.
type PendingEdit struct {
	RecordID       int
	Field          string
	PreviousValue  string
	CandidateValue any
}

// EditOutcome reports how one edit interaction settled.
type EditOutcome struct {
	State CellState `json:"state"`
	// Value is what the cell displays after settling.
	Value   string   `json:"value"`
	Message string   `json:"message"`
	Record  *Product `json:"record,omitempty"`
}

// ParseValue coerces input for field. Numeric fields that fail to parse
// yield a ValidationError naming the field.
func ParseValue(field, input string) (any, error) {
	kind, ok := KindOf(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	input = strings.TrimSpace(input)
	switch kind {
	case KindFloat:
		v, err := strconv.ParseFloat(input, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ValidationError{Field: field, Reason: "must be a number"}
		}
		return v, nil
	case KindInt:
		v, err := strconv.Atoi(input)
		if err != nil {
			return nil, &ValidationError{Field: field, Reason: "must be a whole number"}
		}
		return v, nil
	default:
		return input, nil
	}
}

// ApplyValue sets a parsed value on p.
func ApplyValue(p *Product, field string, value any) error {
	switch field {
	case FieldName:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: expected string, got %T", field, value)
		}
		p.Name = s
	case FieldPrice:
		f, ok := value.(float64)
		if !ok {
			return fmt.Errorf("%s: expected float64, got %T", field, value)
		}
		p.Price = f
	case FieldQuantity:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("%s: expected int, got %T", field, value)
		}
		p.Quantity = n
	default:
		return fmt.Errorf("%w: %q", ErrNotEditable, field)
	}
	return nil
}

// FormatValue renders value the way a cell displays it: prices with two
// decimals, everything else in its natural string form.
func FormatValue(field string, value any) string {
	if field == FieldPrice {
		switch v := value.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', 2, 64)
		case int:
			return strconv.FormatFloat(float64(v), 'f', 2, 64)
		}
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// FieldValue reads the current value of field from p.
func FieldValue(p Product, field string) (any, error) {
	switch field {
	case FieldName:
		return p.Name, nil
	case FieldPrice:
		return p.Price, nil
	case FieldQuantity:
		return p.Quantity, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}
