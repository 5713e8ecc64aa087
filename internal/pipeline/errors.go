package pipeline

import (
	"errors"
	"fmt"
)

// Item-level sentinel errors.
var (
	ErrNotFound     = errors.New("no match found")
	ErrInvalidQuery = errors.New("invalid query")
	ErrPanic        = errors.New("adapter panic")
)

// Stage names a step of the per-item resolution.
type Stage string

// Resolution stages in execution order.
const (
	StageValidate  Stage = "validate"
	StageSearch    Stage = "search"
	StageDetail    Stage = "detail"
	StageEnrich    Stage = "enrich"
	StageNormalize Stage = "normalize"
)

// StageError records which stage failed for which query.
type StageError struct {
	Err   error
	Query string
	Stage Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Query, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
