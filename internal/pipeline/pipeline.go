// Package pipeline resolves a list of loose queries against an upstream API,
// one query at a time, and collects the normalized items that succeed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"favfetch/internal/logger"
	"favfetch/internal/pacer"
)

// Hit is what a search stage yields. An empty HitID means no match.
type Hit interface {
	HitID() string
}

// ID is a Hit for searches that yield nothing but the identifier.
type ID string

// HitID implements Hit.
func (id ID) HitID() string { return string(id) }

// Resolver bundles the per-source strategy functions. Q is the query, H the
// search hit handed to Detail, R the authoritative detail record, S the
// optional secondary record and N the normalized item.
type Resolver[Q any, H Hit, R, S, N any] struct {
	Describe  func(q Q) string
	Validate  func(q Q) error
	Search    func(ctx context.Context, q Q) (H, error)
	Detail    func(ctx context.Context, hit H, q Q) (R, error)
	Enrich    func(ctx context.Context, q Q, r R) (S, error)
	Normalize func(q Q, r R, s S, enriched bool) (N, error)
}

// Status is the final state of one query.
type Status string

// Outcome statuses.
const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusSkipped  Status = "skipped"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Outcome describes what happened to one query.
type Outcome struct {
	Err    error
	Query  string
	ID     string
	Status Status
	Stage  Stage
}

// Stats summarizes a run.
type Stats struct {
	Total     int
	Skipped   int
	NotFound  int
	Failed    int
	Degraded  int
	Succeeded int
	Elapsed   time.Duration
}

// Result is what Run produces. Items is never nil.
type Result[N any] struct {
	Items    []N
	Outcomes []Outcome
	Stats    Stats
}

// Engine drives a Resolver over a query list.
type Engine[Q any, H Hit, R, S, N any] struct {
	resolver  Resolver[Q, H, R, S, N]
	itemPacer pacer.Pacer
	log       *logger.Logger
}

// New creates an engine. itemPacer runs between consecutive queries and may be nil.
func New[Q any, H Hit, R, S, N any](resolver Resolver[Q, H, R, S, N], itemPacer pacer.Pacer, log *logger.Logger) (*Engine[Q, H, R, S, N], error) {
	if resolver.Search == nil || resolver.Detail == nil || resolver.Normalize == nil {
		return nil, errors.New("resolver requires Search, Detail and Normalize")
	}

	if resolver.Describe == nil {
		resolver.Describe = func(q Q) string { return fmt.Sprintf("%v", q) }
	}

	if itemPacer == nil {
		itemPacer = pacer.NewFixed(0)
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Engine[Q, H, R, S, N]{resolver: resolver, itemPacer: itemPacer, log: log}, nil
}

// Run resolves every query in order. Item failures are logged and omitted;
// only context cancellation aborts the run.
func (e *Engine[Q, H, R, S, N]) Run(ctx context.Context, queries []Q) (*Result[N], error) {
	start := time.Now()

	result := &Result[N]{
		Items:    make([]N, 0, len(queries)),
		Outcomes: make([]Outcome, 0, len(queries)),
	}
	result.Stats.Total = len(queries)

	for i, q := range queries {
		if i > 0 {
			if err := e.itemPacer.Wait(ctx); err != nil {
				return nil, fmt.Errorf("run interrupted before item %d: %w", i+1, err)
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run interrupted before item %d: %w", i+1, err)
		}

		label := e.resolver.Describe(q)
		e.log.Info("resolving", "item", i+1, "of", len(queries), "query", label)

		item, outcome := e.resolveItem(ctx, q, label)

		// A cancellation surfacing as a stage error is still a cancellation.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run interrupted at item %d: %w", i+1, err)
		}

		result.Outcomes = append(result.Outcomes, outcome)

		switch outcome.Status {
		case StatusOK:
			result.Stats.Succeeded++
			result.Items = append(result.Items, item)
		case StatusDegraded:
			result.Stats.Succeeded++
			result.Stats.Degraded++
			result.Items = append(result.Items, item)
		case StatusSkipped:
			result.Stats.Skipped++
			e.log.Warn("skipping invalid query", "query", label, "err", outcome.Err)
		case StatusNotFound:
			result.Stats.NotFound++
			e.log.Warn("no match found", "query", label)
		case StatusFailed:
			result.Stats.Failed++
			e.log.Error("item failed", "query", label, "stage", string(outcome.Stage), "err", outcome.Err)
		}
	}

	result.Stats.Elapsed = time.Since(start)

	e.log.Info("run complete",
		"total", result.Stats.Total,
		"succeeded", result.Stats.Succeeded,
		"degraded", result.Stats.Degraded,
		"skipped", result.Stats.Skipped,
		"not_found", result.Stats.NotFound,
		"failed", result.Stats.Failed,
		"elapsed", result.Stats.Elapsed.String(),
	)

	return result, nil
}

func (e *Engine[Q, H, R, S, N]) resolveItem(ctx context.Context, q Q, label string) (item N, outcome Outcome) {
	outcome = Outcome{Query: label}
	stage := StageValidate

	defer func() {
		if r := recover(); r != nil {
			var zero N
			item = zero
			outcome.Status = StatusFailed
			outcome.Stage = stage
			outcome.Err = &StageError{Stage: stage, Query: label, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()

	fail := func(err error) (N, Outcome) {
		var zero N

		outcome.Stage = stage
		outcome.Err = &StageError{Stage: stage, Query: label, Err: err}
		outcome.Status = StatusFailed

		if errors.Is(err, ErrNotFound) {
			outcome.Status = StatusNotFound
		}

		return zero, outcome
	}

	if e.resolver.Validate != nil {
		if err := e.resolver.Validate(q); err != nil {
			var zero N

			outcome.Stage = stage
			outcome.Status = StatusSkipped
			outcome.Err = fmt.Errorf("%w: %w", ErrInvalidQuery, err)

			return zero, outcome
		}
	}

	stage = StageSearch

	hit, err := e.resolver.Search(ctx, q)
	if err != nil {
		return fail(err)
	}

	id := hit.HitID()
	if id == "" {
		return fail(ErrNotFound)
	}

	outcome.ID = id
	stage = StageDetail

	record, err := e.resolver.Detail(ctx, hit, q)
	if err != nil {
		return fail(err)
	}

	var (
		secondary S
		enriched  bool
	)

	if e.resolver.Enrich != nil {
		stage = StageEnrich

		s, err := e.enrich(ctx, q, record)
		switch {
		case err != nil && ctx.Err() != nil:
			return fail(err)
		case err != nil:
			e.log.Warn("enrichment failed, using fallback values", "query", label, "err", err)
			outcome.Err = &StageError{Stage: stage, Query: label, Err: err}
		default:
			secondary = s
			enriched = true
		}
	}

	stage = StageNormalize

	item, err = e.resolver.Normalize(q, record, secondary, enriched)
	if err != nil {
		return fail(err)
	}

	outcome.Stage = stage
	outcome.Status = StatusOK

	if e.resolver.Enrich != nil && !enriched {
		outcome.Status = StatusDegraded
		outcome.Stage = StageEnrich
	}

	return item, outcome
}

// enrich runs the secondary stage. A panic there degrades the item instead of
// failing it.
func (e *Engine[Q, H, R, S, N]) enrich(ctx context.Context, q Q, record R) (s S, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero S
			s = zero
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	return e.resolver.Enrich(ctx, q, record)
}
