package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favfetch/internal/pacer"
)

type query struct {
	Name string
}

type record struct {
	ID   string
	Name string
}

type item struct {
	ID       string
	Name     string
	Extra    string
	Enriched bool
}

// fakeAPI records every call so tests can assert on stage ordering.
type fakeAPI struct {
	calls     []string
	notFound  map[string]bool
	failAt    map[string]Stage
	panicAt   map[string]Stage
	enrichErr map[string]bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		notFound:  map[string]bool{},
		failAt:    map[string]Stage{},
		panicAt:   map[string]Stage{},
		enrichErr: map[string]bool{},
	}
}

func (f *fakeAPI) resolver() Resolver[query, ID, record, string, item] {
	return Resolver[query, ID, record, string, item]{
		Describe: func(q query) string { return q.Name },
		Validate: func(q query) error {
			if strings.TrimSpace(q.Name) == "" {
				return errors.New("name is required")
			}

			return nil
		},
		Search: func(_ context.Context, q query) (ID, error) {
			f.calls = append(f.calls, "search:"+q.Name)

			if f.panicAt[q.Name] == StageSearch {
				panic("search exploded")
			}

			if f.failAt[q.Name] == StageSearch {
				return "", errors.New("upstream down")
			}

			if f.notFound[q.Name] {
				return "", ErrNotFound
			}

			return ID("id-" + q.Name), nil
		},
		Detail: func(_ context.Context, id ID, q query) (record, error) {
			f.calls = append(f.calls, "detail:"+string(id))

			if f.failAt[q.Name] == StageDetail {
				return record{}, errors.New("status 500")
			}

			return record{ID: string(id), Name: strings.ToUpper(q.Name)}, nil
		},
		Enrich: func(_ context.Context, q query, r record) (string, error) {
			f.calls = append(f.calls, "enrich:"+r.ID)

			if f.panicAt[q.Name] == StageEnrich {
				panic("enrich exploded")
			}

			if f.enrichErr[q.Name] {
				return "", errors.New("secondary down")
			}

			return "extra-" + q.Name, nil
		},
		Normalize: func(q query, r record, s string, enriched bool) (item, error) {
			if f.panicAt[q.Name] == StageNormalize {
				var m map[string]int
				m["boom"]++
			}

			extra := s
			if !enriched {
				extra = "fallback-" + q.Name
			}

			return item{ID: r.ID, Name: r.Name, Extra: extra, Enriched: enriched}, nil
		},
	}
}

func newEngine(t *testing.T, r Resolver[query, ID, record, string, item], p pacer.Pacer) *Engine[query, ID, record, string, item] {
	t.Helper()

	engine, err := New(r, p, nil)
	require.NoError(t, err)

	return engine
}

func TestRun_AllSucceed(t *testing.T) {
	api := newFakeAPI()
	engine := newEngine(t, api.resolver(), nil)

	result, err := engine.Run(context.Background(), []query{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, "id-a", result.Items[0].ID)
	assert.Equal(t, "extra-b", result.Items[1].Extra)
	assert.Equal(t, 2, result.Stats.Succeeded)
	assert.Equal(t, []string{
		"search:a", "detail:id-a", "enrich:id-a",
		"search:b", "detail:id-b", "enrich:id-b",
	}, api.calls)
}

func TestRun_EmptyInput(t *testing.T) {
	api := newFakeAPI()
	engine := newEngine(t, api.resolver(), nil)

	result, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.Stats.Total)
	assert.Empty(t, api.calls)
}

func TestRun_OrderPreservedAndFailuresOmitted(t *testing.T) {
	api := newFakeAPI()
	api.notFound["b"] = true
	api.failAt["c"] = StageDetail
	engine := newEngine(t, api.resolver(), nil)

	result, err := engine.Run(context.Background(), []query{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Items))
	for _, it := range result.Items {
		names = append(names, it.Name)
	}

	assert.Equal(t, []string{"A", "D"}, names)
	assert.Equal(t, 1, result.Stats.NotFound)
	assert.Equal(t, 1, result.Stats.Failed)
	assert.Equal(t, 2, result.Stats.Succeeded)

	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, StatusNotFound, result.Outcomes[1].Status)
	assert.Equal(t, StageSearch, result.Outcomes[1].Stage)
	assert.Equal(t, StatusFailed, result.Outcomes[2].Status)
	assert.Equal(t, StageDetail, result.Outcomes[2].Stage)

	var stageErr *StageError
	require.ErrorAs(t, result.Outcomes[2].Err, &stageErr)
	assert.Equal(t, "c", stageErr.Query)
}

func TestRun_NotFoundSkipsDetail(t *testing.T) {
	api := newFakeAPI()
	api.notFound["x"] = true
	engine := newEngine(t, api.resolver(), nil)

	_, err := engine.Run(context.Background(), []query{{Name: "x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"search:x"}, api.calls)
}

func TestRun_EmptyIDIsNotFound(t *testing.T) {
	api := newFakeAPI()
	r := api.resolver()
	r.Search = func(context.Context, query) (ID, error) { return "", nil }
	engine := newEngine(t, r, nil)

	result, err := engine.Run(context.Background(), []query{{Name: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.NotFound)
	assert.ErrorIs(t, result.Outcomes[0].Err, ErrNotFound)
}

func TestRun_InvalidQuerySkippedWithoutCalls(t *testing.T) {
	api := newFakeAPI()
	p := &pacer.Counting{}
	engine := newEngine(t, api.resolver(), p)

	result, err := engine.Run(context.Background(), []query{{Name: "a"}, {Name: " "}, {Name: "c"}})
	require.NoError(t, err)

	assert.Len(t, result.Items, 2)
	assert.Equal(t, 1, result.Stats.Skipped)
	assert.ErrorIs(t, result.Outcomes[1].Err, ErrInvalidQuery)
	assert.NotContains(t, api.calls, "search: ")
	// Item delay runs between every pair, including around the skipped one.
	assert.Equal(t, 2, p.Waits)
}

func TestRun_EnrichFailureDegrades(t *testing.T) {
	api := newFakeAPI()
	api.enrichErr["a"] = true
	engine := newEngine(t, api.resolver(), nil)

	result, err := engine.Run(context.Background(), []query{{Name: "a"}})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.False(t, result.Items[0].Enriched)
	assert.Equal(t, "fallback-a", result.Items[0].Extra)
	assert.Equal(t, 1, result.Stats.Degraded)
	assert.Equal(t, 1, result.Stats.Succeeded)
	assert.Equal(t, StatusDegraded, result.Outcomes[0].Status)
	assert.Equal(t, StageEnrich, result.Outcomes[0].Stage)
	assert.Error(t, result.Outcomes[0].Err)
}

func TestRun_EnrichPanicDegrades(t *testing.T) {
	api := newFakeAPI()
	api.panicAt["a"] = StageEnrich
	engine := newEngine(t, api.resolver(), nil)

	result, err := engine.Run(context.Background(), []query{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, "A", result.Items[0].Name)
	assert.Equal(t, "fallback-a", result.Items[0].Extra)
	assert.False(t, result.Items[0].Enriched)
	assert.Equal(t, "extra-b", result.Items[1].Extra)

	assert.Zero(t, result.Stats.Failed)
	assert.Equal(t, 1, result.Stats.Degraded)
	assert.Equal(t, StatusDegraded, result.Outcomes[0].Status)
	assert.Equal(t, StageEnrich, result.Outcomes[0].Stage)
	assert.ErrorIs(t, result.Outcomes[0].Err, ErrPanic)
}

type richHit struct {
	id   string
	note string
}

func (h richHit) HitID() string { return h.id }

func TestRun_DetailReceivesSearchHit(t *testing.T) {
	r := Resolver[query, richHit, record, struct{}, item]{
		Search: func(_ context.Context, q query) (richHit, error) {
			if q.Name == "missing" {
				return richHit{}, nil
			}

			return richHit{id: "id-" + q.Name, note: "from search " + q.Name}, nil
		},
		Detail: func(_ context.Context, hit richHit, q query) (record, error) {
			return record{ID: hit.id, Name: hit.note}, nil
		},
		Normalize: func(q query, r record, _ struct{}, _ bool) (item, error) {
			return item{ID: r.ID, Name: r.Name}, nil
		},
	}

	engine, err := New(r, nil, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), []query{{Name: "a"}, {Name: "missing"}, {Name: "b"}})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, item{ID: "id-a", Name: "from search a"}, result.Items[0])
	assert.Equal(t, item{ID: "id-b", Name: "from search b"}, result.Items[1])
	assert.Equal(t, StatusNotFound, result.Outcomes[1].Status)
	assert.Equal(t, "id-b", result.Outcomes[2].ID)
}

func TestRun_NoEnrichStage(t *testing.T) {
	api := newFakeAPI()
	r := api.resolver()
	r.Enrich = nil
	engine := newEngine(t, r, nil)

	result, err := engine.Run(context.Background(), []query{{Name: "a"}})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusOK, result.Outcomes[0].Status)
	assert.Zero(t, result.Stats.Degraded)
}

func TestRun_PanicIsolated(t *testing.T) {
	api := newFakeAPI()
	api.panicAt["a"] = StageSearch
	api.panicAt["b"] = StageNormalize
	engine := newEngine(t, api.resolver(), nil)

	result, err := engine.Run(context.Background(), []query{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "C", result.Items[0].Name)
	assert.Equal(t, 2, result.Stats.Failed)
	assert.ErrorIs(t, result.Outcomes[0].Err, ErrPanic)
	assert.Equal(t, StageSearch, result.Outcomes[0].Stage)
	assert.Equal(t, StageNormalize, result.Outcomes[1].Stage)
}

func TestRun_CanceledContextIsFatal(t *testing.T) {
	api := newFakeAPI()
	ctx, cancel := context.WithCancel(context.Background())

	r := api.resolver()
	search := r.Search
	r.Search = func(ctx context.Context, q query) (ID, error) {
		if q.Name == "b" {
			cancel()
			return "", ctx.Err()
		}

		return search(ctx, q)
	}

	engine := newEngine(t, r, nil)

	result, err := engine.Run(ctx, []query{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.NotContains(t, api.calls, "search:c")
}

func TestNew_RequiresStages(t *testing.T) {
	_, err := New(Resolver[query, ID, record, string, item]{}, nil, nil)
	assert.Error(t, err)
}
