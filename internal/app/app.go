// Package app wires configuration, credentials, API clients, source adapters
// and the pipeline engine into one run per source.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"favfetch/internal/apiclient"
	"favfetch/internal/config"
	"favfetch/internal/dataset"
	"favfetch/internal/formatter"
	"favfetch/internal/logger"
	"favfetch/internal/pacer"
	"favfetch/internal/pipeline"
	"favfetch/internal/sources/igdb"
	"favfetch/internal/sources/listennotes"
	"favfetch/internal/sources/musicbrainz"
	"favfetch/internal/sources/openlibrary"
	"favfetch/internal/sources/tmdb"
)

// ErrNoUserAgent is returned when a source that requires an identifying
// User-Agent has none configured.
var ErrNoUserAgent = errors.New("user agent is required")

// Options configures an App.
type Options struct {
	Config      *config.Config
	Credentials config.Credentials
	Logger      *logger.Logger
	HTTPClient  *http.Client
	RunID       string
	ReportPath  string
}

// RunOptions overrides the configured files of one source run.
type RunOptions struct {
	Input  string
	Output string
}

// Summary is what a source run reports back to the command.
type Summary struct {
	Source   string
	Output   string
	Stats    pipeline.Stats
	API      apiclient.Stats
	Outcomes []pipeline.Outcome
}

// App runs sources.
type App struct {
	cfg        *config.Config
	creds      config.Credentials
	log        *logger.Logger
	httpClient *http.Client
	runID      string
	reportPath string
}

// New creates an App. A missing RunID is generated.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &App{
		cfg:        cfg,
		creds:      opts.Credentials,
		log:        log.With("run_id", runID),
		httpClient: opts.HTTPClient,
		runID:      runID,
		reportPath: opts.ReportPath,
	}
}

// RunID identifies this process in logs and reports.
func (a *App) RunID() string {
	return a.runID
}

// Run resolves every query of the named source and writes its aggregate.
// The returned error is fatal; item failures only show up in the summary.
func (a *App) Run(ctx context.Context, source string, opts RunOptions) (*Summary, error) {
	src, err := a.source(source, opts)
	if err != nil {
		return nil, err
	}

	log := a.log.With("source", source)

	switch source {
	case config.SourceBooks:
		client := a.client(source, src, nil, nil, log)
		adapter := openlibrary.New(client, src)

		return execute(ctx, a, source, src, []*apiclient.Client{client}, adapter.Resolver(), nil, log)
	case config.SourceGames:
		client := a.client(source, src, nil, nil, log)
		adapter := igdb.New(client, src, a.creds.IGDBClientID, igdb.NewTokenSource(ctx, src, a.creds, a.httpClient))

		authenticate := func(context.Context) error {
			log.Info("requesting access token")
			return adapter.Authenticate()
		}

		return execute(ctx, a, source, src, []*apiclient.Client{client}, adapter.Resolver(), authenticate, log)
	case config.SourceArtists:
		// Separate clients keep a Cover Art Archive outage from tripping the
		// MusicBrainz breaker; the shared pacer keeps one delay across both.
		shared := pacer.NewFixed(src.Delay())
		client := a.client(source, src, nil, shared, log)
		coverArt := a.client("coverartarchive", src, nil, shared, log)
		adapter := musicbrainz.New(client, coverArt, src, log)

		return execute(ctx, a, source, src, []*apiclient.Client{client, coverArt}, adapter.Resolver(), nil, log)
	case config.SourcePodcasts:
		client := a.client(source, src, listennotes.Header(a.creds.ListenNotesAPIKey), nil, log)
		adapter := listennotes.New(client, src)

		return execute(ctx, a, source, src, []*apiclient.Client{client}, adapter.Resolver(), nil, log)
	case config.SourceMovies:
		client := a.client(source, src, nil, nil, log)
		adapter := tmdb.New(client, src, a.creds.TMDBAPIKey, tmdb.Movie)

		return execute(ctx, a, source, src, []*apiclient.Client{client}, adapter.MovieResolver(), nil, log)
	case config.SourceTV:
		client := a.client(source, src, nil, nil, log)
		adapter := tmdb.New(client, src, a.creds.TMDBAPIKey, tmdb.TV)

		return execute(ctx, a, source, src, []*apiclient.Client{client}, adapter.TVResolver(), nil, log)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownSource, source)
	}
}

// Popular writes the TMDB popular list for kind (movie or tv) to output.
func (a *App) Popular(ctx context.Context, kind tmdb.Kind, output string) (int, error) {
	source := config.SourceMovies
	if kind == tmdb.TV {
		source = config.SourceTV
	}

	src, err := a.source(source, RunOptions{})
	if err != nil {
		return 0, err
	}

	log := a.log.With("source", source)
	adapter := tmdb.New(a.client(source, src, nil, nil, log), src, a.creds.TMDBAPIKey, kind)

	results, err := adapter.Popular(ctx)
	if err != nil {
		return 0, err
	}

	if err := dataset.WriteJSON(output, results); err != nil {
		return 0, err
	}

	log.Info("wrote popular list", "kind", string(kind), "count", len(results), "output", output)

	return len(results), nil
}

// source resolves the configuration of one run and checks everything that
// must hold before the first network call.
func (a *App) source(name string, opts RunOptions) (config.SourceConfig, error) {
	src, err := a.cfg.Source(name)
	if err != nil {
		return config.SourceConfig{}, err
	}

	if opts.Input != "" {
		src.Input = opts.Input
	}

	if opts.Output != "" {
		src.Output = opts.Output
	}

	if err := a.creds.Require(name); err != nil {
		return config.SourceConfig{}, err
	}

	if name == config.SourceArtists && src.UserAgent == "" {
		return config.SourceConfig{}, fmt.Errorf("%w: sources.%s", ErrNoUserAgent, name)
	}

	return src, nil
}

// client builds an API client for src. A nil pacer gets a fresh one with the
// source delay.
func (a *App) client(name string, src config.SourceConfig, header http.Header, p pacer.Pacer, log *logger.Logger) *apiclient.Client {
	if p == nil {
		p = pacer.NewFixed(src.Delay())
	}

	return apiclient.New(apiclient.Options{
		Name:       name,
		UserAgent:  src.UserAgent,
		Header:     header,
		Pacer:      p,
		HTTPClient: a.httpClient,
		Logger:     log,
		Retry:      a.cfg.Fetch.Retry,
		Breaker:    a.cfg.Fetch.Breaker,
		MaxRPS:     src.MaxRPS,
	})
}

// execute loads the queries, runs the engine and writes the aggregate.
// prepare runs after the input is loaded and before the first query.
func execute[Q any, H pipeline.Hit, R, S, N any](
	ctx context.Context,
	a *App,
	name string,
	src config.SourceConfig,
	clients []*apiclient.Client,
	resolver pipeline.Resolver[Q, H, R, S, N],
	prepare func(context.Context) error,
	log *logger.Logger,
) (*Summary, error) {
	queries, err := dataset.LoadQueries[Q](src.Input)
	if err != nil {
		return nil, err
	}

	log.Info("loaded queries", "input", src.Input, "count", len(queries))

	if prepare != nil {
		if err := prepare(ctx); err != nil {
			return nil, err
		}
	}

	engine, err := pipeline.New(resolver, pacer.NewFixed(src.ItemDelay()), log)
	if err != nil {
		return nil, err
	}

	result, err := engine.Run(ctx, queries)
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteAggregate(src.Output, src.Collection, result.Items, a.cfg.Fetch.Output.PrettyPrint); err != nil {
		return nil, err
	}

	summary := &Summary{
		Source:   name,
		Output:   src.Output,
		Stats:    result.Stats,
		Outcomes: result.Outcomes,
	}

	for _, c := range clients {
		summary.API = summary.API.Add(c.Stats())
	}

	log.Info("wrote aggregate",
		"output", src.Output,
		"collection", src.Collection,
		"items", len(result.Items),
		"calls", summary.API.Calls,
		"retries", summary.API.Retries,
		"rejected", summary.API.Rejected,
	)

	if err := a.report(summary, log); err != nil {
		return nil, err
	}

	return summary, nil
}

// report renders the run table at debug level and, when a report path is
// set, writes the signed report.
func (a *App) report(s *Summary, log *logger.Logger) error {
	r := formatter.Report{
		GeneratedAt: time.Now(),
		RunID:       a.runID,
		Source:      s.Source,
		Output:      s.Output,
		Outcomes:    s.Outcomes,
		Stats:       s.Stats,
	}

	if log.Enabled("debug") {
		log.Debug("run report\n" + r.Markdown())
	}

	if a.reportPath == "" {
		return nil
	}

	if err := os.WriteFile(a.reportPath, []byte(r.Signed()), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", a.reportPath, err)
	}

	log.Info("wrote report", "path", a.reportPath)

	return nil
}
