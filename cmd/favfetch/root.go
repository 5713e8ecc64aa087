package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"favfetch/internal/app"
	"favfetch/internal/config"
	"favfetch/internal/extract"
	"favfetch/internal/logger"
	"favfetch/internal/sources/tmdb"
)

// errConfigExists is returned by config init when the target already exists.
var errConfigExists = errors.New("config file already exists")

type cli struct {
	configPath string
	logLevel   string
	logFormat  string
	reportPath string
	envFile    string

	stderr io.Writer
	stdout io.Writer

	cfg   *config.Config
	creds config.Credentials
	log   *logger.Logger
}

// logger returns the configured logger, or a bare one when setup failed
// before it was built.
func (c *cli) logger() *logger.Logger {
	if c.log != nil {
		return c.log
	}

	return logger.New(logger.Options{Output: c.stderr, Level: "info"})
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "favfetch",
		Short:         "Refresh the favorites data files from upstream metadata APIs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (default $"+config.ConfigPathEnvVar+" or "+config.DefaultConfigPath+")")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&c.logFormat, "log-format", "", "log format: console or json")
	flags.StringVar(&c.reportPath, "report", "", "write a signed markdown run report to this path")
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file with API credentials")

	for _, source := range []struct{ name, short string }{
		{config.SourceBooks, "Resolve favorite books against OpenLibrary"},
		{config.SourceGames, "Resolve favorite games against IGDB"},
		{config.SourceArtists, "Resolve favorite artists against MusicBrainz and the Cover Art Archive"},
		{config.SourcePodcasts, "Resolve favorite podcasts against Listen Notes"},
		{config.SourceMovies, "Resolve favorite movies against TMDB"},
		{config.SourceTV, "Resolve favorite TV shows against TMDB"},
	} {
		root.AddCommand(c.sourceCmd(source.name, source.short))
	}

	root.AddCommand(c.tmdbCmd(), c.extractCmd(), c.configCmd())

	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
// Credentials are read here so a missing one fails before any network call.
func (c *cli) setup() error {
	cfg, err := config.Load(config.Resolve(c.configPath))
	if err != nil {
		return err
	}

	if c.logLevel != "" {
		cfg.Fetch.Logging.Level = c.logLevel
	}

	if c.logFormat != "" {
		cfg.Fetch.Logging.Format = c.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	c.cfg = cfg
	c.log = logger.New(logger.Options{
		Output: c.stderr,
		Level:  cfg.Fetch.Logging.Level,
		Format: cfg.Fetch.Logging.Format,
	})

	creds, err := config.LoadCredentials(c.envFile)
	if err != nil {
		return err
	}

	c.creds = creds

	return nil
}

func (c *cli) newApp() *app.App {
	return app.New(app.Options{
		Config:      c.cfg,
		Credentials: c.creds,
		Logger:      c.log,
		ReportPath:  c.reportPath,
	})
}

func (c *cli) sourceCmd(name, short string) *cobra.Command {
	var opts app.RunOptions

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setup(); err != nil {
				return err
			}

			a := c.newApp()
			c.log.Info("starting run", "source", name, "run_id", a.RunID())

			summary, err := a.Run(cmd.Context(), name, opts)
			if err != nil {
				return err
			}

			s := summary.Stats
			_, _ = fmt.Fprintf(c.stdout, "%s: %d of %d resolved (%d degraded, %d not found, %d skipped, %d failed) -> %s\n",
				name, s.Succeeded, s.Total, s.Degraded, s.NotFound, s.Skipped, s.Failed, summary.Output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "input query list (default from config)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output aggregate file (default from config)")

	return cmd
}

func (c *cli) tmdbCmd() *cobra.Command {
	var (
		kind   string
		output string
	)

	popular := &cobra.Command{
		Use:   "popular",
		Short: "Write TMDB's current popular list to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k := tmdb.Kind(kind)
			if k != tmdb.Movie && k != tmdb.TV {
				return fmt.Errorf("--kind must be %q or %q", tmdb.Movie, tmdb.TV)
			}

			if output == "" {
				output = fmt.Sprintf("src/data/popular-%s.json", k)
			}

			if err := c.setup(); err != nil {
				return err
			}

			count, err := c.newApp().Popular(cmd.Context(), k, output)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(c.stdout, "popular %s: %d results -> %s\n", k, count, output)

			return nil
		},
	}

	popular.Flags().StringVar(&kind, "kind", string(tmdb.Movie), "media kind: movie or tv")
	popular.Flags().StringVarP(&output, "output", "o", "", "output file (default src/data/popular-<kind>.json)")

	cmd := &cobra.Command{
		Use:   "tmdb",
		Short: "TMDB utilities",
	}
	cmd.AddCommand(popular)

	return cmd
}

func (c *cli) extractCmd() *cobra.Command {
	opts := extract.Options{Input: extract.DefaultInput, MaxDepth: extract.DefaultMaxDepth, Keyword: extract.DefaultKeyword}

	cmd := &cobra.Command{
		Use:   "extract-podcasts",
		Short: "Build the podcast input list from an exported listening library",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := c.setup(); err != nil {
				return err
			}

			if opts.Output == "" {
				src, err := c.cfg.Source(config.SourcePodcasts)
				if err != nil {
					return err
				}

				opts.Output = src.Input
			}

			names, err := extract.Run(opts, c.log)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(c.stdout, "extracted %d unique podcasts -> %s\n", len(names), opts.Output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", opts.Input, "exported library JSON")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "podcast query list (default: the podcasts input)")
	cmd.Flags().StringVar(&opts.Keyword, "keyword", opts.Keyword, "case-insensitive text that marks a podcast")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", opts.MaxDepth, "maximum nesting depth to walk (-1 for no limit)")

	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in defaults to a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := config.DefaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%w: %s (use --force to overwrite)", errConfigExists, path)
			}

			if err := config.Default().SaveConfig(path); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(c.stdout, "wrote %s\n", path)

			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := c.setup(); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(c.stdout, c.cfg.String())

			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the favfetch configuration file",
	}
	cmd.AddCommand(initCmd, validateCmd)

	return cmd
}
