package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackzampolin/juris/internal/batch"
	"github.com/jackzampolin/juris/internal/config"
	"github.com/jackzampolin/juris/internal/corpus"
	"github.com/jackzampolin/juris/internal/home"
	"github.com/jackzampolin/juris/internal/language"
	"github.com/jackzampolin/juris/internal/mapping"
	"github.com/jackzampolin/juris/internal/oracle"
	"github.com/jackzampolin/juris/internal/store"
	"github.com/jackzampolin/juris/internal/transform"
	"github.com/jackzampolin/juris/internal/types"
)

// app holds what every command needs after config is loaded.
type app struct {
	home   *home.Dir
	config *config.Manager
	cfg    *config.Config
	logger *slog.Logger
	level  *slog.LevelVar
}

func loadApp() (*app, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}

	level := new(slog.LevelVar)
	level.Set(parseLevel(logLevel))
	logger := newLogger(level)

	mgr, err := config.NewManager(cfgFile, h.Path(), logger)
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	// --log-level wins over the config file
	if logLevel == "" {
		level.Set(parseLevel(cfg.LogLevel))
	}
	slog.SetDefault(logger)
	if file := mgr.ConfigFile(); file != "" {
		logger.Debug("config loaded", "file", file)
	}

	return &app{home: h, config: mgr, cfg: cfg, logger: logger, level: level}, nil
}

// newLogger logs to stderr so stdout stays parseable.
func newLogger(level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (a *app) mapper() *mapping.Mapper {
	return mapping.LoadOrDefault(a.home.ResolveMappingFile(a.cfg.MappingFile), a.logger)
}

// oracle builds the LLM client. It fails with oracle.ErrUnavailable when
// the oracle is disabled or has no key.
func (a *app) oracle() (*oracle.Client, error) {
	if !a.cfg.Oracle.Enabled {
		return nil, fmt.Errorf("%w: disabled in config", oracle.ErrUnavailable)
	}
	return oracle.NewClient(a.cfg.ToOracleConfig(a.logger))
}

// optionalOracle is oracle for commands that degrade without it.
func (a *app) optionalOracle() *oracle.Client {
	client, err := a.oracle()
	if err != nil {
		a.logger.Warn("oracle unavailable", "error", err)
		return nil
	}
	return client
}

// transformer builds the phase-1 transformer. Language validation is
// statistical only; the oracle is used for date fallback when enabled.
func (a *app) transformer(client *oracle.Client) *transform.Transformer {
	tc := transform.Config{
		Mapper:   a.mapper(),
		Language: language.NewValidator(language.Config{Logger: a.logger}),
		Logger:   a.logger,
	}
	if client != nil && a.cfg.Oracle.DateFallback {
		tc.DateFallback = client
	}
	return transform.New(tc)
}

func (a *app) input() (*store.FS, error) {
	return store.NewFS(a.cfg.InputDir)
}

func (a *app) records() (*corpus.Repository, error) {
	out, err := store.NewFS(a.cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	return corpus.NewRepository(out, a.logger), nil
}

func (a *app) excluded() types.Language {
	lang, _ := types.ParseLanguage(a.cfg.ExcludedLanguage)
	return lang
}

type runnerOptions struct {
	clean   bool
	workers int
	oracle  *oracle.Client
}

func (a *app) runner(opts runnerOptions) (*batch.Runner, error) {
	in, err := a.input()
	if err != nil {
		return nil, err
	}
	out, err := a.records()
	if err != nil {
		return nil, err
	}
	workers := a.cfg.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	bc := batch.Config{
		Input:            in,
		Output:           out,
		Transformer:      a.transformer(opts.oracle),
		ExcludedLanguage: a.excluded(),
		Workers:          workers,
		BatchSize:        a.cfg.Oracle.BatchSize,
		MaxConcurrent:    a.cfg.Oracle.MaxConcurrent,
		Clean:            opts.clean,
		Logger:           a.logger,
	}
	if opts.oracle != nil {
		bc.Oracle = opts.oracle
	}
	return batch.NewRunner(bc)
}

// bucket opens the configured bucket. prefix overrides s3.prefix when set.
func (a *app) bucket(ctx context.Context, prefix string) (*store.S3, error) {
	sc := a.cfg.ToS3Config()
	if prefix != "" {
		sc.Prefix = prefix
	}
	return store.NewS3(ctx, sc)
}
