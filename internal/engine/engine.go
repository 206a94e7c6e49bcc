// Package engine orchestrates a validation run: open the configured source,
// fetch production and staging datasets, index, merge, assemble, then run
// the requested checks and shape the report.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/geostack-labs/geoverify/internal/config"
	"github.com/geostack-labs/geoverify/internal/feature"
	"github.com/geostack-labs/geoverify/internal/report"
	"github.com/geostack-labs/geoverify/internal/source"
	"github.com/geostack-labs/geoverify/internal/validate"
)

// Engine runs the validation pipeline for one configuration.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates an engine. A nil logger uses a discard logger.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{cfg: cfg, logger: logger}
}

// RunResult is the outcome of one run.
type RunResult struct {
	ID           string
	Started      time.Time
	Duration     time.Duration
	SourceType   string
	Checks       []string
	FeatureCount int
	Report       *report.Report
}

// SourceConfig maps the loaded configuration onto the source package's
// config.
func SourceConfig(cfg *config.Config) source.Config {
	return source.Config{
		Type:            cfg.Source.Type,
		Dir:             cfg.Source.CSV.Dir,
		Host:            cfg.Source.Postgres.Host,
		Port:            cfg.Source.Postgres.Port,
		Database:        cfg.Source.Postgres.Database,
		User:            cfg.Source.Postgres.User,
		Password:        cfg.Source.Postgres.Password,
		SSLMode:         cfg.Source.Postgres.SSLMode,
		StagingPrefixes: cfg.Source.StagingPrefixes,
	}
}

// Assemble fetches, merges and assembles the configured dataset into the
// canonical feature map. Connectivity and schema problems abort; integrity
// faults ride along in the result.
func (e *Engine) Assemble(ctx context.Context) (*feature.AssembleResult, error) {
	src, err := source.New(SourceConfig(e.cfg), e.logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	start := time.Now()
	prodSet, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch production data: %w", err)
	}

	prod, faults := feature.Index(prodSet)

	var stagingSets []*feature.Tables
	for _, prefix := range e.cfg.Source.StagingPrefixes {
		ds, err := src.FetchStaging(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("fetch staging data: %w", err)
		}
		t, f := feature.Index(ds)
		faults = append(faults, f...)
		stagingSets = append(stagingSets, t)
	}

	merged := feature.MergeAll(prod, stagingSets)
	res := feature.Assemble(merged, e.logger)
	res.Faults = append(faults, res.Faults...)

	e.logger.Info("dataset assembled",
		"source", e.cfg.Source.Type,
		"features", len(res.Features),
		"staging_sets", len(stagingSets),
		"integrity_faults", len(res.Faults),
		"elapsed", time.Since(start))
	return res, nil
}

// Run assembles the dataset and executes the named checks (all of them when
// names is empty), in the standard check order. Setting geometries attaches
// the offending shapes to the report.
func (e *Engine) Run(ctx context.Context, names []string, geometries bool) (*RunResult, error) {
	started := time.Now()

	assembled, err := e.Assemble(ctx)
	if err != nil {
		return nil, err
	}

	checker := validate.NewChecker(assembled.Features, validate.Options{
		Workers:    e.cfg.Checks.Workers,
		Geometries: geometries,
		Logger:     e.logger,
	})

	selected := make(map[string]bool, len(names))
	for _, n := range names {
		selected[n] = true
	}
	all := len(names) == 0

	rep := &report.Report{IntegrityFaults: assembled.Faults}
	if rep.IntegrityFaults == nil {
		rep.IntegrityFaults = []feature.IntegrityFault{}
	}
	var ran []string

	for _, name := range validate.CheckNames {
		if !all && !selected[name] {
			continue
		}
		checkStart := time.Now()
		switch name {
		case validate.CheckValidity:
			res, err := checker.Validity(ctx)
			if err != nil {
				return nil, err
			}
			rep.InvalidShapes = report.NewInvalidShapes(res)
		case validate.CheckPointInPolygon:
			res, err := checker.PointInPolygon(ctx)
			if err != nil {
				return nil, err
			}
			rep.PointInPolygon = report.NewPointInPolygon(res)
		case validate.CheckOverlap:
			res, err := checker.Overlap(ctx)
			if err != nil {
				return nil, err
			}
			rep.Overlaps = report.NewOverlaps(res)
		case validate.CheckContainment:
			res, err := checker.ParentContainment(ctx)
			if err != nil {
				return nil, err
			}
			rep.Containment = report.NewContainment(res)
		}
		ran = append(ran, name)
		e.logger.Debug("check finished", "check", name, "elapsed", time.Since(checkStart))
	}

	return &RunResult{
		ID:           uuid.New().String(),
		Started:      started,
		Duration:     time.Since(started),
		SourceType:   e.cfg.Source.Type,
		Checks:       ran,
		FeatureCount: len(assembled.Features),
		Report:       rep,
	}, nil
}

// TableCounts probes the configured source and returns the per-table row
// counts, without assembling anything. Used by the sources command.
func (e *Engine) TableCounts(ctx context.Context) (map[string]int, error) {
	src, err := source.New(SourceConfig(e.cfg), e.logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	ds, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int{
		feature.TableFeatures: len(ds.Features),
		feature.TableNames:    len(ds.Names),
		feature.TableSynonyms: len(ds.Synonyms),
		feature.TablePoints:   len(ds.Points),
		feature.TablePolygons: len(ds.Polygons),
	}, nil
}
