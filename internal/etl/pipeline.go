package etl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BartekS5/order-etl/pkg/models"
)

// Stage names a step of a run.
type Stage string

const (
	StageStart         Stage = "START"
	StageConnectSource Stage = "CONNECT_SOURCE"
	StageConnectDest   Stage = "CONNECT_DEST"
	StageEnsureSchema  Stage = "ENSURE_SCHEMA"
	StageExtract       Stage = "EXTRACT"
	StageFilter        Stage = "FILTER"
	StageLoad          Stage = "LOAD"
	StageDone          Stage = "DONE"
	StageFailed        Stage = "FAILED"
)

// Report summarizes a run. On failure it holds the counters reached
// before the failing stage.
type Report struct {
	Extracted int
	Accepted  int
	Skipped   int
	Written   int
	Duration  time.Duration
	DryRun    bool
	// Stage is DONE on success, otherwise the stage that failed.
	Stage Stage
}

// Pipeline moves accepted orders from the source to the destination.
type Pipeline struct {
	ConnectSource      ConnectFunc
	ConnectDestination ConnectFunc
	Filter             Filter
	Logger             *zap.Logger
	// DryRun extracts and filters but skips schema creation and loading.
	DryRun bool

	NewExtractor func(db *sql.DB) Extractor
	NewLoader    func(db *sql.DB) Loader
}

// NewPipeline wires the SQL reader and writer to the given connectors.
func NewPipeline(source, destination ConnectFunc, filter Filter, logger *zap.Logger, dryRun bool) *Pipeline {
	return &Pipeline{
		ConnectSource:      source,
		ConnectDestination: destination,
		Filter:             filter,
		Logger:             logger,
		DryRun:             dryRun,
		NewExtractor: func(db *sql.DB) Extractor {
			return NewSourceReader(db, logger)
		},
		NewLoader: func(db *sql.DB) Loader {
			return NewDestinationWriter(db, logger)
		},
	}
}

// Run executes one pass. Both connections, once open, are closed on
// every exit path.
func (p *Pipeline) Run(ctx context.Context) (report Report, err error) {
	started := time.Now()
	report.DryRun = p.DryRun
	stage := StageStart
	p.Logger.Info("etl job starting", zap.Bool("dry_run", p.DryRun))

	defer func() {
		report.Duration = time.Since(started)
		if err != nil {
			report.Stage = stage
			p.enter(StageFailed)
			p.Logger.Error("etl job failed", zap.String("stage", string(stage)), zap.Error(err))
			err = fmt.Errorf("%s: %w", stage, err)
			return
		}
		report.Stage = StageDone
	}()

	stage = p.enter(StageConnectSource)
	src, err := p.ConnectSource(ctx)
	if err != nil {
		return report, err
	}
	defer p.release("source", src)

	stage = p.enter(StageConnectDest)
	dst, err := p.ConnectDestination(ctx)
	if err != nil {
		return report, err
	}
	defer p.release("destination", dst)

	loader := p.NewLoader(dst)

	if p.DryRun {
		p.Logger.Info("dry run: skipping destination schema")
	} else {
		stage = p.enter(StageEnsureSchema)
		if err = loader.EnsureSchema(ctx); err != nil {
			return report, err
		}
	}

	stage = p.enter(StageExtract)
	orders, err := p.NewExtractor(src).Extract(ctx)
	if err != nil {
		return report, err
	}
	report.Extracted = len(orders)

	stage = p.enter(StageFilter)
	accepted := p.filter(orders)
	report.Accepted = len(accepted)
	report.Skipped = len(orders) - len(accepted)
	p.Logger.Info("filter summary", zap.Int("accepted", report.Accepted), zap.Int("skipped", report.Skipped))

	stage = p.enter(StageLoad)
	if p.DryRun {
		p.Logger.Info("dry run: skipping load", zap.Int("would_write", len(accepted)))
	} else {
		report.Written, err = loader.Upsert(ctx, accepted)
		if err != nil {
			return report, err
		}
	}

	stage = p.enter(StageDone)
	p.Logger.Info("etl job completed",
		zap.Int("accepted", report.Accepted),
		zap.Int("skipped", report.Skipped),
		zap.Int("written", report.Written),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

func (p *Pipeline) filter(orders []models.Order) []models.Order {
	accepted := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if p.Filter.Accept(o) {
			accepted = append(accepted, o)
			p.Logger.Info("order accepted", zap.String("order_ref", o.OrderRef), zap.String("status", o.Status))
			continue
		}
		p.Logger.Warn("order skipped", zap.String("order_ref", o.OrderRef), zap.String("status", o.Status))
	}
	return accepted
}

func (p *Pipeline) enter(s Stage) Stage {
	p.Logger.Debug("pipeline stage", zap.String("stage", string(s)))
	return s
}

// release is best effort: close failures are logged, never returned.
func (p *Pipeline) release(name string, db *sql.DB) {
	if err := db.Close(); err != nil {
		p.Logger.Warn("closing connection failed", zap.String("connection", name), zap.Error(err))
		return
	}
	p.Logger.Debug("connection closed", zap.String("connection", name))
}
