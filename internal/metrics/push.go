// Package metrics reports run counters to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/BartekS5/order-etl/internal/config"
	"github.com/BartekS5/order-etl/internal/etl"
)

const namespace = "order_etl"

// Pusher is a no-op when no Pushgateway URL is configured.
type Pusher struct {
	url    string
	job    string
	logger *zap.Logger
	now    func() time.Time
}

func NewPusher(cfg config.Metrics, logger *zap.Logger) *Pusher {
	return &Pusher{url: cfg.PushgatewayURL, job: cfg.JobName, logger: logger, now: time.Now}
}

func (p *Pusher) Enabled() bool {
	return p.url != ""
}

// Push reports the outcome of one run. Failures are logged only; the
// run's verdict is already decided.
func (p *Pusher) Push(ctx context.Context, report etl.Report, runErr error) {
	if !p.Enabled() {
		return
	}

	reg := prometheus.NewRegistry()
	gauge := func(name, help string, v float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
		g.Set(v)
		reg.MustRegister(g)
	}

	gauge("records_extracted", "Orders read from the source in the last run.", float64(report.Extracted))
	gauge("records_accepted", "Orders accepted by the status filter in the last run.", float64(report.Accepted))
	gauge("records_skipped", "Orders rejected by the status filter in the last run.", float64(report.Skipped))
	gauge("records_written", "Orders upserted into the destination in the last run.", float64(report.Written))
	gauge("run_duration_seconds", "Wall time of the last run.", report.Duration.Seconds())

	success := 0.0
	if runErr == nil {
		success = 1
		gauge("last_success_timestamp_seconds", "Unix time of the last successful run.", float64(p.now().Unix()))
	}
	gauge("last_run_success", "1 if the last run completed, 0 otherwise.", success)

	pusher := push.New(p.url, p.job).Gatherer(reg)
	if report.DryRun {
		pusher = pusher.Grouping("mode", "dry_run")
	}
	if err := pusher.PushContext(ctx); err != nil {
		p.logger.Warn("pushing metrics failed", zap.String("url", p.url), zap.Error(err))
		return
	}
	p.logger.Debug("metrics pushed", zap.String("url", p.url), zap.String("job", p.job))
}
