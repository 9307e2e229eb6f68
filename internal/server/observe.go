package server

import (
	"context"
	"fmt"
	"time"

	"github.com/qargo/dashboard/internal/company"
	"github.com/qargo/dashboard/internal/config"
	"github.com/qargo/dashboard/internal/wizard"
	"github.com/qargo/dashboard/pkg/audit"
	"github.com/qargo/dashboard/pkg/logging"
	"github.com/qargo/dashboard/pkg/metrics"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "dashboard"

// serverMetrics are the counters the server keeps.
type serverMetrics struct {
	registry    *metrics.Registry
	submissions *metrics.CounterVec
	duration    *metrics.Histogram
	events      *metrics.CounterVec
}

func newServerMetrics() *serverMetrics {
	r := metrics.NewRegistry(MetricsNamespace)
	return &serverMetrics{
		registry:    r,
		submissions: r.CounterVec("submissions_total", "Company submissions by result status.", "status"),
		duration:    r.Histogram("submission_duration_seconds", "Company API call latency.", metrics.DefaultDurationBuckets),
		events:      r.CounterVec("security_events_total", "Audit events by type.", "type"),
	}
}

// instrument counts and times every submission made through sub.
func (m *serverMetrics) instrument(sub wizard.Submitter) wizard.Submitter {
	return wizard.SubmitterFunc(func(ctx context.Context, p company.Payload) company.Result {
		start := time.Now()
		res := sub.Submit(ctx, p)
		m.duration.Since(start)
		m.submissions.Inc(string(res.Status))
		return res
	})
}

// countEvents counts audit events by type.
func (m *serverMetrics) countEvents() audit.Logger {
	return audit.Func(func(e audit.Event) {
		m.events.Inc(e.Type)
	})
}

// openAudit opens the configured audit file, or falls back to the main log.
func openAudit(cfg config.AuditConfig, logger logging.Logger) (audit.Logger, error) {
	if cfg.File == "" {
		return audit.NewSlogLogger(logger), nil
	}
	file, err := audit.NewFileLogger(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return file, nil
}
