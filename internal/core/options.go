package core

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/sheetload/internal/config"
)

// RunTimeout is the maximum duration of a processing run.
var RunTimeout = 10 * time.Minute

// runRetention is how long a finished run stays queryable.
var runRetention = 5 * time.Minute

// Options configures a Service. Zero or negative fields take the package
// defaults, except SuccessAutoHide where zero keeps success messages on
// screen.
type Options struct {
	PreviewRows     int
	BatchSize       int
	TickInterval    time.Duration
	ValidRatio      decimal.Decimal
	SuccessAutoHide time.Duration

	SessionTTL time.Duration

	MaxConcurrentRuns int
	MaxWaitTime       time.Duration

	// Recorder receives operational counters. Nil disables recording.
	Recorder Recorder
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		PreviewRows:       DefaultPreviewRows,
		BatchSize:         DefaultBatchSize,
		TickInterval:      DefaultTickInterval,
		ValidRatio:        DefaultValidRatio,
		SuccessAutoHide:   10 * time.Second,
		SessionTTL:        30 * time.Minute,
		MaxConcurrentRuns: DefaultMaxConcurrentRuns,
		MaxWaitTime:       DefaultMaxWaitTime,
	}
}

// OptionsFromConfig maps the processing, session and upload sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PreviewRows:       cfg.Processing.PreviewRows,
		BatchSize:         cfg.Processing.BatchSize,
		TickInterval:      cfg.Processing.TickInterval,
		ValidRatio:        cfg.Processing.ValidRatio,
		SuccessAutoHide:   cfg.Processing.SuccessAutoHide,
		SessionTTL:        cfg.Session.TTL,
		MaxConcurrentRuns: cfg.Upload.MaxConcurrent,
		MaxWaitTime:       cfg.Upload.MaxWaitTime,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PreviewRows <= 0 {
		o.PreviewRows = d.PreviewRows
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
	if !o.ValidRatio.IsPositive() {
		o.ValidRatio = d.ValidRatio
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = d.SessionTTL
	}
	if o.MaxConcurrentRuns <= 0 {
		o.MaxConcurrentRuns = d.MaxConcurrentRuns
	}
	if o.MaxWaitTime <= 0 {
		o.MaxWaitTime = d.MaxWaitTime
	}
	if o.SuccessAutoHide < 0 {
		o.SuccessAutoHide = 0
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	return o
}

// Recorder receives operational events. The metrics package implements it
// with Prometheus collectors.
type Recorder interface {
	FileDecoded(format string, rows int, bytes int64)
	DecodeFailed(format string)
	RunStarted(table string)
	RunFinished(table string, phase RunPhase, valid, errors int, d time.Duration)
	RunRejected(reason string)
	ActiveRuns(n int)
	Sessions(n int)
}

type nopRecorder struct{}

func (nopRecorder) FileDecoded(string, int, int64) {}
func (nopRecorder) DecodeFailed(string) {}
func (nopRecorder) RunStarted(string) {}
func (nopRecorder) RunFinished(string, RunPhase, int, int, time.Duration) {}
func (nopRecorder) RunRejected(string) {}
func (nopRecorder) ActiveRuns(int) {}
func (nopRecorder) Sessions(int) {}
