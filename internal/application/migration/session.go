// Package migration reconciles definitions, file metadata, file locations and
// user accounts from a source catalog into a target catalog.
package migration

import (
	"context"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/config"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

const (
	DefaultFlagKey       = "sbn.migrate"
	DefaultExperimentKey = "sbn.experiment"
	DefaultScratchKey    = "loc.scratch"
)

// Options tunes a migration session.
type Options struct {
	// Experiment is injected into migrated metadata under ExperimentKey.
	Experiment     string
	FlushThreshold int
	FlagKey        string
	ExperimentKey  string
	ScratchKey     string
	ScratchMarker  string
}

// OptionsFromConfig builds session options for the given source experiment.
func OptionsFromConfig(cfg *config.MigrationConfig, experiment string) Options {
	return Options{
		Experiment:     experiment,
		FlushThreshold: cfg.FlushThreshold,
		FlagKey:        cfg.FlagKey,
		ExperimentKey:  cfg.ExperimentKey,
		ScratchKey:     cfg.ScratchKey,
		ScratchMarker:  cfg.ScratchMarker,
	}
}

func (o Options) withDefaults() Options {
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = DefaultFlushThreshold
	}
	if o.FlagKey == "" {
		o.FlagKey = DefaultFlagKey
	}
	if o.ExperimentKey == "" {
		o.ExperimentKey = DefaultExperimentKey
	}
	if o.ScratchKey == "" {
		o.ScratchKey = DefaultScratchKey
	}
	if o.ScratchMarker == "" {
		o.ScratchMarker = catalog.DefaultScratchMarker
	}
	return o
}

// InvalidRecorder receives the names of files whose locations could not be
// reconciled.
type InvalidRecorder interface {
	Record(name string) error
}

// Session is the state of one migration run: both catalogs, the flag-write
// queue bound to the source catalog, and the run counters. It is not safe for
// concurrent use.
type Session struct {
	source  catalog.Catalog
	target  catalog.Catalog
	opts    Options
	queue   *UpdateQueue
	stats   Stats
	invalid InvalidRecorder
	logger  logger.Interface
}

func NewSession(source, target catalog.Catalog, opts Options, log logger.Interface) *Session {
	opts = opts.withDefaults()
	return &Session{
		source: source,
		target: target,
		opts:   opts,
		queue:  NewUpdateQueue(source, opts.FlushThreshold, log),
		logger: log,
	}
}

// SetInvalidRecorder installs the sink for not-declared files. A nil recorder
// disables recording.
func (s *Session) SetInvalidRecorder(r InvalidRecorder) {
	s.invalid = r
}

func (s *Session) Options() Options {
	return s.opts
}

func (s *Session) Queue() *UpdateQueue {
	return s.queue
}

// Stats returns a snapshot of the run counters.
func (s *Session) Stats() Stats {
	return s.stats
}

// Close drains the flag-write queue. Callers defer it right after NewSession
// so buffered writes survive every exit path of the run.
func (s *Session) Close(ctx context.Context) error {
	if err := s.queue.Flush(ctx); err != nil {
		s.logger.Errorw("failed to flush queued metadata updates",
			"pending", s.queue.Len(),
			"error", err,
		)
		return err
	}
	return nil
}

func (s *Session) recordInvalid(name string) {
	if s.invalid == nil {
		return
	}
	if err := s.invalid.Record(name); err != nil {
		s.logger.Warnw("failed to record invalid entry", "file_name", name, "error", err)
	}
}
