package migration

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/depgraph"
	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/logger"
	"github.com/sbn-software/samsync/internal/shared/query"
)

// FileOutcome is the result of a successful MigrateFile call.
type FileOutcome string

const (
	OutcomeMigrated    FileOutcome = "migrated"
	OutcomeInvalid     FileOutcome = "invalid"
	OutcomeAlreadyDone FileOutcome = "already_done"
)

// FileMigrator copies file metadata, parents first, into the target catalog
// and records progress in the source catalog's migration flag.
type FileMigrator struct {
	session   *Session
	locations *LocationReconciler
	walker    *depgraph.Walker[FileOutcome]
	prepared  map[string]catalog.Metadata
	logger    logger.Interface
}

// sourceMissingError marks a file whose own source record does not exist.
// Other not_found errors met while migrating a file stay transient.
type sourceMissingError struct {
	err error
}

func (e *sourceMissingError) Error() string { return e.err.Error() }
func (e *sourceMissingError) Unwrap() error { return e.err }

func isSourceMissing(err error) bool {
	var missing *sourceMissingError
	return stderrors.As(err, &missing)
}

func NewFileMigrator(session *Session, locations *LocationReconciler, log logger.Interface) *FileMigrator {
	m := &FileMigrator{
		session:   session,
		locations: locations,
		prepared:  make(map[string]catalog.Metadata),
		logger:    log,
	}
	m.walker = depgraph.NewWalker[FileOutcome](fileHandler{m})
	return m
}

// MigrateFile migrates name and its ancestry. Results are memoized until the
// next driver round, so a parent shared by several files is handled once.
//
// A parent missing from the source makes the file invalid. A parent that
// fails for any other reason, not_found from a later step included, leaves
// the file pending.
//
// Errors leave the file pending: not_found when the source lacks the file,
// not_declared when the target cannot locate it after declaration,
// dependency_cycle when its ancestry loops, anything else is transient.
func (m *FileMigrator) MigrateFile(ctx context.Context, name string) (FileOutcome, error) {
	return m.walker.Walk(ctx, name)
}

// Run migrates the pending files sel picks, for up to sel.Rounds() rounds.
// The flag queue is drained after every round so the next query no longer
// returns the files just migrated.
func (m *FileMigrator) Run(ctx context.Context, sel query.Selection) error {
	s := m.session
	dims := sel.FileDimensions(s.opts.FlagKey)
	m.logger.Infow("migrating files", "dimensions", dims, "rounds", sel.Rounds())

	for round := 1; round <= sel.Rounds(); round++ {
		files, err := s.source.ListFiles(ctx, dims)
		if err != nil {
			return fmt.Errorf("list source files: %w", err)
		}
		if len(files) == 0 {
			m.logger.Infow("no more files", "round", round)
			break
		}
		s.stats.Files.Queried += len(files)
		m.walker.Reset()

		for _, name := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := m.MigrateFile(ctx, name)
			if err != nil {
				s.stats.Files.Failed++
				m.logger.Warnw("file not migrated",
					"file_name", name,
					"kind", errors.TypeOf(err),
					"error", err,
				)
				continue
			}
			m.logger.Debugw("file checked", "file_name", name, "outcome", outcome)
		}

		if err := s.queue.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

// prepare turns source metadata into what the target should hold.
func (m *FileMigrator) prepare(name string, md catalog.Metadata) catalog.Metadata {
	opts := m.session.opts
	out := md.Clone()
	if out == nil {
		out = catalog.Metadata{}
	}
	out.Without(catalog.InternalKeys...).Without(opts.FlagKey)
	out[catalog.KeyFileName] = name
	out[opts.ExperimentKey] = opts.Experiment
	out[opts.ScratchKey] = 0
	if out.PadChecksums() {
		m.logger.Infow("fixing md5 checksum", "file_name", name)
	}
	out.StripParentIDs()
	return out
}

// markInvalid persists the terminal invalid flag in the source right away.
func (m *FileMigrator) markInvalid(ctx context.Context, name string) (FileOutcome, error) {
	s := m.session
	m.logger.Infow("setting invalid migration flag in source", "file_name", name)
	update := catalog.Metadata{s.opts.FlagKey: int(catalog.FlagInvalid)}
	if err := s.source.ModifyFileMetadata(ctx, name, update); err != nil {
		return "", fmt.Errorf("mark %s invalid: %w", name, err)
	}
	s.stats.Files.Modified++
	s.stats.Files.Invalid++
	return OutcomeInvalid, nil
}

// publish declares or updates the target record with the minimal diff.
func (m *FileMigrator) publish(ctx context.Context, name string, md catalog.Metadata) error {
	s := m.session

	current, err := s.target.GetFileMetadata(ctx, name)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			return fmt.Errorf("read target metadata of %s: %w", name, err)
		}
		current = nil
	}

	diff := md.Diff(current)
	switch {
	case len(diff) == 0:
		m.logger.Debugw("target metadata already up to date", "file_name", name)
	case len(current) == 0:
		diff[catalog.KeyFileName] = name
		m.logger.Infow("declaring file in target", "file_name", name)
		if err := s.target.DeclareFile(ctx, diff); err != nil {
			return fmt.Errorf("declare %s: %w", name, err)
		}
		s.stats.Files.Declared++
	default:
		m.logger.Infow("updating metadata in target", "file_name", name, "fields", len(diff))
		if err := s.target.ModifyFileMetadata(ctx, name, diff); err != nil {
			return fmt.Errorf("update %s: %w", name, err)
		}
		s.stats.Files.Modified++
	}
	return nil
}

type fileHandler struct {
	m *FileMigrator
}

func (h fileHandler) Enter(ctx context.Context, name string) ([]string, *FileOutcome, error) {
	m := h.m
	opts := m.session.opts
	m.logger.Debugw("checking metadata", "file_name", name)

	md, err := m.session.source.GetFileMetadata(ctx, name)
	if err != nil {
		if errors.IsNotFoundError(err) {
			err = &sourceMissingError{err: err}
		}
		return nil, nil, fmt.Errorf("read source metadata of %s: %w", name, err)
	}

	flag, _, err := md.Flag(opts.FlagKey)
	if err != nil {
		m.logger.Warnw("unreadable migration flag, treating as pending", "file_name", name, "error", err)
	}
	switch flag {
	case catalog.FlagDone:
		return nil, outcomePtr(OutcomeAlreadyDone), nil
	case catalog.FlagInvalid:
		return nil, outcomePtr(OutcomeInvalid), nil
	}

	prepared := m.prepare(name, md)
	parents := prepared.Parents()
	deps := make([]string, 0, len(parents))
	for _, p := range parents {
		if p.Retired {
			m.logger.Infow("parent is retired", "file_name", name, "parent", p.FileName)
			outcome, err := m.markInvalid(ctx, name)
			if err != nil {
				return nil, nil, err
			}
			return nil, &outcome, nil
		}
		if p.FileName != "" {
			deps = append(deps, p.FileName)
		}
	}

	m.prepared[name] = prepared
	return deps, nil, nil
}

// Accept stops at the first parent that failed or turned out invalid.
func (h fileHandler) Accept(dep depgraph.Result[FileOutcome]) bool {
	return dep.Err == nil && dep.Value != OutcomeInvalid
}

func (h fileHandler) Exit(ctx context.Context, name string, deps []depgraph.Result[FileOutcome]) (FileOutcome, error) {
	m := h.m
	md := m.prepared[name]
	delete(m.prepared, name)

	for _, dep := range deps {
		switch {
		case isSourceMissing(dep.Err):
			m.logger.Infow("parent missing from source", "file_name", name, "parent", dep.Name)
			return m.markInvalid(ctx, name)
		case dep.Err != nil:
			return "", fmt.Errorf("parent %s of %s: %w", dep.Name, name, dep.Err)
		case dep.Value == OutcomeInvalid:
			m.logger.Infow("parent is invalid", "file_name", name, "parent", dep.Name)
			return m.markInvalid(ctx, name)
		}
	}

	if err := m.publish(ctx, name, md); err != nil {
		return "", err
	}
	if err := m.locations.ReconcileLocations(ctx, name, false); err != nil {
		return "", err
	}

	m.logger.Debugw("queueing migration flag reset", "file_name", name)
	done := catalog.MetadataUpdate{
		FileName: name,
		Fields:   catalog.Metadata{m.session.opts.FlagKey: int(catalog.FlagDone)},
	}
	if err := m.session.queue.Enqueue(ctx, done); err != nil {
		// The update stays queued; the next flush retries it.
		m.logger.Warnw("flag flush failed", "file_name", name, "error", err)
	}
	m.session.stats.Files.Migrated++
	return OutcomeMigrated, nil
}

func outcomePtr(o FileOutcome) *FileOutcome {
	return &o
}
