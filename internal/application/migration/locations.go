package migration

import (
	"context"
	"fmt"

	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/logger"
	"github.com/sbn-software/samsync/internal/shared/query"
	"github.com/sbn-software/samsync/internal/shared/utils/setutil"
)

// LocationReconciler registers source file locations in the target catalog.
type LocationReconciler struct {
	session *Session
	logger  logger.Interface
}

func NewLocationReconciler(session *Session, log logger.Interface) *LocationReconciler {
	return &LocationReconciler{
		session: session,
		logger:  log,
	}
}

// ReconcileLocations adds every source location of name whose full path the
// target does not know yet. Scratch locations are skipped unless
// includeScratch is set. A file the target cannot locate fails with a
// not_declared error and is recorded in the session's invalid log.
func (r *LocationReconciler) ReconcileLocations(ctx context.Context, name string, includeScratch bool) error {
	s := r.session
	r.logger.Debugw("checking locations", "file_name", name)

	sourceLocs, err := s.source.LocateFile(ctx, name)
	if err != nil {
		return fmt.Errorf("locate %s in source: %w", name, err)
	}

	targetLocs, err := s.target.LocateFile(ctx, name)
	if err != nil {
		if errors.IsNotFoundError(err) {
			r.logger.Warnw("unable to check locations, file may not be declared", "file_name", name)
			s.stats.Locations.NotDeclared++
			s.recordInvalid(name)
			return errors.NewNotDeclaredError("file not declared in target catalog", name)
		}
		return fmt.Errorf("locate %s in target: %w", name, err)
	}

	known := setutil.NewStringSet()
	for _, l := range targetLocs {
		known.Add(l.FullPath)
	}

	if len(sourceLocs) == 0 {
		r.logger.Debugw("no locations found", "file_name", name)
	}
	for _, loc := range sourceLocs {
		if loc.IsScratch(s.opts.ScratchMarker) && !includeScratch {
			r.logger.Debugw("skipping scratch location", "file_name", name, "full_path", loc.FullPath)
			continue
		}
		if known.Has(loc.FullPath) {
			continue
		}

		r.logger.Infow("adding location in target", "file_name", name, "location", loc.Location)
		if err := s.target.AddFileLocation(ctx, name, loc.Location); err != nil {
			return fmt.Errorf("add location %s of %s: %w", loc.Location, name, err)
		}
		known.Add(loc.FullPath)
		s.stats.Locations.Added++
	}
	return nil
}

// Run reconciles the locations of every file with a physical location that
// sel picks, for up to sel.Rounds() rounds.
func (r *LocationReconciler) Run(ctx context.Context, sel query.Selection, includeScratch bool) error {
	s := r.session
	dims := sel.LocationDimensions()
	r.logger.Infow("reconciling locations", "dimensions", dims, "include_scratch", includeScratch)

	for round := 1; round <= sel.Rounds(); round++ {
		files, err := s.source.ListFiles(ctx, dims)
		if err != nil {
			return fmt.Errorf("list source files: %w", err)
		}
		if len(files) == 0 {
			r.logger.Infow("no more files", "round", round)
			break
		}
		s.stats.Locations.Queried += len(files)

		for _, name := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.ReconcileLocations(ctx, name, includeScratch); err != nil {
				if !errors.IsNotDeclaredError(err) {
					s.stats.Locations.Failed++
				}
				r.logger.Warnw("locations not reconciled", "file_name", name, "kind", errors.TypeOf(err), "error", err)
			}
		}
	}
	return nil
}
