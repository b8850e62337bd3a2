package repository

import (
	"context"
	stderrors "errors"
	"sort"

	"gorm.io/gorm"

	"github.com/sbn-software/samsync/internal/infrastructure/persistence/models"
	"github.com/sbn-software/samsync/internal/shared/db"
	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/query"
)

const (
	// maxDefinitionDepth bounds defname: indirection while resolving a file list.
	maxDefinitionDepth = 32
	// locationLookupBatch bounds the IN clause of the physical availability check.
	locationLookupBatch = 500
)

// ListFiles supports the dimension subset of the query package: a single
// file, a (possibly nested) definition, or every file, with flag exclusion,
// physical availability and a limit.
func (r *CatalogRepositoryImpl) ListFiles(ctx context.Context, dimensions string) ([]string, error) {
	d, err := query.ParseDimensions(dimensions)
	if err != nil {
		return nil, err
	}
	rows, err := r.matchFiles(ctx, d, 0)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Name
	}
	return names, nil
}

func (r *CatalogRepositoryImpl) matchFiles(ctx context.Context, d *query.Dimensions, depth int) ([]models.FileModel, error) {
	var rows []models.FileModel
	switch {
	case d.FileName != "":
		if err := r.scoped(ctx).Where("name = ?", d.FileName).Find(&rows).Error; err != nil {
			return nil, errors.NewRemoteError("failed to list files", err)
		}
	case d.Definition != "":
		if depth >= maxDefinitionDepth {
			return nil, errors.NewValidationError("definition nesting too deep", d.Definition)
		}
		var def models.DefinitionModel
		if err := r.scoped(ctx).Where("name = ?", d.Definition).First(&def).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.NewNotFoundError("definition not found", d.Definition)
			}
			return nil, errors.NewRemoteError("failed to get definition", err)
		}
		inner, err := query.ParseDimensions(def.Dimensions)
		if err != nil {
			return nil, err
		}
		if rows, err = r.matchFiles(ctx, inner, depth+1); err != nil {
			return nil, err
		}
	default:
		if err := r.scoped(ctx).Order("name").Find(&rows).Error; err != nil {
			return nil, errors.NewRemoteError("failed to list files", err)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	if d.ExcludeKey != "" {
		rows = r.excludeFlagged(rows, d)
	}
	if d.PhysicalOnly() {
		var err error
		if rows, err = r.withLocations(ctx, rows); err != nil {
			return nil, err
		}
	}
	if d.Limit > 0 && len(rows) > d.Limit {
		rows = rows[:d.Limit]
	}
	return rows, nil
}

func (r *CatalogRepositoryImpl) excludeFlagged(rows []models.FileModel, d *query.Dimensions) []models.FileModel {
	kept := rows[:0]
	for i := range rows {
		md, err := r.mapper.ToMetadata(&rows[i], nil)
		if err != nil {
			r.logger.Warnw("skipping file with corrupt metadata", "error", err, "file_name", rows[i].Name)
			continue
		}
		if flag, present, err := md.Flag(d.ExcludeKey); err == nil && present && d.Excludes(int(flag)) {
			continue
		}
		kept = append(kept, rows[i])
	}
	return kept
}

func (r *CatalogRepositoryImpl) withLocations(ctx context.Context, rows []models.FileModel) ([]models.FileModel, error) {
	located := make(map[uint]bool, len(rows))
	for start := 0; start < len(rows); start += locationLookupBatch {
		end := min(start+locationLookupBatch, len(rows))
		ids := make([]uint, 0, end-start)
		for _, row := range rows[start:end] {
			ids = append(ids, row.ID)
		}
		var found []uint
		err := db.Conn(ctx, r.db).Model(&models.FileLocationModel{}).
			Where("file_id IN ?", ids).Distinct().Pluck("file_id", &found).Error
		if err != nil {
			return nil, errors.NewRemoteError("failed to check file locations", err)
		}
		for _, id := range found {
			located[id] = true
		}
	}

	kept := rows[:0]
	for _, row := range rows {
		if located[row.ID] {
			kept = append(kept, row)
		}
	}
	return kept, nil
}
