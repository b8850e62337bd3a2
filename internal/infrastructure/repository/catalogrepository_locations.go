package repository

import (
	"context"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/mappers"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/models"
	"github.com/sbn-software/samsync/internal/shared/db"
	"github.com/sbn-software/samsync/internal/shared/errors"
)

func (r *CatalogRepositoryImpl) LocateFile(ctx context.Context, name string) ([]catalog.Location, error) {
	file, err := r.findFile(ctx, name)
	if err != nil {
		return nil, err
	}

	var rows []models.FileLocationModel
	if err := db.Conn(ctx, r.db).Where("file_id = ?", file.ID).Order("id").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to locate file", "error", err, "file_name", name)
		return nil, errors.NewRemoteError("failed to locate file", err)
	}

	locs := make([]catalog.Location, 0, len(rows))
	for i := range rows {
		locs = append(locs, mappers.ToLocation(name, &rows[i]))
	}
	return locs, nil
}

func (r *CatalogRepositoryImpl) AddFileLocation(ctx context.Context, name, location string) error {
	if location == "" {
		return errors.NewValidationError("location is required")
	}
	file, err := r.findFile(ctx, name)
	if err != nil {
		return err
	}

	tx := db.Conn(ctx, r.db)
	var count int64
	if err := tx.Model(&models.FileLocationModel{}).Where("file_id = ? AND location = ?", file.ID, location).Count(&count).Error; err != nil {
		return errors.NewRemoteError("failed to check file location", err)
	}
	if count > 0 {
		return errors.NewConflictError("location already recorded", location)
	}

	fullPath := mappers.LocationFullPath(location)
	model := &models.FileLocationModel{
		FileID:   file.ID,
		Location: location,
		FullPath: fullPath,
		Type:     string(catalog.ClassifyLocation(location, fullPath, "")),
	}
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to add file location", "error", err, "file_name", name, "location", location)
		return errors.NewRemoteError("failed to add file location", err)
	}
	return nil
}

func (r *CatalogRepositoryImpl) RemoveFileLocation(ctx context.Context, name, location string) error {
	file, err := r.findFile(ctx, name)
	if err != nil {
		return err
	}

	result := db.Conn(ctx, r.db).
		Where("file_id = ? AND location = ?", file.ID, location).
		Delete(&models.FileLocationModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to remove file location", "error", result.Error, "file_name", name, "location", location)
		return errors.NewRemoteError("failed to remove file location", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("location not found", location)
	}
	return nil
}
