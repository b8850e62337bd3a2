package repository

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/mappers"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/models"
	"github.com/sbn-software/samsync/internal/shared/db"
	"github.com/sbn-software/samsync/internal/shared/errors"
)

func (r *CatalogRepositoryImpl) ListDefinitions(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.scoped(ctx).Model(&models.DefinitionModel{}).Order("name").Pluck("name", &names).Error; err != nil {
		r.logger.Errorw("failed to list definitions", "error", err)
		return nil, errors.NewRemoteError("failed to list definitions", err)
	}
	return names, nil
}

func (r *CatalogRepositoryImpl) DescribeDefinition(ctx context.Context, name string) (*catalog.Definition, error) {
	var model models.DefinitionModel
	if err := r.scoped(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("definition not found", name)
		}
		r.logger.Errorw("failed to describe definition", "error", err, "definition", name)
		return nil, errors.NewRemoteError("failed to describe definition", err)
	}
	return mappers.ToDefinition(&model), nil
}

func (r *CatalogRepositoryImpl) CreateDefinition(ctx context.Context, def *catalog.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	var count int64
	if err := r.scoped(ctx).Model(&models.DefinitionModel{}).Where("name = ?", def.Name).Count(&count).Error; err != nil {
		return errors.NewRemoteError("failed to check definition", err)
	}
	if count > 0 {
		return errors.NewConflictError("definition already exists", def.Name)
	}

	model := mappers.ToDefinitionModel(r.experiment, def)
	if err := db.Conn(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create definition", "error", err, "definition", def.Name)
		return errors.NewRemoteError("failed to create definition", err)
	}

	r.logger.Infow("definition created", "definition_id", model.ID, "definition", def.Name)
	return nil
}
