package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/mappers"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/models"
	"github.com/sbn-software/samsync/internal/shared/db"
	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

// CatalogRepositoryImpl is a catalog kept in a SQL database. Several catalog
// instances may share one database; rows are keyed by experiment.
type CatalogRepositoryImpl struct {
	db         *gorm.DB
	experiment string
	mapper     mappers.FileMapper
	logger     logger.Interface
}

// Ensure CatalogRepositoryImpl implements catalog.Catalog
var _ catalog.Catalog = (*CatalogRepositoryImpl)(nil)

func NewCatalogRepository(db *gorm.DB, experiment string, logger logger.Interface) *CatalogRepositoryImpl {
	return &CatalogRepositoryImpl{
		db:         db,
		experiment: experiment,
		mapper:     mappers.NewFileMapper(),
		logger:     logger,
	}
}

func (r *CatalogRepositoryImpl) Experiment() string {
	return r.experiment
}

// scoped returns the connection for ctx restricted to this catalog instance.
func (r *CatalogRepositoryImpl) scoped(ctx context.Context) *gorm.DB {
	return db.Conn(ctx, r.db).Scopes(db.ForExperiment(r.experiment))
}

func (r *CatalogRepositoryImpl) findFile(ctx context.Context, name string) (*models.FileModel, error) {
	var model models.FileModel
	if err := r.scoped(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("file not found", name)
		}
		r.logger.Errorw("failed to get file", "error", err, "file_name", name)
		return nil, errors.NewRemoteError("failed to get file", err)
	}
	return &model, nil
}

// fileIDs maps the declared files among names to their ids.
func (r *CatalogRepositoryImpl) fileIDs(ctx context.Context, names []string) (map[string]uint, error) {
	ids := make(map[string]uint, len(names))
	if len(names) == 0 {
		return ids, nil
	}
	var rows []models.FileModel
	if err := r.scoped(ctx).Select("id", "name").Where("name IN ?", names).Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to resolve file ids", "error", err, "count", len(names))
		return nil, errors.NewRemoteError("failed to resolve file ids", err)
	}
	for _, row := range rows {
		ids[row.Name] = row.ID
	}
	return ids, nil
}

func parentNames(md catalog.Metadata) []string {
	parents := md.Parents()
	names := make([]string, 0, len(parents))
	for _, p := range parents {
		if p.FileName != "" {
			names = append(names, p.FileName)
		}
	}
	return names
}

func (r *CatalogRepositoryImpl) toMetadata(ctx context.Context, model *models.FileModel) (catalog.Metadata, error) {
	md, err := r.mapper.ToMetadata(model, nil)
	if err != nil {
		return nil, errors.NewInternalError("corrupt file metadata", err.Error())
	}
	ids, err := r.fileIDs(ctx, parentNames(md))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return md, nil
	}
	md, err = r.mapper.ToMetadata(model, ids)
	if err != nil {
		return nil, errors.NewInternalError("corrupt file metadata", err.Error())
	}
	return md, nil
}

func (r *CatalogRepositoryImpl) GetFileMetadata(ctx context.Context, name string) (catalog.Metadata, error) {
	model, err := r.findFile(ctx, name)
	if err != nil {
		return nil, err
	}
	return r.toMetadata(ctx, model)
}

// DeclareFile creates a file record. Every parent must already be declared.
func (r *CatalogRepositoryImpl) DeclareFile(ctx context.Context, md catalog.Metadata) error {
	name := md.FileName()
	if name == "" {
		return errors.NewValidationError("file_name is required to declare a file")
	}

	var count int64
	if err := r.scoped(ctx).Model(&models.FileModel{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return errors.NewRemoteError("failed to check file", err)
	}
	if count > 0 {
		return errors.NewConflictError("file already declared", name)
	}

	parents := parentNames(md)
	ids, err := r.fileIDs(ctx, parents)
	if err != nil {
		return err
	}
	for _, p := range parents {
		if _, ok := ids[p]; !ok {
			return errors.NewNotFoundError("parent not declared", p)
		}
	}

	model, err := r.mapper.ToModel(r.experiment, md)
	if err != nil {
		return errors.NewValidationError("invalid metadata", err.Error())
	}
	if err := db.Conn(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to declare file", "error", err, "file_name", name)
		return errors.NewRemoteError("failed to declare file", err)
	}

	r.logger.Debugw("file declared", "file_id", model.ID, "file_name", name)
	return nil
}

// ModifyFileMetadata merges md into the stored metadata of the file.
func (r *CatalogRepositoryImpl) ModifyFileMetadata(ctx context.Context, name string, md catalog.Metadata) error {
	model, err := r.findFile(ctx, name)
	if err != nil {
		return err
	}
	return r.merge(ctx, model, md)
}

func (r *CatalogRepositoryImpl) merge(ctx context.Context, model *models.FileModel, fields catalog.Metadata) error {
	current, err := r.mapper.ToMetadata(model, nil)
	if err != nil {
		return errors.NewInternalError("corrupt file metadata", err.Error())
	}
	for k, v := range fields {
		current[k] = v
	}
	encoded, err := r.mapper.EncodeFields(current)
	if err != nil {
		return errors.NewValidationError("invalid metadata", err.Error())
	}
	if err := db.Conn(ctx, r.db).Model(model).Update("metadata", encoded).Error; err != nil {
		r.logger.Errorw("failed to modify file metadata", "error", err, "file_name", model.Name)
		return errors.NewRemoteError("failed to modify file metadata", err)
	}
	return nil
}

// ModifyMetadataBulk applies all updates in one transaction; a missing file
// rolls the whole batch back.
func (r *CatalogRepositoryImpl) ModifyMetadataBulk(ctx context.Context, updates []catalog.MetadataUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		for _, u := range updates {
			model, err := r.findFile(txCtx, u.FileName)
			if err != nil {
				return err
			}
			if err := r.merge(txCtx, model, u.Fields); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.IsAppError(err) {
			return err
		}
		return errors.NewRemoteError(fmt.Sprintf("failed to modify %d files", len(updates)), err)
	}

	r.logger.Debugw("bulk metadata update applied", "count", len(updates))
	return nil
}
