package repository

import (
	"context"
	stderrors "errors"
	"slices"

	"gorm.io/gorm"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/mappers"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/models"
	"github.com/sbn-software/samsync/internal/shared/db"
	"github.com/sbn-software/samsync/internal/shared/errors"
)

func (r *CatalogRepositoryImpl) ListUsers(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.scoped(ctx).Model(&models.UserModel{}).Order("username").Pluck("username", &names).Error; err != nil {
		r.logger.Errorw("failed to list users", "error", err)
		return nil, errors.NewRemoteError("failed to list users", err)
	}
	return names, nil
}

func (r *CatalogRepositoryImpl) findUser(ctx context.Context, username string) (*models.UserModel, error) {
	var model models.UserModel
	if err := r.scoped(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("user not found", username)
		}
		r.logger.Errorw("failed to get user", "error", err, "username", username)
		return nil, errors.NewRemoteError("failed to get user", err)
	}
	return &model, nil
}

func (r *CatalogRepositoryImpl) DescribeUser(ctx context.Context, username string) (*catalog.User, error) {
	model, err := r.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	user, err := mappers.ToUser(model)
	if err != nil {
		return nil, errors.NewInternalError("corrupt user record", err.Error())
	}
	return user, nil
}

// AddUser creates the account only; memberships are added with ModifyUser.
func (r *CatalogRepositoryImpl) AddUser(ctx context.Context, user *catalog.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	var count int64
	if err := r.scoped(ctx).Model(&models.UserModel{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return errors.NewRemoteError("failed to check user", err)
	}
	if count > 0 {
		return errors.NewConflictError("user already exists", user.Username)
	}

	model, err := mappers.ToUserModel(r.experiment, &catalog.User{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	})
	if err != nil {
		return errors.NewValidationError("invalid user", err.Error())
	}
	if err := db.Conn(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to add user", "error", err, "username", user.Username)
		return errors.NewRemoteError("failed to add user", err)
	}

	r.logger.Infow("user added", "user_id", model.ID, "username", user.Username)
	return nil
}

func (r *CatalogRepositoryImpl) ModifyUser(ctx context.Context, username string, mod catalog.UserModification) error {
	if mod.Empty() {
		return nil
	}
	model, err := r.findUser(ctx, username)
	if err != nil {
		return err
	}
	user, err := mappers.ToUser(model)
	if err != nil {
		return errors.NewInternalError("corrupt user record", err.Error())
	}

	for _, g := range mod.AddGroups {
		if !slices.Contains(user.Groups, g) {
			user.Groups = append(user.Groups, g)
		}
	}
	if mod.AddGridSubject != "" && !slices.Contains(user.GridSubjects, mod.AddGridSubject) {
		user.GridSubjects = append(user.GridSubjects, mod.AddGridSubject)
	}

	updated, err := mappers.ToUserModel(r.experiment, user)
	if err != nil {
		return errors.NewValidationError("invalid user", err.Error())
	}
	err = db.Conn(ctx, r.db).Model(model).Updates(map[string]interface{}{
		"groups":        updated.Groups,
		"grid_subjects": updated.GridSubjects,
	}).Error
	if err != nil {
		r.logger.Errorw("failed to modify user", "error", err, "username", username)
		return errors.NewRemoteError("failed to modify user", err)
	}
	return nil
}
