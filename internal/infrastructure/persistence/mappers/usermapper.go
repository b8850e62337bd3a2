package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/models"
)

// ToUser converts a persistence model to a domain user.
func ToUser(model *models.UserModel) (*catalog.User, error) {
	groups, err := DecodeStrings(model.Groups)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal groups of %s: %w", model.Username, err)
	}
	subjects, err := DecodeStrings(model.GridSubjects)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal grid subjects of %s: %w", model.Username, err)
	}
	return &catalog.User{
		Username:     model.Username,
		FirstName:    model.FirstName,
		LastName:     model.LastName,
		Email:        model.Email,
		Groups:       groups,
		GridSubjects: subjects,
	}, nil
}

// ToUserModel converts a domain user to a persistence model.
func ToUserModel(experiment string, user *catalog.User) (*models.UserModel, error) {
	groups, err := EncodeStrings(user.Groups)
	if err != nil {
		return nil, err
	}
	subjects, err := EncodeStrings(user.GridSubjects)
	if err != nil {
		return nil, err
	}
	return &models.UserModel{
		Experiment:   experiment,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		Groups:       groups,
		GridSubjects: subjects,
	}, nil
}

// DecodeStrings decodes a JSON string list; an empty column is an empty list.
func DecodeStrings(data datatypes.JSON) ([]string, error) {
	out := []string{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeStrings(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return datatypes.JSON(data), nil
}

// ToDefinition converts a persistence model to a domain definition.
func ToDefinition(model *models.DefinitionModel) *catalog.Definition {
	return &catalog.Definition{
		Name:        model.Name,
		Dimensions:  model.Dimensions,
		Username:    model.Username,
		Group:       model.GroupName,
		Description: model.Description,
	}
}

func ToDefinitionModel(experiment string, def *catalog.Definition) *models.DefinitionModel {
	return &models.DefinitionModel{
		Experiment:  experiment,
		Name:        def.Name,
		Dimensions:  def.Dimensions,
		Username:    def.Username,
		GroupName:   def.Group,
		Description: def.Description,
	}
}
