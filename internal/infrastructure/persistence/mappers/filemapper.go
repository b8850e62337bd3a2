package mappers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/infrastructure/persistence/models"
)

// FileMapper handles the conversion between file metadata and persistence models
type FileMapper interface {
	// ToMetadata converts a persistence model to catalog metadata. parentIDs
	// maps declared parent names to their file ids.
	ToMetadata(model *models.FileModel, parentIDs map[string]uint) (catalog.Metadata, error)

	// ToModel converts metadata to a persistence model. Catalog-internal keys
	// are dropped.
	ToModel(experiment string, md catalog.Metadata) (*models.FileModel, error)

	// EncodeFields serializes the free-form part of md.
	EncodeFields(md catalog.Metadata) (datatypes.JSON, error)
}

type fileMapper struct{}

// NewFileMapper creates a new file mapper
func NewFileMapper() FileMapper {
	return &fileMapper{}
}

func (m *fileMapper) ToMetadata(model *models.FileModel, parentIDs map[string]uint) (catalog.Metadata, error) {
	if model == nil {
		return nil, nil
	}

	md := catalog.Metadata{}
	if len(model.Metadata) > 0 {
		dec := json.NewDecoder(bytes.NewReader(model.Metadata))
		dec.UseNumber()
		if err := dec.Decode(&md); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata of %s: %w", model.Name, err)
		}
	}

	md[catalog.KeyFileName] = model.Name
	md[catalog.KeyFileID] = json.Number(strconv.FormatUint(uint64(model.ID), 10))
	md[catalog.KeyCreateDate] = model.CreatedAt.UTC().Format(time.RFC3339)
	if !model.UpdatedAt.IsZero() && !model.UpdatedAt.Equal(model.CreatedAt) {
		md[catalog.KeyUpdateDate] = model.UpdatedAt.UTC().Format(time.RFC3339)
	}

	if list, ok := md[catalog.KeyParents].([]any); ok {
		for _, item := range list {
			p, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := p[catalog.KeyFileName].(string)
			if id, ok := parentIDs[name]; ok {
				p[catalog.KeyFileID] = json.Number(strconv.FormatUint(uint64(id), 10))
			}
		}
	}
	return md, nil
}

func (m *fileMapper) ToModel(experiment string, md catalog.Metadata) (*models.FileModel, error) {
	fields, err := m.EncodeFields(md)
	if err != nil {
		return nil, err
	}
	return &models.FileModel{
		Experiment: experiment,
		Name:       md.FileName(),
		Metadata:   fields,
	}, nil
}

func (m *fileMapper) EncodeFields(md catalog.Metadata) (datatypes.JSON, error) {
	fields := md.Clone()
	if fields == nil {
		fields = catalog.Metadata{}
	}
	fields.Without(catalog.KeyFileName).Without(catalog.InternalKeys...)
	fields.StripParentIDs()

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return datatypes.JSON(data), nil
}

// LocationFullPath resolves a location string to the path identifying it
// across catalogs: tape locations carry a "(cookie@volume)" suffix that is
// dropped.
func LocationFullPath(location string) string {
	if i := strings.LastIndex(location, "("); i > 0 && strings.HasSuffix(location, ")") {
		return location[:i]
	}
	return location
}

// ToLocation converts a persistence model to a domain location.
func ToLocation(fileName string, model *models.FileLocationModel) catalog.Location {
	return catalog.Location{
		FileName: fileName,
		Location: model.Location,
		FullPath: model.FullPath,
		Type:     catalog.LocationType(model.Type),
	}
}
