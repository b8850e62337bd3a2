package models

import (
	"time"

	"github.com/sbn-software/samsync/internal/shared/constants"
)

// DefinitionModel is a named, stored dimension query.
type DefinitionModel struct {
	ID          uint   `gorm:"primarykey"`
	Experiment  string `gorm:"not null;size:64;uniqueIndex:idx_definitions_experiment_name,priority:1"`
	Name        string `gorm:"not null;size:255;uniqueIndex:idx_definitions_experiment_name,priority:2"`
	Dimensions  string `gorm:"type:text;not null"`
	Username    string `gorm:"size:100"`
	GroupName   string `gorm:"size:100"`
	Description string `gorm:"size:1000"`
	CreatedAt   time.Time
}

// TableName specifies the table name for GORM
func (DefinitionModel) TableName() string {
	return constants.TableDefinitions
}
