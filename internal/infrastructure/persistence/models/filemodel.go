package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/sbn-software/samsync/internal/shared/constants"
)

// FileModel represents the database persistence model for a declared file.
// Metadata holds the free-form attributes; file_name, file_id and the
// timestamps live in their own columns and are folded back in on read.
type FileModel struct {
	ID         uint   `gorm:"primarykey"`
	Experiment string `gorm:"not null;size:64;uniqueIndex:idx_files_experiment_name,priority:1"`
	Name       string `gorm:"not null;size:255;uniqueIndex:idx_files_experiment_name,priority:2"`
	Metadata   datatypes.JSON
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (FileModel) TableName() string {
	return constants.TableFiles
}

// FileLocationModel is one physical copy of a declared file.
type FileLocationModel struct {
	ID        uint   `gorm:"primarykey"`
	FileID    uint   `gorm:"not null;index:idx_file_locations_file"`
	Location  string `gorm:"not null;size:1024"`
	FullPath  string `gorm:"not null;size:1024"`
	Type      string `gorm:"not null;size:16"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (FileLocationModel) TableName() string {
	return constants.TableFileLocations
}
