package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/sbn-software/samsync/internal/shared/constants"
)

// UserModel is a catalog account. Groups and GridSubjects are JSON string lists.
type UserModel struct {
	ID           uint   `gorm:"primarykey"`
	Experiment   string `gorm:"not null;size:64;uniqueIndex:idx_users_experiment_username,priority:1"`
	Username     string `gorm:"not null;size:100;uniqueIndex:idx_users_experiment_username,priority:2"`
	FirstName    string `gorm:"size:100"`
	LastName     string `gorm:"size:100"`
	Email        string `gorm:"size:255"`
	Groups       datatypes.JSON
	GridSubjects datatypes.JSON
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return constants.TableUsers
}

// All returns every catalog model, in dependency order.
func All() []interface{} {
	return []interface{}{
		&FileModel{},
		&FileLocationModel{},
		&DefinitionModel{},
		&UserModel{},
	}
}
