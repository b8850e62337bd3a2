package db

import (
	"gorm.io/gorm"
)

// ForExperiment is a GORM scope restricting a query to the rows of one
// catalog instance.
//
// Example usage:
//
//	db.Model(&models.FileModel{}).Scopes(db.ForExperiment("sbn")).Count(&count)
func ForExperiment(experiment string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("experiment = ?", experiment)
	}
}

// Limit applies a row limit when n is positive.
func Limit(n int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if n > 0 {
			return db.Limit(n)
		}
		return db
	}
}
