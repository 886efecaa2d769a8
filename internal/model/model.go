// Package model 数据表模型
package model

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// All lists every table model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Folder{},
		&Tag{},
		&Note{},
		&NoteHistory{},
		&NoteTag{},
	}
}

// AutoMigrate creates or updates every table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}
