// Package storage opens the sqlite database shared by the model version and
// prediction history stores.
package storage

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a gorm handle for the database at path, creating the file when
// it does not exist. gorm's own logging is silenced; the application logs
// through zap.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	return db, nil
}
