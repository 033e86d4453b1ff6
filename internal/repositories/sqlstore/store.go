// Package sqlstore implements the repositories on top of gorm for postgres
// and mysql.
package sqlstore

import (
	"context"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"gorm.io/gorm"
)

// NewStore migrates the schema and builds the SQL repositories
func NewStore(db *gorm.DB) (*repositories.Store, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &repositories.Store{
		Users:  NewUserRepository(db),
		Prizes: NewPrizeRepository(db),
		Wins:   NewWinRepository(db),
		Close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}

// Migrate creates the users, prizes and wins tables with their indexes
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Prize{},
		&models.WinRecord{},
	)
	return repositories.Wrap("migrate", err)
}
