package database

import (
	"fmt"
	"sync"

	"github.com/waassist/connector/pkg/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	db          *gorm.DB
	err         error
	client_once sync.Once
)

func InitDB(dbc config.Database) {
	client_once.Do(func() {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbc.Host, dbc.Port, dbc.User, dbc.Pass, dbc.Name)
		db, err = gorm.Open(
			postgres.New(
				postgres.Config{
					DSN:                  dsn,
					PreferSimpleProtocol: true,
				},
			),
			&gorm.Config{
				DisableForeignKeyConstraintWhenMigrating: false,
				TranslateError:                           true,
			},
		)
		if err != nil {
			zap.L().Error("failed to initialize database", zap.Error(err))
			panic(err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			zap.L().Error("failed to get underlying database connection", zap.Error(err))
			panic(err)
		}

		if err := sqlDB.Ping(); err != nil {
			zap.L().Error("failed to ping database", zap.Error(err))
			panic(err)
		}

		zap.L().Info("database connection established")

		if err := AutoMigrate(db); err != nil {
			zap.L().Error("migration failed", zap.Error(err))
			panic(err)
		}

		zap.L().Info("database migrations completed")
	})
}

func DBClient() *gorm.DB {
	if db == nil {
		zap.L().Panic("Postgres is not initialized. Call InitDB first.")
	}
	return db
}
