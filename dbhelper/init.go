package dbhelper

import (
	"fmt"
	"os"
	"time"

	"lookbookapi/models"
	"lookbookapi/services"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupDB() *gorm.DB {

	db, err := gorm.Open(postgres.Open(
		fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			services.GetEnv("DB_USERNAME", ""),
			services.GetEnv("DB_PASSWORD", ""),
			services.GetEnv("DB_HOST", ""),
			services.GetEnv("DB_PORT", ""),
			services.GetEnv("DB_NAME", ""),
		),
	), &gorm.Config{})
	sqlDB, err := db.DB()
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(300)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)
	db.Logger.LogMode(logger.LogLevel(logger.Info))
	if err != nil {
		panic(err)
	}
	db.Raw("CREATE EXTENSION if not exists pgcrypto;")
	Migrate(db, &models.Product{})
	Migrate(db, &models.CompatibilityEdge{})
	Migrate(db, &models.PrecomputedLook{})

	return db
}

func SetupTestDB() *gorm.DB {
	os.Setenv("DB_USERNAME", "lookbook")
	os.Setenv("DB_PASSWORD", "lookbook")
	os.Setenv("DB_HOST", "localhost")
	os.Setenv("DB_NAME", "lookbook")
	os.Setenv("DB_PORT", "5432")
	return SetupDB()
}
