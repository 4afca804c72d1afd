package dbhelper

import (
	"log"

	"lookbookapi/models"

	"gorm.io/gorm"
)

func SetupCleaner(db *gorm.DB) func() {

	return func() {

		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PrecomputedLook{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CompatibilityEdge{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{})

	}
}

func Migrate(db *gorm.DB, model interface{}) {
	err := db.AutoMigrate(model)
	if err != nil {
		log.Printf("Error while migrating %s", model)
		log.Fatal(err)
	}
}
