package db

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	// TranslateError lets callers match gorm.ErrDuplicatedKey when the
	// reservation backstop index trips.
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err = Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.DeviceCategory{},
		&models.Device{},
		&models.TimeSlot{},
		&models.BorrowRequest{},
		&models.BorrowRequestItem{},
		&models.Reservation{},
		&models.HandoverRecord{},
		&models.HandoverItem{},
		&models.MaintenanceLog{},
	); err != nil {
		return err
	}

	// At most one unreleased reservation per (device, date, slot). This is
	// the storage backstop behind the in-transaction conflict check.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_active_per_device_slot
	  ON %s (device_id, borrow_date, time_slot_id)
	  WHERE released_at IS NULL;
	`, models.ReservationTable, models.ReservationTable)).Error; err != nil {
		return err
	}

	// Request lists are almost always filtered by status and date.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_status_date
	  ON %s (status, borrow_date);
	`, models.BorrowRequestTable, models.BorrowRequestTable)).Error; err != nil {
		return err
	}

	return nil
}
