// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"clickmill/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	// Core application models
	if err := db.AutoMigrate(
		&models.User{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Power{},
		&models.UserPower{},
	); err != nil {
		log.Fatalf("❌ Failed to run core migrations: %v", err)
	}

	log.Println("✅ Core migrations completed")

	// Create indexes for core tables
	createCoreIndexes()

	// Seed the reward catalog
	if err := SeedCatalog(db); err != nil {
		log.Fatalf("❌ Failed to seed reward catalog: %v", err)
	}

	log.Println("✅ All migrations completed successfully")
}

// createCoreIndexes creates indexes for core tables
func createCoreIndexes() {
	db := GetDB()
	log.Println("Creating core indexes...")

	// User indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_click_total ON users(click_total DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_guest ON users(is_guest)")

	// Achievement indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_achievements_trigger ON achievements(trigger_type)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_user_achievements_notified ON user_achievements(user_id, notified)")

	// Power indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_user_powers_user ON user_powers(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_user_powers_active ON user_powers(user_id, is_active)")

	log.Println("✅ Core indexes created successfully")
}
