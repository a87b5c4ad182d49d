package config

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database selected by DB_DRIVER. MySQL in production,
// SQLite for development and tests.
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")
	dsn := os.Getenv("DATABASE_DSN")

	switch driver {
	case "mysql":
		if dsn == "" {
			dsn = "root:root@tcp(127.0.0.1:3306)/dordoi_food?charset=utf8mb4&parseTime=True&loc=Local"
		}
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		if dsn == "" {
			dsn = "dordoi_food.db"
		}
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
}
