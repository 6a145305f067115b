// FILE: cmd/seed/main.go
package main

import (
	"log"
	"os"

	"ai-adgen-be/internal/model"
	"ai-adgen-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding Demo Users...")

	users := []model.User{
		{Email: "demo@adgen.local", FullName: "Demo User", Credits: 0},
		{Email: "pro@adgen.local", FullName: "Pro Demo User", Credits: 250},
		{Email: "affiliate@adgen.local", FullName: "Affiliate Partner", Credits: 0},
	}

	for _, u := range users {
		// Check if user with this email already exists
		var existing model.User
		if err := db.Where("email = ?", u.Email).First(&existing).Error; err == nil {
			color.Yellow("User '%s' already exists, skipping...", u.Email)
			continue
		}

		if err := db.Create(&u).Error; err != nil {
			color.Red("Error creating user '%s': %v", u.Email, err)
		} else {
			color.Green("Created user: %s (%s)", u.FullName, u.Email)
		}
	}

	color.Cyan("Seeding completed!")
}
