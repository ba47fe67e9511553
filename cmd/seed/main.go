package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sahilchouksey/course-market-api/config"
	"github.com/sahilchouksey/course-market-api/database"
	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/utils/auth"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	gormDB := store.GetDB().(*gorm.DB)

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("Course Market - Database Seeding")
	fmt.Println(separator)
	fmt.Println()

	result, err := database.RunSeeds(gormDB)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("🎉 Seeding completed successfully!")
	fmt.Println(separator)
	fmt.Println()

	for _, course := range result.Courses {
		fmt.Printf("  course %-4d %-40s price=%.2f %s\n", course.ID, course.Title, course.Price, course.Status)
	}
	fmt.Println()

	if env.JWT_SECRET == "" {
		fmt.Println("JWT_SECRET is not set; skipping development tokens.")
		return
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{Secret: env.JWT_SECRET, Issuer: env.JWT_ISSUER})
	fmt.Println("Development tokens (valid 24h):")
	for _, user := range []*model.User{result.Admin, result.Instructor, result.Student} {
		if user == nil {
			continue
		}
		token, _, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
		if err != nil {
			log.Fatalf("Failed to sign token for %s: %v", user.Email, err)
		}
		fmt.Printf("  %-10s %s\n    %s\n", user.Role, user.Email, token)
	}
}
