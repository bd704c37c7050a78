package main

import (
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"wise-student-be/internal/catalog"
	"wise-student-be/internal/entity"
	"wise-student-be/internal/model"
	"wise-student-be/pkg/database"
)

// Seeds demo accounts for local development: one parent, two students,
// plus an institution-provisioned subscription showing how the
// non-purchasable plan is granted out of band.
func main() {
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

	color.Cyan("🌱 Seeding demo accounts")

	now := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: hashing seed password: %v", err)
	}
	hashStr := string(hash)

	users := []model.User{
		{Id: uuid.New(), Email: "parent@example.com", FullName: "Demo Parent", PasswordHash: &hashStr, Role: "parent", CreatedAt: now, UpdatedAt: now},
		{Id: uuid.New(), Email: "student1@example.com", FullName: "Demo Student One", PasswordHash: &hashStr, Role: "student", CreatedAt: now, UpdatedAt: now},
		{Id: uuid.New(), Email: "student2@example.com", FullName: "Demo Student Two", PasswordHash: &hashStr, Role: "student", CreatedAt: now, UpdatedAt: now},
	}

	for i := range users {
		var existing model.User
		if err := db.Where("email = ?", users[i].Email).First(&existing).Error; err == nil {
			color.Yellow("User %s already exists, skipping", users[i].Email)
			users[i] = existing
			continue
		}
		if err := db.Create(&users[i]).Error; err != nil {
			color.Red("Failed to create %s: %v", users[i].Email, err)
			os.Exit(1)
		}
		color.Green("Created %s", users[i].Email)
	}

	// Institution grant for student2: active, non-expiring, zero amount.
	institution, err := catalog.Resolve(entity.PlanInstitutions)
	if err != nil {
		log.Fatalf("Error: resolving institution plan: %v", err)
	}

	var count int64
	db.Model(&model.Subscription{}).
		Where("user_id = ? AND plan_id = ?", users[2].Id, string(institution.PlanID)).
		Count(&count)
	if count > 0 {
		color.Yellow("Institution subscription already seeded, skipping")
	} else {
		grantedBy := entity.ActorProfile{
			UserId:  users[2].Id,
			Role:    "admin",
			Name:    "Seed Script",
			Context: "institution_grant",
		}
		sub := model.Subscription{
			Id:          uuid.New(),
			UserId:      users[2].Id,
			PlanId:      string(institution.PlanID),
			PlanName:    institution.DisplayName,
			Amount:      0,
			Status:      string(entity.SubscriptionStatusActive),
			StartDate:   &now,
			FeatureSet:  datatypes.NewJSONType(institution.FeatureSet),
			PurchasedBy: datatypes.NewJSONType(&grantedBy),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := db.Create(&sub).Error; err != nil {
			color.Red("Failed to seed institution subscription: %v", err)
			os.Exit(1)
		}
		color.Green("Granted %s to %s", institution.DisplayName, users[2].Email)
	}

	color.Cyan("✅ Seeding complete")
}
