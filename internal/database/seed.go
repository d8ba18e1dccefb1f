package database

import (
	"compliance-ledger/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	Username string
	Password string
	Role     models.UserRole
}

// Seed creates the default admin, the demo accounts and the starter requirement catalog.
// Existing rows are left alone.
func Seed(db *gorm.DB, adminUsername, adminPassword string, log *zap.Logger) error {
	var admins int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return err
	}

	users := []seedUser{
		{Username: "editor@ledger.local", Password: "Editor123!", Role: models.RoleEditor},
		{Username: "viewer@ledger.local", Password: "Viewer123!", Role: models.RoleViewer},
	}
	if admins == 0 {
		users = append([]seedUser{{Username: adminUsername, Password: adminPassword, Role: models.RoleAdmin}}, users...)
	}

	for _, u := range users {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			log.Warn("failed to check seed user", zap.String("username", u.Username), zap.Error(err))
			continue
		}
		if count > 0 {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := models.User{Username: u.Username, PasswordHash: string(hash), Role: u.Role}
		if err := db.Create(&user).Error; err != nil {
			log.Warn("failed to create seed user", zap.String("username", u.Username), zap.Error(err))
			continue
		}
		log.Info("created seed user", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	}

	return seedRequirements(db, log)
}

var starterRequirements = []models.RegulatoryRequirement{
	{ID: 1, Framework: models.FrameworkCRA, Text: "Device must support secure boot."},
	{ID: 2, Framework: models.FrameworkRED, Text: "Maintain network integrity."},
	{ID: 3, Framework: models.FrameworkNIS2, Text: "Logging must be tamper-proof."},
	{ID: 4, Framework: models.FrameworkCRA, Text: "Provide security updates for the expected product lifetime."},
	{ID: 5, Framework: models.FrameworkCRA, Text: "Report actively exploited vulnerabilities within 24 hours."},
	{ID: 6, Framework: models.FrameworkEUDataAct, Text: "Make product data accessible to the user."},
	{ID: 7, Framework: models.FrameworkIEC62443_1, Text: "Define security levels for zones and conduits."},
	{ID: 8, Framework: models.FrameworkIEC62443_2, Text: "Operate a patch management program."},
	{ID: 9, Framework: models.FrameworkIEC62443_3, Text: "Enforce role-based access control on system interfaces."},
}

func seedRequirements(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.RegulatoryRequirement{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	reqs := make([]models.RegulatoryRequirement, len(starterRequirements))
	copy(reqs, starterRequirements)
	if err := db.Create(&reqs).Error; err != nil {
		return err
	}
	log.Info("seeded requirement catalog", zap.Int("count", len(reqs)))
	return nil
}
