package database

import (
	"compliance-ledger/internal/models"

	"gorm.io/gorm"
)

// CreateAuditLog records a write in the journal. It runs on the caller's transaction so the
// entry commits or rolls back together with the change it describes.
func CreateAuditLog(tx *gorm.DB, userID *uint, entity string, entityID uint, action, details string) error {
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	return tx.Create(&record).Error
}

// ListAuditLogs returns the newest entries first.
func ListAuditLogs(db *gorm.DB, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Preload("User").Order("created_at desc, id desc").Limit(limit).Find(&logs).Error
	return logs, err
}
