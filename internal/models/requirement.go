package models

import "time"

type RegulatoryRequirement struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Framework Framework `gorm:"type:varchar(32);not null;index" json:"framework"`
	Text      string    `gorm:"type:text;not null" json:"text"`
}

// RequirementAssessment is keyed by (product, requirement) and is upserted on every
// re-assessment.
type RequirementAssessment struct {
	ProductID          uint             `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	RequirementID      uint             `gorm:"primaryKey;autoIncrement:false" json:"requirement_id"`
	Status             AssessmentStatus `gorm:"type:varchar(32);not null" json:"status"`
	StartDate          *time.Time       `gorm:"type:date" json:"start_date,omitempty"`
	EndDate            *time.Time       `gorm:"type:date" json:"end_date,omitempty"`
	CoveredByProductID *uint            `json:"covered_by_product_id,omitempty"`
	UpdatedAt          time.Time        `json:"updated_at"`
}
