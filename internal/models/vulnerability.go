package models

import "time"

// VulnerabilityCompliance is one submitted readiness survey for a product.
type VulnerabilityCompliance struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	ProductID           uint       `gorm:"not null;index" json:"product_id"`
	AwareOfCRA          YesNo      `gorm:"column:aware_of_cra;type:varchar(3);not null" json:"aware_of_cra"`
	CRACompliant        YesNo      `gorm:"column:cra_compliant;type:varchar(3);not null" json:"cra_compliant"`
	KEVProcessExists    YesNo      `gorm:"column:kev_process_exists;type:varchar(3);not null" json:"kev_process_exists"`
	DisclosureProcessSE YesNo      `gorm:"column:disclosure_process_se;type:varchar(3);not null" json:"disclosure_process_se"`
	ActionRequired      YesNo      `gorm:"type:varchar(3);not null" json:"action_required"`
	ActionDescription   string     `gorm:"type:text" json:"action_description"`
	FollowUpDate        *time.Time `gorm:"type:date" json:"follow_up_date,omitempty"`
	SupportRequested    YesNo      `gorm:"type:varchar(3);not null" json:"support_requested"`
	SubmittedBy         string     `gorm:"size:255" json:"submitted_by"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (VulnerabilityCompliance) TableName() string { return "vulnerability_compliance" }

// VulnerabilityTracking follows one support request; a nil AnswerDate means it is open.
type VulnerabilityTracking struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ComplianceID      uint       `gorm:"not null;index" json:"compliance_id"`
	ProductID         uint       `gorm:"not null;index" json:"product_id"`
	RequestDate       time.Time  `gorm:"not null" json:"request_date"`
	AnswerDate        *time.Time `json:"answer_date,omitempty"`
	ResponseTimeHours *float64   `json:"response_time_hours,omitempty"`
}

func (VulnerabilityTracking) TableName() string { return "vulnerability_tracking" }
