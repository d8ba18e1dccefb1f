package models

import (
	"time"

	"gorm.io/datatypes"
)

// MetadataTemplate is an admin-managed bundle of security bricks that can be stamped onto
// commercial references.
type MetadataTemplate struct {
	ID             uint                        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name           string                      `gorm:"size:255;not null" json:"name"`
	DBBricks       datatypes.JSONSlice[string] `gorm:"column:db_bricks" json:"db_bricks"`
	SEBricks       datatypes.JSONSlice[string] `gorm:"column:se_bricks" json:"se_bricks"`
	Chips          datatypes.JSONSlice[string] `json:"chips"`
	ITStack        datatypes.JSONSlice[string] `gorm:"column:it_stack" json:"it_stack"`
	EncryptionLibs datatypes.JSONSlice[string] `json:"encryption_libs"`
	SecureBoot     YesNo                       `gorm:"type:varchar(3);not null" json:"secure_boot"`
}

// ProductMetadata holds a copy of a template's values taken when it was assigned. Later
// template edits do not touch existing rows.
type ProductMetadata struct {
	ID             uint                        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ReferenceID    uint                        `gorm:"not null;index" json:"reference_id"`
	TemplateID     uint                        `gorm:"not null;index" json:"template_id"`
	DBBricks       datatypes.JSONSlice[string] `gorm:"column:db_bricks" json:"db_bricks"`
	SEBricks       datatypes.JSONSlice[string] `gorm:"column:se_bricks" json:"se_bricks"`
	Chips          datatypes.JSONSlice[string] `json:"chips"`
	ITStack        datatypes.JSONSlice[string] `gorm:"column:it_stack" json:"it_stack"`
	EncryptionLibs datatypes.JSONSlice[string] `json:"encryption_libs"`
	SecureBoot     YesNo                       `gorm:"type:varchar(3);not null" json:"secure_boot"`
	CreatedAt      time.Time                   `json:"created_at"`
}

func (ProductMetadata) TableName() string { return "product_metadata" }

// ProductMetadataView is a metadata row joined with its reference and product.
type ProductMetadataView struct {
	ProductMetadata
	ReferenceNumber string `json:"reference_number"`
	ProductName     string `json:"product_name"`
}
