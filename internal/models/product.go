package models

import "time"

type Product struct {
	ID                    uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name                  string `gorm:"size:255;not null" json:"name"`
	PIMLink               string `gorm:"size:512" json:"pim_link"`
	OfferOwner            string `gorm:"size:255" json:"offer_owner"`
	ProductManager        string `gorm:"size:255" json:"product_manager"`
	SecurityAdvisor       string `gorm:"size:255;index" json:"security_advisor"`
	VulnerabilityHandler  string `gorm:"size:255;index" json:"vulnerability_handler"`
	CertificationEngineer string `gorm:"size:255" json:"certification_engineer"`
	VP                    string `gorm:"column:vp;size:255" json:"vp"`
	SVP                   string `gorm:"column:svp;size:255" json:"svp"`

	// written only by the ledger's CRA plan update and bulk import
	CRAPlan               CRAPlan    `gorm:"column:cra_plan;type:varchar(32)" json:"cra_plan"`
	CRAEoLDate            *time.Time `gorm:"column:cra_eol_date;type:date" json:"cra_eol_date,omitempty"`
	CRAStopSellVPApproved YesNo      `gorm:"column:cra_stop_sell_vp_approved;type:varchar(3)" json:"cra_stop_sell_vp_approved"`
	CRAStopSellFlagged    YesNo      `gorm:"column:cra_stop_sell_flagged;type:varchar(3);index" json:"cra_stop_sell_flagged"`

	References []CommercialReference `json:"references,omitempty"`
}

type CommercialReference struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	ProductID       uint   `gorm:"not null;index" json:"product_id"`
	ReferenceNumber string `gorm:"size:128;not null;index" json:"reference_number"`

	Product *Product `json:"product,omitempty"`
}
