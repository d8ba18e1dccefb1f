package ledger

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	tableProducts        = "products"
	tableTemplates       = "metadata_templates"
	tableProductMetadata = "product_metadata"
	tableRequirements    = "regulatory_requirements"
)

// nextID returns max(id)+1 for table, or 1 when it is empty. It must run inside the
// transaction that performs the insert. On postgres the table is locked against concurrent
// writers until that transaction ends; sqlite runs on a single connection.
func nextID(tx *gorm.DB, table string) (uint, error) {
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("LOCK TABLE ? IN SHARE ROW EXCLUSIVE MODE", clause.Table{Name: table}).Error; err != nil {
			return 0, err
		}
	}

	var next int64
	if err := tx.Table(table).Select("COALESCE(MAX(id), 0) + 1").Scan(&next).Error; err != nil {
		return 0, err
	}
	return uint(next), nil
}
