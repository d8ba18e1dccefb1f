package ledger

import (
	"context"
	"fmt"
	"strings"

	"compliance-ledger/internal/models"

	"gorm.io/gorm"
)

type ReferenceInput struct {
	ReferenceNumber string `json:"reference_number" validate:"required,max=128"`
}

func (l *Ledger) CreateCommercialReference(ctx context.Context, productID uint, in ReferenceInput) (models.CommercialReference, error) {
	const op = "create_reference"
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	if err := l.check(in); err != nil {
		return models.CommercialReference{}, l.fail(op, err)
	}

	ref := models.CommercialReference{ProductID: productID, ReferenceNumber: in.ReferenceNumber}
	err := l.transact(ctx, op, "commercial reference", func(tx *gorm.DB) error {
		if err := productExists(tx, productID); err != nil {
			return err
		}
		if err := tx.Create(&ref).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "commercial_reference", ref.ID, "create",
			fmt.Sprintf("Added reference %s to product %d", ref.ReferenceNumber, productID))
	})
	if err != nil {
		return models.CommercialReference{}, err
	}
	return ref, nil
}

// ListCommercialReferences returns every reference with its product, for the assignment
// picker ("product → reference").
func (l *Ledger) ListCommercialReferences(ctx context.Context) ([]models.CommercialReference, error) {
	var refs []models.CommercialReference
	err := l.db.WithContext(ctx).
		Preload("Product").
		Order("product_id asc, id asc").
		Find(&refs).Error
	return refs, l.read("list_references", "commercial reference", err)
}

func (l *Ledger) ListProductReferences(ctx context.Context, productID uint) ([]models.CommercialReference, error) {
	db := l.db.WithContext(ctx)
	if err := productExists(db, productID); err != nil {
		return nil, l.read("list_product_references", "product", err)
	}
	var refs []models.CommercialReference
	err := db.Where("product_id = ?", productID).Order("id asc").Find(&refs).Error
	return refs, l.read("list_product_references", "commercial reference", err)
}
