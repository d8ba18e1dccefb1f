package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"compliance-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequirementInput struct {
	Framework models.Framework `json:"framework" validate:"required"`
	Text      string           `json:"text" validate:"required,min=3"`
}

func (l *Ledger) CreateRequirement(ctx context.Context, in RequirementInput) (models.RegulatoryRequirement, error) {
	const op = "create_requirement"
	in.Text = strings.TrimSpace(in.Text)
	if err := l.check(in); err != nil {
		return models.RegulatoryRequirement{}, l.fail(op, err)
	}
	if !in.Framework.Valid() {
		return models.RegulatoryRequirement{}, l.fail(op, invalid("framework", fmt.Sprintf("unknown framework %q", in.Framework)))
	}

	var req models.RegulatoryRequirement
	err := l.transactWithRetry(ctx, op, "requirement", func(tx *gorm.DB) error {
		id, err := nextID(tx, tableRequirements)
		if err != nil {
			return err
		}
		req = models.RegulatoryRequirement{ID: id, Framework: in.Framework, Text: in.Text}
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "requirement", req.ID, "create", fmt.Sprintf("Added %s requirement", req.Framework))
	})
	if err != nil {
		return models.RegulatoryRequirement{}, err
	}
	return req, nil
}

// ListRequirements returns the catalog, optionally restricted to one framework.
func (l *Ledger) ListRequirements(ctx context.Context, framework models.Framework) ([]models.RegulatoryRequirement, error) {
	if framework != "" && !framework.Valid() {
		return nil, invalid("framework", fmt.Sprintf("unknown framework %q", framework))
	}
	q := l.db.WithContext(ctx).Order("id asc")
	if framework != "" {
		q = q.Where("framework = ?", framework)
	}
	var reqs []models.RegulatoryRequirement
	err := q.Find(&reqs).Error
	return reqs, l.read("list_requirements", "requirement", err)
}

type AssessmentInput struct {
	ProductID          uint
	RequirementID      uint
	Status             models.AssessmentStatus
	StartDate          *time.Time
	EndDate            *time.Time
	CoveredByProductID *uint
}

// row validates the conditional fields and builds the row to store. Fields that do not
// apply to the status are cleared: leaving Implementing drops the schedule, leaving
// Covered by Another Product drops the covering product.
func (in AssessmentInput) row() (models.RequirementAssessment, error) {
	if !in.Status.Valid() {
		return models.RequirementAssessment{}, invalid("status", fmt.Sprintf("unknown status %q", in.Status))
	}

	row := models.RequirementAssessment{
		ProductID:     in.ProductID,
		RequirementID: in.RequirementID,
		Status:        in.Status,
	}

	if in.Status.NeedsSchedule() {
		start, end := dateOnly(in.StartDate), dateOnly(in.EndDate)
		if start == nil {
			return models.RequirementAssessment{}, invalid("start_date", fmt.Sprintf("is required when status is %s", in.Status))
		}
		if end == nil {
			return models.RequirementAssessment{}, invalid("end_date", fmt.Sprintf("is required when status is %s", in.Status))
		}
		if end.Before(*start) {
			return models.RequirementAssessment{}, invalid("end_date", "must not be before start_date")
		}
		row.StartDate, row.EndDate = start, end
	}

	if in.Status == models.StatusCoveredByAnotherProduct {
		if in.CoveredByProductID == nil || *in.CoveredByProductID == 0 {
			return models.RequirementAssessment{}, invalid("covered_by_product_id", "is required when status is Covered by Another Product")
		}
		if *in.CoveredByProductID == in.ProductID {
			return models.RequirementAssessment{}, invalid("covered_by_product_id", "must reference a different product")
		}
		covering := *in.CoveredByProductID
		row.CoveredByProductID = &covering
	}

	return row, nil
}

// UpsertAssessment writes the status of one product and requirement cell, inserting it on
// first assessment and overwriting every field afterwards.
func (l *Ledger) UpsertAssessment(ctx context.Context, in AssessmentInput) (models.RequirementAssessment, error) {
	const op = "upsert_assessment"
	row, err := in.row()
	if err != nil {
		return models.RequirementAssessment{}, l.fail(op, err)
	}
	row.UpdatedAt = l.now().UTC()

	err = l.transactWithRetry(ctx, op, "assessment", func(tx *gorm.DB) error {
		if err := productExists(tx, row.ProductID); err != nil {
			return err
		}
		if err := requirementExists(tx, row.RequirementID); err != nil {
			return err
		}
		if row.CoveredByProductID != nil {
			if err := productExists(tx, *row.CoveredByProductID); err != nil {
				return err
			}
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "requirement_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "start_date", "end_date", "covered_by_product_id", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "assessment", row.ProductID, "upsert",
			fmt.Sprintf("Requirement %d set to %s", row.RequirementID, row.Status))
	})
	if err != nil {
		return models.RequirementAssessment{}, err
	}
	return row, nil
}

// AssessmentItem is one cell of a product's gap matrix.
type AssessmentItem struct {
	Requirement models.RegulatoryRequirement `json:"requirement"`
	Assessment  models.RequirementAssessment `json:"assessment"`
}

type FrameworkAssessment struct {
	Framework models.Framework `json:"framework"`
	Items     []AssessmentItem `json:"items"`
}

// ListAssessments builds the gap matrix of a product: every catalog requirement grouped by
// framework, with requirements never assessed reported as Not Yet Assessed.
func (l *Ledger) ListAssessments(ctx context.Context, productID uint) ([]FrameworkAssessment, error) {
	const op = "list_assessments"
	db := l.db.WithContext(ctx)
	if err := productExists(db, productID); err != nil {
		return nil, l.read(op, "product", err)
	}

	var reqs []models.RegulatoryRequirement
	if err := db.Order("id asc").Find(&reqs).Error; err != nil {
		return nil, l.read(op, "requirement", err)
	}
	var rows []models.RequirementAssessment
	if err := db.Where("product_id = ?", productID).Find(&rows).Error; err != nil {
		return nil, l.read(op, "assessment", err)
	}

	byReq := make(map[uint]models.RequirementAssessment, len(rows))
	for _, r := range rows {
		byReq[r.RequirementID] = r
	}
	byFramework := make(map[models.Framework][]AssessmentItem)
	for _, req := range reqs {
		a, ok := byReq[req.ID]
		if !ok {
			a = models.RequirementAssessment{ProductID: productID, RequirementID: req.ID, Status: models.StatusNotYetAssessed}
		}
		byFramework[req.Framework] = append(byFramework[req.Framework], AssessmentItem{Requirement: req, Assessment: a})
	}

	matrix := make([]FrameworkAssessment, 0, len(models.Frameworks))
	for _, fw := range models.Frameworks {
		matrix = append(matrix, FrameworkAssessment{Framework: fw, Items: byFramework[fw]})
	}
	return matrix, nil
}

func requirementExists(tx *gorm.DB, id uint) error {
	var req models.RegulatoryRequirement
	err := tx.Select("id").First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("requirement", id)
	}
	return err
}
