package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"compliance-ledger/internal/models"

	"gorm.io/gorm"
)

type SurveyInput struct {
	ProductID           uint         `json:"product_id" validate:"gt=0"`
	AwareOfCRA          models.YesNo `json:"aware_of_cra" validate:"required,oneof=Yes No"`
	CRACompliant        models.YesNo `json:"cra_compliant" validate:"required,oneof=Yes No"`
	KEVProcessExists    models.YesNo `json:"kev_process_exists" validate:"required,oneof=Yes No"`
	DisclosureProcessSE models.YesNo `json:"disclosure_process_se" validate:"required,oneof=Yes No"`
	ActionDescription   string       `json:"action_description"`
	FollowUpDate        *time.Time   `json:"follow_up_date"`
	SupportRequested    models.YesNo `json:"support_requested"`
	SubmittedBy         string       `json:"submitted_by"`
}

// ActionRequired is true unless every answer is Yes.
func ActionRequired(answers ...models.YesNo) bool {
	for _, a := range answers {
		if a != models.Yes {
			return true
		}
	}
	return false
}

func (l *Ledger) surveyRow(in SurveyInput) (models.VulnerabilityCompliance, error) {
	in.ActionDescription = strings.TrimSpace(in.ActionDescription)
	if err := l.check(in); err != nil {
		return models.VulnerabilityCompliance{}, err
	}

	row := models.VulnerabilityCompliance{
		ProductID:           in.ProductID,
		AwareOfCRA:          in.AwareOfCRA,
		CRACompliant:        in.CRACompliant,
		KEVProcessExists:    in.KEVProcessExists,
		DisclosureProcessSE: in.DisclosureProcessSE,
		ActionRequired:      models.No,
		SupportRequested:    models.No,
		SubmittedBy:         strings.TrimSpace(in.SubmittedBy),
	}

	if !ActionRequired(in.AwareOfCRA, in.CRACompliant, in.KEVProcessExists, in.DisclosureProcessSE) {
		return row, nil
	}

	if in.ActionDescription == "" {
		return row, invalid("action_description", "is required when an action point is needed")
	}
	if in.FollowUpDate == nil || in.FollowUpDate.IsZero() {
		return row, invalid("follow_up_date", "is required when an action point is needed")
	}
	if !in.SupportRequested.Valid() {
		return row, invalid("support_requested", "must be Yes or No when an action point is needed")
	}
	row.ActionRequired = models.Yes
	row.ActionDescription = in.ActionDescription
	row.FollowUpDate = dateOnly(in.FollowUpDate)
	row.SupportRequested = in.SupportRequested
	return row, nil
}

// RecordSurvey stores a readiness survey. When the answers call for an action point and
// support was requested, a support request is opened in the same transaction.
func (l *Ledger) RecordSurvey(ctx context.Context, in SurveyInput) (models.VulnerabilityCompliance, *models.VulnerabilityTracking, error) {
	const op = "record_survey"
	row, err := l.surveyRow(in)
	if err != nil {
		return models.VulnerabilityCompliance{}, nil, l.fail(op, err)
	}

	var tracking *models.VulnerabilityTracking
	err = l.transact(ctx, op, "survey", func(tx *gorm.DB) error {
		if err := productExists(tx, row.ProductID); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if row.SupportRequested == models.Yes {
			tracking = &models.VulnerabilityTracking{
				ComplianceID: row.ID,
				ProductID:    row.ProductID,
				RequestDate:  l.now().UTC(),
			}
			if err := tx.Create(tracking).Error; err != nil {
				return err
			}
		}
		return l.audit(ctx, tx, "vulnerability_compliance", row.ID, "create",
			fmt.Sprintf("Survey for product %d, action required %s", row.ProductID, row.ActionRequired))
	})
	if err != nil {
		return models.VulnerabilityCompliance{}, nil, err
	}
	return row, tracking, nil
}

// AnswerSupportRequest closes an open support request and records how long it took.
func (l *Ledger) AnswerSupportRequest(ctx context.Context, trackingID uint, answeredAt time.Time) (models.VulnerabilityTracking, error) {
	const op = "answer_support_request"
	if answeredAt.IsZero() {
		answeredAt = l.now()
	}
	answeredAt = answeredAt.UTC()

	var tracking models.VulnerabilityTracking
	err := l.transact(ctx, op, "support request", func(tx *gorm.DB) error {
		err := tx.First(&tracking, trackingID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("support request", trackingID)
		}
		if err != nil {
			return err
		}
		if tracking.AnswerDate != nil {
			return invalid("answer_date", "support request is already closed")
		}
		if answeredAt.Before(tracking.RequestDate) {
			return invalid("answer_date", "must not be before the request date")
		}

		hours := math.Round(answeredAt.Sub(tracking.RequestDate).Hours()*100) / 100
		tracking.AnswerDate = &answeredAt
		tracking.ResponseTimeHours = &hours
		if err := tx.Model(&tracking).Select("answer_date", "response_time_hours").Updates(&tracking).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "support_request", tracking.ID, "answer",
			fmt.Sprintf("Answered after %.2f hours", hours))
	})
	if err != nil {
		return models.VulnerabilityTracking{}, err
	}
	return tracking, nil
}

// ListSupportRequests returns the requests of a product, or all when productID is 0.
func (l *Ledger) ListSupportRequests(ctx context.Context, productID uint) ([]models.VulnerabilityTracking, error) {
	q := l.db.WithContext(ctx).Order("id asc")
	if productID > 0 {
		q = q.Where("product_id = ?", productID)
	}
	var rows []models.VulnerabilityTracking
	err := q.Find(&rows).Error
	return rows, l.read("list_support_requests", "support request", err)
}
