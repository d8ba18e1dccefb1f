package ledger

import (
	"context"
	"fmt"
	"time"

	"compliance-ledger/internal/models"

	"gorm.io/gorm"
)

type CRAPlanInput struct {
	Plan       models.CRAPlan
	EoLDate    *time.Time
	VPApproved models.YesNo
}

// craColumns are the four product columns owned by the CRA plan update.
type craColumns struct {
	Plan       models.CRAPlan
	EoLDate    *time.Time
	VPApproved models.YesNo
	Flagged    models.YesNo
}

// StopSellFlag derives CRA_StopSell_Flagged. A stop-sell plan stays flagged until the VP
// has approved it; every other plan is never flagged.
func StopSellFlag(plan models.CRAPlan, vpApproved models.YesNo) models.YesNo {
	if plan == models.PlanStopSellInEU && vpApproved != models.Yes {
		return models.Yes
	}
	return models.No
}

func resolveCRAPlan(in CRAPlanInput) (craColumns, error) {
	switch in.Plan {
	case models.PlanEoL:
		if in.EoLDate == nil || in.EoLDate.IsZero() {
			return craColumns{}, invalid("eol_date", "is required for the EoL plan")
		}
		return craColumns{Plan: in.Plan, EoLDate: dateOnly(in.EoLDate), VPApproved: models.Unset, Flagged: models.No}, nil

	case models.PlanStopSellInEU:
		if !in.VPApproved.Valid() {
			return craColumns{}, invalid("vp_approved", "must be Yes or No for the Stop Sell in EU plan")
		}
		return craColumns{
			Plan:       in.Plan,
			VPApproved: in.VPApproved,
			Flagged:    StopSellFlag(in.Plan, in.VPApproved),
		}, nil

	case models.PlanBecomeCompliant, models.PlanNone:
		return craColumns{Plan: in.Plan, VPApproved: models.Unset, Flagged: models.No}, nil
	}
	return craColumns{}, invalid("plan", fmt.Sprintf("unknown CRA plan %q", in.Plan))
}

// SetCraPlan is the only write path for the plan, EoL date, VP approval and stop-sell flag
// columns. The flag is always recomputed here.
func (l *Ledger) SetCraPlan(ctx context.Context, productID uint, in CRAPlanInput) (models.Product, error) {
	const op = "set_cra_plan"
	cols, err := resolveCRAPlan(in)
	if err != nil {
		return models.Product{}, l.fail(op, err)
	}

	var product models.Product
	err = l.transact(ctx, op, "product", func(tx *gorm.DB) error {
		if err := findProduct(tx, productID, &product); err != nil {
			return err
		}
		product.CRAPlan = cols.Plan
		product.CRAEoLDate = cols.EoLDate
		product.CRAStopSellVPApproved = cols.VPApproved
		product.CRAStopSellFlagged = cols.Flagged

		if err := tx.Model(&product).
			Select("cra_plan", "cra_eol_date", "cra_stop_sell_vp_approved", "cra_stop_sell_flagged").
			Updates(&product).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "product", product.ID, "cra_plan",
			fmt.Sprintf("CRA plan %q, vp approved %q, flagged %q", cols.Plan, cols.VPApproved, cols.Flagged))
	})
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// ListStopSellFlagged returns the stop-sell products still waiting for VP approval.
func (l *Ledger) ListStopSellFlagged(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := l.db.WithContext(ctx).
		Where("cra_plan = ? AND cra_stop_sell_flagged = ?", models.PlanStopSellInEU, models.Yes).
		Order("id asc").
		Find(&products).Error
	return products, l.read("list_stop_sell_flagged", "product", err)
}
