package ledger

import (
	"context"
	"math"

	"compliance-ledger/internal/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const histogramBins = 10

type ComplianceSummary struct {
	Total        int64 `gorm:"column:total" json:"total"`
	CRAAware     int64 `gorm:"column:cra_aware" json:"cra_aware"`
	CRACompliant int64 `gorm:"column:cra_compliant" json:"cra_compliant"`
	KEVOK        int64 `gorm:"column:kev_ok" json:"kev_ok"`
	DisclosureOK int64 `gorm:"column:disclosure_ok" json:"disclosure_ok"`

	AwareRatio      float64 `gorm:"-" json:"aware_ratio"`
	CompliantRatio  float64 `gorm:"-" json:"compliant_ratio"`
	KEVRatio        float64 `gorm:"-" json:"kev_ratio"`
	DisclosureRatio float64 `gorm:"-" json:"disclosure_ratio"`
}

type AnswerCount struct {
	Answer models.YesNo `gorm:"column:answer" json:"answer"`
	Count  int64        `gorm:"column:count" json:"count"`
}

type SupportRequestStatus struct {
	Open   int64 `json:"open"`
	Closed int64 `json:"closed"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type FrameworkStatusCount struct {
	Framework models.Framework        `gorm:"column:framework" json:"framework"`
	Status    models.AssessmentStatus `gorm:"column:status" json:"status"`
	Count     int64                   `gorm:"column:count" json:"count"`
}

type Dashboard struct {
	Summary              ComplianceSummary      `json:"summary"`
	AwarenessAnswers     []AnswerCount          `json:"awareness_answers"`
	KEVProcessAnswers    []AnswerCount          `json:"kev_process_answers"`
	SupportRequests      SupportRequestStatus   `json:"support_requests"`
	ResponseTimeHours    []HistogramBin         `json:"response_time_hours"`
	AssessmentStatuses   []FrameworkStatusCount `json:"assessment_statuses"`
	StopSellFlaggedCount int64                  `json:"stop_sell_flagged_count"`
}

// ratio never exceeds 1 and is 0 for an empty denominator.
func ratio(num, den int64) float64 {
	if den <= 0 || num <= 0 {
		return 0
	}
	if num > den {
		num = den
	}
	return float64(num) / float64(den)
}

func (s *ComplianceSummary) computeRatios() {
	s.AwareRatio = ratio(s.CRAAware, s.Total)
	s.CompliantRatio = ratio(s.CRACompliant, s.Total)
	s.KEVRatio = ratio(s.KEVOK, s.Total)
	s.DisclosureRatio = ratio(s.DisclosureOK, s.Total)
}

// Histogram splits values into equal-width bins between their minimum and maximum. The last
// bin is closed on both ends.
func Histogram(values []float64, bins int) []HistogramBin {
	if len(values) == 0 || bins <= 0 {
		return []HistogramBin{}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// Dashboard computes the read-only projections behind the analytics page. The queries are
// independent and run concurrently.
func (l *Ledger) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := l.db.WithContext(gctx).Model(&models.VulnerabilityCompliance{}).
			Select(`COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN aware_of_cra = ? THEN 1 ELSE 0 END), 0) AS cra_aware,
				COALESCE(SUM(CASE WHEN cra_compliant = ? THEN 1 ELSE 0 END), 0) AS cra_compliant,
				COALESCE(SUM(CASE WHEN kev_process_exists = ? THEN 1 ELSE 0 END), 0) AS kev_ok,
				COALESCE(SUM(CASE WHEN disclosure_process_se = ? THEN 1 ELSE 0 END), 0) AS disclosure_ok`,
				models.Yes, models.Yes, models.Yes, models.Yes).
			Scan(&d.Summary).Error
		if err != nil {
			return err
		}
		d.Summary.computeRatios()
		return nil
	})

	g.Go(func() error {
		return answerCounts(l.db.WithContext(gctx), "aware_of_cra", &d.AwarenessAnswers)
	})

	g.Go(func() error {
		return answerCounts(l.db.WithContext(gctx), "kev_process_exists", &d.KEVProcessAnswers)
	})

	g.Go(func() error {
		db := l.db.WithContext(gctx).Model(&models.VulnerabilityTracking{})
		if err := db.Where("answer_date IS NULL").Count(&d.SupportRequests.Open).Error; err != nil {
			return err
		}
		return l.db.WithContext(gctx).Model(&models.VulnerabilityTracking{}).
			Where("answer_date IS NOT NULL").
			Count(&d.SupportRequests.Closed).Error
	})

	g.Go(func() error {
		var hours []float64
		err := l.db.WithContext(gctx).Model(&models.VulnerabilityTracking{}).
			Where("response_time_hours IS NOT NULL").
			Pluck("response_time_hours", &hours).Error
		if err != nil {
			return err
		}
		d.ResponseTimeHours = Histogram(hours, histogramBins)
		return nil
	})

	g.Go(func() error {
		return l.db.WithContext(gctx).
			Table("requirement_assessments AS ra").
			Select("rr.framework AS framework, ra.status AS status, COUNT(*) AS count").
			Joins("JOIN regulatory_requirements rr ON rr.id = ra.requirement_id").
			Group("rr.framework, ra.status").
			Order("rr.framework asc, ra.status asc").
			Scan(&d.AssessmentStatuses).Error
	})

	g.Go(func() error {
		return l.db.WithContext(gctx).Model(&models.Product{}).
			Where("cra_plan = ? AND cra_stop_sell_flagged = ?", models.PlanStopSellInEU, models.Yes).
			Count(&d.StopSellFlaggedCount).Error
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, l.read("dashboard", "dashboard", err)
	}
	return d, nil
}

func answerCounts(db *gorm.DB, column string, dst *[]AnswerCount) error {
	*dst = []AnswerCount{}
	return db.Model(&models.VulnerabilityCompliance{}).
		Select(column + " AS answer, COUNT(*) AS count").
		Group(column).
		Order(column + " asc").
		Scan(dst).Error
}
