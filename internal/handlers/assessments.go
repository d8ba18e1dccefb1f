package handlers

import (
	"net/http"

	"compliance-ledger/internal/ledger"
	"compliance-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

type requirementForm struct {
	Framework string `form:"framework" json:"framework"`
	Text      string `form:"text" json:"text"`
}

func (h *Handler) ListRequirements(c *gin.Context) {
	reqs, err := h.ledger.ListRequirements(c.Request.Context(), models.Framework(c.Query("framework")))
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"requirements": reqs})
}

func (h *Handler) CreateRequirement(c *gin.Context) {
	var form requirementForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}

	req, err := h.ledger.CreateRequirement(c.Request.Context(), ledger.RequirementInput{
		Framework: models.Framework(form.Framework),
		Text:      form.Text,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusCreated, gin.H{"requirement": req})
}

func (h *Handler) ListAssessments(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}

	matrix, err := h.ledger.ListAssessments(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"product_id": id, "frameworks": matrix, "statuses": models.AssessmentStatuses})
}

type assessmentForm struct {
	RequirementID      uint   `form:"requirement_id" json:"requirement_id"`
	Status             string `form:"status" json:"status"`
	StartDate          string `form:"start_date" json:"start_date"`
	EndDate            string `form:"end_date" json:"end_date"`
	CoveredByProductID *uint  `form:"covered_by_product_id" json:"covered_by_product_id"`
}

func (h *Handler) UpsertAssessment(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var form assessmentForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}
	start, err := parseDate("start_date", form.StartDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	end, err := parseDate("end_date", form.EndDate)
	if err != nil {
		h.fail(c, err)
		return
	}

	row, err := h.ledger.UpsertAssessment(c.Request.Context(), ledger.AssessmentInput{
		ProductID:          id,
		RequirementID:      form.RequirementID,
		Status:             models.AssessmentStatus(form.Status),
		StartDate:          start,
		EndDate:            end,
		CoveredByProductID: form.CoveredByProductID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"assessment": row})
}
