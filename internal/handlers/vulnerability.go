package handlers

import (
	"net/http"
	"strconv"
	"time"

	"compliance-ledger/internal/ledger"
	"compliance-ledger/internal/middleware"
	"compliance-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

// AssignedProducts lists the products the given contact answers surveys for.
func (h *Handler) AssignedProducts(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		if u, ok := middleware.CurrentUser(c); ok {
			email = u.Username
		}
	}

	products, err := h.ledger.ProductsAssignedTo(c.Request.Context(), email)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"email": email, "products": products})
}

type surveyForm struct {
	AwareOfCRA          string `form:"aware_of_cra" json:"aware_of_cra"`
	CRACompliant        string `form:"cra_compliant" json:"cra_compliant"`
	KEVProcessExists    string `form:"kev_process_exists" json:"kev_process_exists"`
	DisclosureProcessSE string `form:"disclosure_process_se" json:"disclosure_process_se"`
	ActionDescription   string `form:"action_description" json:"action_description"`
	FollowUpDate        string `form:"follow_up_date" json:"follow_up_date"`
	SupportRequested    string `form:"support_requested" json:"support_requested"`
}

func (h *Handler) RecordSurvey(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var form surveyForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}
	followUp, err := parseDate("follow_up_date", form.FollowUpDate)
	if err != nil {
		h.fail(c, err)
		return
	}

	in := ledger.SurveyInput{
		ProductID:           id,
		AwareOfCRA:          models.YesNo(form.AwareOfCRA),
		CRACompliant:        models.YesNo(form.CRACompliant),
		KEVProcessExists:    models.YesNo(form.KEVProcessExists),
		DisclosureProcessSE: models.YesNo(form.DisclosureProcessSE),
		ActionDescription:   form.ActionDescription,
		FollowUpDate:        followUp,
		SupportRequested:    models.YesNo(form.SupportRequested),
	}
	if u, ok := middleware.CurrentUser(c); ok {
		in.SubmittedBy = u.Username
	}

	survey, tracking, err := h.ledger.RecordSurvey(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusCreated, gin.H{"survey": survey, "support_request": tracking})
}

type answerForm struct {
	AnsweredAt string `form:"answered_at" json:"answered_at"`
}

func (h *Handler) AnswerSupportRequest(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var form answerForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}

	var answeredAt time.Time
	if form.AnsweredAt != "" {
		answeredAt, err = time.Parse(time.RFC3339, form.AnsweredAt)
		if err != nil {
			h.fail(c, badRequest("answered_at", "must be an RFC 3339 timestamp"))
			return
		}
	}

	tracking, err := h.ledger.AnswerSupportRequest(c.Request.Context(), id, answeredAt)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"support_request": tracking})
}

func (h *Handler) ListSupportRequests(c *gin.Context) {
	var productID uint
	if v := c.Query("product_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			h.fail(c, badRequest("product_id", "must be a positive integer"))
			return
		}
		productID = uint(n)
	}

	requests, err := h.ledger.ListSupportRequests(c.Request.Context(), productID)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"support_requests": requests})
}
