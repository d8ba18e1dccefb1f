package handlers

import (
	"net/http"

	"compliance-ledger/internal/ledger"
	"compliance-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

type productForm struct {
	Name                  string `form:"name" json:"name"`
	PIMLink               string `form:"pim_link" json:"pim_link"`
	OfferOwner            string `form:"offer_owner" json:"offer_owner"`
	ProductManager        string `form:"product_manager" json:"product_manager"`
	SecurityAdvisor       string `form:"security_advisor" json:"security_advisor"`
	VulnerabilityHandler  string `form:"vulnerability_handler" json:"vulnerability_handler"`
	CertificationEngineer string `form:"certification_engineer" json:"certification_engineer"`
	VP                    string `form:"vp" json:"vp"`
	SVP                   string `form:"svp" json:"svp"`
}

func (f productForm) input() ledger.ProductInput {
	return ledger.ProductInput{
		Name:                  f.Name,
		PIMLink:               f.PIMLink,
		OfferOwner:            f.OfferOwner,
		ProductManager:        f.ProductManager,
		SecurityAdvisor:       f.SecurityAdvisor,
		VulnerabilityHandler:  f.VulnerabilityHandler,
		CertificationEngineer: f.CertificationEngineer,
		VP:                    f.VP,
		SVP:                   f.SVP,
	}
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.ledger.ListProducts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"products": products})
}

func (h *Handler) SearchProducts(c *gin.Context) {
	q := c.Query("q")
	products, err := h.ledger.SearchProducts(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"query": q, "products": products})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}

	product, err := h.ledger.CreateProduct(c.Request.Context(), form.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusCreated, gin.H{"product": product})
}

func (h *Handler) ShowProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}

	product, err := h.ledger.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"product": product})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}

	product, err := h.ledger.UpdateProduct(c.Request.Context(), id, form.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"product": product})
}

type craPlanForm struct {
	Plan       string `form:"plan" json:"plan"`
	EoLDate    string `form:"eol_date" json:"eol_date"`
	VPApproved string `form:"vp_approved" json:"vp_approved"`
}

func (h *Handler) SetCraPlan(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var form craPlanForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}
	eol, err := parseDate("eol_date", form.EoLDate)
	if err != nil {
		h.fail(c, err)
		return
	}

	product, err := h.ledger.SetCraPlan(c.Request.Context(), id, ledger.CRAPlanInput{
		Plan:       models.CRAPlan(form.Plan),
		EoLDate:    eol,
		VPApproved: models.YesNo(form.VPApproved),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"product": product})
}

func (h *Handler) ListStopSellFlags(c *gin.Context) {
	products, err := h.ledger.ListStopSellFlagged(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"products": products})
}

type referenceForm struct {
	ReferenceNumber string `form:"reference_number" json:"reference_number"`
}

func (h *Handler) CreateReference(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var form referenceForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}

	ref, err := h.ledger.CreateCommercialReference(c.Request.Context(), id, ledger.ReferenceInput{ReferenceNumber: form.ReferenceNumber})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusCreated, gin.H{"reference": ref})
}

func (h *Handler) ListProductReferences(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}

	refs, err := h.ledger.ListProductReferences(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"references": refs})
}

func (h *Handler) ListReferences(c *gin.Context) {
	refs, err := h.ledger.ListCommercialReferences(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"references": refs})
}
