package handlers

import (
	"net/http"

	"compliance-ledger/internal/ledger"
	"compliance-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

// templateForm takes the brick lists as comma separated values.
type templateForm struct {
	Name           string `form:"name" json:"name"`
	DBBricks       string `form:"db_bricks" json:"db_bricks"`
	SEBricks       string `form:"se_bricks" json:"se_bricks"`
	Chips          string `form:"chips" json:"chips"`
	ITStack        string `form:"it_stack" json:"it_stack"`
	EncryptionLibs string `form:"encryption_libs" json:"encryption_libs"`
	SecureBoot     string `form:"secure_boot" json:"secure_boot"`
}

func (f templateForm) input() ledger.TemplateInput {
	return ledger.TemplateInput{
		Name:           f.Name,
		DBBricks:       ledger.SplitList(f.DBBricks),
		SEBricks:       ledger.SplitList(f.SEBricks),
		Chips:          ledger.SplitList(f.Chips),
		ITStack:        ledger.SplitList(f.ITStack),
		EncryptionLibs: ledger.SplitList(f.EncryptionLibs),
		SecureBoot:     models.YesNo(f.SecureBoot),
	}
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.ledger.ListTemplates(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"templates": templates})
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var form templateForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}

	tmpl, err := h.ledger.CreateTemplate(c.Request.Context(), form.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusCreated, gin.H{"template": tmpl})
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var form templateForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}

	tmpl, err := h.ledger.UpdateTemplate(c.Request.Context(), id, form.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"template": tmpl})
}

type assignForm struct {
	ReferenceIDs []uint `form:"reference_ids" json:"reference_ids"`
	TemplateID   uint   `form:"template_id" json:"template_id"`
}

func (h *Handler) AssignMetadata(c *gin.Context) {
	var form assignForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, badRequest("", "invalid form data"))
		return
	}
	if form.TemplateID == 0 {
		h.fail(c, badRequest("template_id", "is required"))
		return
	}

	rows, err := h.ledger.AssignMetadata(c.Request.Context(), form.ReferenceIDs, form.TemplateID)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusCreated, gin.H{"metadata": rows})
}

func (h *Handler) ListMetadata(c *gin.Context) {
	rows, err := h.ledger.ListProductMetadata(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"metadata": rows})
}
