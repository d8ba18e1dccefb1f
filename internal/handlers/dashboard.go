package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxImportSize = 10 << 20

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.ledger.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"dashboard": d})
}

func (h *Handler) ExportProducts(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.ledger.ExportProducts(c.Request.Context(), &buf); err != nil {
		h.fail(c, err)
		return
	}

	name := fmt.Sprintf("products-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ImportProducts accepts the CSV as a multipart "file" field or as the raw request body.
func (h *Handler) ImportProducts(c *gin.Context) {
	var r io.Reader
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			h.fail(c, badRequest("file", "cannot read the uploaded file"))
			return
		}
		defer f.Close()
		r = f
	} else {
		r = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
	}

	n, err := h.ledger.ImportProducts(c.Request.Context(), r)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("products imported", zap.Int("rows", n))
	render(c, http.StatusOK, gin.H{"imported": n})
}
