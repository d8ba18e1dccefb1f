package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"compliance-ledger/internal/models"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// ProductColumns is the header of the product export, in column order.
var ProductColumns = []string{
	"id", "name", "pim_link", "offer_owner", "product_manager", "security_advisor",
	"vulnerability_handler", "certification_engineer", "vp", "svp",
	"cra_plan", "cra_eol_date", "cra_stop_sell_vp_approved", "cra_stop_sell_flagged",
}

var requiredImportColumns = []string{"id", "name"}

func productRecord(p models.Product) []string {
	eol := ""
	if p.CRAEoLDate != nil {
		eol = p.CRAEoLDate.Format(dateLayout)
	}
	return []string{
		strconv.FormatUint(uint64(p.ID), 10), p.Name, p.PIMLink, p.OfferOwner, p.ProductManager,
		p.SecurityAdvisor, p.VulnerabilityHandler, p.CertificationEngineer, p.VP, p.SVP,
		string(p.CRAPlan), eol, string(p.CRAStopSellVPApproved), string(p.CRAStopSellFlagged),
	}
}

// ExportProducts writes every product as CSV with a header row.
func (l *Ledger) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := l.ListProducts(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ProductColumns); err != nil {
		return err
	}
	for _, p := range products {
		if err := cw.Write(productRecord(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportProducts appends the rows of a product CSV as they are: ids are kept and duplicates
// are not detected up front, so a colliding id aborts the whole import. The stop-sell flag
// column is ignored and derived from the plan and approval columns.
func (l *Ledger) ImportProducts(ctx context.Context, r io.Reader) (int, error) {
	const op = "import_products"
	products, err := parseProducts(r)
	if err != nil {
		return 0, l.fail(op, err)
	}
	if len(products) == 0 {
		return 0, nil
	}

	err = l.transact(ctx, op, "product", func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&products, 100).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "product", 0, "import", fmt.Sprintf("Imported %d products", len(products)))
	})
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

func parseProducts(r io.Reader) ([]models.Product, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, invalid("header", "the file is empty")
	}
	if err != nil {
		return nil, invalid("header", err.Error())
	}

	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("csv", err.Error())
		}
		line, _ := cr.FieldPos(0)
		p, err := parseProductRecord(record, index, line)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func headerIndex(header []string) (map[string]int, error) {
	known := make(map[string]struct{}, len(ProductColumns))
	for _, c := range ProductColumns {
		known[c] = struct{}{}
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, ok := known[col]; !ok {
			return nil, invalid("header", fmt.Sprintf("unknown column %q", col))
		}
		if _, dup := index[col]; dup {
			return nil, invalid("header", fmt.Sprintf("column %q appears twice", col))
		}
		index[col] = i
	}
	for _, col := range requiredImportColumns {
		if _, ok := index[col]; !ok {
			return nil, invalid("header", fmt.Sprintf("required column %q is missing", col))
		}
	}
	return index, nil
}

func parseProductRecord(record []string, index map[string]int, line int) (models.Product, error) {
	get := func(col string) string {
		if i, ok := index[col]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	fail := func(col, msg string) error {
		return invalid(fmt.Sprintf("line %d: %s", line, col), msg)
	}

	id, err := strconv.ParseUint(get("id"), 10, 64)
	if err != nil || id == 0 {
		return models.Product{}, fail("id", "must be a positive integer")
	}
	name := get("name")
	if name == "" {
		return models.Product{}, fail("name", "is required")
	}

	plan := models.CRAPlan(get("cra_plan"))
	if !plan.Valid() {
		return models.Product{}, fail("cra_plan", fmt.Sprintf("unknown CRA plan %q", plan))
	}
	approved := models.YesNo(get("cra_stop_sell_vp_approved"))
	if approved != models.Unset && !approved.Valid() {
		return models.Product{}, fail("cra_stop_sell_vp_approved", "must be Yes, No or empty")
	}

	var eol *time.Time
	if s := get("cra_eol_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return models.Product{}, fail("cra_eol_date", "must be a YYYY-MM-DD date")
		}
		eol = &t
	}

	return models.Product{
		ID:                    uint(id),
		Name:                  name,
		PIMLink:               get("pim_link"),
		OfferOwner:            get("offer_owner"),
		ProductManager:        get("product_manager"),
		SecurityAdvisor:       get("security_advisor"),
		VulnerabilityHandler:  get("vulnerability_handler"),
		CertificationEngineer: get("certification_engineer"),
		VP:                    get("vp"),
		SVP:                   get("svp"),
		CRAPlan:               plan,
		CRAEoLDate:            eol,
		CRAStopSellVPApproved: approved,
		CRAStopSellFlagged:    StopSellFlag(plan, approved),
	}, nil
}
