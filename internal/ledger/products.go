package ledger

import (
	"context"
	"errors"
	"strings"

	"compliance-ledger/internal/models"

	"gorm.io/gorm"
)

// ProductInput carries the editable catalog fields. CRA columns are not part of it: they are
// written only by SetCraPlan and ImportProducts.
type ProductInput struct {
	Name                  string `json:"name" validate:"required,min=2,max=255"`
	PIMLink               string `json:"pim_link" validate:"omitempty,url,max=512"`
	OfferOwner            string `json:"offer_owner" validate:"omitempty,email"`
	ProductManager        string `json:"product_manager" validate:"omitempty,email"`
	SecurityAdvisor       string `json:"security_advisor" validate:"omitempty,email"`
	VulnerabilityHandler  string `json:"vulnerability_handler" validate:"omitempty,email"`
	CertificationEngineer string `json:"certification_engineer" validate:"omitempty,email"`
	VP                    string `json:"vp" validate:"omitempty,email"`
	SVP                   string `json:"svp" validate:"omitempty,email"`
}

func (in *ProductInput) normalize() {
	for _, f := range []*string{
		&in.Name, &in.PIMLink, &in.OfferOwner, &in.ProductManager, &in.SecurityAdvisor,
		&in.VulnerabilityHandler, &in.CertificationEngineer, &in.VP, &in.SVP,
	} {
		*f = strings.TrimSpace(*f)
	}
}

var productContactColumns = []string{
	"name", "pim_link", "offer_owner", "product_manager", "security_advisor",
	"vulnerability_handler", "certification_engineer", "vp", "svp",
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = in.Name
	p.PIMLink = in.PIMLink
	p.OfferOwner = in.OfferOwner
	p.ProductManager = in.ProductManager
	p.SecurityAdvisor = in.SecurityAdvisor
	p.VulnerabilityHandler = in.VulnerabilityHandler
	p.CertificationEngineer = in.CertificationEngineer
	p.VP = in.VP
	p.SVP = in.SVP
}

func (l *Ledger) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	const op = "create_product"
	in.normalize()
	if err := l.check(in); err != nil {
		return models.Product{}, l.fail(op, err)
	}

	var product models.Product
	err := l.transactWithRetry(ctx, op, "product", func(tx *gorm.DB) error {
		id, err := nextID(tx, tableProducts)
		if err != nil {
			return err
		}
		product = models.Product{ID: id, CRAStopSellFlagged: models.No}
		in.apply(&product)

		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "product", product.ID, "create", "Created product "+product.Name)
	})
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// UpdateProduct overwrites the contact fields of an existing product.
func (l *Ledger) UpdateProduct(ctx context.Context, id uint, in ProductInput) (models.Product, error) {
	const op = "update_product"
	in.normalize()
	if err := l.check(in); err != nil {
		return models.Product{}, l.fail(op, err)
	}

	var product models.Product
	err := l.transact(ctx, op, "product", func(tx *gorm.DB) error {
		if err := findProduct(tx, id, &product); err != nil {
			return err
		}
		in.apply(&product)
		if err := tx.Model(&product).Select(productContactColumns).Updates(&product).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "product", product.ID, "update", "Updated product "+product.Name)
	})
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (l *Ledger) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	var product models.Product
	err := l.db.WithContext(ctx).
		Preload("References", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, notFound("product", id)
	}
	return product, l.read("get_product", "product", err)
}

func (l *Ledger) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := l.db.WithContext(ctx).Order("id asc").Find(&products).Error
	return products, l.read("list_products", "product", err)
}

// likeEscaper makes the LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SearchProducts matches the product name or any of its commercial reference numbers,
// case-insensitively.
func (l *Ledger) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return l.ListProducts(ctx)
	}
	like := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"

	db := l.db.WithContext(ctx)
	refs := db.Model(&models.CommercialReference{}).
		Select("product_id").
		Where(`LOWER(reference_number) LIKE ? ESCAPE '\'`, like)

	var products []models.Product
	err := db.
		Preload("References", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR id IN (?)`, like, refs).
		Order("id asc").
		Find(&products).Error
	return products, l.read("search_products", "product", err)
}

// ProductsAssignedTo lists the products where email is the security advisor or the
// vulnerability handler.
func (l *Ledger) ProductsAssignedTo(ctx context.Context, email string) ([]models.Product, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email", "is required")
	}

	var products []models.Product
	err := l.db.WithContext(ctx).
		Where("LOWER(security_advisor) = ? OR LOWER(vulnerability_handler) = ?", email, email).
		Order("id asc").
		Find(&products).Error
	return products, l.read("products_assigned_to", "product", err)
}

func findProduct(tx *gorm.DB, id uint, dst *models.Product) error {
	err := tx.First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("product", id)
	}
	return err
}

func productExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("product", id)
	}
	return nil
}
