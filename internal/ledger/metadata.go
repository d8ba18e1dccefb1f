package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"compliance-ledger/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TemplateInput struct {
	Name           string       `json:"name" validate:"required,min=2,max=255"`
	DBBricks       []string     `json:"db_bricks"`
	SEBricks       []string     `json:"se_bricks"`
	Chips          []string     `json:"chips"`
	ITStack        []string     `json:"it_stack"`
	EncryptionLibs []string     `json:"encryption_libs"`
	SecureBoot     models.YesNo `json:"secure_boot" validate:"required,oneof=Yes No"`
}

func (in *TemplateInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	for _, list := range []*[]string{&in.DBBricks, &in.SEBricks, &in.Chips, &in.ITStack, &in.EncryptionLibs} {
		*list = cleanList(*list)
	}
}

// SplitList turns a comma separated form value into a list.
func SplitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func snapshot(list []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], len(list))
	copy(out, list)
	return out
}

func (in TemplateInput) apply(t *models.MetadataTemplate) {
	t.Name = in.Name
	t.DBBricks = snapshot(in.DBBricks)
	t.SEBricks = snapshot(in.SEBricks)
	t.Chips = snapshot(in.Chips)
	t.ITStack = snapshot(in.ITStack)
	t.EncryptionLibs = snapshot(in.EncryptionLibs)
	t.SecureBoot = in.SecureBoot
}

func (l *Ledger) CreateTemplate(ctx context.Context, in TemplateInput) (models.MetadataTemplate, error) {
	const op = "create_template"
	in.normalize()
	if err := l.check(in); err != nil {
		return models.MetadataTemplate{}, l.fail(op, err)
	}

	var tmpl models.MetadataTemplate
	err := l.transactWithRetry(ctx, op, "metadata template", func(tx *gorm.DB) error {
		id, err := nextID(tx, tableTemplates)
		if err != nil {
			return err
		}
		tmpl = models.MetadataTemplate{ID: id}
		in.apply(&tmpl)
		if err := tx.Create(&tmpl).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "metadata_template", tmpl.ID, "create", "Created template "+tmpl.Name)
	})
	if err != nil {
		return models.MetadataTemplate{}, err
	}
	return tmpl, nil
}

// UpdateTemplate edits the catalog entry. Metadata already assigned from it keeps the values
// it was created with.
func (l *Ledger) UpdateTemplate(ctx context.Context, id uint, in TemplateInput) (models.MetadataTemplate, error) {
	const op = "update_template"
	in.normalize()
	if err := l.check(in); err != nil {
		return models.MetadataTemplate{}, l.fail(op, err)
	}

	var tmpl models.MetadataTemplate
	err := l.transact(ctx, op, "metadata template", func(tx *gorm.DB) error {
		if err := findTemplate(tx, id, &tmpl); err != nil {
			return err
		}
		in.apply(&tmpl)
		if err := tx.Model(&tmpl).
			Select("name", "db_bricks", "se_bricks", "chips", "it_stack", "encryption_libs", "secure_boot").
			Updates(&tmpl).Error; err != nil {
			return err
		}
		return l.audit(ctx, tx, "metadata_template", tmpl.ID, "update", "Updated template "+tmpl.Name)
	})
	if err != nil {
		return models.MetadataTemplate{}, err
	}
	return tmpl, nil
}

func (l *Ledger) GetTemplate(ctx context.Context, id uint) (models.MetadataTemplate, error) {
	var tmpl models.MetadataTemplate
	err := findTemplate(l.db.WithContext(ctx), id, &tmpl)
	return tmpl, l.read("get_template", "metadata template", err)
}

func (l *Ledger) ListTemplates(ctx context.Context) ([]models.MetadataTemplate, error) {
	var templates []models.MetadataTemplate
	err := l.db.WithContext(ctx).Order("name asc, id asc").Find(&templates).Error
	return templates, l.read("list_templates", "metadata template", err)
}

// AssignMetadata stamps the template onto every reference in referenceIDs. Each reference gets
// a new row holding a copy of the template's current values. Assigning the same template to
// the same reference twice yields two rows.
func (l *Ledger) AssignMetadata(ctx context.Context, referenceIDs []uint, templateID uint) ([]models.ProductMetadata, error) {
	const op = "assign_metadata"
	refs := uniqueIDs(referenceIDs)
	if len(refs) == 0 {
		return nil, l.fail(op, invalid("reference_ids", "select at least one commercial reference"))
	}

	var rows []models.ProductMetadata
	err := l.transactWithRetry(ctx, op, "product metadata", func(tx *gorm.DB) error {
		var tmpl models.MetadataTemplate
		if err := findTemplate(tx, templateID, &tmpl); err != nil {
			return err
		}
		if err := referencesExist(tx, refs); err != nil {
			return err
		}

		first, err := nextID(tx, tableProductMetadata)
		if err != nil {
			return err
		}
		rows = make([]models.ProductMetadata, 0, len(refs))
		for i, refID := range refs {
			rows = append(rows, models.ProductMetadata{
				ID:             first + uint(i),
				ReferenceID:    refID,
				TemplateID:     tmpl.ID,
				DBBricks:       snapshot(tmpl.DBBricks),
				SEBricks:       snapshot(tmpl.SEBricks),
				Chips:          snapshot(tmpl.Chips),
				ITStack:        snapshot(tmpl.ITStack),
				EncryptionLibs: snapshot(tmpl.EncryptionLibs),
				SecureBoot:     tmpl.SecureBoot,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		for _, row := range rows {
			if err := l.audit(ctx, tx, "product_metadata", row.ID, "assign",
				fmt.Sprintf("Assigned template %d to reference %d", row.TemplateID, row.ReferenceID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListProductMetadata returns every metadata row with its reference number and product name.
func (l *Ledger) ListProductMetadata(ctx context.Context) ([]models.ProductMetadataView, error) {
	var rows []models.ProductMetadataView
	err := l.db.WithContext(ctx).
		Table("product_metadata AS pm").
		Select("pm.*, cr.reference_number, p.name AS product_name").
		Joins("JOIN commercial_references cr ON pm.reference_id = cr.id").
		Joins("JOIN products p ON cr.product_id = p.id").
		Order("pm.id asc").
		Scan(&rows).Error
	return rows, l.read("list_product_metadata", "product metadata", err)
}

func findTemplate(tx *gorm.DB, id uint, dst *models.MetadataTemplate) error {
	err := tx.First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("metadata template", id)
	}
	return err
}

func referencesExist(tx *gorm.DB, ids []uint) error {
	var found []uint
	if err := tx.Model(&models.CommercialReference{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	known := make(map[uint]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return notFound("commercial reference", id)
		}
	}
	return nil
}

// uniqueIDs drops zero and repeated ids, keeping the first-seen order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
