// Package ledger owns every write to the compliance tables. Callers hand it a store handle;
// each operation validates its input first and then runs in a single transaction.
package ledger

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"compliance-ledger/internal/database"
	"compliance-ledger/internal/monitoring"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Ledger struct {
	db       *gorm.DB
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func New(db *gorm.DB, log *zap.Logger) *Ledger {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Ledger{
		db:       db,
		log:      log,
		validate: v,
		now:      time.Now,
	}
}

type actorKey struct{}

// WithActor attaches the acting user to ctx so audit entries can name them.
func WithActor(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func actorFrom(ctx context.Context) *uint {
	if id, ok := ctx.Value(actorKey{}).(uint); ok && id > 0 {
		return &id
	}
	return nil
}

func (l *Ledger) audit(ctx context.Context, tx *gorm.DB, entity string, entityID uint, action, details string) error {
	return database.CreateAuditLog(tx, actorFrom(ctx), entity, entityID, action, details)
}

// check runs the struct validator and reports the first failing field.
func (l *Ledger) check(v any) error {
	err := l.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return invalid(fe.Field(), describe(fe))
	}
	return invalid("", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be an email address"
	case "url":
		return "must be a URL"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}

// fail counts a rejected operation and returns err unchanged.
func (l *Ledger) fail(op string, err error) error {
	monitoring.LedgerRejections.WithLabelValues(op, errorKind(err)).Inc()
	return err
}

// transact runs fn in one transaction and maps the outcome onto the ledger error taxonomy.
func (l *Ledger) transact(ctx context.Context, op, entity string, fn func(tx *gorm.DB) error) error {
	err := l.db.WithContext(ctx).Transaction(fn)
	if err != nil {
		return l.fail(op, classify(op, entity, err))
	}
	monitoring.LedgerWrites.WithLabelValues(op).Inc()
	l.log.Debug("ledger write committed", zap.String("operation", op))
	return nil
}

// transactWithRetry gives an allocate-and-insert operation one more attempt, in a fresh
// transaction, when it loses an id race to another session.
func (l *Ledger) transactWithRetry(ctx context.Context, op, entity string, fn func(tx *gorm.DB) error) error {
	err := l.transact(ctx, op, entity, fn)
	var uerr *UniqueConstraintError
	if errors.As(err, &uerr) {
		monitoring.IDAllocationRetries.Inc()
		l.log.Warn("id collision, retrying once", zap.String("operation", op), zap.Error(err))
		err = l.transact(ctx, op, entity, fn)
	}
	return err
}

// read wraps a query error for read-only operations.
func (l *Ledger) read(op, entity string, err error) error {
	return classify(op, entity, err)
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
