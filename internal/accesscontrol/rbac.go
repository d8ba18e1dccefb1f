// Package accesscontrol decides which role may read or write which part of the ledger.
// Policies live in the casbin_rule table and are seeded on start.
package accesscontrol

import (
	"fmt"

	"compliance-ledger/internal/models"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

type Object string

const (
	ObjectProducts     Object = "products"
	ObjectReferences   Object = "references"
	ObjectCRA          Object = "cra"
	ObjectTemplates    Object = "templates"
	ObjectMetadata     Object = "metadata"
	ObjectRequirements Object = "requirements"
	ObjectAssessments  Object = "assessments"
	ObjectSurvey       Object = "survey"
	ObjectDashboard    Object = "dashboard"
	ObjectImport       Object = "import"
	ObjectAudit        Object = "audit"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// defaultPolicies grants every role its own permissions; inheritance is set up by
// defaultGroups, so an editor can do everything a viewer can.
var defaultPolicies = map[models.UserRole][]struct {
	obj Object
	act Action
}{
	models.RoleViewer: {
		{ObjectProducts, ActionRead},
		{ObjectReferences, ActionRead},
		{ObjectCRA, ActionRead},
		{ObjectTemplates, ActionRead},
		{ObjectMetadata, ActionRead},
		{ObjectRequirements, ActionRead},
		{ObjectAssessments, ActionRead},
		{ObjectSurvey, ActionRead},
		{ObjectDashboard, ActionRead},
	},
	models.RoleEditor: {
		{ObjectProducts, ActionWrite},
		{ObjectReferences, ActionWrite},
		{ObjectCRA, ActionWrite},
		{ObjectMetadata, ActionWrite},
		{ObjectAssessments, ActionWrite},
		{ObjectSurvey, ActionWrite},
	},
	models.RoleAdmin: {
		{ObjectTemplates, ActionWrite},
		{ObjectRequirements, ActionWrite},
		{ObjectImport, ActionWrite},
		{ObjectAudit, ActionRead},
	},
}

var defaultGroups = [][2]models.UserRole{
	{models.RoleEditor, models.RoleViewer},
	{models.RoleAdmin, models.RoleEditor},
}

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	log      *zap.Logger
}

// New builds the enforcer. With a store handle the policies are persisted through the gorm
// adapter; without one they are kept in memory.
func New(db *gorm.DB, log *zap.Logger) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("parse rbac model: %w", err)
	}

	var e *casbin.SyncedEnforcer
	if db != nil {
		a, err := gormadapter.NewAdapterByDB(db)
		if err != nil {
			return nil, fmt.Errorf("create casbin adapter: %w", err)
		}
		e, err = casbin.NewSyncedEnforcer(m, a)
		if err != nil {
			return nil, err
		}
		if err := e.LoadPolicy(); err != nil {
			return nil, fmt.Errorf("load policy: %w", err)
		}
	} else {
		e, err = casbin.NewSyncedEnforcer(m)
		if err != nil {
			return nil, err
		}
	}

	enf := &Enforcer{enforcer: e, log: log}
	if err := enf.seed(); err != nil {
		return nil, err
	}
	return enf, nil
}

func subject(role models.UserRole) string {
	return "role::" + string(role)
}

// seed adds the default policies that are missing. Existing rules are left as they are.
func (e *Enforcer) seed() error {
	added := 0
	for role, perms := range defaultPolicies {
		for _, p := range perms {
			ok, err := e.enforcer.AddPolicy(subject(role), string(p.obj), string(p.act))
			if err != nil {
				return fmt.Errorf("add policy for %s: %w", role, err)
			}
			if ok {
				added++
			}
		}
	}
	for _, g := range defaultGroups {
		ok, err := e.enforcer.AddGroupingPolicy(subject(g[0]), subject(g[1]))
		if err != nil {
			return fmt.Errorf("add role inheritance %s -> %s: %w", g[0], g[1], err)
		}
		if ok {
			added++
		}
	}
	if added > 0 {
		e.log.Info("seeded access control policies", zap.Int("rules", added))
	}
	return nil
}

// Allowed reports whether role may perform act on obj. Errors deny.
func (e *Enforcer) Allowed(role models.UserRole, obj Object, act Action) bool {
	ok, err := e.enforcer.Enforce(subject(role), string(obj), string(act))
	if err != nil {
		e.log.Error("access check failed", zap.String("role", string(role)), zap.Error(err))
		return false
	}
	return ok
}
