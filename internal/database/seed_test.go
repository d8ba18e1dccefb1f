package database

import (
	"fmt"
	"testing"

	"compliance-ledger/internal/config"
	"compliance-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestSeed_IsIdempotent(t *testing.T) {
	cfg := &config.Config{
		DBDriver: config.DriverSQLite,
		DBDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db))

	require.NoError(t, Seed(db, "root@example.com", "Root123!", zap.NewNop()))
	require.NoError(t, Seed(db, "root@example.com", "Root123!", zap.NewNop()))

	var users []models.User
	require.NoError(t, db.Order("id asc").Find(&users).Error)
	require.Len(t, users, 3)
	assert.Equal(t, "root@example.com", users[0].Username)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("Root123!")))

	var reqs int64
	require.NoError(t, db.Model(&models.RegulatoryRequirement{}).Count(&reqs).Error)
	assert.Equal(t, int64(len(starterRequirements)), reqs)
}

func TestAuditLog(t *testing.T) {
	cfg := &config.Config{
		DBDriver: config.DriverSQLite,
		DBDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db))

	require.NoError(t, CreateAuditLog(db, nil, "product", 1, "create", "first"))
	require.NoError(t, CreateAuditLog(db, nil, "product", 1, "update", "second"))

	logs, err := ListAuditLogs(db, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "second", logs[0].Details)
	assert.Nil(t, logs[0].User)
}
