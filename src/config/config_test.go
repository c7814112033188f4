package config

import (
	"sitbook/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurations(t *testing.T) {
	t.Setenv("RECONCILE_INTERVAL", "")
	assert.Equal(t, time.Minute, ReconcileInterval())

	t.Setenv("RECONCILE_INTERVAL", "5m")
	assert.Equal(t, 5*time.Minute, ReconcileInterval())

	t.Setenv("RECONCILE_INTERVAL", "soon")
	assert.Equal(t, time.Minute, ReconcileInterval())
}

func TestReconcileMaxBatch(t *testing.T) {
	t.Setenv("RECONCILE_MAX_BATCH", "")
	t.Setenv("STORE_DRIVER", STORE_FIRESTORE)
	assert.Equal(t, FIRESTORE_MAX_BATCH, ReconcileMaxBatch())

	t.Setenv("STORE_DRIVER", STORE_POSTGRES)
	assert.Equal(t, 0, ReconcileMaxBatch())

	t.Setenv("RECONCILE_MAX_BATCH", "25")
	assert.Equal(t, 25, ReconcileMaxBatch())

	t.Setenv("RECONCILE_MAX_BATCH", "-1")
	assert.Equal(t, 0, ReconcileMaxBatch())
}

func TestReconcilePolicy(t *testing.T) {
	t.Setenv("RECONCILE_POLICY", "")
	assert.Equal(t, types.POLICY_EXPIRE, ReconcilePolicy())

	t.Setenv("RECONCILE_POLICY", "archive")
	assert.Equal(t, types.POLICY_ARCHIVE, ReconcilePolicy())
}

func TestMaintenanceMode(t *testing.T) {
	t.Setenv("MAINTENANCE_MODE", "")
	assert.False(t, MaintenanceMode())

	t.Setenv("MAINTENANCE_MODE", "true")
	assert.True(t, MaintenanceMode())
}
