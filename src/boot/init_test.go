package boot

import (
	"context"
	"errors"
	"sitbook/src/clock"
	"sitbook/src/db"
	"sitbook/src/jobs"
	"sitbook/src/lib"
	"sitbook/src/models"
	"sitbook/src/push"
	"sitbook/src/store/memstore"
	"sitbook/src/types"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestInitBackend(t *testing.T) {
	b, err := InitBackend("memory")
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, b)

	_, err = InitBackend("cassandra")
	assert.Error(t, err)
}

func TestBuildAppUsesConfiguredPolicy(t *testing.T) {
	t.Setenv("RECONCILE_POLICY", "archive")
	t.Setenv("STORE_DRIVER", "memory")

	a := BuildApp(memstore.New(), push.LogChannel{}, nil, clock.NewSystem())
	assert.Equal(t, types.POLICY_ARCHIVE, a.Reconciler.Policy())
	assert.NotNil(t, a.Runner)
}

func TestNewApp(t *testing.T) {
	a := BuildApp(memstore.New(), push.LogChannel{}, jobs.NopStatusRecorder{}, nil)
	NewApp(a)
	defer NewApp(nil)
	assert.Same(t, a, GetApp())
}

func TestInitSchedulerSweeps(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	st := memstore.New()
	exp := time.Now().UTC().Add(-time.Minute)
	st.PutRequest(models.BookingRequest{
		ID:             "b1",
		Status:         types.BOOKING_REQUEST_PENDING,
		ExpirationTime: &exp,
		UserID:         "u1",
		SitterID:       "s1",
	})
	a := BuildApp(st, push.LogChannel{}, nil, nil)

	require.NoError(t, InitScheduler(a.Runner, time.Hour))
	defer StopScheduler()

	assert.Eventually(t, func() bool {
		req, ok := st.Request("b1")
		return ok && req.Status == types.BOOKING_REQUEST_EXPIRED
	}, 5*time.Second, 20*time.Millisecond)
	assert.Len(t, st.NotificationsFor("b1"), 3)
}

type brokenScheduler struct {
	gocron.Scheduler
}

func (brokenScheduler) NewJob(gocron.JobDefinition, gocron.Task, ...gocron.JobOption) (gocron.Job, error) {
	return nil, errors.New("scheduler unavailable")
}

func TestInitClosesBackendWhenSchedulerFails(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("API_ENV", "test")
	t.Setenv("REDIS_HOST", "")

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	db.NewDB(gormDB)
	mock.ExpectClose()

	lib.NewScheduler(brokenScheduler{})
	defer lib.NewScheduler(nil)

	a, err := Init(context.Background())
	assert.Error(t, err)
	assert.Nil(t, a)
	assert.Nil(t, GetApp())
	assert.NoError(t, mock.ExpectationsWereMet())
}
