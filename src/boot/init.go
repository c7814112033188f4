// Package boot owns process-wide initialization. Init runs once per process; Shutdown
// releases what Init acquired.
package boot

import (
	"context"
	"fmt"
	"log"
	"sitbook/src/clock"
	"sitbook/src/common"
	"sitbook/src/config"
	"sitbook/src/db"
	"sitbook/src/jobs"
	"sitbook/src/lib"
	awslib "sitbook/src/lib/aws"
	"sitbook/src/notifier"
	"sitbook/src/push"
	"sitbook/src/reconciler"
	"sitbook/src/store/fsstore"
	"sitbook/src/store/memstore"
	"sitbook/src/store/sqlstore"
	"sitbook/src/types"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Backend is a store that serves both the reconciler and participant lookups.
type Backend interface {
	reconciler.Store
	notifier.ParticipantStore
}

type App struct {
	Backend    Backend
	Clock      clock.Clock
	Reconciler *reconciler.Reconciler
	Runner     *jobs.Runner
	Wakes      lib.WakeScheduler
}

var (
	mu     sync.Mutex
	app    *App
	cancel context.CancelFunc
)

// BuildApp assembles the reconciliation stack over backend.
func BuildApp(backend Backend, channel notifier.PushChannel, recorder jobs.StatusRecorder, clk clock.Clock) *App {
	if clk == nil {
		clk = clock.NewSystem()
	}
	rec := reconciler.New(
		backend,
		notifier.New(backend, channel),
		reconciler.WithClock(clk),
		reconciler.WithPolicy(config.ReconcilePolicy()),
		reconciler.WithMaxBatch(config.ReconcileMaxBatch()),
	)
	return &App{
		Backend:    backend,
		Clock:      clk,
		Reconciler: rec,
		Runner:     jobs.NewRunner(rec, recorder, config.ReconcileTimeout()),
	}
}

// NewApp replaces the process app. Used by tests.
func NewApp(a *App) {
	mu.Lock()
	defer mu.Unlock()
	app = a
}

func GetApp() *App {
	mu.Lock()
	defer mu.Unlock()
	return app
}

// Init builds the app from the environment and starts the sweep and the triggers. Calling it
// again returns the existing app.
func Init(ctx context.Context) (*App, error) {
	mu.Lock()
	defer mu.Unlock()
	if app != nil {
		return app, nil
	}
	env := config.APIEnv()
	if env == types.Production {
		DownloadSDKFileFromS3(ctx)
	}
	backend, err := InitBackend(config.StoreDriver())
	if err != nil {
		return nil, err
	}
	a := BuildApp(backend, InitPush(), InitStatusRecorder(ctx), clock.NewSystem())
	log.Printf("[boot] store=%s policy=%s interval=%s\n", config.StoreDriver(), a.Reconciler.Policy(), config.ReconcileInterval())

	if err := InitScheduler(a.Runner, config.ReconcileInterval()); err != nil {
		closeBackend()
		return nil, err
	}
	wakes, err := lib.CreateWakeScheduler(env, a.Runner.Kick)
	if err != nil {
		log.Printf("[boot] wake hints disabled: %s\n", err.Error())
	} else {
		a.Wakes = wakes
	}

	var triggerCtx context.Context
	triggerCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))
	InitTriggers(triggerCtx, a)

	app = a
	return a, nil
}

func InitBackend(driver string) (Backend, error) {
	switch driver {
	case config.STORE_FIRESTORE:
		client, err := lib.GetFirestore()
		if err != nil {
			return nil, fmt.Errorf("firestore: %w", err)
		}
		return fsstore.New(client), nil
	case config.STORE_POSTGRES:
		return sqlstore.New(InitDb()), nil
	case config.STORE_MEMORY:
		log.Println("[boot] using the in-memory store. Data is lost on restart")
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
}

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(sqlstore.Models()...)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitPush returns the FCM channel, or a logging channel when messaging cannot be set up.
func InitPush() notifier.PushChannel {
	fcm, err := lib.GetFirebaseMessaging()
	if err != nil {
		log.Printf("[boot] push disabled: %s\n", err.Error())
		return push.LogChannel{}
	}
	return push.NewFCMChannel(fcm)
}

func InitStatusRecorder(ctx context.Context) jobs.StatusRecorder {
	rdb := lib.GetRedisClient()
	if rdb == nil {
		return jobs.NopStatusRecorder{}
	}
	if err := lib.PingRedis(ctx); err != nil {
		log.Println("[boot] run status will not be recorded")
		return jobs.NopStatusRecorder{}
	}
	return jobs.NewRedisStatusRecorder(rdb)
}

func InitScheduler(runner *jobs.Runner, interval time.Duration) error {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return err
	}
	_, err = lib.CreateSweepJob(interval, func() {
		if _, err := runner.Run(context.Background(), jobs.SourceSchedule); err != nil {
			log.Printf("[scheduler] sweep failed: %s\n", err.Error())
		}
	})
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return err
	}
	sched.Start()
	return nil
}

func InitTriggers(ctx context.Context, a *App) {
	common.SNSSubscribes(ctx)
	common.SQSConsumers(ctx, a.Runner)
	common.KafkaConsumers(ctx, a.Runner, a.Wakes, a.Clock)
}

func StopScheduler() {
	if err := lib.ShutdownScheduler(); err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
	}
}

func DownloadSDKFileFromS3(ctx context.Context) {
	if err := awslib.DownloadSDKCredentials(ctx, config.S3SecretsBucket(), config.SecretsDir()); err != nil {
		log.Printf("[S3] Error retrieving credentials: %s\n", err.Error())
	}
}

// Shutdown stops triggers and the sweep, waits for kicked runs and closes connections.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if cancel != nil {
		cancel()
		cancel = nil
	}
	StopScheduler()
	if app != nil {
		app.Runner.Wait()
	}
	closeBackend()
	lib.CloseRedis()
	app = nil
}

func closeBackend() {
	db.Close()
	lib.CloseFirebase()
}
