package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sitbook/src/config"
	"sitbook/src/types"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsched "github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulerTypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

var (
	schedulerMu sync.Mutex
	scheduler   gocron.Scheduler
)

func NewScheduler(s gocron.Scheduler) {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	scheduler = s
}

func GetScheduler() (gocron.Scheduler, error) {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	if scheduler != nil {
		return scheduler, nil
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		log.Printf("Error initializing Scheduler: %s\n", err.Error())
		return nil, err
	}
	scheduler = sched
	return sched, nil
}

// ShutdownScheduler stops the scheduler and waits for running jobs.
func ShutdownScheduler() error {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	if scheduler == nil {
		return nil
	}
	err := scheduler.Shutdown()
	scheduler = nil
	return err
}

// CreateSweepJob runs task every interval, starting now. A tick that arrives while the
// previous one is still running is rescheduled instead of overlapping.
func CreateSweepJob(interval time.Duration, task func()) (*string, error) {
	sched, err := GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return nil, err
	}
	j, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName("reconcile-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, err
	}
	id := j.ID().String()
	log.Printf("[scheduler] sweep job %s every %s\n", id, interval)
	return &id, nil
}

// WakeAt is the instant a wake for expiration should fire: the first whole second strictly
// after it, so the request is already eligible when the run reads the clock.
func WakeAt(expiration time.Time) time.Time {
	return expiration.UTC().Add(time.Second).Truncate(time.Second)
}

// WakeScheduler arranges for a reconciliation run near a booking request's expiration. It is
// a latency hint only; the periodic sweep still processes every request.
type WakeScheduler interface {
	Name() string
	ScheduleWake(ctx context.Context, bookingID string, at time.Time) (string, error)
}

// SchedulerAPI is the part of the EventBridge Scheduler client used here.
type SchedulerAPI interface {
	CreateSchedule(ctx context.Context, params *awsched.CreateScheduleInput, optFns ...func(*awsched.Options)) (*awsched.CreateScheduleOutput, error)
}

// EventBridgeScheduler creates one-time schedules that publish to the wake topic. The SQS
// queue subscribed to that topic is consumed by every replica.
type EventBridgeScheduler struct {
	inner    SchedulerAPI
	topicArn string
	roleArn  string
}

func NewEventBridgeScheduler(inner SchedulerAPI, topicArn, roleArn string) *EventBridgeScheduler {
	return &EventBridgeScheduler{inner: inner, topicArn: topicArn, roleArn: roleArn}
}

func (e *EventBridgeScheduler) Name() string {
	return "EventBridge"
}

func (e *EventBridgeScheduler) ScheduleWake(ctx context.Context, bookingID string, at time.Time) (string, error) {
	runsAt := WakeAt(at)
	input, err := json.Marshal(types.WakeMessage{BookingID: bookingID, ExpirationTime: at.UTC()})
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("wake_%s", uuid.NewString())
	sched, err := e.inner.CreateSchedule(ctx, &awsched.CreateScheduleInput{
		Name:      aws.String(name),
		StartDate: aws.Time(runsAt),
		Target: &schedulerTypes.Target{
			Arn:     aws.String(e.topicArn),
			RoleArn: aws.String(e.roleArn),
			Input:   aws.String(string(input)),
			RetryPolicy: &schedulerTypes.RetryPolicy{
				MaximumRetryAttempts: aws.Int32(3),
			},
		},
		FlexibleTimeWindow:         &schedulerTypes.FlexibleTimeWindow{Mode: schedulerTypes.FlexibleTimeWindowModeOff},
		ScheduleExpression:         aws.String(fmt.Sprintf("at(%s)", runsAt.Format("2006-01-02T15:04:05"))),
		ScheduleExpressionTimezone: aws.String("UTC"),
		ActionAfterCompletion:      schedulerTypes.ActionAfterCompletionDelete,
	})
	if err != nil {
		log.Printf("Failed to create Schedule: %s\n", err.Error())
		return "", err
	}
	log.Printf("[%s] wake for %s at %s: %s\n", e.Name(), bookingID, runsAt.Format(config.TIME_PARSE_FORMAT), aws.ToString(sched.ScheduleArn))
	return name, nil
}

// LocalScheduler keeps wakes as in-memory one-time jobs. They are lost on restart.
type LocalScheduler struct {
	inner gocron.Scheduler
	kick  func(source string)
}

func NewLocalScheduler(inner gocron.Scheduler, kick func(source string)) *LocalScheduler {
	return &LocalScheduler{inner: inner, kick: kick}
}

func (l *LocalScheduler) Name() string {
	return "Local"
}

func (l *LocalScheduler) ScheduleWake(ctx context.Context, bookingID string, at time.Time) (string, error) {
	runsAt := WakeAt(at)
	j, err := l.inner.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(runsAt)),
		gocron.NewTask(func(bookingID string) {
			log.Printf("[%s] wake for %s\n", l.Name(), bookingID)
			l.kick("wake")
		}, bookingID),
		gocron.WithName("wake_"+bookingID),
	)
	if err != nil {
		log.Printf("Error creating job: %s\n", err.Error())
		return "", err
	}
	log.Printf("[%s] New Job scheduled on: %s %s\n", l.Name(), j.ID().String(), runsAt.Format(config.TIME_PARSE_FORMAT))
	return j.ID().String(), nil
}

// CreateWakeScheduler returns an EventBridgeScheduler in test and production and a
// LocalScheduler otherwise.
func CreateWakeScheduler(env types.Environment, kick func(source string)) (WakeScheduler, error) {
	if env == types.Production || env == types.Test {
		client := AWSGetSchedulerClient()
		if client == nil {
			return nil, fmt.Errorf("eventbridge scheduler client unavailable")
		}
		return NewEventBridgeScheduler(client, GetTopicArn(config.WakeTopic()), config.SchedulerRoleArn()), nil
	}
	sched, err := GetScheduler()
	if err != nil {
		return nil, err
	}
	return NewLocalScheduler(sched, kick), nil
}
