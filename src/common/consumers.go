package common

import (
	"context"
	"log"
	"sitbook/src/clock"
	"sitbook/src/config"
	"sitbook/src/lib"
	"sitbook/src/types"
	"time"

	"github.com/tidwall/gjson"
)

// WakeHandler handles wake messages from the wake queue. Both SNS envelopes and raw
// deliveries are accepted.
func WakeHandler(k Kicker) types.Handler {
	return func(payload string) {
		if !gjson.Valid(payload) {
			log.Println("[wake]: Received invalid json body. Aborting")
			return
		}
		message := payload
		if gjson.Get(payload, "Type").String() == "Notification" {
			message = gjson.Get(payload, "Message").String()
		}
		bookingID := gjson.Get(message, "bookingId").String()
		log.Printf("[wake] received wake for %q\n", bookingID)
		k.Kick("wake")
	}
}

type ChangeAction int

const (
	ChangeIgnore ChangeAction = iota
	ChangeKick
	ChangeWake
)

// ClassifyChange decides what a booking request change event calls for. Events carry the
// document either at the root or under "after". Pending requests already past expiration
// need a run now; pending requests expiring later get a wake at their expiration.
func ClassifyChange(payload []byte, now time.Time) (ChangeAction, string, time.Time) {
	if !gjson.ValidBytes(payload) {
		return ChangeIgnore, "", time.Time{}
	}
	if gjson.GetBytes(payload, "op").String() == "delete" {
		return ChangeIgnore, "", time.Time{}
	}
	doc := gjson.GetBytes(payload, "after")
	if !doc.Exists() {
		doc = gjson.ParseBytes(payload)
	}
	id := doc.Get("id").String()
	if doc.Get("status").String() != string(types.BOOKING_REQUEST_PENDING) {
		return ChangeIgnore, id, time.Time{}
	}
	raw := doc.Get("expirationTime")
	if !raw.Exists() {
		return ChangeIgnore, id, time.Time{}
	}
	exp, err := time.Parse(config.TIME_PARSE_FORMAT, raw.String())
	if err != nil {
		log.Printf("[kafka] booking request %s has unparseable expirationTime %q\n", id, raw.String())
		return ChangeIgnore, id, time.Time{}
	}
	if exp.Before(now) {
		return ChangeKick, id, exp
	}
	return ChangeWake, id, exp
}

// ChangeHandler handles booking request change events. A nil wakes disables wake scheduling.
func ChangeHandler(k Kicker, wakes lib.WakeScheduler, clk clock.Clock) func(ctx context.Context, payload []byte) {
	return func(ctx context.Context, payload []byte) {
		action, id, exp := ClassifyChange(payload, clk.Now())
		switch action {
		case ChangeKick:
			k.Kick("change")
		case ChangeWake:
			if wakes == nil {
				return
			}
			if _, err := wakes.ScheduleWake(ctx, id, exp); err != nil {
				log.Printf("[kafka] could not schedule wake for %s: %s\n", id, err.Error())
			}
		}
	}
}
