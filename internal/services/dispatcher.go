package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"secretsanta/internal/models"
)

// WishLookup resolves the wish text shown to a giver.
type WishLookup interface {
	WishesFor(userID models.UserID) string
}

// Dispatcher delivers join decisions and pairing results through the Messenger.
//
// Delivery is best-effort: every recipient gets exactly one attempt, a failure is
// logged and counted, and it never aborts delivery to anyone else. Notifications run
// in the background so that room mutations never wait on network I/O.
type Dispatcher struct {
	messenger   Messenger
	wishes      WishLookup
	concurrency int
	sendTimeout time.Duration
	inflight    sync.WaitGroup
}

// NewDispatcher creates a Dispatcher sending at most concurrency messages at a time.
// A zero sendTimeout leaves timeouts to the transport.
func NewDispatcher(messenger Messenger, wishes WishLookup, concurrency int, sendTimeout time.Duration) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		messenger:   messenger,
		wishes:      wishes,
		concurrency: concurrency,
		sendTimeout: sendTimeout,
	}
}

// Wait blocks until every background notification has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) background(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		fn(ctx)
	}()
}

func (d *Dispatcher) send(ctx context.Context, to models.UserID, body string, markup *models.Markup) error {
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}
	_, err := d.messenger.SendText(ctx, to, body, markup)
	return err
}

// NotifyAdminOfJoinRequest asks the room admin to accept or reject the candidate.
func (d *Dispatcher) NotifyAdminOfJoinRequest(ctx context.Context, room models.Room, candidate models.UserID, candidateName string) {
	markup := &models.Markup{Inline: [][]models.Button{{
		{Label: "✅ Accept", Data: models.Action{Kind: models.ActionAccept, Code: room.Code, Target: candidate}.Encode()},
		{Label: "❌ Reject", Data: models.Action{Kind: models.ActionReject, Code: room.Code, Target: candidate}.Encode()},
	}}}
	body := joinRequestText(room, candidateName)

	d.background(ctx, func(ctx context.Context) {
		if err := d.send(ctx, room.AdminID, body, markup); err != nil {
			logger.Warningf("Join request for room %s not delivered to admin %d: %v", room.Code, room.AdminID, err)
		}
	})
}

// NotifyCandidateOfDecision tells the candidate whether the admin let them in.
func (d *Dispatcher) NotifyCandidateOfDecision(ctx context.Context, candidate models.UserID, accepted bool, roomName string) {
	body := decisionText(accepted, roomName)

	d.background(ctx, func(ctx context.Context) {
		if err := d.send(ctx, candidate, body, nil); err != nil {
			logger.Warningf("Decision for %q not delivered to %d: %v", roomName, candidate, err)
		}
	})
}

// NotifyPairingResult sends one giver their receiver. It is a single synchronous attempt.
func (d *Dispatcher) NotifyPairingResult(ctx context.Context, room models.Room, giver, receiver models.UserID) error {
	body := pairingText(room, room.DisplayName(receiver), d.wishes.WishesFor(receiver))
	return d.send(ctx, giver, body, nil)
}

// DispatchPairing notifies every giver of a committed pairing, in participant order,
// then reports "delivered N of M" to the admin. The report is also published on the
// returned channel, which is closed afterwards.
func (d *Dispatcher) DispatchPairing(ctx context.Context, room models.Room) <-chan models.DeliveryReport {
	out := make(chan models.DeliveryReport, 1)

	d.background(ctx, func(ctx context.Context) {
		defer close(out)

		report := models.DeliveryReport{
			ID:         uuid.NewString(),
			RoomCode:   room.Code,
			Deliveries: make([]models.Delivery, len(room.Participants)),
			Total:      len(room.Participants),
		}

		var g errgroup.Group
		g.SetLimit(d.concurrency)
		for i, giver := range room.Participants {
			receiver := room.Pairing[giver]
			g.Go(func() error {
				err := d.NotifyPairingResult(ctx, room, giver, receiver)
				if err != nil {
					logger.Warningf("Pairing for room %s not delivered to %d (report %s): %v", room.Code, giver, report.ID, err)
				}
				report.Deliveries[i] = models.Delivery{Recipient: giver, Err: err}
				return nil
			})
		}
		_ = g.Wait()

		for _, delivery := range report.Deliveries {
			if delivery.Delivered() {
				report.Successful++
			}
		}
		logger.Infof("Room %s pairing dispatched: %d/%d delivered (report %s)", room.Code, report.Successful, report.Total, report.ID)

		if err := d.send(ctx, room.AdminID, shuffleSummaryText(room, report), nil); err != nil {
			logger.Warningf("Shuffle summary for room %s not delivered to admin %d: %v", room.Code, room.AdminID, err)
		}
		out <- report
	})
	return out
}

// ResolveDisplayName looks the user's name up through the transport.
// Any failure yields models.DefaultDisplayName; it never fails the caller.
func (d *Dispatcher) ResolveDisplayName(ctx context.Context, userID models.UserID) string {
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}
	name, err := d.messenger.DisplayName(ctx, userID)
	if err != nil || name == "" {
		if err != nil {
			logger.Warningf("Display name lookup for %d failed: %v", userID, err)
		}
		return models.DefaultDisplayName
	}
	return name
}
