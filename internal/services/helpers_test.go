package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"secretsanta/internal/mocks"
	"secretsanta/internal/models"
)

// outbox records every message the mocked messenger was asked to send.
type outbox struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	to     models.UserID
	body   string
	markup *models.Markup
}

func (o *outbox) record(to models.UserID, body string, markup *models.Markup) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, sentMessage{to: to, body: body, markup: markup})
}

func (o *outbox) to(id models.UserID) []sentMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	var msgs []sentMessage
	for _, m := range o.sent {
		if m.to == id {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func (o *outbox) containing(fragment string) []sentMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	var msgs []sentMessage
	for _, m := range o.sent {
		if strings.Contains(m.body, fragment) {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

type fixture struct {
	rooms      *RoomService
	wishes     *WishService
	dispatcher *Dispatcher
	messenger  *mocks.MockMessenger
	outbox     *outbox
}

// newFixture wires the services to a mocked messenger that delivers everything
// except to the recipients listed in failFor, and resolves names from names.
func newFixture(t *testing.T, names map[models.UserID]string, failFor ...models.UserID) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	messenger := mocks.NewMockMessenger(ctrl)
	box := &outbox{}

	failing := make(map[models.UserID]bool)
	for _, id := range failFor {
		failing[id] = true
	}
	messenger.EXPECT().SendText(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, to models.UserID, body string, markup *models.Markup) (models.MessageHandle, error) {
			if failing[to] {
				return models.MessageHandle{}, errBlocked
			}
			box.record(to, body, markup)
			return models.MessageHandle{ChatID: int64(to), MessageID: 1}, nil
		}).AnyTimes()
	messenger.EXPECT().DisplayName(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id models.UserID) (string, error) {
			if name, ok := names[id]; ok {
				return name, nil
			}
			return "", errBlocked
		}).AnyTimes()

	wishes := NewWishService(nil)
	dispatcher := NewDispatcher(messenger, wishes, 4, 0)
	f := &fixture{
		rooms:      NewRoomService(dispatcher, nil),
		wishes:     wishes,
		dispatcher: dispatcher,
		messenger:  messenger,
		outbox:     box,
	}
	t.Cleanup(dispatcher.Wait)
	return f
}

var errBlocked = errors.New("forbidden: bot was blocked by the user")

func officeDraft() models.RoomDraft {
	return models.RoomDraft{
		Name:         "Office Exchange",
		Description:  "Gifts for the team",
		Budget:       "1000",
		ExchangeDate: "December 24",
	}
}
