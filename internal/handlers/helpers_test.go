package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"secretsanta/internal/mocks"
	"secretsanta/internal/models"
	"secretsanta/internal/services"
)

const (
	alice models.UserID = 1
	bob   models.UserID = 2
	carol models.UserID = 3
)

var names = map[models.UserID]string{alice: "Alice", bob: "Bob", carol: "Carol"}

type message struct {
	to     models.UserID
	edit   models.MessageHandle
	body   string
	markup *models.Markup
}

// harness runs a BotHandler against real services and a recording mock messenger.
type harness struct {
	handler    *BotHandler
	rooms      *services.RoomService
	wishes     *services.WishService
	dispatcher *services.Dispatcher

	mu   sync.Mutex
	sent []message
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	messenger := mocks.NewMockMessenger(ctrl)
	h := &harness{}

	messenger.EXPECT().SendText(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, to models.UserID, body string, markup *models.Markup) (models.MessageHandle, error) {
			h.record(message{to: to, body: body, markup: markup})
			return models.MessageHandle{ChatID: int64(to), MessageID: 1}, nil
		}).AnyTimes()
	messenger.EXPECT().EditText(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, handle models.MessageHandle, body string, markup *models.Markup) error {
			h.record(message{to: models.UserID(handle.ChatID), edit: handle, body: body, markup: markup})
			return nil
		}).AnyTimes()
	messenger.EXPECT().DisplayName(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id models.UserID) (string, error) {
			if name, ok := names[id]; ok {
				return name, nil
			}
			return "", errors.New("chat not found")
		}).AnyTimes()

	h.wishes = services.NewWishService(nil)
	h.dispatcher = services.NewDispatcher(messenger, h.wishes, 2, 0)
	h.rooms = services.NewRoomService(h.dispatcher, nil)
	h.handler = NewBotHandler(h.rooms, h.wishes, messenger)
	t.Cleanup(h.dispatcher.Wait)
	return h
}

func (h *harness) record(m message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, m)
}

// say delivers a text message from the user and returns the bot's last reply to them.
// Pending background notifications are flushed first so they cannot pose as the reply.
func (h *harness) say(t *testing.T, from models.UserID, text string) message {
	t.Helper()
	h.dispatcher.Wait()
	h.handler.Handle(context.Background(), Inbound{UserID: from, DisplayName: names[from], Text: text})
	return h.last(t, from)
}

// press delivers a button press on a message and returns the bot's last output to the user.
func (h *harness) press(t *testing.T, from models.UserID, data string) message {
	t.Helper()
	h.dispatcher.Wait()
	h.handler.Handle(context.Background(), Inbound{
		UserID:       from,
		DisplayName:  names[from],
		CallbackData: data,
		Message:      models.MessageHandle{ChatID: int64(from), MessageID: 77},
	})
	return h.last(t, from)
}

func (h *harness) last(t *testing.T, to models.UserID) message {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.sent) - 1; i >= 0; i-- {
		if h.sent[i].to == to {
			return h.sent[i]
		}
	}
	require.FailNow(t, "no message", "nothing sent to %d", to)
	return message{}
}

func (h *harness) containing(fragment string) []message {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []message
	for _, m := range h.sent {
		if strings.Contains(m.body, fragment) {
			out = append(out, m)
		}
	}
	return out
}

// createRoom walks alice through the creation dialogue and returns the new room.
func (h *harness) createRoom(t *testing.T) models.Room {
	t.Helper()
	h.say(t, alice, LabelCreateRoom)
	h.say(t, alice, "Office Exchange")
	h.say(t, alice, "Gifts for the team")
	h.say(t, alice, "1000")
	h.say(t, alice, "December 24")

	code, ok := h.rooms.LastCreatedRoom(alice)
	require.True(t, ok)
	room, err := h.rooms.GetRoom(code)
	require.NoError(t, err)
	return room
}
