package telegram

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"secretsanta/internal/handlers"
	"secretsanta/internal/models"
)

func TestToInbound(t *testing.T) {
	bob := &tgbotapi.User{ID: 2, FirstName: "Bob", LastName: "Builder", UserName: "bob"}

	t.Run("private message", func(t *testing.T) {
		in, ok := ToInbound(tgbotapi.Update{Message: &tgbotapi.Message{
			From: bob,
			Chat: &tgbotapi.Chat{ID: 2, Type: "private"},
			Text: "/start",
		}})
		require.True(t, ok)
		require.Equal(t, models.UserID(2), in.UserID)
		require.Equal(t, "Bob Builder", in.DisplayName)
		require.Equal(t, "/start", in.Text)
		require.Empty(t, in.CallbackData)
	})

	t.Run("group message is ignored", func(t *testing.T) {
		_, ok := ToInbound(tgbotapi.Update{Message: &tgbotapi.Message{
			From: bob,
			Chat: &tgbotapi.Chat{ID: -100, Type: "supergroup"},
			Text: "/start",
		}})
		require.False(t, ok)
	})

	t.Run("button press", func(t *testing.T) {
		in, ok := ToInbound(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "q1",
			From: bob,
			Data: "shf:AB12CD",
			Message: &tgbotapi.Message{
				MessageID: 9,
				Chat:      &tgbotapi.Chat{ID: 2, Type: "private"},
			},
		}})
		require.True(t, ok)
		require.Equal(t, "shf:AB12CD", in.CallbackData)
		require.Equal(t, models.MessageHandle{ChatID: 2, MessageID: 9}, in.Message)
	})

	t.Run("other updates", func(t *testing.T) {
		_, ok := ToInbound(tgbotapi.Update{UpdateID: 1})
		require.False(t, ok)
	})
}

func TestFullName(t *testing.T) {
	require.Equal(t, "Bob Builder", fullName("Bob", "Builder", "bob"))
	require.Equal(t, "Bob", fullName("Bob", "", ""))
	require.Equal(t, "@bob", fullName("", "", "bob"))
	require.Equal(t, "", fullName("", "", ""))
}

func TestReplyMarkup(t *testing.T) {
	require.Nil(t, replyMarkup(nil))
	require.Nil(t, replyMarkup(&models.Markup{}))

	inline, ok := replyMarkup(&models.Markup{Inline: [][]models.Button{
		{{Label: "✅ Accept", Data: "acc:AB12CD:2"}, {Label: "❌ Reject", Data: "rej:AB12CD:2"}},
	}}).(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, inline.InlineKeyboard[0], 2)
	require.Equal(t, "acc:AB12CD:2", *inline.InlineKeyboard[0][0].CallbackData)

	menu, ok := replyMarkup(&models.Markup{Menu: [][]string{{"a", "b"}, {"c"}}}).(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.True(t, menu.ResizeKeyboard)
	require.Len(t, menu.Keyboard, 2)
	require.Equal(t, "c", menu.Keyboard[1][0].Text)
}

type recordingHandler struct {
	mu     sync.Mutex
	seen   map[models.UserID][]string
	onText func(in handlers.Inbound)
}

func (h *recordingHandler) Handle(_ context.Context, in handlers.Inbound) {
	if h.onText != nil {
		h.onText(in)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[in.UserID] = append(h.seen[in.UserID], in.Text)
}

func textUpdate(id int, from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: id, Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: from, FirstName: "User"},
		Chat: &tgbotapi.Chat{ID: from, Type: "private"},
		Text: text,
	}}
}

func TestBot_Receive(t *testing.T) {
	ctx := context.Background()

	t.Run("one user is handled in arrival order", func(t *testing.T) {
		handler := &recordingHandler{
			seen: make(map[models.UserID][]string),
			onText: func(handlers.Inbound) {
				time.Sleep(time.Duration(rand.IntN(200)) * time.Microsecond)
			},
		}
		bot := NewBot(nil, handler)

		var want []string
		for i := range 200 {
			text := strconv.Itoa(i)
			want = append(want, text)
			bot.Receive(ctx, textUpdate(i, 7, text))
		}
		bot.Wait()
		require.Equal(t, want, handler.seen[7])
		require.Empty(t, bot.queues, "workers exit when idle")
	})

	t.Run("users do not wait for each other", func(t *testing.T) {
		released := make(chan struct{})
		handler := &recordingHandler{seen: make(map[models.UserID][]string)}
		handler.onText = func(in handlers.Inbound) {
			switch in.UserID {
			case 1:
				select {
				case <-released:
				case <-time.After(5 * time.Second):
					t.Error("user 2 was blocked behind user 1")
				}
			case 2:
				close(released)
			}
		}
		bot := NewBot(nil, handler)
		bot.Receive(ctx, textUpdate(1, 1, "slow"))
		bot.Receive(ctx, textUpdate(2, 2, "fast"))
		bot.Wait()
		require.Equal(t, []string{"slow"}, handler.seen[1])
		require.Equal(t, []string{"fast"}, handler.seen[2])
	})

	t.Run("panic does not stop the queue", func(t *testing.T) {
		handler := &recordingHandler{seen: make(map[models.UserID][]string)}
		handler.onText = func(in handlers.Inbound) {
			if in.Text == "boom" {
				panic("handler failure")
			}
		}
		bot := NewBot(nil, handler)
		bot.Receive(ctx, textUpdate(1, 3, "boom"))
		bot.Receive(ctx, textUpdate(2, 3, "after"))
		bot.Wait()
		require.Equal(t, []string{"after"}, handler.seen[3])
	})
}
