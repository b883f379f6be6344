package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/logger"

	"secretsanta/internal/handlers"
	"secretsanta/internal/models"
)

// UpdateHandler processes one inbound event.
type UpdateHandler interface {
	Handle(ctx context.Context, in handlers.Inbound)
}

// Bot feeds Telegram updates to the handler. Users are served concurrently, but
// each user's updates are handled one at a time in arrival order.
type Bot struct {
	api      *tgbotapi.BotAPI
	handler  UpdateHandler
	inflight sync.WaitGroup

	mu     sync.Mutex
	queues map[models.UserID][]queuedUpdate // a key exists while the user's worker runs
}

type queuedUpdate struct {
	ctx        context.Context
	updateID   int
	callbackID string
	in         handlers.Inbound
}

// NewBot creates a new Bot.
func NewBot(api *tgbotapi.BotAPI, handler UpdateHandler) *Bot {
	return &Bot{
		api:     api,
		handler: handler,
		queues:  make(map[models.UserID][]queuedUpdate),
	}
}

// Receive queues one update for its user. It returns immediately.
func (b *Bot) Receive(ctx context.Context, update tgbotapi.Update) {
	in, ok := ToInbound(update)
	if !ok {
		return
	}
	item := queuedUpdate{ctx: context.WithoutCancel(ctx), updateID: update.UpdateID, in: in}
	if update.CallbackQuery != nil {
		item.callbackID = update.CallbackQuery.ID
	}

	b.mu.Lock()
	queue, running := b.queues[in.UserID]
	b.queues[in.UserID] = append(queue, item)
	if !running {
		b.inflight.Add(1)
	}
	b.mu.Unlock()

	if !running {
		go b.drain(in.UserID)
	}
}

// drain handles the user's queued updates until the queue is empty.
func (b *Bot) drain(userID models.UserID) {
	defer b.inflight.Done()
	for {
		b.mu.Lock()
		queue := b.queues[userID]
		if len(queue) == 0 {
			delete(b.queues, userID)
			b.mu.Unlock()
			return
		}
		item := queue[0]
		b.queues[userID] = queue[1:]
		b.mu.Unlock()

		b.handle(item)
	}
}

func (b *Bot) handle(item queuedUpdate) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Panic while handling update %d: %v", item.updateID, r)
		}
	}()
	if item.callbackID != "" {
		b.answerCallback(item.callbackID)
	}
	b.handler.Handle(item.ctx, item.in)
}

// answerCallback stops the client's loading spinner on the pressed button.
func (b *Bot) answerCallback(id string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		logger.Warningf("Failed to answer callback %s: %v", id, err)
	}
}

// Poll long-polls for updates until ctx is done.
func (b *Bot) Poll(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	config := tgbotapi.NewUpdate(0)
	config.Timeout = 60
	updates := b.api.GetUpdatesChan(config)

	logger.Infof("Polling for updates as @%s", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.Receive(ctx, update)
		}
	}
}

// SetWebhook points Telegram at url for update delivery. Telegram sends secret back
// in the X-Telegram-Bot-Api-Secret-Token header of every call.
// WebhookConfig has no secret_token field, so the request is built by hand.
func (b *Bot) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{}
	params["url"] = url
	params.AddNonEmpty("secret_token", secret)
	if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	logger.Infof("Webhook set to %s", url)
	return nil
}

// Wait blocks until every in-flight update has been handled.
func (b *Bot) Wait() {
	b.inflight.Wait()
}

// ToInbound converts a Telegram update into a transport-neutral event.
// Only private-chat messages and button presses are handled.
func ToInbound(update tgbotapi.Update) (handlers.Inbound, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		q := update.CallbackQuery
		in := handlers.Inbound{
			UserID:       models.UserID(q.From.ID),
			DisplayName:  userName(q.From),
			CallbackData: q.Data,
		}
		if q.Message != nil && q.Message.Chat != nil {
			in.Message = models.MessageHandle{ChatID: q.Message.Chat.ID, MessageID: q.Message.MessageID}
		}
		return in, true
	case update.Message != nil && update.Message.From != nil:
		m := update.Message
		if m.Chat == nil || !m.Chat.IsPrivate() {
			return handlers.Inbound{}, false
		}
		return handlers.Inbound{
			UserID:      models.UserID(m.From.ID),
			DisplayName: userName(m.From),
			Text:        m.Text,
		}, true
	}
	return handlers.Inbound{}, false
}

func userName(u *tgbotapi.User) string {
	return fullName(u.FirstName, u.LastName, u.UserName)
}
