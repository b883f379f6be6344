package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"secretsanta/internal/models"
)

// Messenger sends and edits messages through the Telegram Bot API.
// Users are addressed by their private chat, whose ID equals the user ID.
type Messenger struct {
	api *tgbotapi.BotAPI
}

// NewMessenger creates a new Messenger.
func NewMessenger(api *tgbotapi.BotAPI) *Messenger {
	return &Messenger{api: api}
}

// call runs fn but stops waiting when ctx is done. The Bot API client has no
// context support; its own HTTP timeout bounds the abandoned call.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn()
		done <- result{value, err}
	}()
	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// SendText sends body to the user's private chat.
func (m *Messenger) SendText(ctx context.Context, to models.UserID, body string, markup *models.Markup) (models.MessageHandle, error) {
	msg := tgbotapi.NewMessage(int64(to), body)
	if rm := replyMarkup(markup); rm != nil {
		msg.ReplyMarkup = rm
	}
	sent, err := call(ctx, func() (tgbotapi.Message, error) { return m.api.Send(msg) })
	if err != nil {
		return models.MessageHandle{}, fmt.Errorf("send to %d: %w", to, err)
	}
	handle := models.MessageHandle{ChatID: int64(to), MessageID: sent.MessageID}
	if sent.Chat != nil {
		handle.ChatID = sent.Chat.ID
	}
	return handle, nil
}

// EditText replaces the text of a sent message. Without inline buttons the old ones are removed.
func (m *Messenger) EditText(ctx context.Context, handle models.MessageHandle, body string, markup *models.Markup) error {
	var edit tgbotapi.Chattable
	if markup != nil && len(markup.Inline) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(handle.ChatID, handle.MessageID, body, inlineKeyboard(markup.Inline))
	} else {
		edit = tgbotapi.NewEditMessageText(handle.ChatID, handle.MessageID, body)
	}
	_, err := call(ctx, func() (tgbotapi.Message, error) { return m.api.Send(edit) })
	if err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", handle.MessageID, handle.ChatID, err)
	}
	return nil
}

// DisplayName resolves the user's current name from their chat.
func (m *Messenger) DisplayName(ctx context.Context, userID models.UserID) (string, error) {
	config := tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: int64(userID)}}
	chat, err := call(ctx, func() (tgbotapi.Chat, error) { return m.api.GetChat(config) })
	if err != nil {
		return "", fmt.Errorf("get chat %d: %w", userID, err)
	}
	name := fullName(chat.FirstName, chat.LastName, chat.UserName)
	if name == "" {
		return "", fmt.Errorf("chat %d has no name", userID)
	}
	return name, nil
}

func fullName(first, last, username string) string {
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	if username != "" {
		return "@" + username
	}
	return ""
}

// replyMarkup converts markup to the Bot API form; nil means no markup.
func replyMarkup(markup *models.Markup) any {
	switch {
	case markup == nil:
		return nil
	case len(markup.Inline) > 0:
		return inlineKeyboard(markup.Inline)
	case len(markup.Menu) > 0:
		rows := make([][]tgbotapi.KeyboardButton, len(markup.Menu))
		for i, row := range markup.Menu {
			for _, label := range row {
				rows[i] = append(rows[i], tgbotapi.NewKeyboardButton(label))
			}
		}
		keyboard := tgbotapi.NewReplyKeyboard(rows...)
		keyboard.ResizeKeyboard = true
		return keyboard
	}
	return nil
}

func inlineKeyboard(buttons [][]models.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, len(buttons))
	for i, row := range buttons {
		for _, b := range row {
			rows[i] = append(rows[i], tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
