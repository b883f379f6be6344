package handlers

import (
	"context"
	"errors"
	"slices"

	"github.com/google/logger"
	"github.com/samber/lo"

	"secretsanta/internal/models"
	"secretsanta/internal/services"
)

// Inbound is one user event from the chat transport.
type Inbound struct {
	UserID      models.UserID
	DisplayName string
	Text        string
	// CallbackData is set for button presses; Message is the message holding the button.
	CallbackData string
	Message      models.MessageHandle
}

// BotHandler decodes inbound events into commands and runs them against the services.
type BotHandler struct {
	rooms     *services.RoomService
	wishes    *services.WishService
	messenger services.Messenger
	convs     *conversations
}

// NewBotHandler creates a new BotHandler.
func NewBotHandler(rooms *services.RoomService, wishes *services.WishService, messenger services.Messenger) *BotHandler {
	return &BotHandler{
		rooms:     rooms,
		wishes:    wishes,
		messenger: messenger,
		convs:     newConversations(),
	}
}

// Handle processes a single inbound event.
func (h *BotHandler) Handle(ctx context.Context, in Inbound) {
	if in.CallbackData == "" {
		h.dispatch(ctx, in, DecodeText(in.Text))
		return
	}
	cmd, err := DecodeCallback(in.CallbackData)
	if err != nil {
		logger.Warningf("Dropping callback from %d: %v", in.UserID, err)
		h.reply(ctx, in.UserID, staleButtonText, nil)
		return
	}
	h.dispatch(ctx, in, cmd)
}

func (h *BotHandler) dispatch(ctx context.Context, in Inbound, cmd Command) {
	switch c := cmd.(type) {
	case StartCmd:
		h.convs.reset(in.UserID)
		h.reply(ctx, in.UserID, welcomeText, &models.Markup{Menu: MainMenu})
	case HelpCmd:
		h.reply(ctx, in.UserID, helpText, nil)
	case CancelCmd:
		h.convs.reset(in.UserID)
		h.reply(ctx, in.UserID, cancelledText, &models.Markup{Menu: MainMenu})
	case CreateRoomCmd:
		h.convs.set(in.UserID, stateCreating)
		h.reply(ctx, in.UserID, stepPrompt(services.AwaitingName), nil)
	case JoinRoomCmd:
		if c.Code == "" {
			h.convs.set(in.UserID, stateAwaitingCode)
			h.reply(ctx, in.UserID, askCodeText, nil)
			return
		}
		h.join(ctx, in, c.Code)
	case MyRoomsCmd:
		h.listRooms(ctx, in)
	case MyWishesCmd:
		current, ok := h.wishes.GetWishes(in.UserID)
		h.convs.set(in.UserID, stateAwaitingWishes)
		h.reply(ctx, in.UserID, wishesPrompt(current, ok), nil)
	case TextCmd:
		h.handleText(ctx, in, c.Body)
	case AcceptCmd:
		room, err := h.rooms.Accept(ctx, c.Code, in.UserID, c.Candidate)
		if err != nil {
			h.answerDecision(ctx, in, errorText(err))
			return
		}
		h.answerDecision(ctx, in, acceptedText(room, c.Candidate))
	case RejectCmd:
		room, err := h.rooms.Reject(ctx, c.Code, in.UserID, c.Candidate)
		if err != nil {
			h.answerDecision(ctx, in, errorText(err))
			return
		}
		h.answerDecision(ctx, in, rejectedText(room))
	case ShuffleCmd:
		room, _, err := h.rooms.Shuffle(ctx, c.Code, in.UserID)
		if err != nil {
			h.reply(ctx, in.UserID, errorText(err), nil)
			return
		}
		h.answerDecision(ctx, in, shuffleStartedText(room))
	case RoomInfoCmd:
		h.roomInfo(ctx, in, c.Code)
	default:
		logger.Warningf("Unhandled command %T from %d", cmd, in.UserID)
	}
}

func (h *BotHandler) handleText(ctx context.Context, in Inbound, body string) {
	switch h.convs.state(in.UserID) {
	case stateCreating:
		h.advanceCreation(ctx, in, body)
	case stateAwaitingCode:
		code := models.NormalizeRoomCode(body)
		if !models.IsValidRoomCode(code) {
			h.reply(ctx, in.UserID, badCodeText, nil)
			return
		}
		h.join(ctx, in, code)
	case stateAwaitingWishes:
		h.wishes.SetWishes(ctx, in.UserID, body)
		h.convs.reset(in.UserID)
		h.reply(ctx, in.UserID, wishesSavedText, nil)
	default:
		h.reply(ctx, in.UserID, fallbackText, &models.Markup{Menu: MainMenu})
	}
}

func (h *BotHandler) advanceCreation(ctx context.Context, in Inbound, body string) {
	var (
		step  services.Step
		draft *models.RoomDraft
		err   error
	)
	h.convs.with(in.UserID, func(conv *conversation) {
		if conv.session == nil {
			conv.session = services.NewCreateSession()
		}
		step, draft, err = conv.session.Advance(body)
		if draft != nil {
			conv.state = stateIdle
		}
	})

	switch {
	case err != nil:
		h.reply(ctx, in.UserID, errorText(err)+"\n\n"+stepPrompt(step), nil)
	case draft == nil:
		h.reply(ctx, in.UserID, stepPrompt(step), nil)
	default:
		room, err := h.rooms.CreateRoom(ctx, in.UserID, in.DisplayName, *draft)
		if err != nil {
			h.reply(ctx, in.UserID, errorText(err), nil)
			return
		}
		h.reply(ctx, in.UserID, roomCreatedText(room), roomMarkup(room, in.UserID))
	}
}

func (h *BotHandler) join(ctx context.Context, in Inbound, code string) {
	room, err := h.rooms.RequestJoin(ctx, code, in.UserID, in.DisplayName)
	if errors.Is(err, services.ErrRoomNotFound) {
		// Stay in the code prompt so the user can retype it.
		h.convs.set(in.UserID, stateAwaitingCode)
		h.reply(ctx, in.UserID, errorText(err), nil)
		return
	}
	h.convs.reset(in.UserID)
	if err != nil {
		h.reply(ctx, in.UserID, errorText(err), nil)
		return
	}
	h.reply(ctx, in.UserID, joinRequestedText(room), nil)
}

func (h *BotHandler) listRooms(ctx context.Context, in Inbound) {
	summaries := slices.Collect(h.rooms.ListRoomsFor(in.UserID))
	if len(summaries) == 0 {
		h.reply(ctx, in.UserID, noRoomsText, nil)
		return
	}
	slices.SortFunc(summaries, func(a, b models.RoomSummary) int {
		return a.Room.CreatedAt.Compare(b.Room.CreatedAt)
	})
	buttons := lo.Map(summaries, func(s models.RoomSummary, _ int) []models.Button {
		return []models.Button{{
			Label: s.Room.Name + " (" + s.Room.Code + ")",
			Data:  models.Action{Kind: models.ActionRoomInfo, Code: s.Room.Code}.Encode(),
		}}
	})
	h.reply(ctx, in.UserID, roomListText(summaries), &models.Markup{Inline: buttons})
}

func (h *BotHandler) roomInfo(ctx context.Context, in Inbound, code string) {
	room, err := h.rooms.GetRoom(code)
	if err == nil && !room.IsMember(in.UserID) {
		err = services.ErrRoomNotFound
	}
	if err != nil {
		h.reply(ctx, in.UserID, errorText(err), nil)
		return
	}
	body := roomCard(room)
	if room.AdminID == in.UserID {
		body += h.adminNotes(room)
	}
	h.reply(ctx, in.UserID, body, roomMarkup(room, in.UserID))
}

// adminNotes adds what only the admin sees: waiting requests and the latest-room marker.
func (h *BotHandler) adminNotes(room models.Room) string {
	var notes string
	if pending, err := h.rooms.PendingRequests(room.Code, room.AdminID); err == nil && len(pending) > 0 && !room.Shuffled {
		notes += pendingNote(len(pending))
	}
	if latest, ok := h.rooms.LastCreatedRoom(room.AdminID); ok && latest == room.Code {
		notes += latestRoomNote
	}
	return notes
}

// roomMarkup offers the shuffle button to the admin of a room not yet shuffled.
func roomMarkup(room models.Room, viewer models.UserID) *models.Markup {
	if room.AdminID != viewer || room.Shuffled {
		return nil
	}
	return &models.Markup{Inline: [][]models.Button{{
		{Label: "🎲 Start shuffle", Data: models.Action{Kind: models.ActionShuffle, Code: room.Code}.Encode()},
	}}}
}

// answerDecision replaces the message whose button was pressed, or sends a new one.
func (h *BotHandler) answerDecision(ctx context.Context, in Inbound, body string) {
	if in.Message != (models.MessageHandle{}) {
		err := h.messenger.EditText(ctx, in.Message, body, nil)
		if err == nil {
			return
		}
		logger.Warningf("Failed to edit message %d for %d: %v", in.Message.MessageID, in.UserID, err)
	}
	h.reply(ctx, in.UserID, body, nil)
}

func (h *BotHandler) reply(ctx context.Context, to models.UserID, body string, markup *models.Markup) {
	if _, err := h.messenger.SendText(ctx, to, body, markup); err != nil {
		logger.Warningf("Failed to reply to %d: %v", to, err)
	}
}
