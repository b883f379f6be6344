package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"secretsanta/internal/models"
	"secretsanta/internal/services"
)

const (
	welcomeText = "🎅 Welcome to Secret Santa!\n\n" +
		"I help you organize a gift exchange.\n\n" +
		"Choose an action:"

	helpText = "🎅 How to run a Secret Santa:\n\n" +
		"1. Create a room: tap \"" + LabelCreateRoom + "\"\n" +
		"2. Invite friends: share the room code\n" +
		"3. Approve join requests as they come in\n" +
		"4. Start the shuffle when everyone is in\n" +
		"5. Exchange gifts!\n\n" +
		"Commands:\n" +
		"/start - main menu\n" +
		"/join CODE - join a room\n" +
		"/cancel - abort the current step\n" +
		"/help - this help"

	fallbackText     = "Use the menu buttons or type /start"
	cancelledText    = "Cancelled."
	askCodeText      = "🎄 Enter the 6-character room code you got from the organizer:"
	badCodeText      = "That doesn't look like a room code. It has 6 letters or digits, e.g. AB12CD. Try again or /cancel."
	wishesSavedText  = "✅ Your wishes are saved. Your Secret Santa will see them after the shuffle."
	noRoomsText      = "You are not in any rooms yet. Create one or join with a code!"
	staleButtonText  = "This button is no longer valid."
	genericErrorText = "Something went wrong, please try again."
	latestRoomNote   = "\n🆕 Your most recently created room"
)

func pendingNote(n int) string {
	return fmt.Sprintf("\n📨 Join requests waiting: %d", n)
}

func stepPrompt(step services.Step) string {
	switch step {
	case services.AwaitingName:
		return "🎅 Creating a room.\n\nWhat is the name of your exchange?"
	case services.AwaitingDescription:
		return "📝 Add a short description:"
	case services.AwaitingBudget:
		return "💰 What is the gift budget?"
	default:
		return "📅 When is the gift exchange?"
	}
}

func wishesPrompt(current string, ok bool) string {
	if !ok {
		current = "(not set)"
	}
	return "✏️ Your current wishes:\n" + current + "\n\n" +
		"Send a new message to replace them: favorite genres, sizes, hobbies, allergies..."
}

func joinRequestedText(room models.Room) string {
	return fmt.Sprintf("📨 Request to join \"%s\" sent. Wait for the admin to approve it.", room.Name)
}

func roomCreatedText(room models.Room) string {
	return fmt.Sprintf("🎉 Room created!\n\nCode: %s\nShare this code with your friends so they can join.\n\n%s",
		room.Code, roomCard(room))
}

func roomCard(room models.Room) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎄 %s (%s)\n", room.Name, room.Code)
	fmt.Fprintf(&b, "%s\n", room.Description)
	fmt.Fprintf(&b, "💰 Budget: %s\n", room.Budget)
	fmt.Fprintf(&b, "📅 Date: %s\n", room.ExchangeDate)
	status := "waiting for shuffle"
	if room.Shuffled {
		status = "shuffled"
	}
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "%s", rosterText(room))
	return b.String()
}

func rosterText(room models.Room) string {
	names := lo.Map(room.Participants, func(id models.UserID, i int) string {
		name := room.DisplayName(id)
		if id == room.AdminID {
			name += " (admin)"
		}
		return fmt.Sprintf("%d. %s", i+1, name)
	})
	return fmt.Sprintf("Participants (%d):\n%s", len(room.Participants), strings.Join(names, "\n"))
}

func roomListText(summaries []models.RoomSummary) string {
	lines := lo.Map(summaries, func(s models.RoomSummary, _ int) string {
		status := "⏳"
		if s.Shuffled {
			status = "✅"
		}
		return fmt.Sprintf("%s %s (%s) - %s", status, s.Room.Name, s.Room.Code, s.Role)
	})
	return "📋 Your rooms:\n\n" + strings.Join(lines, "\n")
}

func acceptedText(room models.Room, candidate models.UserID) string {
	return fmt.Sprintf("✅ %s joined \"%s\".\n\n%s", room.DisplayName(candidate), room.Name, rosterText(room))
}

func rejectedText(room models.Room) string {
	return fmt.Sprintf("❌ Request to join \"%s\" declined.", room.Name)
}

func shuffleStartedText(room models.Room) string {
	return fmt.Sprintf("🎲 Shuffle done for \"%s\". Sending assignments to %d participants...",
		room.Name, len(room.Participants))
}

// errorText turns a service error into the rejection shown to the acting user.
func errorText(err error) string {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		return "Room not found. Check the code and try again."
	case errors.Is(err, services.ErrNoPendingRequest):
		return "This request has already been handled."
	case errors.Is(err, services.ErrNotAdmin):
		return "Only the room admin can do this."
	case errors.Is(err, services.ErrAlreadyMember):
		return "Already a member of this room."
	case errors.Is(err, services.ErrAlreadyShuffled):
		return "The shuffle in this room has already happened."
	case errors.Is(err, services.ErrNotEnoughParticipants):
		return "Need at least 2 participants to shuffle."
	case errors.Is(err, services.ErrEmptyInput):
		return "Please send some text."
	case errors.Is(err, services.ErrInvalidInput):
		return "That answer is too long, please shorten it."
	}
	return genericErrorText
}
