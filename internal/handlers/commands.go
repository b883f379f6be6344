package handlers

import (
	"strings"

	"secretsanta/internal/models"
)

// Main menu labels.
const (
	LabelCreateRoom = "🎅 Create room"
	LabelJoinRoom   = "🎄 Join room"
	LabelMyRooms    = "📋 My rooms"
	LabelMyWishes   = "✏️ My wishes"
	LabelHelp       = "❓ Help"
)

// MainMenu is the reply keyboard shown after /start.
var MainMenu = [][]string{
	{LabelCreateRoom, LabelJoinRoom},
	{LabelMyRooms, LabelMyWishes, LabelHelp},
}

// Command is a decoded user intent. The set of implementations is closed.
type Command interface {
	isCommand()
}

type (
	StartCmd      struct{}
	HelpCmd       struct{}
	CancelCmd     struct{}
	CreateRoomCmd struct{}
	MyRoomsCmd    struct{}
	MyWishesCmd   struct{}
	// JoinRoomCmd carries a code when given inline ("/join ABC123").
	JoinRoomCmd struct{ Code string }
	// TextCmd is free text answering whatever the conversation is waiting for.
	TextCmd   struct{ Body string }
	AcceptCmd struct {
		Code      string
		Candidate models.UserID
	}
	RejectCmd struct {
		Code      string
		Candidate models.UserID
	}
	ShuffleCmd  struct{ Code string }
	RoomInfoCmd struct{ Code string }
)

func (StartCmd) isCommand()      {}
func (HelpCmd) isCommand()       {}
func (CancelCmd) isCommand()     {}
func (CreateRoomCmd) isCommand() {}
func (MyRoomsCmd) isCommand()    {}
func (MyWishesCmd) isCommand()   {}
func (JoinRoomCmd) isCommand()   {}
func (TextCmd) isCommand()       {}
func (AcceptCmd) isCommand()     {}
func (RejectCmd) isCommand()     {}
func (ShuffleCmd) isCommand()    {}
func (RoomInfoCmd) isCommand()   {}

// DecodeText maps a text message to a command.
func DecodeText(text string) Command {
	trimmed := strings.TrimSpace(text)

	switch trimmed {
	case LabelCreateRoom:
		return CreateRoomCmd{}
	case LabelJoinRoom:
		return JoinRoomCmd{}
	case LabelMyRooms:
		return MyRoomsCmd{}
	case LabelMyWishes:
		return MyWishesCmd{}
	case LabelHelp:
		return HelpCmd{}
	}

	if !strings.HasPrefix(trimmed, "/") {
		return TextCmd{Body: text}
	}
	name, arg, _ := strings.Cut(trimmed, " ")
	// Group chats address commands as /cmd@botname.
	name, _, _ = strings.Cut(name, "@")
	switch strings.ToLower(name) {
	case "/start":
		return StartCmd{}
	case "/help":
		return HelpCmd{}
	case "/cancel":
		return CancelCmd{}
	case "/create":
		return CreateRoomCmd{}
	case "/join":
		return JoinRoomCmd{Code: models.NormalizeRoomCode(arg)}
	case "/rooms":
		return MyRoomsCmd{}
	case "/wishes":
		return MyWishesCmd{}
	}
	return TextCmd{Body: text}
}

// DecodeCallback maps a button callback token to a command.
func DecodeCallback(data string) (Command, error) {
	action, err := models.ParseAction(data)
	if err != nil {
		return nil, err
	}
	switch action.Kind {
	case models.ActionAccept:
		return AcceptCmd{Code: action.Code, Candidate: action.Target}, nil
	case models.ActionReject:
		return RejectCmd{Code: action.Code, Candidate: action.Target}, nil
	case models.ActionShuffle:
		return ShuffleCmd{Code: action.Code}, nil
	default:
		return RoomInfoCmd{Code: action.Code}, nil
	}
}
