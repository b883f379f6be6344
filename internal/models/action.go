package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ActionKind is the verb carried by a callback token.
type ActionKind string

const (
	ActionAccept   ActionKind = "acc"
	ActionReject   ActionKind = "rej"
	ActionShuffle  ActionKind = "shf"
	ActionRoomInfo ActionKind = "info"
)

// RoomCodeLength is the number of characters in a room code.
const RoomCodeLength = 6

// RoomCodeAlphabet is the set of characters room codes are drawn from.
const RoomCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var ErrMalformedAction = errors.New("malformed action token")

// Action is the decoded form of a button callback: kind:CODE[:userID].
type Action struct {
	Kind   ActionKind
	Code   string
	Target UserID
}

// Encode renders the action as a callback token.
func (a Action) Encode() string {
	switch a.Kind {
	case ActionAccept, ActionReject:
		return fmt.Sprintf("%s:%s:%d", a.Kind, a.Code, a.Target)
	default:
		return fmt.Sprintf("%s:%s", a.Kind, a.Code)
	}
}

// ParseAction decodes a callback token produced by Encode.
func ParseAction(token string) (Action, error) {
	parts := strings.Split(token, ":")
	if len(parts) < 2 {
		return Action{}, fmt.Errorf("%w: %q", ErrMalformedAction, token)
	}
	action := Action{Kind: ActionKind(parts[0]), Code: parts[1]}
	if !IsValidRoomCode(action.Code) {
		return Action{}, fmt.Errorf("%w: bad room code in %q", ErrMalformedAction, token)
	}

	switch action.Kind {
	case ActionAccept, ActionReject:
		if len(parts) != 3 {
			return Action{}, fmt.Errorf("%w: %q needs a target", ErrMalformedAction, token)
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("%w: bad target in %q", ErrMalformedAction, token)
		}
		action.Target = UserID(id)
	case ActionShuffle, ActionRoomInfo:
		if len(parts) != 2 {
			return Action{}, fmt.Errorf("%w: %q", ErrMalformedAction, token)
		}
	default:
		return Action{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedAction, parts[0])
	}
	return action, nil
}

// NormalizeRoomCode trims whitespace and upper-cases a code typed by a user.
func NormalizeRoomCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsValidRoomCode reports whether code has the room code shape.
func IsValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(RoomCodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
