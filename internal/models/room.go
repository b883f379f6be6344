package models

import (
	"slices"
	"time"
)

// UserID identifies a chat user. In private chats it doubles as the chat ID.
type UserID int64

// Room represents a single gift exchange event.
// Metadata and AdminID are fixed at creation; Participants keeps join order,
// which the pairing engine uses as its positional order.
type Room struct {
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Budget       string            `json:"budget"`
	ExchangeDate string            `json:"exchangeDate"`
	AdminID      UserID            `json:"adminId"`
	Participants []UserID          `json:"participants"`
	DisplayNames map[UserID]string `json:"displayNames"`
	Shuffled     bool              `json:"shuffled"`
	Pairing      map[UserID]UserID `json:"pairing,omitempty"` // giver -> receiver
	CreatedAt    time.Time         `json:"createdAt"`
}

// Clone returns a deep copy so callers can read a room outside its lock.
func (r Room) Clone() Room {
	c := r
	c.Participants = slices.Clone(r.Participants)
	c.DisplayNames = make(map[UserID]string, len(r.DisplayNames))
	for id, name := range r.DisplayNames {
		c.DisplayNames[id] = name
	}
	if r.Pairing != nil {
		c.Pairing = make(map[UserID]UserID, len(r.Pairing))
		for giver, receiver := range r.Pairing {
			c.Pairing[giver] = receiver
		}
	}
	return c
}

// IsMember reports whether id is in the participant list.
func (r Room) IsMember(id UserID) bool {
	return slices.Contains(r.Participants, id)
}

// DisplayName returns the snapshot name captured for id, or the generic placeholder.
func (r Room) DisplayName(id UserID) string {
	if name, ok := r.DisplayNames[id]; ok && name != "" {
		return name
	}
	return DefaultDisplayName
}

// DefaultDisplayName is used whenever a user's name could not be resolved.
const DefaultDisplayName = "Participant"

// Role is the relation of a user to a room.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

// RoomSummary is one entry of a user's room list.
type RoomSummary struct {
	Room     Room
	Role     Role
	Shuffled bool
}

// RoomDraft holds the metadata collected by the room creation dialogue.
type RoomDraft struct {
	Name         string `validate:"required,max=64"`
	Description  string `validate:"required,max=512"`
	Budget       string `validate:"required,max=32"`
	ExchangeDate string `validate:"required,max=64"`
}

// StoredRoom is a room together with its pending join requests, as persisted.
type StoredRoom struct {
	Room    Room     `json:"room"`
	Pending []UserID `json:"pending,omitempty"`
}
