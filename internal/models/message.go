package models

// Button is an inline button carrying an opaque callback token.
type Button struct {
	Label string
	Data  string
}

// Markup is optional structure attached to an outbound message.
// Inline buttons sit under the message; Menu replaces the user's reply keyboard.
type Markup struct {
	Inline [][]Button
	Menu   [][]string
}

// MessageHandle addresses a previously sent message so it can be edited.
type MessageHandle struct {
	ChatID    int64
	MessageID int
}
