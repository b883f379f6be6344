package services

import (
	"context"

	"secretsanta/internal/models"
)

//go:generate go run go.uber.org/mock/mockgen -source=messenger.go -destination=../mocks/mock_messenger.go -package=mocks

// Messenger is the outbound side of the chat transport.
// Each call is a single delivery attempt; retries are the transport's business.
type Messenger interface {
	SendText(ctx context.Context, to models.UserID, body string, markup *models.Markup) (models.MessageHandle, error)
	EditText(ctx context.Context, handle models.MessageHandle, body string, markup *models.Markup) error
	DisplayName(ctx context.Context, userID models.UserID) (string, error)
}
