package services

import (
	"context"

	"secretsanta/internal/models"
)

// RoomRepository persists rooms after each committed mutation.
type RoomRepository interface {
	SaveRoom(ctx context.Context, room models.StoredRoom) error
	DeleteRoom(ctx context.Context, code string) error
	LoadRooms(ctx context.Context) ([]models.StoredRoom, error)
}

// WishRepository persists wish profiles.
type WishRepository interface {
	SaveWishes(ctx context.Context, userID models.UserID, text string) error
	LoadWishes(ctx context.Context) (map[models.UserID]string, error)
}

// volatileRepository keeps nothing; state lives only in process memory.
type volatileRepository struct{}

func (volatileRepository) SaveRoom(context.Context, models.StoredRoom) error { return nil }
func (volatileRepository) DeleteRoom(context.Context, string) error          { return nil }
func (volatileRepository) LoadRooms(context.Context) ([]models.StoredRoom, error) {
	return nil, nil
}
func (volatileRepository) SaveWishes(context.Context, models.UserID, string) error { return nil }
func (volatileRepository) LoadWishes(context.Context) (map[models.UserID]string, error) {
	return nil, nil
}
