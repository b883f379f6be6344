package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/logger"

	"secretsanta/internal/models"
)

// NoWishesPlaceholder is shown to a giver whose receiver never recorded preferences.
const NoWishesPlaceholder = "No preferences recorded"

// WishService stores one free-text gift preference per user, independent of rooms.
type WishService struct {
	mu     sync.RWMutex
	wishes map[models.UserID]string
	repo   WishRepository
}

// NewWishService creates a WishService. A nil repo keeps wishes in memory only.
func NewWishService(repo WishRepository) *WishService {
	if repo == nil {
		repo = volatileRepository{}
	}
	return &WishService{
		wishes: make(map[models.UserID]string),
		repo:   repo,
	}
}

// Restore loads previously persisted wishes.
func (s *WishService) Restore(ctx context.Context) error {
	stored, err := s.repo.LoadWishes(ctx)
	if err != nil {
		return fmt.Errorf("load wishes: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, text := range stored {
		s.wishes[id] = text
	}
	return nil
}

// SetWishes overwrites the user's wish text. Content is not validated.
func (s *WishService) SetWishes(ctx context.Context, userID models.UserID, text string) {
	s.mu.Lock()
	s.wishes[userID] = text
	s.mu.Unlock()

	if err := s.repo.SaveWishes(ctx, userID, text); err != nil {
		logger.Errorf("Failed to persist wishes for user %d: %v", userID, err)
	}
}

// GetWishes returns the user's wish text and whether one was ever recorded.
func (s *WishService) GetWishes(userID models.UserID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.wishes[userID]
	return text, ok
}

// WishesFor returns the user's wishes, or NoWishesPlaceholder when absent or blank.
func (s *WishService) WishesFor(userID models.UserID) string {
	if text, ok := s.GetWishes(userID); ok && strings.TrimSpace(text) != "" {
		return text
	}
	return NoWishesPlaceholder
}

// Count returns the number of recorded wish profiles.
func (s *WishService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wishes)
}
