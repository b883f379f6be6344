package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"secretsanta/internal/models"
)

// memoryWishRepo is a WishRepository backed by a map, optionally failing writes.
type memoryWishRepo struct {
	volatileRepository
	mu      sync.Mutex
	saved   map[models.UserID]string
	saveErr error
}

func (r *memoryWishRepo) SaveWishes(_ context.Context, id models.UserID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.saved == nil {
		r.saved = make(map[models.UserID]string)
	}
	r.saved[id] = text
	return nil
}

func (r *memoryWishRepo) LoadWishes(context.Context) (map[models.UserID]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[models.UserID]string, len(r.saved))
	for id, text := range r.saved {
		out[id] = text
	}
	return out, nil
}

func TestWishService(t *testing.T) {
	ctx := context.Background()

	t.Run("absent wishes use the placeholder", func(t *testing.T) {
		s := NewWishService(nil)
		_, ok := s.GetWishes(alice)
		require.False(t, ok)
		require.Equal(t, NoWishesPlaceholder, s.WishesFor(alice))
	})

	t.Run("overwrite keeps the last value", func(t *testing.T) {
		s := NewWishService(nil)
		s.SetWishes(ctx, alice, "Books")
		s.SetWishes(ctx, alice, "Tea and socks")
		text, ok := s.GetWishes(alice)
		require.True(t, ok)
		require.Equal(t, "Tea and socks", text)
		require.Equal(t, "Tea and socks", s.WishesFor(alice))
		require.Equal(t, 1, s.Count())
	})

	t.Run("blank wishes render as the placeholder", func(t *testing.T) {
		s := NewWishService(nil)
		s.SetWishes(ctx, bob, "  \n ")
		text, ok := s.GetWishes(bob)
		require.True(t, ok)
		require.Equal(t, "  \n ", text)
		require.Equal(t, NoWishesPlaceholder, s.WishesFor(bob))
	})

	t.Run("restored from the repository", func(t *testing.T) {
		repo := &memoryWishRepo{}
		first := NewWishService(repo)
		first.SetWishes(ctx, alice, "Chocolate")
		first.SetWishes(ctx, carol, "Plants")

		second := NewWishService(repo)
		require.NoError(t, second.Restore(ctx))
		require.Equal(t, "Chocolate", second.WishesFor(alice))
		require.Equal(t, "Plants", second.WishesFor(carol))
		require.Equal(t, 2, second.Count())
	})

	t.Run("storage failure does not lose the update", func(t *testing.T) {
		repo := &memoryWishRepo{saveErr: errors.New("disk full")}
		s := NewWishService(repo)
		s.SetWishes(ctx, dave, "Puzzles")
		require.Equal(t, "Puzzles", s.WishesFor(dave))
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := NewWishService(nil)
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.SetWishes(ctx, models.UserID(i), "anything")
				_ = s.WishesFor(models.UserID(i + 1))
			}()
		}
		wg.Wait()
		require.Equal(t, 50, s.Count())
	})
}
