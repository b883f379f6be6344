package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"secretsanta/internal/mocks"
	"secretsanta/internal/models"
)

func shuffledRoom() models.Room {
	return models.Room{
		Code:         "XMAS24",
		Name:         "Office Exchange",
		Budget:       "1000",
		ExchangeDate: "December 24",
		AdminID:      alice,
		Participants: []models.UserID{alice, bob, carol},
		DisplayNames: map[models.UserID]string{alice: "Alice", bob: "Bob", carol: "Carol"},
		Shuffled:     true,
		Pairing:      map[models.UserID]models.UserID{alice: bob, bob: carol, carol: alice},
	}
}

func TestDispatcher_NotifyPairingResult(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	messenger := mocks.NewMockMessenger(ctrl)
	wishes := NewWishService(nil)
	wishes.SetWishes(ctx, carol, "Jigsaw puzzles")
	d := NewDispatcher(messenger, wishes, 2, time.Second)
	room := shuffledRoom()

	gomock.InOrder(
		messenger.EXPECT().SendText(gomock.Any(), bob, gomock.Any(), gomock.Nil()).
			DoAndReturn(func(ctx context.Context, _ models.UserID, body string, _ *models.Markup) (models.MessageHandle, error) {
				_, hasDeadline := ctx.Deadline()
				require.True(t, hasDeadline, "send timeout applies")
				require.Contains(t, body, "You are Secret Santa for: Carol")
				require.Contains(t, body, "Their wishes: Jigsaw puzzles")
				require.Contains(t, body, "Budget: 1000")
				require.Contains(t, body, "Exchange date: December 24")
				return models.MessageHandle{}, nil
			}),
		messenger.EXPECT().SendText(gomock.Any(), carol, gomock.Any(), gomock.Nil()).
			DoAndReturn(func(_ context.Context, _ models.UserID, body string, _ *models.Markup) (models.MessageHandle, error) {
				require.Contains(t, body, "You are Secret Santa for: Alice")
				require.Contains(t, body, "Their wishes: "+NoWishesPlaceholder)
				return models.MessageHandle{}, errBlocked
			}),
	)

	require.NoError(t, d.NotifyPairingResult(ctx, room, bob, carol))
	require.ErrorIs(t, d.NotifyPairingResult(ctx, room, carol, alice), errBlocked)
}

func TestDispatcher_DispatchPairing(t *testing.T) {
	ctx := context.Background()

	t.Run("one failure does not stop the rest", func(t *testing.T) {
		f := newFixture(t, testNames, bob)
		report := <-f.dispatcher.DispatchPairing(ctx, shuffledRoom())

		require.Equal(t, "XMAS24", report.RoomCode)
		require.Equal(t, 3, report.Total)
		require.Equal(t, 2, report.Successful)
		require.Equal(t, []models.UserID{bob}, report.Failed())
		require.ErrorIs(t, report.Deliveries[1].Err, errBlocked)
		require.True(t, report.Deliveries[0].Delivered())
		require.True(t, report.Deliveries[2].Delivered())

		summary := f.outbox.containing("Delivered 2 of 3")
		require.Len(t, summary, 1)
		require.Equal(t, alice, summary[0].to)
		require.Contains(t, summary[0].body, "Not delivered to: Bob")
	})

	t.Run("channel closes after the report", func(t *testing.T) {
		f := newFixture(t, testNames)
		ch := f.dispatcher.DispatchPairing(ctx, shuffledRoom())
		report, ok := <-ch
		require.True(t, ok)
		require.Equal(t, 3, report.Successful)
		_, ok = <-ch
		require.False(t, ok)
	})

	t.Run("cancelled caller context does not abort delivery", func(t *testing.T) {
		f := newFixture(t, testNames)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		report := <-f.dispatcher.DispatchPairing(cancelled, shuffledRoom())
		require.Equal(t, 3, report.Successful)
	})

	t.Run("report ids are unique", func(t *testing.T) {
		f := newFixture(t, testNames)
		first := <-f.dispatcher.DispatchPairing(ctx, shuffledRoom())
		second := <-f.dispatcher.DispatchPairing(ctx, shuffledRoom())
		require.NotEqual(t, first.ID, second.ID)
	})
}

func TestDispatcher_NotifyAdminOfJoinRequest(t *testing.T) {
	f := newFixture(t, testNames)
	room := shuffledRoom()
	f.dispatcher.NotifyAdminOfJoinRequest(context.Background(), room, dave, "Dave")
	f.dispatcher.Wait()

	msgs := f.outbox.to(alice)
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].body, "Dave wants to join \"Office Exchange\" (XMAS24)")

	buttons := msgs[0].markup.Inline[0]
	accept, err := models.ParseAction(buttons[0].Data)
	require.NoError(t, err)
	require.Equal(t, models.Action{Kind: models.ActionAccept, Code: "XMAS24", Target: dave}, accept)
	reject, err := models.ParseAction(buttons[1].Data)
	require.NoError(t, err)
	require.Equal(t, models.Action{Kind: models.ActionReject, Code: "XMAS24", Target: dave}, reject)
}

func TestDispatcher_ResolveDisplayName(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	messenger := mocks.NewMockMessenger(ctrl)
	d := NewDispatcher(messenger, NewWishService(nil), 0, 0)

	messenger.EXPECT().DisplayName(gomock.Any(), alice).Return("Alice", nil)
	messenger.EXPECT().DisplayName(gomock.Any(), bob).Return("", nil)
	messenger.EXPECT().DisplayName(gomock.Any(), carol).Return("", errors.New("chat not found"))

	require.Equal(t, "Alice", d.ResolveDisplayName(ctx, alice))
	require.Equal(t, models.DefaultDisplayName, d.ResolveDisplayName(ctx, bob))
	require.Equal(t, models.DefaultDisplayName, d.ResolveDisplayName(ctx, carol))
}
