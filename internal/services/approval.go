package services

import (
	"context"

	"github.com/google/logger"

	"secretsanta/internal/models"
)

// checkDecision validates an admin decision on a pending request.
// Must be called with entry.mu held.
func checkDecision(entry *roomEntry, adminID, candidateID models.UserID) error {
	if entry.room.AdminID != adminID {
		return ErrNotAdmin
	}
	if entry.room.IsMember(candidateID) {
		return ErrAlreadyMember
	}
	if _, ok := entry.pending[candidateID]; !ok {
		return ErrNoPendingRequest
	}
	return nil
}

// Accept moves a pending candidate into the room's participants.
//
// The candidate's display name is looked up best-effort before the room is locked,
// so a slow or failing lookup never holds the room or aborts the acceptance.
// Notifying the candidate happens in the background and cannot fail the call.
func (s *RoomService) Accept(ctx context.Context, code string, adminID, candidateID models.UserID) (models.Room, error) {
	entry, err := s.lockEntry(code)
	if err != nil {
		return models.Room{}, err
	}
	err = checkDecision(entry, adminID, candidateID)
	entry.mu.Unlock()
	if err != nil {
		return models.Room{}, err
	}

	name := s.dispatcher.ResolveDisplayName(ctx, candidateID)

	entry.mu.Lock()
	// Re-check: another decision or an eviction may have landed while the name was resolving.
	if entry.evicted {
		entry.mu.Unlock()
		return models.Room{}, ErrRoomNotFound
	}
	if err := checkDecision(entry, adminID, candidateID); err != nil {
		entry.mu.Unlock()
		return models.Room{}, err
	}
	if entry.room.Shuffled {
		entry.mu.Unlock()
		return models.Room{}, ErrAlreadyShuffled
	}
	delete(entry.pending, candidateID)
	entry.room.Participants = append(entry.room.Participants, candidateID)
	entry.room.DisplayNames[candidateID] = name
	entry.lastActivity = s.now()
	stored := entry.stored()
	s.persist(ctx, stored)
	entry.mu.Unlock()

	logger.Infof("User %d accepted into room %s (%d participants)", candidateID, stored.Room.Code, len(stored.Room.Participants))

	s.dispatcher.NotifyCandidateOfDecision(ctx, candidateID, true, stored.Room.Name)
	return stored.Room, nil
}

// Reject drops a pending request. The candidate may request again later.
func (s *RoomService) Reject(ctx context.Context, code string, adminID, candidateID models.UserID) (models.Room, error) {
	entry, err := s.lockEntry(code)
	if err != nil {
		return models.Room{}, err
	}
	if err := checkDecision(entry, adminID, candidateID); err != nil {
		entry.mu.Unlock()
		return models.Room{}, err
	}
	delete(entry.pending, candidateID)
	entry.lastActivity = s.now()
	stored := entry.stored()
	s.persist(ctx, stored)
	entry.mu.Unlock()

	logger.Infof("User %d rejected from room %s", candidateID, stored.Room.Code)

	s.dispatcher.NotifyCandidateOfDecision(ctx, candidateID, false, stored.Room.Name)
	return stored.Room, nil
}
