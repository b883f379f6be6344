package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/samber/lo"

	"secretsanta/internal/models"
)

// maxCodeAttempts bounds room code generation; a code is never handed out twice.
const maxCodeAttempts = 64

var errCodeSpaceExhausted = errors.New("could not allocate a unique room code")

// roomEntry is one room plus its pending join requests, guarded by its own lock.
// Operations on different rooms never contend on each other's entry.
// Writes to the repository happen under mu, so stored snapshots keep mutation order.
type roomEntry struct {
	mu           sync.Mutex
	room         models.Room
	pending      map[models.UserID]struct{}
	lastActivity time.Time
	evicted      bool // set by the janitor; the entry is no longer in the registry
}

func (e *roomEntry) stored() models.StoredRoom {
	return models.StoredRoom{Room: e.room.Clone(), Pending: lo.Keys(e.pending)}
}

// RoomService is the registry of rooms, keyed by room code.
// The registry lock only guards the table itself; room state is guarded per room.
type RoomService struct {
	mu         sync.RWMutex
	rooms      map[string]*roomEntry
	adminIndex map[models.UserID]string // admin -> most recently created room

	dispatcher *Dispatcher
	repo       RoomRepository
	newCode    func() (string, error)
	now        func() time.Time
}

// NewRoomService creates a RoomService. A nil repo keeps rooms in memory only.
func NewRoomService(dispatcher *Dispatcher, repo RoomRepository) *RoomService {
	if dispatcher == nil {
		panic("Dispatcher cannot be nil for RoomService")
	}
	if repo == nil {
		repo = volatileRepository{}
	}
	return &RoomService{
		rooms:      make(map[string]*roomEntry),
		adminIndex: make(map[models.UserID]string),
		dispatcher: dispatcher,
		repo:       repo,
		newCode:    generateRoomCode,
		now:        time.Now,
	}
}

// generateRoomCode draws a random code over models.RoomCodeAlphabet.
func generateRoomCode() (string, error) {
	alphabet := models.RoomCodeAlphabet
	// Largest multiple of len(alphabet) below 256, so every symbol is equally likely.
	limit := byte(256 - 256%len(alphabet))

	code := make([]byte, 0, models.RoomCodeLength)
	buf := make([]byte, models.RoomCodeLength*2)
	for len(code) < models.RoomCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, alphabet[int(b)%len(alphabet)])
			if len(code) == models.RoomCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

// Restore loads persisted rooms into the registry.
func (s *RoomService) Restore(ctx context.Context) error {
	stored, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, sr := range stored {
		entry := &roomEntry{
			room:         sr.Room,
			pending:      make(map[models.UserID]struct{}, len(sr.Pending)),
			lastActivity: now,
		}
		if entry.room.DisplayNames == nil {
			entry.room.DisplayNames = make(map[models.UserID]string)
		}
		for _, id := range sr.Pending {
			entry.pending[id] = struct{}{}
		}
		s.rooms[sr.Room.Code] = entry

		if code, ok := s.adminIndex[sr.Room.AdminID]; !ok || s.rooms[code].room.CreatedAt.Before(sr.Room.CreatedAt) {
			s.adminIndex[sr.Room.AdminID] = sr.Room.Code
		}
	}
	logger.Infof("Restored %d rooms", len(stored))
	return nil
}

// CreateRoom registers a new room with the admin as its first participant.
func (s *RoomService) CreateRoom(ctx context.Context, adminID models.UserID, adminName string, draft models.RoomDraft) (models.Room, error) {
	s.mu.Lock()
	code, err := s.allocateCode()
	if err != nil {
		s.mu.Unlock()
		logger.Errorf("Failed to allocate room code for admin %d: %v", adminID, err)
		return models.Room{}, err
	}

	if adminName == "" {
		adminName = models.DefaultDisplayName
	}
	now := s.now()
	entry := &roomEntry{
		room: models.Room{
			Code:         code,
			Name:         draft.Name,
			Description:  draft.Description,
			Budget:       draft.Budget,
			ExchangeDate: draft.ExchangeDate,
			AdminID:      adminID,
			Participants: []models.UserID{adminID},
			DisplayNames: map[models.UserID]string{adminID: adminName},
			CreatedAt:    now,
		},
		pending:      make(map[models.UserID]struct{}),
		lastActivity: now,
	}
	s.rooms[code] = entry
	s.adminIndex[adminID] = code
	s.mu.Unlock()

	entry.mu.Lock()
	stored := entry.stored()
	if !entry.evicted {
		s.persist(ctx, stored)
	}
	entry.mu.Unlock()

	logger.Infof("Room %s %q created by %d", code, draft.Name, adminID)
	return stored.Room, nil
}

// allocateCode must be called with s.mu held for writing.
func (s *RoomService) allocateCode() (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		if _, taken := s.rooms[code]; !taken {
			return code, nil
		}
		logger.Warningf("Room code %s already taken, retrying (attempt %d)", code, attempt)
	}
	return "", errCodeSpaceExhausted
}

func (s *RoomService) entry(code string) (*roomEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.rooms[models.NormalizeRoomCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return entry, nil
}

// lockEntry returns the room's entry with its lock held. Evicted entries count as missing.
func (s *RoomService) lockEntry(code string) (*roomEntry, error) {
	entry, err := s.entry(code)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	if entry.evicted {
		entry.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	return entry, nil
}

// persist must be called with the entry's lock held.
func (s *RoomService) persist(ctx context.Context, room models.StoredRoom) {
	if err := s.repo.SaveRoom(ctx, room); err != nil {
		logger.Errorf("Failed to persist room %s: %v", room.Room.Code, err)
	}
}

// GetRoom returns a snapshot of the room.
func (s *RoomService) GetRoom(code string) (models.Room, error) {
	entry, err := s.lockEntry(code)
	if err != nil {
		return models.Room{}, err
	}
	defer entry.mu.Unlock()
	return entry.room.Clone(), nil
}

// LastCreatedRoom returns the code of the room the user most recently created.
func (s *RoomService) LastCreatedRoom(userID models.UserID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.adminIndex[userID]
	return code, ok
}

// RoomCount returns the number of rooms in the registry.
func (s *RoomService) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// RequestJoin files a join request and notifies the admin.
// Repeating a pending request is a no-op and does not notify the admin again.
func (s *RoomService) RequestJoin(ctx context.Context, code string, userID models.UserID, displayName string) (models.Room, error) {
	entry, err := s.lockEntry(code)
	if err != nil {
		return models.Room{}, err
	}

	switch {
	case entry.room.Shuffled:
		entry.mu.Unlock()
		return models.Room{}, ErrAlreadyShuffled
	case entry.room.IsMember(userID):
		entry.mu.Unlock()
		return models.Room{}, ErrAlreadyMember
	}
	_, wasPending := entry.pending[userID]
	entry.pending[userID] = struct{}{}
	entry.lastActivity = s.now()
	stored := entry.stored()
	if !wasPending {
		s.persist(ctx, stored)
	}
	entry.mu.Unlock()

	if wasPending {
		return stored.Room, nil
	}

	if displayName == "" {
		displayName = models.DefaultDisplayName
	}
	logger.Infof("User %d requested to join room %s", userID, stored.Room.Code)
	s.dispatcher.NotifyAdminOfJoinRequest(ctx, stored.Room, userID, displayName)
	return stored.Room, nil
}

// PendingRequests lists the candidates awaiting the admin's decision.
func (s *RoomService) PendingRequests(code string, adminID models.UserID) ([]models.UserID, error) {
	entry, err := s.lockEntry(code)
	if err != nil {
		return nil, err
	}
	defer entry.mu.Unlock()
	if entry.room.AdminID != adminID {
		return nil, ErrNotAdmin
	}
	return lo.Keys(entry.pending), nil
}

// ListRoomsFor yields the rooms the user participates in, with their role.
// Each iteration takes a fresh snapshot of the registry; order is unspecified.
func (s *RoomService) ListRoomsFor(userID models.UserID) iter.Seq[models.RoomSummary] {
	return func(yield func(models.RoomSummary) bool) {
		s.mu.RLock()
		entries := lo.Values(s.rooms)
		s.mu.RUnlock()

		for _, entry := range entries {
			entry.mu.Lock()
			if entry.evicted || !entry.room.IsMember(userID) {
				entry.mu.Unlock()
				continue
			}
			summary := models.RoomSummary{
				Room:     entry.room.Clone(),
				Role:     models.RoleParticipant,
				Shuffled: entry.room.Shuffled,
			}
			entry.mu.Unlock()

			if summary.Room.AdminID == userID {
				summary.Role = models.RoleAdmin
			}
			if !yield(summary) {
				return
			}
		}
	}
}

// Shuffle computes and commits the room's pairing, then dispatches the assignments.
// The pairing is stored before any notification leaves; the returned channel carries
// the delivery report once every participant has been attempted.
func (s *RoomService) Shuffle(ctx context.Context, code string, adminID models.UserID) (models.Room, <-chan models.DeliveryReport, error) {
	entry, err := s.lockEntry(code)
	if err != nil {
		return models.Room{}, nil, err
	}

	switch {
	case entry.room.AdminID != adminID:
		entry.mu.Unlock()
		return models.Room{}, nil, ErrNotAdmin
	case entry.room.Shuffled:
		entry.mu.Unlock()
		return models.Room{}, nil, ErrAlreadyShuffled
	}
	pairs, err := ComputeDerangement(entry.room.Participants)
	if err != nil {
		entry.mu.Unlock()
		return models.Room{}, nil, err
	}
	pairing := pairingMap(pairs)
	if !isDerangementOf(pairing, entry.room.Participants) {
		entry.mu.Unlock()
		return models.Room{}, nil, fmt.Errorf("pairing for room %s is not a derangement", entry.room.Code)
	}
	entry.room.Pairing = pairing
	entry.room.Shuffled = true
	entry.lastActivity = s.now()
	stored := entry.stored()
	s.persist(ctx, stored)
	entry.mu.Unlock()

	logger.Infof("Room %s shuffled with %d participants", stored.Room.Code, len(stored.Room.Participants))

	return stored.Room, s.dispatcher.DispatchPairing(ctx, stored.Room), nil
}
