package services

import (
	"context"
	"time"

	"github.com/google/logger"
)

// CleanUpInactiveRooms removes rooms that have seen no activity for longer than ttl.
// Rooms are otherwise kept for the lifetime of the process; this only runs when a
// TTL is configured.
func (s *RoomService) CleanUpInactiveRooms(ctx context.Context, ttl time.Duration) int {
	now := s.now()
	var evicted []string

	s.mu.Lock()
	for code, entry := range s.rooms {
		entry.mu.Lock()
		idle := now.Sub(entry.lastActivity)
		admin := entry.room.AdminID
		if idle > ttl {
			entry.evicted = true
		}
		entry.mu.Unlock()
		if idle <= ttl {
			continue
		}
		delete(s.rooms, code)
		if s.adminIndex[admin] == code {
			delete(s.adminIndex, admin)
		}
		evicted = append(evicted, code)
	}
	s.mu.Unlock()

	for _, code := range evicted {
		if err := s.repo.DeleteRoom(ctx, code); err != nil {
			logger.Errorf("Failed to delete room %s from storage: %v", code, err)
		}
	}
	if len(evicted) > 0 {
		logger.Infof("Evicted %d inactive rooms: %v", len(evicted), evicted)
	}
	return len(evicted)
}

// RunJanitor calls CleanUpInactiveRooms every interval until ctx is done.
func (s *RoomService) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanUpInactiveRooms(ctx, ttl)
		}
	}
}
