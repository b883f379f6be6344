package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"secretsanta/internal/models"
)

const (
	roomPrefix = "room:"
	wishPrefix = "wish:"
)

// BadgerStore persists rooms and wishes in an embedded BadgerDB.
// Keys are "room:{code}" and "wish:{userID}"; values are JSON.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Open opens (or creates) a BadgerDB at path.
func Open(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return NewBadgerStore(db), nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) put(key string, value any) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// scan calls fn with the key suffix and value of every entry under prefix.
func (s *BadgerStore) scan(prefix string, fn func(suffix string, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(prefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			suffix := strings.TrimPrefix(string(item.Key()), prefix)
			err := item.Value(func(value []byte) error {
				return fn(suffix, value)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveRoom writes the room and its pending requests.
func (s *BadgerStore) SaveRoom(_ context.Context, room models.StoredRoom) error {
	return s.put(roomPrefix+room.Room.Code, room)
}

// DeleteRoom removes a room.
func (s *BadgerStore) DeleteRoom(_ context.Context, code string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(roomPrefix + code))
	})
}

// LoadRooms returns every stored room.
func (s *BadgerStore) LoadRooms(_ context.Context) ([]models.StoredRoom, error) {
	var rooms []models.StoredRoom
	err := s.scan(roomPrefix, func(code string, value []byte) error {
		var room models.StoredRoom
		if err := json.Unmarshal(value, &room); err != nil {
			return fmt.Errorf("decode room %s: %w", code, err)
		}
		rooms = append(rooms, room)
		return nil
	})
	return rooms, err
}

// SaveWishes writes a user's wish text.
func (s *BadgerStore) SaveWishes(_ context.Context, userID models.UserID, text string) error {
	return s.put(wishPrefix+strconv.FormatInt(int64(userID), 10), text)
}

// LoadWishes returns every stored wish profile.
func (s *BadgerStore) LoadWishes(_ context.Context) (map[models.UserID]string, error) {
	wishes := make(map[models.UserID]string)
	err := s.scan(wishPrefix, func(suffix string, value []byte) error {
		id, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			return fmt.Errorf("decode wish key %q: %w", suffix, err)
		}
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return fmt.Errorf("decode wish %d: %w", id, err)
		}
		wishes[models.UserID(id)] = text
		return nil
	})
	return wishes, err
}
