package services

import (
	"errors"
	"fmt"
)

// Error categories. Callers branch on these with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrRoomNotFound          = fmt.Errorf("%w: room", ErrNotFound)
	ErrNoPendingRequest      = fmt.Errorf("%w: no pending join request", ErrNotFound)
	ErrNotAdmin              = fmt.Errorf("%w: only the room admin can do this", ErrUnauthorized)
	ErrAlreadyMember         = fmt.Errorf("%w: already a member of the room", ErrConflict)
	ErrAlreadyShuffled       = fmt.Errorf("%w: room is already shuffled", ErrConflict)
	ErrNotEnoughParticipants = fmt.Errorf("%w: need at least 2 participants", ErrConflict)
	ErrDuplicateParticipant  = fmt.Errorf("%w: duplicate participant", ErrInvalidInput)
	ErrEmptyInput            = fmt.Errorf("%w: empty input", ErrInvalidInput)
)
