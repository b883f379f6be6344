package handlers

import (
	"sync"

	"secretsanta/internal/models"
	"secretsanta/internal/services"
)

type convState int

const (
	stateIdle convState = iota
	stateCreating
	stateAwaitingCode
	stateAwaitingWishes
)

// conversation is what the bot expects next from one user.
type conversation struct {
	state   convState
	session *services.CreateSession
}

// conversations tracks per-user dialogue state.
type conversations struct {
	mu     sync.Mutex
	byUser map[models.UserID]*conversation
}

func newConversations() *conversations {
	return &conversations{byUser: make(map[models.UserID]*conversation)}
}

// with runs fn on the user's conversation under the store lock.
// fn must not block on I/O.
func (c *conversations) with(id models.UserID, fn func(conv *conversation)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.byUser[id]
	if !ok {
		conv = &conversation{}
		c.byUser[id] = conv
	}
	fn(conv)
	if conv.state == stateIdle {
		delete(c.byUser, id)
	}
}

func (c *conversations) set(id models.UserID, state convState) {
	c.with(id, func(conv *conversation) {
		conv.state = state
		conv.session = nil
		if state == stateCreating {
			conv.session = services.NewCreateSession()
		}
	})
}

func (c *conversations) reset(id models.UserID) {
	c.set(id, stateIdle)
}

func (c *conversations) state(id models.UserID) convState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok := c.byUser[id]; ok {
		return conv.state
	}
	return stateIdle
}
