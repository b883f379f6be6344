package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"secretsanta/internal/models"
)

// Step is the field a room creation dialogue is waiting for.
type Step int

const (
	AwaitingName Step = iota
	AwaitingDescription
	AwaitingBudget
	AwaitingDate
	Complete
)

func (s Step) String() string {
	switch s {
	case AwaitingName:
		return "name"
	case AwaitingDescription:
		return "description"
	case AwaitingBudget:
		return "budget"
	case AwaitingDate:
		return "date"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

var draftValidator = validator.New()

// CreateSession collects room metadata one answer at a time.
type CreateSession struct {
	step  Step
	draft models.RoomDraft
}

// NewCreateSession starts a dialogue at AwaitingName.
func NewCreateSession() *CreateSession {
	return &CreateSession{step: AwaitingName}
}

// Step returns the field the session is waiting for.
func (c *CreateSession) Step() Step { return c.step }

// Advance records input for the current step and moves on.
// Blank input keeps the session on the same step and returns ErrEmptyInput.
// When the last field is filled the returned draft is non-nil and validated.
func (c *CreateSession) Advance(input string) (Step, *models.RoomDraft, error) {
	input = strings.TrimSpace(input)
	if c.step == Complete {
		return c.step, nil, fmt.Errorf("%w: session already complete", ErrInvalidInput)
	}
	if input == "" {
		return c.step, nil, ErrEmptyInput
	}

	switch c.step {
	case AwaitingName:
		c.draft.Name = input
	case AwaitingDescription:
		c.draft.Description = input
	case AwaitingBudget:
		c.draft.Budget = input
	case AwaitingDate:
		c.draft.ExchangeDate = input
	}

	// Validate the field just filled so an over-long answer is asked again.
	if err := draftValidator.StructPartial(c.draft, fieldFor(c.step)); err != nil {
		return c.step, nil, fmt.Errorf("%w: %s is too long", ErrInvalidInput, c.step)
	}

	c.step++
	if c.step != Complete {
		return c.step, nil, nil
	}
	if err := draftValidator.Struct(c.draft); err != nil {
		return c.step, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	draft := c.draft
	return c.step, &draft, nil
}

func fieldFor(step Step) string {
	switch step {
	case AwaitingName:
		return "Name"
	case AwaitingDescription:
		return "Description"
	case AwaitingBudget:
		return "Budget"
	default:
		return "ExchangeDate"
	}
}
