// Package prompts manages the instructions sent with each model call.
// Every stage ships built-in instructions and an immutable output spec;
// a stored override, once activated, replaces the instructions for its stage.
package prompts

import (
	"strings"

	"github.com/google/uuid"
)

// Prompt is a named instruction override for a stage.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// Command is the writable part of a Prompt, used for create and update.
// Saving never changes whether a prompt is active.
type Command struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

func (c *Command) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Instructions = strings.TrimSpace(c.Instructions)
	if c.Name == "" || c.Instructions == "" {
		return ErrEmptyField
	}
	if c.Description != nil && strings.TrimSpace(*c.Description) == "" {
		c.Description = nil
	}
	_, err := ParseStage(string(c.Stage))
	return err
}
