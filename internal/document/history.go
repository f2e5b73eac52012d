package document

import (
	"github.com/KaelanRichards/artemisia/internal/log"
)

// Command is a reversible unit of document mutation. The contract: undo
// after execute restores exactly the prior observable state, and a failing
// Execute leaves no partial mutation. That contract binds implementors; the
// history does not enforce it.
type Command interface {
	Execute() error
	Undo() error
	Name() string
}

// DefaultMaxSteps bounds the history when no explicit limit is given.
const DefaultMaxSteps = 100

// History is a bounded, reversible command stack. Entries before the current
// index are applied; entries at or after it are redoable. The stack never
// holds more than maxSteps commands: once exceeded, the oldest entry is
// evicted from the front.
type History struct {
	commands []Command
	index    int
	maxSteps int
}

// NewHistory creates a history bounded to maxSteps entries. Limits below 1
// fall back to DefaultMaxSteps.
func NewHistory(maxSteps int) *History {
	if maxSteps < 1 {
		maxSteps = DefaultMaxSteps
	}
	return &History{maxSteps: maxSteps}
}

// Execute runs the command and records it. Any redoable tail is discarded:
// executing after undos abandons the prior redo timeline.
func (h *History) Execute(cmd Command) error {
	if cmd == nil {
		return ErrNilCommand
	}
	if err := cmd.Execute(); err != nil {
		return err
	}

	if h.index < len(h.commands) {
		h.commands = h.commands[:h.index]
	}

	h.commands = append(h.commands, cmd)
	h.index++

	if len(h.commands) > h.maxSteps {
		h.commands = h.commands[1:]
		h.index--
	}

	log.Debug(log.CatHistory, "command executed", "name", cmd.Name(), "depth", h.index)
	return nil
}

// Undo reverts the most recently applied command.
func (h *History) Undo() error {
	if h.index == 0 {
		return ErrNoUndo
	}
	h.index--
	if err := h.commands[h.index].Undo(); err != nil {
		return err
	}
	log.Debug(log.CatHistory, "command undone", "name", h.commands[h.index].Name())
	return nil
}

// Redo re-applies the most recently undone command.
func (h *History) Redo() error {
	if h.index == len(h.commands) {
		return ErrNoRedo
	}
	if err := h.commands[h.index].Execute(); err != nil {
		return err
	}
	h.index++
	log.Debug(log.CatHistory, "command redone", "name", h.commands[h.index-1].Name())
	return nil
}

// CanUndo reports whether an applied command exists.
func (h *History) CanUndo() bool {
	return h.index > 0
}

// CanRedo reports whether a redoable command exists.
func (h *History) CanRedo() bool {
	return h.index < len(h.commands)
}

// Len returns the number of recorded commands.
func (h *History) Len() int {
	return len(h.commands)
}
