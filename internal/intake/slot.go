package intake

import (
	"fmt"
	"strings"

	"github.com/rotor-modal/client/internal/analysis"
	"github.com/rotor-modal/client/internal/models"
)

// Role identifies one of the two intake slots.
type Role string

const (
	RoleDisplacement Role = "displacement"
	RolePosition     Role = "position"
)

// Roles lists the slots in display order.
var Roles = []Role{RoleDisplacement, RolePosition}

// ParseRole accepts a role name, its short extension alias or its
// multipart field name.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "displacement", "dat", analysis.FieldDisplacement:
		return RoleDisplacement, nil
	case "position", "inp", analysis.FieldPosition:
		return RolePosition, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Field returns the multipart field the slot is submitted under.
func (r Role) Field() string {
	if r == RolePosition {
		return analysis.FieldPosition
	}
	return analysis.FieldDisplacement
}

// Accept returns the advisory file extension for the picker. It is a hint
// only; other files are accepted.
func (r Role) Accept() string {
	if r == RolePosition {
		return ".inp"
	}
	return ".dat"
}

// Label returns the display label.
func (r Role) Label() string {
	if r == RolePosition {
		return "INP File (Positions)"
	}
	return "DAT File (Displacements)"
}

// Slot holds at most one selected file and the drag-over state.
type Slot struct {
	role       Role
	file       *models.FileInfo
	dragActive bool
}

// NewSlot creates an empty slot.
func NewSlot(role Role) *Slot {
	return &Slot{role: role}
}

// Role returns the slot role.
func (s *Slot) Role() Role { return s.role }

// File returns the current selection, or nil.
func (s *Slot) File() *models.FileInfo { return s.file }

// Empty reports whether no file is selected.
func (s *Slot) Empty() bool { return s.file == nil }

// DragActive reports whether a drag is hovering the slot.
func (s *Slot) DragActive() bool { return s.dragActive }

// Select replaces the selection unconditionally and returns the file it
// replaced. Selecting nil clears the slot, as an emptied picker does.
func (s *Slot) Select(file *models.FileInfo) *models.FileInfo {
	replaced := s.file
	s.file = file
	if replaced == file {
		return nil
	}
	return replaced
}

// SetDragActive only changes presentation state.
func (s *Slot) SetDragActive(active bool) {
	s.dragActive = active
}

// Drop takes the first dropped file as the selection and clears the drag
// state. An empty drop changes nothing.
func (s *Slot) Drop(files []*models.FileInfo) (replaced *models.FileInfo, changed bool) {
	if len(files) == 0 || files[0] == nil {
		return nil, false
	}
	s.dragActive = false
	return s.Select(files[0]), true
}

// Clear empties the slot and returns the removed file.
func (s *Slot) Clear() *models.FileInfo {
	return s.Select(nil)
}

// SlotView is the serialisable state of a slot.
type SlotView struct {
	Role       Role             `json:"role"`
	Field      string           `json:"field"`
	Label      string           `json:"label"`
	Accept     string           `json:"accept"`
	File       *models.FileInfo `json:"file,omitempty"`
	DragActive bool             `json:"dragActive"`
}

// View returns a copy of the slot state.
func (s *Slot) View() SlotView {
	v := SlotView{
		Role:       s.role,
		Field:      s.role.Field(),
		Label:      s.role.Label(),
		Accept:     s.role.Accept(),
		DragActive: s.dragActive,
	}
	if s.file != nil {
		f := *s.file
		v.File = &f
	}
	return v
}
