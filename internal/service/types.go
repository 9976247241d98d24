// Package service defines the backend-agnostic task model and CRUD contract.
package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the fixed three-level task priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists all priorities from highest to lowest.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority parses a priority name (case-insensitive, trimmed).
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow, "l":
		return PriorityLow, nil
	case PriorityMedium, "med", "m":
		return PriorityMedium, nil
	case PriorityHigh, "h":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("invalid priority: %s", s)
}

// Task is a single task record. A Task is always fully formed.
type Task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Completed bool     `json:"completed"`
	Priority  Priority `json:"priority"`
	Category  string   `json:"category"`
	CreatedAt int64    `json:"createdAt"` // Unix milliseconds
	Subtasks  []string `json:"subtasks,omitempty"`
}

// NewTask builds a fresh, not yet persisted task with a client-generated ID.
func NewTask(title string, priority Priority, category string) Task {
	return Task{
		ID:        NewTaskID(),
		Title:     title,
		Priority:  priority,
		Category:  category,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// NewTaskID returns a collision-resistant opaque task identifier.
func NewTaskID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	if t.Subtasks != nil {
		t.Subtasks = slices.Clone(t.Subtasks)
	}
	return t
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title     *string   `json:"title,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Subtasks  *[]string `json:"subtasks,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil && p.Priority == nil &&
		p.Category == nil && p.Subtasks == nil
}

// Apply returns t with the patch merged in. ID and CreatedAt are never patched.
func (p Patch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Subtasks != nil {
		out.Subtasks = slices.Clone(*p.Subtasks)
	}
	return out
}

// User is the profile associated with a credential.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
