package models

import (
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority maps free text onto a Priority, reporting false for anything
// outside the known levels.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, true
	}
	return "", false
}

type Reminder struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	DueDate      time.Time `json:"due_date"`
	Priority     Priority  `json:"priority"`
	Completed    bool      `json:"completed"`
	NotifyBefore int       `json:"notify_before,omitempty"` // minutes before DueDate
	Notified     bool      `json:"notified"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotifyAt is the instant the reminder should be delivered.
func (r *Reminder) NotifyAt() time.Time {
	return r.DueDate.Add(-time.Duration(r.NotifyBefore) * time.Minute)
}
